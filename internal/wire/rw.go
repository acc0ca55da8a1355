package wire

import (
	"fmt"
	"io"

	"github.com/sagernet/sing/common/buf"
	"github.com/sagernet/sing/common/bufio"

	"r-cli/internal/proto"
)

// ReadResponse reads a RethinkDB wire frame from r: 12-byte header then payload.
func ReadResponse(r io.Reader) (token uint64, payload []byte, err error) {
	var hdr [12]byte
	if _, err = io.ReadFull(r, hdr[:]); err != nil {
		return 0, nil, fmt.Errorf("read header: %w", err)
	}
	token, length := DecodeHeader(hdr)
	if length > proto.MaxFrameSize {
		return 0, nil, fmt.Errorf("payload length %d exceeds max %d", length, proto.MaxFrameSize)
	}
	payload = make([]byte, length) //nolint:gosec // G115: bounded by proto.MaxFrameSize check above
	if _, err = io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("read payload: %w", err)
	}
	return token, payload, nil
}

// WriteQuery writes a RethinkDB query frame to w: a 12-byte header followed
// by payload. When w supports vectorised writes (e.g. a *net.TCPConn), the
// header and payload are written as a single writev, avoiding the
// allocate-and-copy needed to concatenate them into one buffer.
func WriteQuery(w io.Writer, token uint64, payload []byte) error {
	if uint64(len(payload)) > uint64(proto.MaxFrameSize) {
		return fmt.Errorf("write query: payload length %d exceeds max %d", len(payload), proto.MaxFrameSize)
	}
	hdr := EncodeHeader(token, len(payload))

	if vw, ok := bufio.CreateVectorisedWriter(w); ok {
		buffers := []*buf.Buffer{buf.As(hdr[:]), buf.As(payload)}
		if err := vw.WriteVectorised(buffers); err != nil {
			return fmt.Errorf("write query: %w", err)
		}
		return nil
	}

	frame := Encode(token, payload)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write query: %w", err)
	}
	return nil
}
