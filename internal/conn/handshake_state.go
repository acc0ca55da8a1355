package conn

import (
	"fmt"
	"io"

	"github.com/Masterminds/semver/v3"

	"r-cli/internal/scram"
)

// State is a handshake's position in the V1_0 state machine.
type State int

const (
	// StateInitial is the state before step 1/3 (magic + client-first-message) are sent.
	StateInitial State = iota
	// StateWaitFirstResponse awaits the server's step 2 (server info) and step 4
	// (server-first-message) responses.
	StateWaitFirstResponse
	// StateWaitFinalResponse awaits the server's step 6 (server-final-message)
	// after the client-final-message (step 5) has been sent.
	StateWaitFinalResponse
	// StateDone is the terminal state once SCRAM verification succeeds.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateWaitFirstResponse:
		return "wait_first_response"
	case StateWaitFinalResponse:
		return "wait_final_response"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// InvalidHandshakeStateError is returned when a handshake step is invoked
// out of order, most commonly a second attempt to drive a Handshaker that
// has already reached StateDone.
type InvalidHandshakeStateError struct {
	State State
}

func (e *InvalidHandshakeStateError) Error() string {
	return fmt.Sprintf("reql: invalid handshake state: %s", e.State)
}

func (e *InvalidHandshakeStateError) isReqlError()       {}
func (e *InvalidHandshakeStateError) isReqlDriverError() {}

// Handshaker drives the RethinkDB V1_0 handshake as an explicit state
// machine instead of a single linear call, so a caller can observe
// (or be prevented from repeating) individual steps.
type Handshaker struct {
	rw    io.ReadWriter
	conv  *scram.Conversation
	state State

	clientFinal   string
	serverVersion *semver.Version // nil if the server's version string doesn't parse
}

// ServerVersion returns the parsed server_version reported in step 2, or nil
// if it wasn't semver-formatted or the handshake hasn't reached that step yet.
func (h *Handshaker) ServerVersion() *semver.Version {
	return h.serverVersion
}

// protocolV1MinVersion is the first server release known to reliably report
// max_protocol_version; older servers are known to sometimes misreport it as
// a bogus negative value, so step 2 skips validating the field against them.
var protocolV1MinVersion = semver.MustParse("2.3.0")

// trustsMaxProtocolVersion reports whether a server's reported
// max_protocol_version should be trusted enough to validate. v is nil when
// the server's version string didn't parse as semver, in which case the
// field is trusted by default since there's no version to distrust it on.
func trustsMaxProtocolVersion(v *semver.Version) bool {
	return v == nil || !v.LessThan(protocolV1MinVersion)
}

// TrustsMaxProtocolVersion reports whether the server's reported
// max_protocol_version should be trusted for capability negotiation, per the
// server_version parsed during step 2.
func (h *Handshaker) TrustsMaxProtocolVersion() bool {
	return trustsMaxProtocolVersion(h.serverVersion)
}

// NewHandshaker returns a Handshaker in StateInitial for the given credentials.
func NewHandshaker(rw io.ReadWriter, user, password string) *Handshaker {
	return &Handshaker{
		rw:    rw,
		conv:  scram.NewConversation(user, password),
		state: StateInitial,
	}
}

// State returns the handshake's current state.
func (h *Handshaker) State() State {
	return h.state
}

// Start writes the pipelined step 1 (magic) and step 3 (client-first-message),
// advancing StateInitial -> StateWaitFirstResponse.
func (h *Handshaker) Start() error {
	if h.state != StateInitial {
		return &InvalidHandshakeStateError{State: h.state}
	}
	if err := writePipelined(h.rw, h.conv.ClientFirst()); err != nil {
		return err
	}
	h.state = StateWaitFirstResponse
	return nil
}

// ReadFirstResponse reads step 2 (server info) and step 4
// (server-first-message), verifies the server's SCRAM nonce/salt/iteration
// count, and advances StateWaitFirstResponse -> StateWaitFinalResponse.
func (h *Handshaker) ReadFirstResponse() error {
	if h.state != StateWaitFirstResponse {
		return &InvalidHandshakeStateError{State: h.state}
	}
	serverFirstMsg, serverVersion, err := exchangeInitial(h.rw)
	if err != nil {
		return err
	}
	if v, verErr := semver.NewVersion(serverVersion); verErr == nil {
		h.serverVersion = v
	}
	clientFinal, err := h.conv.ServerFirst(serverFirstMsg)
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	h.clientFinal = clientFinal
	h.state = StateWaitFinalResponse
	return nil
}

// Finish writes step 5 (client-final-message), reads step 6
// (server-final-message), verifies the server signature, and advances
// StateWaitFinalResponse -> StateDone.
func (h *Handshaker) Finish() error {
	if h.state != StateWaitFinalResponse {
		return &InvalidHandshakeStateError{State: h.state}
	}
	serverFinalMsg, err := exchangeFinal(h.rw, h.clientFinal)
	if err != nil {
		return err
	}
	if err := h.conv.ServerFinal(serverFinalMsg); err != nil {
		return &ReqlAuthError{Msg: "server signature verification failed", Err: err}
	}
	h.state = StateDone
	return nil
}

// Run drives the handshake to completion from its current state. Calling
// Run on a Handshaker already in StateDone returns InvalidHandshakeStateError.
func (h *Handshaker) Run() error {
	switch h.state {
	case StateInitial:
		if err := h.Start(); err != nil {
			return err
		}
		fallthrough
	case StateWaitFirstResponse:
		if err := h.ReadFirstResponse(); err != nil {
			return err
		}
		fallthrough
	case StateWaitFinalResponse:
		return h.Finish()
	default:
		return &InvalidHandshakeStateError{State: h.state}
	}
}
