package cursor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"r-cli/internal/proto"
	"r-cli/internal/response"
)

// Cursor iterates over query results.
type Cursor interface {
	Next() (json.RawMessage, error)
	All() ([]json.RawMessage, error)
	Close() error
}

// ReqlCursorEmpty is returned by Next() once a cursor is exhausted. It is
// io.EOF itself so callers using the idiomatic errors.Is(err, io.EOF) check
// keep working; the name gives the condition a protocol-specific identity
// for callers that prefer to spell it out.
var ReqlCursorEmpty = io.EOF

// atomCursor returns a single value from a SUCCESS_ATOM response.
type atomCursor struct {
	item    json.RawMessage
	hasItem bool
	done    bool
}

// NewAtom creates a cursor from a SUCCESS_ATOM response.
func NewAtom(resp *response.Response) Cursor {
	if len(resp.Results) > 0 {
		return &atomCursor{item: resp.Results[0], hasItem: true}
	}
	return &atomCursor{}
}

func (c *atomCursor) Next() (json.RawMessage, error) {
	if c.done || !c.hasItem {
		return nil, io.EOF
	}
	c.done = true
	return c.item, nil
}

func (c *atomCursor) All() ([]json.RawMessage, error) {
	if c.done || !c.hasItem {
		return nil, nil
	}
	c.done = true
	return []json.RawMessage{c.item}, nil
}

func (c *atomCursor) Close() error { return nil }

// seqCursor iterates over all items in a SUCCESS_SEQUENCE response.
type seqCursor struct {
	items []json.RawMessage
	pos   int
}

// NewSequence creates a cursor from a SUCCESS_SEQUENCE response.
func NewSequence(resp *response.Response) Cursor {
	return &seqCursor{items: resp.Results}
}

func (c *seqCursor) Next() (json.RawMessage, error) {
	if c.pos >= len(c.items) {
		return nil, io.EOF
	}
	item := c.items[c.pos]
	c.pos++
	return item, nil
}

func (c *seqCursor) All() ([]json.RawMessage, error) {
	return c.items, nil
}

func (c *seqCursor) Close() error { return nil }

// streamCursor handles paginated SUCCESS_PARTIAL responses with a
// half-batch prefetch discipline: once the buffered remainder drops to or
// below half of the last batch's size (minimum 1), a CONTINUE is issued
// in the background so the next batch is likely already in flight by the
// time the buffer actually empties. At most one CONTINUE is ever
// outstanding at a time.
type streamCursor struct {
	ch     <-chan *response.Response
	send   func(qt proto.QueryType) error
	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	cond         *sync.Cond
	queue        []json.RawMessage
	lastBatchLen int
	partial      bool // more batches may follow
	done         bool
	err          error
	outstanding  bool // a CONTINUE has been sent and its reply not yet merged

	closeOnce sync.Once
	stopErr   error
}

// NewStream creates a streaming cursor for SUCCESS_PARTIAL responses.
// initial is the first response; ch receives subsequent batches.
// send transmits CONTINUE or STOP queries back to the server.
func NewStream(ctx context.Context, initial *response.Response, ch <-chan *response.Response, send func(proto.QueryType) error) Cursor {
	ctx2, cancel := context.WithCancel(ctx)
	c := &streamCursor{
		ch:           ch,
		send:         send,
		ctx:          ctx2,
		cancel:       cancel,
		queue:        initial.Results,
		lastBatchLen: len(initial.Results),
	}
	c.cond = sync.NewCond(&c.mu)
	switch initial.Type {
	case proto.ResponseSuccessSequence:
		c.done = true
	case proto.ResponseSuccessPartial:
		c.partial = true
	}
	c.mu.Lock()
	c.maybeContinue()
	c.mu.Unlock()
	return c
}

func (c *streamCursor) Next() (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		// Buffered items are always drained before a terminal error
		// surfaces, so a batch fetched ahead of need is never discarded.
		if len(c.queue) > 0 {
			item := c.queue[0]
			c.queue = c.queue[1:]
			c.maybeContinue()
			return item, nil
		}
		if c.err != nil {
			return nil, c.err
		}
		if c.done {
			return nil, io.EOF
		}
		c.maybeContinue()
		c.cond.Wait()
	}
}

// threshold returns the half-batch prefetch threshold (minimum 1).
func (c *streamCursor) threshold() int {
	t := c.lastBatchLen / 2
	if t < 1 {
		t = 1
	}
	return t
}

// maybeContinue issues a CONTINUE in the background if the buffered
// remainder has dropped to or below the prefetch threshold and none is
// already outstanding. Called with mu held.
func (c *streamCursor) maybeContinue() {
	if c.done || c.err != nil || c.outstanding || !c.partial {
		return
	}
	if len(c.queue) > c.threshold() {
		return
	}
	c.outstanding = true
	go c.fetchNext()
}

// fetchNext sends CONTINUE and merges the server's reply into the queue.
// Runs without mu held except while touching shared state.
func (c *streamCursor) fetchNext() {
	sendErr := c.send(proto.QueryContinue)
	var resp *response.Response
	var err error
	if sendErr != nil {
		err = sendErr
	} else {
		resp, err = c.waitForResponse()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.outstanding = false

	if err != nil {
		c.err = err
		c.cond.Broadcast()
		return
	}

	if resp.Type.IsError() {
		// an error response's results hold the message, not rows
		c.err = response.MapError(resp)
		c.cond.Broadcast()
		return
	}

	c.queue = append(c.queue, resp.Results...)
	c.lastBatchLen = len(resp.Results)

	switch {
	case resp.Type == proto.ResponseSuccessSequence:
		c.done = true
		c.partial = false
	case resp.Type == proto.ResponseSuccessPartial:
		c.partial = true
	default:
		c.err = fmt.Errorf("cursor: unexpected response type %d", resp.Type)
	}
	c.maybeContinue()
	c.cond.Broadcast()
}

func (c *streamCursor) waitForResponse() (*response.Response, error) {
	select {
	case resp, ok := <-c.ch:
		if !ok {
			return nil, io.EOF
		}
		return resp, nil
	case <-c.ctx.Done():
		// send STOP exactly once (guards against concurrent Close())
		c.closeOnce.Do(func() {
			c.stopErr = c.send(proto.QueryStop)
		})
		return nil, c.ctx.Err()
	}
}

func (c *streamCursor) All() ([]json.RawMessage, error) {
	var all []json.RawMessage
	for {
		item, err := c.Next()
		if errors.Is(err, io.EOF) {
			return all, nil
		}
		if err != nil {
			return all, err
		}
		all = append(all, item)
	}
}

func (c *streamCursor) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		needStop := !c.done && c.err == nil
		c.mu.Unlock()
		c.cancel()
		if needStop {
			c.stopErr = c.send(proto.QueryStop)
		}
	})
	return c.stopErr
}

// changefeedCursor handles infinite SUCCESS_PARTIAL streams (changefeeds)
// with the same half-batch prefetch discipline as streamCursor. It never
// auto-completes; only Close() or a connection drop terminates it.
type changefeedCursor struct {
	ch     <-chan *response.Response
	send   func(qt proto.QueryType) error
	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	cond         *sync.Cond
	queue        []json.RawMessage
	lastBatchLen int
	err          error
	outstanding  bool

	closeOnce sync.Once
	stopErr   error
}

// NewChangefeed creates a cursor for infinite changefeed streams.
// It always eventually sends CONTINUE and never terminates automatically.
func NewChangefeed(ctx context.Context, initial *response.Response, ch <-chan *response.Response, send func(proto.QueryType) error) Cursor {
	ctx2, cancel := context.WithCancel(ctx)
	c := &changefeedCursor{
		ch:           ch,
		send:         send,
		ctx:          ctx2,
		cancel:       cancel,
		queue:        initial.Results,
		lastBatchLen: len(initial.Results),
	}
	c.cond = sync.NewCond(&c.mu)
	c.mu.Lock()
	c.maybeContinue()
	c.mu.Unlock()
	return c
}

func (c *changefeedCursor) Next() (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		if len(c.queue) > 0 {
			item := c.queue[0]
			c.queue = c.queue[1:]
			c.maybeContinue()
			return item, nil
		}
		if c.err != nil {
			return nil, c.err
		}
		c.maybeContinue()
		c.cond.Wait()
	}
}

// threshold returns the half-batch prefetch threshold (minimum 1).
func (c *changefeedCursor) threshold() int {
	t := c.lastBatchLen / 2
	if t < 1 {
		t = 1
	}
	return t
}

// maybeContinue issues a CONTINUE in the background once the buffered
// remainder has dropped to or below the prefetch threshold, with at most
// one outstanding at a time. Called with mu held.
func (c *changefeedCursor) maybeContinue() {
	if c.err != nil || c.outstanding {
		return
	}
	if len(c.queue) > c.threshold() {
		return
	}
	c.outstanding = true
	go c.fetchNextBatch()
}

func (c *changefeedCursor) fetchNextBatch() {
	fetchErr := c.send(proto.QueryContinue)
	var resp *response.Response
	var err error
	if fetchErr != nil {
		err = fetchErr
	} else {
		resp, err = c.waitForChangefeedResponse()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.outstanding = false

	if err != nil {
		c.err = err
		c.cond.Broadcast()
		return
	}

	if resp.Type.IsError() {
		// an error response's results hold the message, not changes
		c.err = response.MapError(resp)
		c.cond.Broadcast()
		return
	}

	c.queue = append(c.queue, resp.Results...)
	c.lastBatchLen = len(resp.Results)

	if resp.Type != proto.ResponseSuccessPartial {
		c.err = fmt.Errorf("cursor: unexpected response type %d", resp.Type)
	}
	c.maybeContinue()
	c.cond.Broadcast()
}

func (c *changefeedCursor) waitForChangefeedResponse() (*response.Response, error) {
	select {
	case resp, ok := <-c.ch:
		if !ok {
			return nil, fmt.Errorf("cursor: connection closed")
		}
		return resp, nil
	case <-c.ctx.Done():
		c.closeOnce.Do(func() {
			c.stopErr = c.send(proto.QueryStop)
		})
		return nil, c.ctx.Err()
	}
}

func (c *changefeedCursor) All() ([]json.RawMessage, error) {
	return nil, fmt.Errorf("cursor: All() not supported for changefeed; use Next()")
}

func (c *changefeedCursor) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		c.stopErr = c.send(proto.QueryStop)
	})
	return c.stopErr
}
