package connmgr

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"r-cli/internal/conn"
	"r-cli/internal/proto"
	"r-cli/internal/response"
)

// DialFunc creates a new connection.
type DialFunc func(ctx context.Context) (*conn.Conn, error)

// ConnManager manages a single lazily-created connection. Concurrent callers
// racing to establish the first connection (or to reconnect after a drop)
// share a single in-flight dial rather than each opening their own socket.
type ConnManager struct {
	dial DialFunc
	sf   singleflight.Group

	mu sync.Mutex
	c  *conn.Conn
	db string
}

// New creates a ConnManager using the provided dial function.
func New(dial DialFunc) *ConnManager {
	return &ConnManager{dial: dial}
}

// NewFromConfig creates a ConnManager that dials addr using the given config.
func NewFromConfig(cfg conn.Config, tlsCfg *tls.Config) *ConnManager {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	return New(func(ctx context.Context) (*conn.Conn, error) {
		return conn.Dial(ctx, addr, cfg, tlsCfg)
	})
}

// Get returns the current connection, creating one lazily on first call.
// Concurrent calls that find no connection established share one dial via
// singleflight instead of racing independent dials.
func (m *ConnManager) Get(ctx context.Context) (*conn.Conn, error) {
	m.mu.Lock()
	if m.c != nil && !m.c.IsClosed() {
		defer m.mu.Unlock()
		return m.c, nil
	}
	m.mu.Unlock()

	v, err, _ := m.sf.Do("dial", func() (interface{}, error) {
		m.mu.Lock()
		if m.c != nil && !m.c.IsClosed() {
			defer m.mu.Unlock()
			return m.c, nil
		}
		m.mu.Unlock()

		c, err := m.dial(ctx)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.c = c
		m.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*conn.Conn), nil
}

// Close closes the managed connection if one exists.
func (m *ConnManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.c == nil {
		return nil
	}
	err := m.c.Close()
	m.c = nil
	return err
}

// Use sets the default database appended as a global opt on subsequent runs.
func (m *ConnManager) Use(db string) {
	m.mu.Lock()
	m.db = db
	m.mu.Unlock()
}

// DefaultDB returns the database set by Use, or "" if none was set.
func (m *ConnManager) DefaultDB() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db
}

// ServerInfo holds information about a connected RethinkDB server.
type ServerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Proxy bool   `json:"proxy"`
}

// Server submits SERVER_INFO (type 5) on the managed connection and returns
// the responding server's id, name and proxy status.
func (m *ConnManager) Server(ctx context.Context) (*ServerInfo, error) {
	c, err := m.Get(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := c.Send(ctx, c.NextToken(), []byte(`[5]`))
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	resp, err := response.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("server: parse response: %w", err)
	}
	if resp.Type != proto.ResponseServerInfo {
		if mapErr := response.MapError(resp); mapErr != nil {
			return nil, mapErr
		}
		return nil, fmt.Errorf("server: unexpected response type %d", resp.Type)
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("server: empty response")
	}
	var info ServerInfo
	if err := json.Unmarshal(resp.Results[0], &info); err != nil {
		return nil, fmt.Errorf("server: parse result: %w", err)
	}
	return &info, nil
}

// NoreplyWait submits NOREPLY_WAIT (type 4, no term) on the managed
// connection and blocks until the server reports WAIT_COMPLETE, ensuring
// every previously issued noreply query has finished executing.
func (m *ConnManager) NoreplyWait(ctx context.Context) error {
	c, err := m.Get(ctx)
	if err != nil {
		return err
	}
	raw, err := c.Send(ctx, c.NextToken(), []byte(`[4]`))
	if err != nil {
		return fmt.Errorf("noreply_wait: %w", err)
	}
	resp, err := response.Parse(raw)
	if err != nil {
		return fmt.Errorf("noreply_wait: parse response: %w", err)
	}
	if resp.Type != proto.ResponseWaitComplete {
		if mapErr := response.MapError(resp); mapErr != nil {
			return mapErr
		}
		return fmt.Errorf("noreply_wait: unexpected response type %d", resp.Type)
	}
	return nil
}

// CloseWait closes the managed connection the way the protocol prescribes:
// if noreplyWait, it first submits NOREPLY_WAIT and awaits completion so no
// in-flight noreply query is abandoned, then proceeds to close regardless of
// whether that wait succeeded.
func (m *ConnManager) CloseWait(ctx context.Context, noreplyWait bool) error {
	if noreplyWait {
		_ = m.NoreplyWait(ctx)
	}
	return m.Close()
}

// Reconnect closes the managed connection (honoring noreplyWait the same way
// CloseWait does) and dials a fresh one using the same DialFunc, returning it.
func (m *ConnManager) Reconnect(ctx context.Context, noreplyWait bool) (*conn.Conn, error) {
	_ = m.CloseWait(ctx, noreplyWait)
	return m.Get(ctx)
}
