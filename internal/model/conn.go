package model

import "github.com/Dicklesworthstone/mosqmon/internal/errors"

// Subscriber is the part of the transport the connection state needs.
type Subscriber interface {
	Subscribe(topic string, qos byte) error
}

// ConnState is the render-facing view of Conn.
type ConnState struct {
	Connected bool
	LastError string
}

// Conn tracks whether the broker session is up. There is no observable
// "connecting" state; a connect attempt stays Disconnected until the
// transport acknowledges it.
type Conn struct {
	table     Table
	connected bool
	lastErr   error
}

// NewConn starts Disconnected.
func NewConn(table Table) *Conn {
	return &Conn{table: table}
}

// OnConnected marks the session up and subscribes every filter of the
// table once. Subscribe failures are returned joined; they never undo the
// state change.
func (c *Conn) OnConnected(sub Subscriber) error {
	c.connected = true
	c.lastErr = nil

	var errs []error
	for _, topic := range c.table.filters {
		if err := sub.Subscribe(topic, QoS); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OnDisconnected marks the session down. err is nil for a requested disconnect.
func (c *Conn) OnDisconnected(err error) {
	c.connected = false
	c.lastErr = err
}

func (c *Conn) IsConnected() bool { return c.connected }

// State returns a copy suitable for rendering.
func (c *Conn) State() ConnState {
	st := ConnState{Connected: c.connected}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	return st
}
