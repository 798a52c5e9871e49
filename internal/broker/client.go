package broker

import (
	"net"
	"strconv"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"
	"github.com/sirupsen/logrus"

	"github.com/Dicklesworthstone/mosqmon/internal/errors"
)

const (
	// eventBuffer absorbs bursts (a fresh subscribe returns every retained
	// $SYS value at once) without stalling paho's delivery goroutine.
	eventBuffer = 1024
	// maxBatch bounds how many events one Pump hands to the loop.
	maxBatch = 256
	// quiesce is how long Disconnect lets in-flight work finish, in ms.
	quiesce = 250

	connectTimeout = 10 * time.Second
	// writeTimeout bounds how long paho waits to hand a packet to a
	// stalled socket.
	writeTimeout = 5 * time.Second
)

var (
	// ErrClosed is returned by Pump once Close has been called.
	ErrClosed = errors.New(errors.ErrTransport, "MQTT client closed", "")
	// ErrNotConnected is returned by Subscribe without a session.
	ErrNotConnected = errors.New(errors.ErrTransport, "Not connected to a broker", "Press 'c' to connect")
)

// Client adapts a paho session to a pumped event stream. paho invokes
// handlers on its own goroutines; every handler funnels into one buffered
// channel, and Pump is the only reader.
type Client struct {
	clientID  string
	log       logrus.FieldLogger
	newClient func(*mqtt.ClientOptions) mqtt.Client

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	session mqtt.Client
	// gen identifies the current session. Handlers of a replaced session
	// carry an older gen and are dropped.
	gen uint64
}

func New(clientID string, log logrus.FieldLogger) *Client {
	return &Client{
		clientID:  clientID,
		log:       log.WithField("component", "broker"),
		newClient: mqtt.NewClient,
		events:    make(chan Event, eventBuffer),
		done:      make(chan struct{}),
	}
}

// Connect starts a new session, replacing any existing one. It returns
// once the attempt is under way; the outcome arrives as a Connected,
// Disconnected or fatal event.
func (c *Client) Connect(host string, port, keepalive int) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	if host == "" {
		return errors.New(errors.ErrTransport, "No broker host to connect to", "Pass --host")
	}

	c.mu.Lock()
	c.gen++
	gen := c.gen
	prev := c.session
	sess := c.newClient(c.options(gen, host, port, keepalive))
	c.session = sess
	c.mu.Unlock()

	if prev != nil {
		go prev.Disconnect(quiesce)
	}

	c.log.WithFields(logrus.Fields{
		"host":      host,
		"port":      port,
		"keepalive": keepalive,
		"client_id": c.clientID,
	}).Info("connecting")

	token := sess.Connect()
	go c.awaitConnect(gen, token)
	return nil
}

func (c *Client) options(gen uint64, host string, port, keepalive int) *mqtt.ClientOptions {
	return mqtt.NewClientOptions().
		AddBroker("tcp://" + net.JoinHostPort(host, strconv.Itoa(port))).
		SetClientID(c.clientID).
		SetKeepAlive(time.Duration(keepalive) * time.Second).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetOrderMatters(true).
		SetConnectTimeout(connectTimeout).
		SetWriteTimeout(writeTimeout).
		SetDefaultPublishHandler(c.onMessage(gen)).
		SetOnConnectHandler(c.onConnect(gen)).
		SetConnectionLostHandler(c.onConnectionLost(gen))
}

func (c *Client) awaitConnect(gen uint64, token mqtt.Token) {
	<-token.Done()
	err := token.Error()
	if err == nil {
		return
	}
	if isFatal(err) {
		c.log.WithError(err).Error("broker refused the session")
		c.emitFrom(gen, Event{
			Kind: KindFatal,
			Err: errors.WrapWithCode(err, errors.ErrTransport,
				"Broker refused the session",
				"Check the client id, credentials and protocol version the broker accepts"),
		})
		return
	}
	c.log.WithError(err).Warn("connect failed")
	c.emitFrom(gen, Disconnected(err))
}

// Disconnect ends the current session, if any. The Disconnected event is
// emitted once paho has finished tearing down.
func (c *Client) Disconnect() {
	c.mu.Lock()
	sess := c.session
	c.session = nil
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	if sess == nil {
		return
	}
	c.log.Info("disconnecting")
	go func() {
		sess.Disconnect(quiesce)
		c.emitFrom(gen, Disconnected(nil))
	}()
}

// Subscribe registers interest in topic on the current session and
// returns without touching the network. paho can block handing the packet
// to a busy socket, so the request and its acknowledgement are handled in
// the background; failures are logged only.
func (c *Client) Subscribe(topic string, qos byte) error {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()
	if sess == nil {
		return ErrNotConnected
	}

	go func() {
		token := sess.Subscribe(topic, qos, nil)
		<-token.Done()
		if err := token.Error(); err != nil {
			c.log.WithError(err).WithField("topic", topic).Warn("subscribe failed")
			return
		}
		c.log.WithField("topic", topic).Debug("subscribed")
	}()
	return nil
}

// Pump waits up to timeout for the first pending event, then drains
// whatever else is already queued without waiting again. A non-nil error
// means the session cannot continue; events before the failure are
// still returned.
func (c *Client) Pump(timeout time.Duration) ([]Event, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var events []Event
	select {
	case ev := <-c.events:
		if ev.Kind == KindFatal {
			return nil, ev.Err
		}
		events = append(events, ev)
	case <-c.done:
		return nil, ErrClosed
	case <-timer.C:
		return nil, nil
	}

	for len(events) < maxBatch {
		select {
		case ev := <-c.events:
			if ev.Kind == KindFatal {
				return events, ev.Err
			}
			events = append(events, ev)
		default:
			return events, nil
		}
	}
	return events, nil
}

// Close tears down the session and makes Pump report ErrClosed.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		sess := c.session
		c.session = nil
		c.gen++
		c.mu.Unlock()
		if sess != nil && sess.IsConnectionOpen() {
			sess.Disconnect(quiesce)
		}
	})
}

func (c *Client) onConnect(gen uint64) mqtt.OnConnectHandler {
	return func(mqtt.Client) {
		c.log.Info("connected")
		c.emitFrom(gen, Connected())
	}
}

func (c *Client) onConnectionLost(gen uint64) mqtt.ConnectionLostHandler {
	return func(_ mqtt.Client, err error) {
		c.log.WithError(err).Warn("connection lost")
		c.emitFrom(gen, Disconnected(err))
	}
}

func (c *Client) onMessage(gen uint64) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		c.emitFrom(gen, Message(msg.Topic(), string(msg.Payload())))
	}
}

// emitFrom queues ev unless gen belongs to a replaced session. It blocks
// while the buffer is full so no update is lost or reordered.
func (c *Client) emitFrom(gen uint64, ev Event) {
	c.mu.Lock()
	current := gen == c.gen
	c.mu.Unlock()
	if !current {
		return
	}
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// isFatal reports connect refusals that retrying with the same settings
// cannot fix.
func isFatal(err error) bool {
	for _, target := range []error{
		packets.ErrorRefusedBadProtocolVersion,
		packets.ErrorRefusedIDRejected,
		packets.ErrorRefusedBadUsernameOrPassword,
		packets.ErrorRefusedNotAuthorised,
		packets.ErrorProtocolViolation,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
