package broker

// Kind tags an Event.
type Kind int

const (
	// KindMessage carries one delivered publish.
	KindMessage Kind = iota
	// KindConnected reports an acknowledged session.
	KindConnected
	// KindDisconnected reports a lost, refused or requested-down session.
	KindDisconnected
	// KindFatal reports a session failure that a reconnect cannot fix.
	// Pump converts it into its error return.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindConnected:
		return "connected"
	case KindDisconnected:
		return "disconnected"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Event is one transport notification, in delivery order.
type Event struct {
	Kind    Kind
	Topic   string
	Payload string
	Err     error
}

// Message builds a KindMessage event.
func Message(topic, payload string) Event {
	return Event{Kind: KindMessage, Topic: topic, Payload: payload}
}

// Connected builds a KindConnected event.
func Connected() Event { return Event{Kind: KindConnected} }

// Disconnected builds a KindDisconnected event; err is nil for a requested disconnect.
func Disconnected(err error) Event { return Event{Kind: KindDisconnected, Err: err} }
