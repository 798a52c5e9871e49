package model

// QoS is the delivery level requested for every subscription.
const QoS byte = 0

// Totals
const (
	TopicBytesReceived    = "$SYS/broker/bytes/received"
	TopicBytesSent        = "$SYS/broker/bytes/sent"
	TopicMessagesDropped  = "$SYS/broker/messages/dropped"
	TopicMessagesReceived = "$SYS/broker/messages/received"
	TopicMessagesSent     = "$SYS/broker/messages/sent"
)

// One-minute load averages. Connections are published per interval under
// a common prefix, so they are subscribed through a wildcard filter and
// the dashboard reads the 1min topic.
const (
	TopicLoadBytesReceived     = "$SYS/broker/load/bytes/received/1min"
	TopicLoadBytesSent         = "$SYS/broker/load/bytes/sent/1min"
	TopicLoadPublishReceived   = "$SYS/broker/load/publish/received/1min"
	TopicLoadPublishSent       = "$SYS/broker/load/publish/sent/1min"
	TopicLoadSockets           = "$SYS/broker/load/sockets/1min"
	FilterLoadConnections      = "$SYS/broker/load/connections/+"
	TopicLoadConnectionsMinute = "$SYS/broker/load/connections/1min"
)

// Clients. Connected/disconnected depend on Naming.
const (
	TopicClientsActive       = "$SYS/broker/clients/active"
	TopicClientsInactive     = "$SYS/broker/clients/inactive"
	TopicClientsConnected    = "$SYS/broker/clients/connected"
	TopicClientsDisconnected = "$SYS/broker/clients/disconnected"
	TopicClientsExpired      = "$SYS/broker/clients/expired"
	TopicClientsMaximum      = "$SYS/broker/clients/maximum"
	TopicClientsTotal        = "$SYS/broker/clients/total"
)

// Message storage
const (
	TopicMessagesStored   = "$SYS/broker/messages/stored"
	TopicMessagesRetained = "$SYS/broker/retained messages/count"
	TopicSubscriptions    = "$SYS/broker/subscriptions/count"
	TopicMessagesInflight = "$SYS/broker/messages/inflight"
)

// Broker info
const (
	TopicUptime  = "$SYS/broker/uptime"
	TopicVersion = "$SYS/broker/version"
)

// Naming selects which generation of client topic names the broker publishes.
type Naming int

const (
	// NamingLegacy is used by brokers before mosquitto 1.0 (clients/active, clients/inactive).
	NamingLegacy Naming = iota
	// NamingCurrent is used by mosquitto 1.0 and later (clients/connected, clients/disconnected).
	NamingCurrent
)

func (n Naming) String() string {
	switch n {
	case NamingCurrent:
		return "current"
	default:
		return "legacy"
	}
}

// Table is the static subscription set, resolved once at startup.
type Table struct {
	connected    string
	disconnected string
	filters      []string
}

// NewTable builds the subscription table for the given naming variant.
func NewTable(n Naming) Table {
	connected, disconnected := TopicClientsActive, TopicClientsInactive
	if n == NamingCurrent {
		connected, disconnected = TopicClientsConnected, TopicClientsDisconnected
	}
	return Table{
		connected:    connected,
		disconnected: disconnected,
		filters: []string{
			TopicBytesReceived,
			TopicBytesSent,
			TopicMessagesDropped,
			TopicMessagesReceived,
			TopicMessagesRetained,
			TopicMessagesStored,
			TopicMessagesSent,
			TopicLoadBytesReceived,
			TopicLoadBytesSent,
			TopicLoadPublishReceived,
			TopicLoadPublishSent,
			FilterLoadConnections,
			TopicLoadSockets,
			TopicMessagesInflight,
			TopicSubscriptions,
			connected,
			disconnected,
			TopicClientsExpired,
			TopicClientsTotal,
			TopicClientsMaximum,
			TopicUptime,
			TopicVersion,
		},
	}
}

// Filters returns a copy of the subscription filters in subscribe order.
func (t Table) Filters() []string {
	out := make([]string, len(t.filters))
	copy(out, t.filters)
	return out
}

// Len returns the number of subscription filters.
func (t Table) Len() int { return len(t.filters) }

// ClientsConnected is the connected-clients topic for this table's naming.
func (t Table) ClientsConnected() string { return t.connected }

// ClientsDisconnected is the disconnected-clients topic for this table's naming.
func (t Table) ClientsDisconnected() string { return t.disconnected }
