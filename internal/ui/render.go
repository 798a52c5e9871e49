package ui

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Dicklesworthstone/mosqmon/internal/config"
	"github.com/Dicklesworthstone/mosqmon/internal/model"
)

// Placeholder stands in for a value that was never received or cannot be
// shown as a number.
const Placeholder = "-"

const (
	cellWidth = 16
	ruleWidth = 79

	// Largest uptime that still fits a time.Duration.
	maxUptimeSeconds = math.MaxInt64 / int64(time.Second)

	// Fixed line positions used by View for styling.
	lineTitle = 0
	lineConn  = 2
)

// Frame is one screen of text lines.
type Frame []string

func (f Frame) String() string { return strings.Join(f, "\n") }

// Static is the render input fixed at startup.
type Static struct {
	Address   string
	Keepalive int
	Table     model.Table
}

// StaticFrom resolves the static render input, including the topic
// naming variant, from cfg.
func StaticFrom(cfg config.Config) Static {
	return Static{
		Address:   cfg.Address(),
		Keepalive: cfg.Keepalive,
		Table:     model.NewTable(cfg.Naming()),
	}
}

// Render builds a frame from the latest broker values. It is pure: the
// same inputs always produce the same lines, and missing or malformed
// values become Placeholder instead of failing the frame.
func Render(snap model.Snapshot, conn model.ConnState, st Static) Frame {
	rule := strings.Repeat("-", ruleWidth)
	count := func(topic string) string { return counter(snap, topic) }

	return Frame{
		"Mosquitto Stats",
		fmt.Sprintf("%s  uptime: %s", text(snap, model.TopicVersion), uptime(snap)),
		connLine(conn, st),
		"",
		row("", "Received", "Sent", "Received/min", "Sent/min"),
		rule,
		row("Bytes",
			megabytes(snap, model.TopicBytesReceived),
			megabytes(snap, model.TopicBytesSent),
			kbps(snap, model.TopicLoadBytesReceived),
			kbps(snap, model.TopicLoadBytesSent)),
		row("Messages",
			count(model.TopicMessagesReceived),
			count(model.TopicMessagesSent),
			count(model.TopicLoadPublishReceived),
			count(model.TopicLoadPublishSent)),
		"",
		"Messages dropped: " + count(model.TopicMessagesDropped),
		"",
		row("", "Stored", "Retained", "In-flight"),
		rule,
		row("Messages",
			count(model.TopicMessagesStored),
			count(model.TopicMessagesRetained),
			count(model.TopicMessagesInflight)),
		"",
		"Subscriptions: " + count(model.TopicSubscriptions),
		"",
		row("", "Connected", "Disconnected (persist)", "Total", "Expired (persist)"),
		rule,
		row("Clients",
			count(st.Table.ClientsConnected()),
			count(st.Table.ClientsDisconnected()),
			count(model.TopicClientsTotal),
			count(model.TopicClientsExpired)),
		"",
		"Clients connected all-time maximum: " + count(model.TopicClientsMaximum),
		"",
		row("", "Sockets", "Connections"),
		rule,
		row("Load/min",
			count(model.TopicLoadSockets),
			count(model.TopicLoadConnectionsMinute)),
		"",
		helpLine(),
	}
}

func connLine(conn model.ConnState, st Static) string {
	state := "No"
	if conn.Connected {
		state = "Yes"
	}
	line := fmt.Sprintf("Connected: %s (%s, %d)", state, st.Address, st.Keepalive)
	if conn.LastError != "" {
		first, _, _ := strings.Cut(strings.TrimSpace(conn.LastError), "\n")
		line += " - " + first
	}
	return line
}

func row(label string, cells ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-9s|  ", label)
	for _, c := range cells {
		fmt.Fprintf(&b, "%-*s ", cellWidth-1, c)
	}
	return strings.TrimRight(b.String(), " ")
}

func text(snap model.Snapshot, topic string) string {
	v, ok := snap.Get(topic)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return Placeholder
	}
	return v
}

// counter groups integer payloads with thousands separators and passes
// anything else through as published.
func counter(snap model.Snapshot, topic string) string {
	v := text(snap, topic)
	if v == Placeholder {
		return v
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return humanize.Comma(n)
	}
	return v
}

func number(snap model.Snapshot, topic string) (float64, bool) {
	v := text(snap, topic)
	if v == Placeholder {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toMegabytes(bytes float64) float64 { return bytes / 1024 / 1024 }

// toKBps rescales a one-minute byte load average to kilobytes per second.
func toKBps(load float64) float64 { return load / 1024 / 60 }

func megabytes(snap model.Snapshot, topic string) string {
	f, ok := number(snap, topic)
	if !ok {
		return Placeholder
	}
	return fmt.Sprintf("%.2f Mb", toMegabytes(f))
}

func kbps(snap model.Snapshot, topic string) string {
	f, ok := number(snap, topic)
	if !ok {
		return Placeholder
	}
	return fmt.Sprintf("%.2f kbps", toKBps(f))
}

// uptime shows "N seconds" payloads as a duration; other forms are shown raw.
func uptime(snap model.Snapshot) string {
	v := text(snap, model.TopicUptime)
	fields := strings.Fields(v)
	if len(fields) == 2 && fields[1] == "seconds" {
		n, err := strconv.ParseInt(fields[0], 10, 64)
		if err == nil && n >= 0 && n <= maxUptimeSeconds {
			return (time.Duration(n) * time.Second).String()
		}
	}
	return v
}
