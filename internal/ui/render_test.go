package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/mosqmon/internal/config"
	"github.com/Dicklesworthstone/mosqmon/internal/model"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.ClientID = "mosqmon-test"
	return cfg
}

func snapshotOf(pairs ...string) model.Snapshot {
	s := model.NewStats()
	for i := 0; i+1 < len(pairs); i += 2 {
		s.Record(pairs[i], pairs[i+1])
	}
	return s.Snapshot()
}

func lineWith(t *testing.T, f Frame, prefix string) string {
	t.Helper()
	for _, l := range f {
		if strings.HasPrefix(l, prefix) {
			return l
		}
	}
	require.Failf(t, "line not found", "no line starting with %q in\n%s", prefix, f)
	return ""
}

func TestRender_FreshStartShowsPlaceholders(t *testing.T) {
	st := StaticFrom(testConfig())
	f := Render(snapshotOf(), model.ConnState{}, st)

	require.Len(t, f, 28)
	assert.Equal(t, "Mosquitto Stats", f[lineTitle])
	assert.Equal(t, "-  uptime: -", f[1])
	assert.Equal(t, "Connected: No (localhost:1883, 60)", f[lineConn])
	assert.Equal(t, "Messages dropped: -", lineWith(t, f, "Messages dropped"))
	assert.Equal(t, "Subscriptions: -", lineWith(t, f, "Subscriptions"))
	assert.Equal(t, "Clients connected all-time maximum: -", lineWith(t, f, "Clients connected"))
	assert.Equal(t, row("Bytes", "-", "-", "-", "-"), lineWith(t, f, "Bytes"))
	assert.Equal(t, "Press 'q' to quit, 'c' to connect, 'd' to disconnect", f[len(f)-1])
}

func TestRender_IsDeterministic(t *testing.T) {
	st := StaticFrom(testConfig())
	snap := snapshotOf(model.TopicVersion, "mosquitto version 1.4.8", model.TopicBytesSent, "42")
	conn := model.ConnState{Connected: true}

	assert.Equal(t, Render(snap, conn, st), Render(snap, conn, st))
}

func TestRender_ConnectionLine(t *testing.T) {
	st := StaticFrom(testConfig())

	f := Render(snapshotOf(), model.ConnState{Connected: true}, st)
	assert.Equal(t, "Connected: Yes (localhost:1883, 60)", f[lineConn])

	f = Render(snapshotOf(), model.ConnState{LastError: "✗ connection refused\n\n  dial tcp\n"}, st)
	assert.Equal(t, "Connected: No (localhost:1883, 60) - ✗ connection refused", f[lineConn])
}

func TestRender_Bytes(t *testing.T) {
	st := StaticFrom(testConfig())
	snap := snapshotOf(
		model.TopicBytesReceived, "1048576",
		model.TopicBytesSent, "2621440",
		model.TopicLoadBytesReceived, "6000",
		model.TopicLoadBytesSent, "61440.0",
	)
	f := Render(snap, model.ConnState{}, st)

	assert.Equal(t, row("Bytes", "1.00 Mb", "2.50 Mb", "0.10 kbps", "1.00 kbps"), lineWith(t, f, "Bytes"))
}

func TestConversions(t *testing.T) {
	assert.InDelta(t, 1.0, toMegabytes(1048576), 1e-9)
	assert.InDelta(t, 0.0977, toKBps(6000), 1e-4)
	assert.InDelta(t, 0.0, toKBps(0), 1e-9)
}

func TestRender_MalformedPayloadsBecomePlaceholders(t *testing.T) {
	st := StaticFrom(testConfig())
	snap := snapshotOf(
		model.TopicBytesReceived, "lots",
		model.TopicBytesSent, "NaN",
		model.TopicLoadBytesReceived, "+Inf",
		model.TopicLoadBytesSent, "   ",
	)
	f := Render(snap, model.ConnState{}, st)

	assert.Equal(t, row("Bytes", "-", "-", "-", "-"), lineWith(t, f, "Bytes"))
}

func TestRender_CountersAreGrouped(t *testing.T) {
	st := StaticFrom(testConfig())
	snap := snapshotOf(
		model.TopicMessagesReceived, "1234567",
		model.TopicMessagesSent, "12",
		model.TopicLoadPublishReceived, "3.52",
		model.TopicMessagesDropped, "1000",
		model.TopicSubscriptions, "n/a",
	)
	f := Render(snap, model.ConnState{}, st)

	assert.Equal(t, row("Messages", "1,234,567", "12", "3.52", "-"), f[7])
	assert.Equal(t, "Messages dropped: 1,000", lineWith(t, f, "Messages dropped"))
	assert.Equal(t, "Subscriptions: n/a", lineWith(t, f, "Subscriptions"))
}

func TestRender_Uptime(t *testing.T) {
	st := StaticFrom(testConfig())

	f := Render(snapshotOf(model.TopicVersion, "mosquitto version 2.0.18", model.TopicUptime, "3725 seconds"), model.ConnState{}, st)
	assert.Equal(t, "mosquitto version 2.0.18  uptime: 1h2m5s", f[1])

	f = Render(snapshotOf(model.TopicUptime, "a while"), model.ConnState{}, st)
	assert.Equal(t, "-  uptime: a while", f[1])
}

func TestRender_UptimeTooLargeForDurationShownRaw(t *testing.T) {
	st := StaticFrom(testConfig())

	f := Render(snapshotOf(model.TopicUptime, "9223372036 seconds"), model.ConnState{}, st)
	assert.Equal(t, "-  uptime: 2562047h47m16s", f[1])

	f = Render(snapshotOf(model.TopicUptime, "9223372037 seconds"), model.ConnState{}, st)
	assert.Equal(t, "-  uptime: 9223372037 seconds", f[1])
}

func TestRender_ClientsHeaderMarksPersistentColumns(t *testing.T) {
	f := Render(snapshotOf(), model.ConnState{}, StaticFrom(testConfig()))

	assert.Equal(t, row("", "Connected", "Disconnected (persist)", "Total", "Expired (persist)"), f[17])
	assert.Contains(t, f[17], "Disconnected (persist)")
	assert.Contains(t, f[17], "Expired (persist)")
}

func TestRender_ClientsFollowNaming(t *testing.T) {
	legacy := testConfig()
	current := testConfig()
	current.NewMosquitto = true

	snap := snapshotOf(
		model.TopicClientsActive, "3",
		model.TopicClientsInactive, "1",
		model.TopicClientsConnected, "30",
		model.TopicClientsDisconnected, "10",
		model.TopicClientsTotal, "40",
		model.TopicClientsExpired, "0",
	)

	f := Render(snap, model.ConnState{}, StaticFrom(legacy))
	assert.Equal(t, row("Clients", "3", "1", "40", "0"), lineWith(t, f, "Clients  "))

	f = Render(snap, model.ConnState{}, StaticFrom(current))
	assert.Equal(t, row("Clients", "30", "10", "40", "0"), lineWith(t, f, "Clients  "))
}

func TestRender_LoadConnectionsReadsOneMinuteTopic(t *testing.T) {
	st := StaticFrom(testConfig())
	snap := snapshotOf(
		model.TopicLoadSockets, "4.5",
		model.TopicLoadConnectionsMinute, "2.25",
		"$SYS/broker/load/connections/5min", "9.0",
	)
	f := Render(snap, model.ConnState{}, st)

	assert.Equal(t, row("Load/min", "4.5", "2.25"), lineWith(t, f, "Load/min"))
}

func TestRow(t *testing.T) {
	assert.Equal(t, "Bytes    |  1"+strings.Repeat(" ", cellWidth-1)+"2", row("Bytes", "1", "2"))
	assert.Equal(t, "         |  Received", row("", "Received"))
}
