package ui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/Dicklesworthstone/mosqmon/internal/broker"
	"github.com/Dicklesworthstone/mosqmon/internal/config"
	"github.com/Dicklesworthstone/mosqmon/internal/errors"
	"github.com/Dicklesworthstone/mosqmon/internal/model"
)

// Transport is the broker session the dashboard drives. Every method
// except Pump must return without waiting on the network.
type Transport interface {
	model.Subscriber
	Connect(host string, port, keepalive int) error
	Disconnect()
	Pump(timeout time.Duration) ([]broker.Event, error)
}

// Model is the dashboard event loop. bubbletea serialises every message
// through Update, so stats and connection state are only ever touched
// from one goroutine.
type Model struct {
	cfg       config.Config
	static    Static
	transport Transport
	log       logrus.FieldLogger

	stats *model.Stats
	conn  *model.Conn
	frame Frame

	err      error
	quitting bool
	width    int
	height   int
}

func New(cfg config.Config, transport Transport, log logrus.FieldLogger) *Model {
	static := StaticFrom(cfg)
	m := &Model{
		cfg:       cfg,
		static:    static,
		transport: transport,
		log:       log.WithField("component", "ui"),
		stats:     model.NewStats(),
		conn:      model.NewConn(static.Table),
	}
	m.render()
	return m
}

// Messages
type (
	startMsg struct{}
	pumpMsg  struct {
		events []broker.Event
		err    error
	}
)

// Init connects once with the configured settings and arms the first pump.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return startMsg{} },
		m.pumpCmd(),
	)
}

// pumpCmd waits at most PollTimeout for transport events off the Update
// goroutine. Only one pump is in flight; the next is armed once its
// result has been applied.
func (m *Model) pumpCmd() tea.Cmd {
	transport, timeout := m.transport, m.cfg.PollTimeout
	return func() tea.Msg {
		events, err := transport.Pump(timeout)
		return pumpMsg{events: events, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		if m.quitting {
			return m, nil
		}
		cmd := m.execute(Dispatch(msg))
		m.render()
		return m, cmd
	case startMsg:
		m.execute(CommandConnect)
		m.render()
	case pumpMsg:
		return m, m.handlePump(msg)
	}
	return m, nil
}

func (m *Model) handlePump(msg pumpMsg) tea.Cmd {
	for _, ev := range msg.events {
		m.apply(ev)
	}
	if msg.err != nil {
		m.log.WithError(msg.err).Error("transport failed, stopping")
		m.err = msg.err
		m.quitting = true
		return tea.Quit
	}
	m.render()
	if m.quitting {
		return nil
	}
	return m.pumpCmd()
}

func (m *Model) apply(ev broker.Event) {
	switch ev.Kind {
	case broker.KindMessage:
		m.stats.Record(ev.Topic, ev.Payload)
	case broker.KindConnected:
		if err := m.conn.OnConnected(m.transport); err != nil {
			m.log.WithError(err).Warn("subscribe failed")
		}
	case broker.KindDisconnected:
		m.conn.OnDisconnected(ev.Err)
	}
}

// execute runs a command. Transport calls return immediately; their
// outcome arrives later through the pump.
func (m *Model) execute(c Command) tea.Cmd {
	switch c {
	case CommandQuit:
		m.log.Info("quit requested")
		m.quitting = true
		return tea.Quit
	case CommandConnect:
		if err := m.transport.Connect(m.cfg.Host, m.cfg.Port, m.cfg.Keepalive); err != nil {
			m.log.WithError(err).Warn("connect request failed")
			m.conn.OnDisconnected(err)
		}
	case CommandDisconnect:
		m.transport.Disconnect()
	}
	return nil
}

func (m *Model) render() {
	m.frame = Render(m.stats.Snapshot(), m.conn.State(), m.static)
}

// Frame returns the most recently rendered frame.
func (m *Model) Frame() Frame { return m.frame }

// Err returns the fatal transport error that stopped the loop, if any.
func (m *Model) Err() error { return m.err }

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	lines := make([]string, len(m.frame))
	for i, line := range m.frame {
		switch {
		case i == lineTitle:
			lines[i] = titleStyle.Render(line)
		case i == lineConn && m.conn.IsConnected():
			lines[i] = upStyle.Render(line)
		case i == lineConn:
			lines[i] = downStyle.Render(line)
		case strings.HasPrefix(line, "---"), i == len(m.frame)-1:
			lines[i] = subtleStyle.Render(line)
		default:
			lines[i] = line
		}
	}
	out := cardStyle.Render(strings.Join(lines, "\n"))
	if m.width > 0 {
		out = lipgloss.NewStyle().MaxWidth(m.width).Render(out)
	}
	return out
}

// RunTUI starts the Bubble Tea program and blocks until the dashboard
// exits. Quit and interrupt return nil; a fatal transport error is
// returned as is. opts are applied after the defaults.
func RunTUI(ctx context.Context, cfg config.Config, transport Transport, log logrus.FieldLogger, opts ...tea.ProgramOption) error {
	m := New(cfg, transport, log)
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	prog := tea.NewProgram(m, opts...)
	if _, err := prog.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			log.Info("interrupted")
			return nil
		}
		return errors.WrapWithCode(err, errors.ErrTerminal,
			"Dashboard terminated unexpectedly", "Check the log file for details")
	}
	return m.Err()
}
