// Package logging configures the logrus logger shared by mosqmon and the
// paho MQTT client. The dashboard owns the terminal while it runs, so log
// output goes to a file or nowhere.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// New returns a logger writing to path. An empty path discards output.
// The returned closer releases the file and is never nil.
func New(path string, debug bool) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	log.SetLevel(logrus.InfoLevel)
	if debug {
		log.SetLevel(logrus.DebugLevel)
	}

	if strings.TrimSpace(path) == "" {
		log.SetOutput(io.Discard)
		return log, io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return log, f, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// WirePaho routes the paho package loggers into log. DEBUG is only
// attached when debug is set; paho is very chatty at that level.
func WirePaho(log *logrus.Logger, debug bool) {
	entry := log.WithField("component", "paho")
	mqtt.CRITICAL = pahoLogger{entry: entry, level: logrus.ErrorLevel}
	mqtt.ERROR = pahoLogger{entry: entry, level: logrus.ErrorLevel}
	mqtt.WARN = pahoLogger{entry: entry, level: logrus.WarnLevel}
	if debug {
		mqtt.DEBUG = pahoLogger{entry: entry, level: logrus.DebugLevel}
	} else {
		mqtt.DEBUG = mqtt.NOOPLogger{}
	}
}

// pahoLogger satisfies mqtt.Logger at a fixed logrus level.
type pahoLogger struct {
	entry *logrus.Entry
	level logrus.Level
}

func (p pahoLogger) Println(v ...interface{}) {
	p.entry.Log(p.level, strings.TrimRight(fmt.Sprintln(v...), "\n"))
}

func (p pahoLogger) Printf(format string, v ...interface{}) {
	p.entry.Logf(p.level, format, v...)
}
