package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Dicklesworthstone/mosqmon/internal/errors"
	"github.com/Dicklesworthstone/mosqmon/internal/model"
)

// EnvPrefix namespaces environment overrides, e.g. MOSQMON_HOST.
const EnvPrefix = "MOSQMON"

// Config carries runtime options for mosqmon.
type Config struct {
	Host         string
	Port         int
	Keepalive    int // seconds
	NewMosquitto bool
	ClientID     string
	PollTimeout  time.Duration
	LogFile      string
	Debug        bool
}

func Default() Config {
	return Config{
		Host:         "localhost",
		Port:         1883,
		Keepalive:    60,
		NewMosquitto: false,
		ClientID:     NewClientID(),
		PollTimeout:  50 * time.Millisecond,
		LogFile:      "",
		Debug:        false,
	}
}

// NewClientID returns a short random MQTT client id. MQTT 3.1 brokers
// reject ids longer than 23 bytes.
func NewClientID() string {
	return "mosqmon-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Flags registers the configuration flags on fs.
func Flags(fs *pflag.FlagSet) {
	def := Default()
	fs.String("host", def.Host, "mqtt host to connect to")
	fs.IntP("port", "p", def.Port, "network port to connect to")
	fs.IntP("keepalive", "k", def.Keepalive, "keep alive in seconds for this client")
	fs.BoolP("new-mosquitto", "n", def.NewMosquitto, "monitor new mosquitto (v>=1.0) client topic names")
	fs.String("client-id", "", "mqtt client id (default mosqmon-<random>)")
	fs.Duration("poll", def.PollTimeout, "maximum wait for broker events per loop iteration")
	fs.String("log-file", def.LogFile, "write logs to this file (default: discard)")
	fs.Bool("debug", def.Debug, "enable debug logging, including the mqtt client")
}

// Load merges defaults, an optional config file, MOSQMON_* environment
// variables and flags (highest precedence), then validates the result.
func Load(fs *pflag.FlagSet, path string) (Config, error) {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to bind command-line flags", "")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file "+path,
				"Check the file exists and is valid YAML")
		}
	}

	cfg := Config{
		Host:         strings.TrimSpace(v.GetString("host")),
		Port:         v.GetInt("port"),
		Keepalive:    v.GetInt("keepalive"),
		NewMosquitto: v.GetBool("new-mosquitto"),
		ClientID:     strings.TrimSpace(v.GetString("client-id")),
		PollTimeout:  v.GetDuration("poll"),
		LogFile:      v.GetString("log-file"),
		Debug:        v.GetBool("debug"),
	}
	if cfg.ClientID == "" {
		cfg.ClientID = NewClientID()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges the transport cannot recover from at runtime.
func (c Config) Validate() error {
	if c.Host == "" {
		return errors.New(errors.ErrConfig, "No broker host configured",
			"Pass --host or set MOSQMON_HOST")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Port %d is out of range", c.Port),
			"Use a TCP port between 1 and 65535")
	}
	if c.Keepalive < 0 || c.Keepalive > 65535 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Keepalive %d is out of range", c.Keepalive),
			"Use 0 to disable keepalive or a value up to 65535 seconds")
	}
	if c.PollTimeout <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Poll timeout %s must be positive", c.PollTimeout),
			"Try something like 50ms")
	}
	return nil
}

// Naming selects the client topic names for the configured broker generation.
func (c Config) Naming() model.Naming {
	if c.NewMosquitto {
		return model.NamingCurrent
	}
	return model.NamingLegacy
}

// Address returns host:port, bracketing IPv6 literals.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
