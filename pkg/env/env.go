// Package env provides the common configuration of the rtt tools, taken
// from environment variables and command line flags.
package env

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/robotalks/rtt.go/pkg/comm/mqtt"
	"github.com/robotalks/rtt.go/pkg/probe"
	"github.com/robotalks/rtt.go/pkg/rtt"
)

// Config provides common options of the device and host tools.
type Config struct {
	// ChannelName labels the up-channel.
	ChannelName string
	// BufferSize is the ring capacity.
	BufferSize int
	// Mode is the initial mode name, see rtt.ParseMode.
	Mode string
	// ArenaPath is the file backing the shared memory region.
	ArenaPath string
	// MQTTBrokerURL enables the MQTT bridge when set,
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// PollInterval is how often the host polls an empty channel.
	PollInterval time.Duration
	// WebSocketAddr enables the WebSocket listener when set, e.g. :8080
	WebSocketAddr string
}

// Environment variables read by Load.
const (
	EnvChannelName  = "RTT_CHANNEL_NAME"
	EnvBufferSize   = "RTT_BUFFER_SIZE"
	EnvMode         = "RTT_MODE"
	EnvArena        = "RTT_ARENA"
	EnvMQTTURL      = "RTT_MQTT_URL"
	EnvPollInterval = "RTT_POLL_INTERVAL"
	EnvWSAddr       = "RTT_WS_ADDR"
)

var (
	defaultConfig = Builtin()
	defaultErr    error
)

func init() {
	defaultErr = defaultConfig.Load(os.Getenv)
}

// Builtin returns the configuration used when nothing is set.
func Builtin() Config {
	return Config{
		ChannelName:  rtt.DefaultName,
		BufferSize:   rtt.DefaultBufferSize,
		Mode:         rtt.DefaultMode.String(),
		ArenaPath:    filepath.Join(os.TempDir(), "rtt.arena"),
		PollInterval: probe.DefaultInterval,
	}
}

// Load overrides fields from the environment. getenv is normally os.Getenv.
func (c *Config) Load(getenv func(string) string) error {
	if val := getenv(EnvChannelName); val != "" {
		c.ChannelName = val
	}
	if val := getenv(EnvBufferSize); val != "" {
		size, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s: %v", EnvBufferSize, err)
		}
		c.BufferSize = size
	}
	if val := getenv(EnvMode); val != "" {
		c.Mode = val
	}
	if val := getenv(EnvArena); val != "" {
		c.ArenaPath = val
	}
	if val := getenv(EnvMQTTURL); val != "" {
		c.MQTTBrokerURL = val
	}
	if val := getenv(EnvPollInterval); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid %s: %v", EnvPollInterval, err)
		}
		c.PollInterval = d
	}
	if val := getenv(EnvWSAddr); val != "" {
		c.WebSocketAddr = val
	}
	return nil
}

// SetupFlags sets up command line flags on the default config.
func SetupFlags() {
	defaultConfig.AddFlags(flag.CommandLine)
}

// AddFlags registers flags for c on fs.
func (c *Config) AddFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.ChannelName, "name", c.ChannelName, "Up-channel name")
	fs.IntVar(&c.BufferSize, "size", c.BufferSize, "Up-channel buffer size in bytes")
	fs.StringVar(&c.Mode, "mode", c.Mode, "Initial channel mode: skip, trim or block")
	fs.StringVar(&c.ArenaPath, "arena", c.ArenaPath, "File backing the shared region")
	fs.StringVar(&c.MQTTBrokerURL, "mqtt", c.MQTTBrokerURL, "MQTT broker URL")
	fs.DurationVar(&c.PollInterval, "interval", c.PollInterval, "Host polling interval")
	fs.StringVar(&c.WebSocketAddr, "ws", c.WebSocketAddr, "WebSocket listen address")
}

// Default gets the default config. It returns the error of loading the
// environment, if any.
func Default() (*Config, error) {
	return &defaultConfig, defaultErr
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// ChannelConfig returns the validated channel configuration.
func (c *Config) ChannelConfig() (rtt.Config, error) {
	mode, err := rtt.ParseMode(c.Mode)
	if err != nil {
		return rtt.Config{}, fmt.Errorf("%v: %q", err, c.Mode)
	}
	cfg := rtt.Config{
		Name:       c.ChannelName,
		BufferSize: c.BufferSize,
		Mode:       mode,
	}
	if err := cfg.Validate(); err != nil {
		return rtt.Config{}, err
	}
	return cfg, nil
}

// NewQueue creates the MQTT queue, or nil when no broker is configured.
// The client id defaults to one derived from the machine id.
func (c *Config) NewQueue() (*mqtt.Queue, error) {
	if c.MQTTBrokerURL == "" {
		return nil, nil
	}
	opts, prefix, err := mqtt.ClientOptionsFromURL(c.MQTTBrokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid MQTT broker URL: %v", err)
	}
	if opts.ClientID == "" {
		opts.SetClientID("rtt:" + MachineID() + ":" + strconv.Itoa(os.Getpid()))
	}
	return mqtt.NewQueue(opts, prefix), nil
}
