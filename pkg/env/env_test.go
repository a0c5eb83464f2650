package env

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/rtt.go/pkg/rtt"
)

func envOf(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestBuiltin(t *testing.T) {
	c := Builtin()
	cfg, err := c.ChannelConfig()
	require.NoError(t, err)
	require.Equal(t, rtt.DefaultConfig(), cfg)
	require.NotEmpty(t, c.ArenaPath)

	q, err := c.NewQueue()
	require.NoError(t, err)
	require.Nil(t, q)
}

func TestLoad(t *testing.T) {
	c := Builtin()
	require.NoError(t, c.Load(envOf(map[string]string{
		EnvChannelName:  "trace",
		EnvBufferSize:   "4096",
		EnvMode:         "block",
		EnvArena:        "/dev/shm/rtt",
		EnvMQTTURL:      "mqtt://localhost:1883/rtt",
		EnvPollInterval: "5ms",
		EnvWSAddr:       ":8080",
	})))
	require.Equal(t, Config{
		ChannelName:   "trace",
		BufferSize:    4096,
		Mode:          "block",
		ArenaPath:     "/dev/shm/rtt",
		MQTTBrokerURL: "mqtt://localhost:1883/rtt",
		PollInterval:  5 * time.Millisecond,
		WebSocketAddr: ":8080",
	}, c)

	cfg, err := c.ChannelConfig()
	require.NoError(t, err)
	require.Equal(t, rtt.Config{Name: "trace", BufferSize: 4096, Mode: rtt.ModeBlockIfFull}, cfg)

	q, err := c.NewQueue()
	require.NoError(t, err)
	require.Equal(t, "rtt/", q.TopicPrefix)
}

func TestLoadErrors(t *testing.T) {
	c := Builtin()
	require.Error(t, c.Load(envOf(map[string]string{EnvBufferSize: "big"})))
	require.Error(t, c.Load(envOf(map[string]string{EnvPollInterval: "soon"})))

	c = Builtin()
	c.BufferSize = 0
	_, err := c.ChannelConfig()
	require.Equal(t, rtt.ErrInvalidSize, err)

	c = Builtin()
	c.Mode = "fast"
	_, err = c.ChannelConfig()
	require.EqualError(t, err, `unknown channel mode: "fast"`)
}

func TestFlags(t *testing.T) {
	c := Builtin()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"-name", "log", "-size", "64", "-interval", "1s"}))
	require.Equal(t, "log", c.ChannelName)
	require.Equal(t, 64, c.BufferSize)
	require.Equal(t, time.Second, c.PollInterval)
}

func TestMachineID(t *testing.T) {
	require.NotEmpty(t, MachineID())
}
