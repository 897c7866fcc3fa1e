package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEmptyConfig(t *testing.T) {
	c, err := readConfigString("")
	assert.NoError(t, err)
	require.Equal(t, Default(), *c)
}

func TestReadLogLevel(t *testing.T) {
	c, err := readConfigString(`log_level = "debug"
tick_rate = 120
`)
	assert.NoError(t, err)
	want := Default()
	want.LogLevel = "debug"
	want.TickRate = 120
	require.Equal(t, want, *c)
}

func TestReadRemoteConfig(t *testing.T) {
	c, err := readConfigString(`[global]
source = "remote"
width = 2560
height = 1440

[remote]
server_addr = "192.168.0.1:59001"
tls_cert_path = "./client_cert.pem"
tls_key_path = "./client_key.pem"
server_tls_cert_path = "./server_cert.pem"
`)
	assert.NoError(t, err)
	require.Equal(t, Global{Source: GlobalRemote, Width: 2560, Height: 1440}, c.Global)
	require.Equal(t, Remote{
		ServerAddr:        "192.168.0.1:59001",
		TLSCertPath:       "./client_cert.pem",
		TLSKeyPath:        "./client_key.pem",
		ServerTLSCertPath: "./server_cert.pem",
	}, c.Remote)
}

func TestReadForwardConfig(t *testing.T) {
	c, err := readConfigString(`[forward]
port = 59002
tls_cert_path = "./server_cert.pem"
tls_key_path = "./server_key.pem"
client_tls_cert_path = "./client_cert.pem"
toggle_key = "ScrollLock"

[evdev]
dir = "/tmp/input"
grab = true
`)
	assert.NoError(t, err)
	require.Equal(t, Forward{
		Port:              59002,
		TLSCertPath:       "./server_cert.pem",
		TLSKeyPath:        "./server_key.pem",
		ClientTLSCertPath: "./client_cert.pem",
		ToggleKey:         "ScrollLock",
	}, c.Forward)
	require.Equal(t, Evdev{Dir: "/tmp/input", Grab: true}, c.Evdev)
}

func TestReadInvalidConfig(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"zero tick rate", "tick_rate = 0\n"},
		{"unknown source", "[global]\nsource = \"bluetooth\"\n"},
		{"remote without addr", "[global]\nsource = \"remote\"\n"},
		{"bad screen", "[global]\nsource = \"evdev\"\nwidth = 0\n"},
		{"bad toggle key", "[forward]\ntoggle_key = \"Hyper\"\n"},
		{"bad window", "[window]\nheight = -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readConfigString(tt.input)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestReadMalformedConfig(t *testing.T) {
	_, err := readConfigString("log_level = \n")
	assert.Error(t, err)
}

func TestReadConfigFile(t *testing.T) {
	_, err := ReadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hidstate.toml")
	require.NoError(t, os.WriteFile(path, []byte("log_level = \"info\"\n"), 0o600))

	w := Watch(t.Context(), path)
	// let the watcher start before changing the file
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("log_level = \"warn\"\n"), 0o600))

	select {
	case cfg, ok := <-w.Configs():
		require.True(t, ok, "watcher stopped: %v", w.Err())
		assert.Equal(t, "warn", cfg.LogLevel)
	case <-time.After(10 * time.Second):
		t.Fatal("no config delivered")
	}
}
