// Package config reads the TOML configuration shared by the hidstate
// binaries.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"kafji.net/hidstate/keycode"
	"kafji.net/hidstate/logging"
)

var slog = logging.NewLogger("hidstate/config")

const DefaultFilePath = "./hidstate.toml"

type Args struct {
	ConfigFile string
}

func ParseArgs() Args {
	var configFile = flag.String("config-file", DefaultFilePath, "set file path for config file")
	flag.Parse()
	return Args{ConfigFile: *configFile}
}

type GlobalSource string

const (
	GlobalNone   GlobalSource = "none"
	GlobalEvdev  GlobalSource = "evdev"
	GlobalRemote GlobalSource = "remote"
)

type Config struct {
	LogLevel string `toml:"log_level"`
	// TickRate is the number of reconciliation passes per second.
	TickRate uint     `toml:"tick_rate"`
	Window   Window   `toml:"window"`
	Global   Global   `toml:"global"`
	Evdev    Evdev    `toml:"evdev"`
	Remote   Remote   `toml:"remote"`
	Forward  Forward  `toml:"forward"`
	Recorder Recorder `toml:"recorder"`
	Monitor  Monitor  `toml:"monitor"`
}

type Window struct {
	Title  string `toml:"title"`
	Width  int32  `toml:"width"`
	Height int32  `toml:"height"`
}

// Global configures input captured outside any window. Width and height
// give the screen global pointer coordinates are measured against.
type Global struct {
	Source GlobalSource `toml:"source"`
	Width  float32      `toml:"width"`
	Height float32      `toml:"height"`
}

type Evdev struct {
	Dir  string `toml:"dir"`
	Grab bool   `toml:"grab"`
}

type Remote struct {
	ServerAddr        string `toml:"server_addr"`
	TLSCertPath       string `toml:"tls_cert_path"`
	TLSKeyPath        string `toml:"tls_key_path"`
	ServerTLSCertPath string `toml:"server_tls_cert_path"`
}

type Forward struct {
	Port              uint16 `toml:"port"`
	TLSCertPath       string `toml:"tls_cert_path"`
	TLSKeyPath        string `toml:"tls_key_path"`
	ClientTLSCertPath string `toml:"client_tls_cert_path"`
	// ToggleKey, tapped twice, starts and stops relaying.
	ToggleKey string `toml:"toggle_key"`
}

type Recorder struct {
	// Path of the journal. Empty disables recording.
	Path string `toml:"path"`
}

type Monitor struct {
	// Addr the inspector websocket listens on. Empty disables it.
	Addr string `toml:"addr"`
}

func Default() Config {
	return Config{
		LogLevel: "info",
		TickRate: 60,
		Window:   Window{Title: "hidstate", Width: 800, Height: 600},
		Global:   Global{Source: GlobalNone, Width: 1920, Height: 1080},
		Evdev:    Evdev{Dir: "/dev/input"},
		Forward:  Forward{Port: 59001, ToggleKey: keycode.RightCtrl.String()},
	}
}

var ErrInvalidConfig = errors.New("invalid config")

func (c *Config) Validate() error {
	var errs []error
	if c.TickRate == 0 {
		errs = append(errs, errors.New("tick_rate must be positive"))
	}
	switch c.Global.Source {
	case GlobalNone, GlobalEvdev:
	case GlobalRemote:
		if c.Remote.ServerAddr == "" {
			errs = append(errs, errors.New("remote.server_addr is required for remote global source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown global source %q", c.Global.Source))
	}
	if c.Global.Source != GlobalNone && (c.Global.Width <= 0 || c.Global.Height <= 0) {
		errs = append(errs, errors.New("global screen size must be positive"))
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, errors.New("window size must be positive"))
	}
	if _, err := keycode.ParseControl(c.Forward.ToggleKey); err != nil {
		errs = append(errs, fmt.Errorf("forward.toggle_key: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func ReadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return readConfigString(string(file))
}

func readConfigString(s string) (*Config, error) {
	c := Default()
	md, err := toml.Decode(s, &c)
	if err != nil {
		return nil, err
	}
	for _, key := range md.Undecoded() {
		slog.Warn("unknown config key", "key", key.String())
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
