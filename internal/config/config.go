// Package config loads tunnelsup settings with viper: defaults, then an
// optional config file, then TUNNELSUP_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/psantana5/tunnelsup/internal/tunnel"
)

// EnvPrefix is prepended to every environment override, e.g.
// TUNNELSUP_HA_ENABLED or TUNNELSUP_READINESS_MODE.
const EnvPrefix = "TUNNELSUP"

// Readiness modes.
const (
	ModeDelay    = "delay"
	ModePIDFile  = "pidfile"
	ModeTCP      = "tcp"
	ModePostgres = "postgres"
)

// Readiness selects and tunes the probe used after spawning stunnel.
type Readiness struct {
	Mode     string        `mapstructure:"mode" json:"mode" yaml:"mode"`
	Delay    time.Duration `mapstructure:"delay" json:"delay" yaml:"delay"`
	Timeout  time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
	Interval time.Duration `mapstructure:"interval" json:"interval" yaml:"interval"`
	DSN      string        `mapstructure:"dsn" json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// Log configures the supervisor's own logger.
type Log struct {
	Level string `mapstructure:"level" json:"level" yaml:"level"`
	JSON  bool   `mapstructure:"json" json:"json" yaml:"json"`
	File  string `mapstructure:"file" json:"file,omitempty" yaml:"file,omitempty"`
}

// Tracing configures the OTLP exporter.
type Tracing struct {
	Enabled     bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	Endpoint    string `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint"`
	Insecure    bool   `mapstructure:"insecure" json:"insecure" yaml:"insecure"`
	Environment string `mapstructure:"environment" json:"environment" yaml:"environment"`
}

// Runtime is the fully loaded configuration.
type Runtime struct {
	Settings   tunnel.Settings `json:"settings" yaml:"settings"`
	Binary     string          `json:"binary" yaml:"binary"`
	TempDir    string          `json:"temp_dir,omitempty" yaml:"temp_dir,omitempty"`
	StatusAddr string          `json:"status_addr,omitempty" yaml:"status_addr,omitempty"`
	Readiness  Readiness       `json:"readiness" yaml:"readiness"`
	Log        Log             `json:"log" yaml:"log"`
	Tracing    Tracing         `json:"tracing" yaml:"tracing"`
}

// file mirrors the on-disk key layout.
type file struct {
	HAEnabled   bool          `mapstructure:"ha_enabled"`
	SSLDir      string        `mapstructure:"ssl_dir"`
	LogDir      string        `mapstructure:"log_dir"`
	Debug       int           `mapstructure:"stunnel_debug"`
	ConnectPort int           `mapstructure:"connect_port"`
	AcceptIndex int           `mapstructure:"accept_index"`
	ToolName    string        `mapstructure:"tool_name"`
	Section     string        `mapstructure:"section"`
	Hosts       []tunnel.Host `mapstructure:"hosts"`

	Binary     string    `mapstructure:"binary"`
	TempDir    string    `mapstructure:"temp_dir"`
	StatusAddr string    `mapstructure:"status_addr"`
	Readiness  Readiness `mapstructure:"readiness"`
	Log        Log       `mapstructure:"log"`
	Tracing    Tracing   `mapstructure:"tracing"`
}

// Configure installs defaults and environment binding on v.
func Configure(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("ha_enabled", false)
	v.SetDefault("ssl_dir", "/etc/sipxpbx/ssl")
	v.SetDefault("log_dir", "/var/log/sipxpbx")
	v.SetDefault("stunnel_debug", tunnel.DefaultDebugLevel)
	v.SetDefault("connect_port", tunnel.DefaultConnectPort)
	v.SetDefault("accept_index", tunnel.DefaultAcceptIndex)
	v.SetDefault("tool_name", tunnel.DefaultToolName)
	v.SetDefault("section", tunnel.DefaultSection)
	v.SetDefault("binary", tunnel.DefaultBinary)
	v.SetDefault("temp_dir", "")
	v.SetDefault("status_addr", "")

	v.SetDefault("readiness.mode", ModeDelay)
	v.SetDefault("readiness.delay", tunnel.DefaultStartupDelay)
	v.SetDefault("readiness.timeout", 15*time.Second)
	v.SetDefault("readiness.interval", 250*time.Millisecond)
	v.SetDefault("readiness.dsn", "postgres://postgres@127.0.0.1:%d/SIPXCDR?sslmode=disable&connect_timeout=2")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", "")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.environment", "production")
}

// Load decodes v into a validated Runtime.
func Load(v *viper.Viper) (*Runtime, error) {
	var f file
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	rt := &Runtime{
		Settings: tunnel.Settings{
			HAEnabled:   f.HAEnabled,
			SSLDir:      f.SSLDir,
			LogDir:      f.LogDir,
			DebugLevel:  f.Debug,
			Hosts:       f.Hosts,
			ConnectPort: f.ConnectPort,
			AcceptIndex: f.AcceptIndex,
			ToolName:    f.ToolName,
			Section:     f.Section,
		},
		Binary:     f.Binary,
		TempDir:    f.TempDir,
		StatusAddr: f.StatusAddr,
		Readiness:  f.Readiness,
		Log:        f.Log,
		Tracing:    f.Tracing,
	}

	if err := rt.Validate(); err != nil {
		return nil, err
	}
	return rt, nil
}

// Validate checks the tunnel settings and the readiness section.
func (rt *Runtime) Validate() error {
	if err := rt.Settings.Validate(); err != nil {
		return err
	}
	if rt.Binary == "" {
		return fmt.Errorf("binary is empty")
	}
	if _, err := rt.Readiness.Probe(); err != nil {
		return err
	}
	return nil
}

// Probe builds the readiness probe described by r.
func (r Readiness) Probe() (tunnel.Probe, error) {
	switch strings.ToLower(r.Mode) {
	case "", ModeDelay:
		if r.Delay < 0 {
			return nil, fmt.Errorf("readiness.delay must not be negative")
		}
		return tunnel.FixedDelay(r.Delay), nil
	}

	if r.Timeout <= 0 || r.Interval <= 0 {
		return nil, fmt.Errorf("readiness.timeout and readiness.interval must be positive for mode %q", r.Mode)
	}

	switch strings.ToLower(r.Mode) {
	case ModePIDFile:
		return tunnel.PIDFile(r.Timeout, r.Interval), nil
	case ModeTCP:
		return tunnel.TCPDial(r.Timeout, r.Interval), nil
	case ModePostgres:
		if r.DSN == "" {
			return nil, fmt.Errorf("readiness.dsn is required for mode %q", ModePostgres)
		}
		return tunnel.Postgres(r.DSN, r.Timeout, r.Interval), nil
	default:
		return nil, fmt.Errorf("unknown readiness mode %q", r.Mode)
	}
}
