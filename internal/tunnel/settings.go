package tunnel

import (
	"fmt"
	"path/filepath"
)

const (
	// DefaultBinary is where distributions install stunnel.
	DefaultBinary = "/usr/sbin/stunnel"

	// DefaultToolName names the tunnel's log and pid files.
	DefaultToolName = "sipxstunnel"

	// DefaultSection is the service section holding the accept/connect directives.
	DefaultSection = "Postgres-1"

	// DefaultGenerator appears in the header comment of every rendered file.
	DefaultGenerator = "sipxcallresolver"

	// DefaultAcceptIndex selects the second configured host. Deployed
	// config files were generated this way, so it stays the default.
	DefaultAcceptIndex = 1

	// DefaultDebugLevel is stunnel's "warning" syslog level.
	DefaultDebugLevel = 4

	// DefaultConnectPort is the port remote peers expose for the tunnel.
	DefaultConnectPort = 9300
)

// Host is one entry of the ordered host list.
type Host struct {
	Host  string `json:"host" yaml:"host" mapstructure:"host"`
	Port  int    `json:"port" yaml:"port" mapstructure:"port"`
	Local bool   `json:"local" yaml:"local" mapstructure:"local"`
}

// Settings is everything the supervisor reads. Callers own it; the
// supervisor never mutates it.
type Settings struct {
	HAEnabled   bool
	SSLDir      string
	LogDir      string
	DebugLevel  int
	Hosts       []Host
	ConnectPort int

	// AcceptIndex picks the host whose port becomes the accept directive.
	AcceptIndex int

	// Empty values fall back to the Default* constants.
	ToolName  string
	Section   string
	Generator string
}

// DefaultSettings returns Settings with every optional field populated.
// HA stays disabled.
func DefaultSettings() Settings {
	return Settings{
		DebugLevel:  DefaultDebugLevel,
		ConnectPort: DefaultConnectPort,
		AcceptIndex: DefaultAcceptIndex,
		ToolName:    DefaultToolName,
		Section:     DefaultSection,
		Generator:   DefaultGenerator,
	}
}

func (s Settings) withDefaults() Settings {
	if s.ToolName == "" {
		s.ToolName = DefaultToolName
	}
	if s.Section == "" {
		s.Section = DefaultSection
	}
	if s.Generator == "" {
		s.Generator = DefaultGenerator
	}
	return s
}

// Validate checks the invariants Start depends on. Settings with HA
// disabled are always valid since nothing is rendered for them.
func (s Settings) Validate() error {
	if !s.HAEnabled {
		return nil
	}
	if s.SSLDir == "" {
		return fmt.Errorf("%w: ssl dir is empty", ErrInvalidSettings)
	}
	if s.LogDir == "" {
		return fmt.Errorf("%w: log dir is empty", ErrInvalidSettings)
	}
	if s.DebugLevel < 0 || s.DebugLevel > 7 {
		return fmt.Errorf("%w: debug level %d outside 0-7", ErrInvalidSettings, s.DebugLevel)
	}
	if !validPort(s.ConnectPort) {
		return fmt.Errorf("%w: connect port %d", ErrInvalidSettings, s.ConnectPort)
	}
	if len(s.Hosts) == 0 {
		return fmt.Errorf("%w: no hosts configured", ErrInvalidSettings)
	}
	for i, h := range s.Hosts {
		if h.Host == "" {
			return fmt.Errorf("%w: host %d has no address", ErrInvalidSettings, i)
		}
		if !validPort(h.Port) {
			return fmt.Errorf("%w: host %s has port %d", ErrInvalidSettings, h.Host, h.Port)
		}
	}
	if _, err := s.AcceptHost(); err != nil {
		return err
	}
	return nil
}

// AcceptHost returns the host whose port is exposed by the accept directive.
func (s Settings) AcceptHost() (Host, error) {
	if s.AcceptIndex < 0 || s.AcceptIndex >= len(s.Hosts) {
		return Host{}, fmt.Errorf("%w: accept index %d out of range for %d hosts",
			ErrInvalidSettings, s.AcceptIndex, len(s.Hosts))
	}
	return s.Hosts[s.AcceptIndex], nil
}

// ConnectTargets lists host:port for every non-local host, in order.
func (s Settings) ConnectTargets() []string {
	var targets []string
	for _, h := range s.Hosts {
		if h.Local {
			continue
		}
		targets = append(targets, fmt.Sprintf("%s:%d", h.Host, s.ConnectPort))
	}
	return targets
}

func (s Settings) CAPath() string   { return filepath.Join(s.SSLDir, "authorities") }
func (s Settings) CertFile() string { return filepath.Join(s.SSLDir, "ssl.crt") }
func (s Settings) KeyFile() string  { return filepath.Join(s.SSLDir, "ssl.key") }

// LogFile is where stunnel writes its own output.
func (s Settings) LogFile() string {
	return filepath.Join(s.LogDir, s.withDefaults().ToolName+".log")
}

// PIDFile is where stunnel records its pid once it is up.
func (s Settings) PIDFile() string {
	return filepath.Join(s.LogDir, s.withDefaults().ToolName+".pid")
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}
