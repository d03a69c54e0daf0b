package tunnel

import (
	"fmt"
	"io"
	"strings"
)

const headerTemplate = `# This file was automatically generated by %s
client = yes
foreground = yes
CApath = %s
cert = %s
key = %s
verify = 2
debug = %d
output = %s
pid = %s
fips = no

[%s]
accept = %d
`

// RenderConfig returns the stunnel configuration for s. It performs no I/O
// and returns identical output for identical input.
func RenderConfig(s Settings) (string, error) {
	var b strings.Builder
	if err := render(&b, s, nil); err != nil {
		return "", err
	}
	return b.String(), nil
}

// render writes the header block and then one connect directive per remote
// host. Each chunk is handed to emit, when set, right after it is written.
func render(w io.Writer, s Settings, emit func(string)) error {
	s = s.withDefaults()

	accept, err := s.AcceptHost()
	if err != nil {
		return err
	}

	header := fmt.Sprintf(headerTemplate,
		s.Generator,
		s.CAPath(),
		s.CertFile(),
		s.KeyFile(),
		s.DebugLevel,
		s.LogFile(),
		s.PIDFile(),
		s.Section,
		accept.Port,
	)
	if err := writeChunk(w, header, emit); err != nil {
		return err
	}

	for _, target := range s.ConnectTargets() {
		if err := writeChunk(w, "connect = "+target+"\n", emit); err != nil {
			return err
		}
	}
	return nil
}

func writeChunk(w io.Writer, chunk string, emit func(string)) error {
	if _, err := io.WriteString(w, chunk); err != nil {
		return err
	}
	if emit != nil {
		emit(strings.TrimSuffix(chunk, "\n"))
	}
	return nil
}
