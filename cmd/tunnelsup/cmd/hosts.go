package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/psantana5/tunnelsup/internal/tunnel"
)

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "Show how each configured host maps onto the tunnel",
	Long: `Hosts lists the configured hosts in order together with the directive each
one produces: the accept host supplies the listening port, every non-local
host becomes a connect target.`,
	RunE: runHosts,
}

func init() {
	rootCmd.AddCommand(hostsCmd)
}

// HostRole describes one host's part in the rendered configuration.
type HostRole struct {
	Index   int    `json:"index" yaml:"index"`
	Host    string `json:"host" yaml:"host"`
	Port    int    `json:"port" yaml:"port"`
	Local   bool   `json:"local" yaml:"local"`
	Accept  bool   `json:"accept" yaml:"accept"`
	Connect string `json:"connect,omitempty" yaml:"connect,omitempty"`
}

func hostRoles(s tunnel.Settings) []HostRole {
	roles := make([]HostRole, 0, len(s.Hosts))
	for i, h := range s.Hosts {
		r := HostRole{
			Index:  i,
			Host:   h.Host,
			Port:   h.Port,
			Local:  h.Local,
			Accept: i == s.AcceptIndex,
		}
		if !h.Local {
			r.Connect = fmt.Sprintf("%s:%d", h.Host, s.ConnectPort)
		}
		roles = append(roles, r)
	}
	return roles
}

func runHosts(cmd *cobra.Command, args []string) error {
	rt, _, err := loadRuntime()
	if err != nil {
		return err
	}
	return writeHosts(os.Stdout, hostRoles(rt.Settings), outputFormat)
}

func writeHosts(w io.Writer, roles []HostRole, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(roles)

	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(roles)

	default:
		if len(roles) == 0 {
			fmt.Fprintln(w, "No hosts configured")
			return nil
		}

		table := tablewriter.NewWriter(w)
		table.Header("#", "Host", "Port", "Local", "Accept", "Connect")
		for _, r := range roles {
			table.Append(
				strconv.Itoa(r.Index),
				r.Host,
				strconv.Itoa(r.Port),
				boolToYesNo(r.Local),
				boolToYesNo(r.Accept),
				r.Connect,
			)
		}
		return table.Render()
	}
}

func boolToYesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
