package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/psantana5/tunnelsup/internal/tunnel"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Inspect the running stunnel via its pid file",
	Long: `Status reads the pid file stunnel writes under log_dir and looks the process
up in the process table. It works from any shell, independent of the run
command that launched the tunnel.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	rt, _, err := loadRuntime()
	if err != nil {
		return err
	}

	pidFile := rt.Settings.PIDFile()
	pid, err := tunnel.ReadPIDFile(pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("No pid file at %s, tunnel not running\n", pidFile)
			return nil
		}
		return err
	}

	info, err := tunnel.Inspect(pid)
	if err != nil {
		fmt.Printf("Pid file %s names %d, but no such process exists\n", pidFile, pid)
		return nil
	}

	switch outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(info)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")
	table.Append("PID", strconv.Itoa(info.PID))
	table.Append("Name", info.Name)
	table.Append("Command", info.Cmdline)
	table.Append("Status", info.Status)
	table.Append("Running", boolToYesNo(info.Running))
	if !info.StartedAt.IsZero() {
		table.Append("Started", info.StartedAt.Format(time.RFC3339))
		table.Append("Uptime", time.Since(info.StartedAt).Truncate(time.Second).String())
	}
	return table.Render()
}
