package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psantana5/tunnelsup/pkg/logging"
)

var logrotateCmd = &cobra.Command{
	Use:   "logrotate",
	Short: "Print a logrotate stanza for the stunnel output log",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, _, err := loadRuntime()
		if err != nil {
			return err
		}
		fmt.Print(logging.GenerateLogrotateConfig(rt.Settings.LogDir, rt.Settings.ToolName))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logrotateCmd)
}
