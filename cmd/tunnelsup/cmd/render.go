package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/psantana5/tunnelsup/internal/tunnel"
)

var renderOut string

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the stunnel configuration that run would use",
	Long: `Render produces the stunnel configuration from the current settings without
launching anything. The output is byte-identical to the temporary file run
writes.

Example:
  tunnelsup render
  tunnelsup render --out /tmp/stunnel.conf`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVar(&renderOut, "out", "", "write to this file (mode 0600) instead of stdout")
}

func runRender(cmd *cobra.Command, args []string) error {
	rt, _, err := loadRuntime()
	if err != nil {
		return err
	}

	text, err := tunnel.RenderConfig(rt.Settings)
	if err != nil {
		return err
	}

	if renderOut == "" {
		fmt.Print(text)
		return nil
	}
	if err := os.WriteFile(renderOut, []byte(text), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", renderOut, err)
	}
	return nil
}
