package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/tunnelsup/internal/config"
	"github.com/psantana5/tunnelsup/pkg/logging"
)

var (
	cfgFile      string
	outputFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tunnelsup",
	Short: "Supervise the stunnel link to remote database peers",
	Long: `tunnelsup renders an stunnel configuration from the HA settings, launches
stunnel against it and stops it again on shutdown. With HA disabled it does
nothing.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/tunnelsup/config.yaml or $HOME/.tunnelsup/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("json-logs", false, "emit JSON log lines")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format for listings: table, json or yaml")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.json", rootCmd.PersistentFlags().Lookup("json-logs"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	config.Configure(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("/etc/tunnelsup")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".tunnelsup"))
		}
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
			os.Exit(1)
		}
	}
}

// loadRuntime decodes the merged configuration and builds the logger it asks for.
func loadRuntime() (*config.Runtime, *logging.Logger, error) {
	rt, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}

	level := logging.ParseLevel(rt.Log.Level)
	if rt.Log.File == "" {
		return rt, logging.NewLogger(level, rt.Log.JSON), nil
	}
	logger, err := logging.NewFileLogger(rt.Log.File, level, rt.Log.JSON)
	if err != nil {
		return nil, nil, err
	}
	return rt, logger, nil
}
