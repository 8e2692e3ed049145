package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "tinyfsctl",
	Short: "Create, inspect and populate tinyfs images",
	Long: `tinyfsctl operates on tinyfs images: single host files laid out as a
tiny POSIX-like filesystem (superblock, two bitmaps, an inode table and a
data region). Most subcommands take the image path as their first argument.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose || viper.GetBool("verbose") {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.tinyfsctl.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".tinyfsctl")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("TINYFSCTL")
	viper.AutomaticEnv()
	// A missing config file is not an error: every subcommand works from
	// flags and environment variables alone.
	_ = viper.ReadInConfig()
}
