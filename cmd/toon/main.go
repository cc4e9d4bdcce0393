// Package main provides the toon CLI, a thin wrapper over the codec
// library for encoding, decoding, and measuring record sets from the
// command line.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

func init() {
	viper.SetEnvPrefix("TOON")
	viper.AutomaticEnv()

	viper.SetConfigName(".toon")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME")

	// Config file is optional.
	_ = viper.ReadInConfig()

	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
