/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/rotblauer/walkd/params"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "walkd",
	Short: "Walking session GPS and step pipeline",
	Long: `walkd cleans, smooths, and measures walking sessions.

Raw GPS fixes are gated on reported accuracy and on the speed they imply,
smoothed with a constant-velocity Kalman filter, and integrated into a
simplified path and a distance. Smoothed velocity drives a Stationary/Walking
state, which gates the hardware step counter.

Pipeline settings are read, in order of precedence, from flags,
WALKD_* environment variables (eg. WALKD_MAX_ACCURACY=30),
and the config file (default $HOME/.walkd.yaml).
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.walkd.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")

	def := params.DefaultPipelineConfig()
	pf := rootCmd.PersistentFlags()
	pf.Float64("max-accuracy", def.MaxAccuracyMeters, "Reject fixes reporting a horizontal accuracy worse than this (meters)")
	pf.Float64("max-speed", def.MaxSpeedMetersPerSecond, "Reject fixes implying a speed above this since the last accepted fix (m/s)")
	pf.Float64("kalman-q", def.KalmanProcessNoise, "Kalman process noise q (m²/s³)")
	pf.Float64("initial-velocity-variance", def.InitialVelocityVariance, "Kalman initial velocity variance ((m/s)²)")
	pf.Float64("moving-speed", def.MovingSpeedThreshold, "Smoothed speed above which the walker is moving (m/s)")
	pf.Duration("stable-duration", def.StableDuration, "How long speed must stay low before the walker is stationary")
	pf.Float64("simplify-tolerance", def.SimplifyToleranceMeters, "Deviation a point needs to become a path vertex (meters)")

	pf.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		if err := viper.BindPFlag(f.Name, f); err != nil {
			panic(err)
		}
	})
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".walkd")
	}

	viper.SetEnvPrefix("WALKD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Cannot read config file:", err)
		os.Exit(1)
	}
}

// pipelineConfig resolves the effective pipeline config from viper.
func pipelineConfig(v *viper.Viper) (*params.PipelineConfig, error) {
	cfg := params.DefaultPipelineConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", params.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaultSlog(cmd *cobra.Command, args []string) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(viper.GetString("log-format")) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler).With("cmd", cmd.Name()))
}
