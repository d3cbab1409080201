package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gogpu/chromatic"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "chromdraw",
	Short: "Render wavelength-dependent light profiles through a bandpass",
	Long: `chromdraw builds the chromatic expression tree described by a scene file,
integrates it over the scene's bandpass and writes the resulting image.

Flags may also be set in $HOME/.chromdraw.yaml or through CHROMDRAW_*
environment variables (for example CHROMDRAW_CACHE_MULTIPLIER=32).`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.chromdraw.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log integration paths and cache activity")
	rootCmd.PersistentFlags().Int("multiplier-cache", chromatic.DefaultCacheSize, "capacity of the spectral integral cache")
	rootCmd.PersistentFlags().Int("effective-cache", chromatic.DefaultCacheSize, "capacity of the effective profile cache")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("cache.multiplier", rootCmd.PersistentFlags().Lookup("multiplier-cache"))
	_ = viper.BindPFlag("cache.effective", rootCmd.PersistentFlags().Lookup("effective-cache"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Error("failed to find home directory", "error", err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".chromdraw")
	}

	viper.SetEnvPrefix("CHROMDRAW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("using config file", "file", viper.ConfigFileUsed())
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	chromatic.SetLogger(logger)
}
