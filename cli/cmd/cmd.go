package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/parites/ratesd/fetchers"
)

var (
	rootCmd = &cobra.Command{
		Use:     "ratesd",
		Short:   "Daily currency parity importer",
		Version: "v1.1.0",
	}
	debug      bool
	configFile string
)

type Config struct {
	Base       string
	APIKey     string
	APIURL     string
	ListenAddr string
}

func loadConfig() (*Config, error) {
	absolutePath, _ := filepath.Abs(configFile)

	viper.SetConfigFile(absolutePath)
	viper.SetEnvPrefix("RATESD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("base", "EUR")
	viper.SetDefault("apilayer.url", fetchers.APILayerURL)
	viper.SetDefault("http.addr", ":8080")

	if err := viper.ReadInConfig(); err != nil {
		// a missing file is fine, the environment can carry everything
		if _, statErr := os.Stat(absolutePath); statErr == nil {
			return nil, fmt.Errorf("error while reading in the config file: %w", err)
		}
	}

	return &Config{
		Base:       strings.ToUpper(strings.TrimSpace(viper.GetString("base"))),
		APIKey:     viper.GetString("apilayer.key"),
		APIURL:     viper.GetString("apilayer.url"),
		ListenAddr: viper.GetString("http.addr"),
	}, nil
}

func Execute() error {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Debug flag")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./config.yml", "Path to config file")

	rootCmd.AddCommand(serve(), importCommand())

	return rootCmd.Execute()
}
