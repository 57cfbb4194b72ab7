package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jtoledo/betriebsportal/internal"
)

var rootCmd = &cobra.Command{
	Use:   "betriebsportal",
	Short: "Betriebsportal",
	Long:  `Internal portal for employee time tracking and inventory booking.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*internal.Config, error) {
	// Local development keeps credentials in a .env file; missing is fine.
	_ = godotenv.Load()

	if os.Getenv("APP_ENV") == "production" || os.Getenv("DOCKER_ENV") == "true" {
		cfg := internal.LoadConfigFromEnv()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("error validating config from environment: %w", err)
		}
		return cfg, nil
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("ENV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// The private key usually arrives via environment, not the config file.
	if cfg.Sheets.ServiceAccountEmail == "" {
		cfg.Sheets.ServiceAccountEmail = os.Getenv("GOOGLE_SERVICE_ACCOUNT_EMAIL")
	}
	if cfg.Sheets.PrivateKey == "" {
		cfg.Sheets.PrivateKey = os.Getenv("GOOGLE_PRIVATE_KEY")
	}
	if cfg.Sheets.TimeTrackingID == "" {
		cfg.Sheets.TimeTrackingID = os.Getenv("TIME_TRACKING_SHEET_ID")
	}
	if cfg.Sheets.InventoryID == "" {
		cfg.Sheets.InventoryID = os.Getenv("INVENTORY_SHEET_ID")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}
	return &cfg, nil
}

func init() {
	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(hashCmd)
}
