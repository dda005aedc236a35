package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"carrito-cli/internal/config"
)

var skipCheck bool

// configureCmd represents the configure command
var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Save connection settings to the config file",
	Long: `Checks that the backend answers, then stores the base URL, live URL,
device and time zone so later commands can omit them.

Example:
  carrito-cli configure --base-url http://10.0.0.5:5500 --device 2 --tz America/Mexico_City`,
	Run: func(cmd *cobra.Command, args []string) {
		rt := loadRuntime()
		defer rt.logger.Sync()

		if !skipCheck {
			fmt.Printf("Checking %s for device %d...\n", rt.cfg.BaseURL, rt.cfg.DeviceID)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if _, err := rt.api.GetLastMovement(ctx, rt.cfg.DeviceID, rt.cfg.TimeZone); err != nil {
				fmt.Printf("Error: backend check failed: %v\n", err)
				fmt.Println("Use --skip-check to save anyway.")
				os.Exit(1)
			}
		}

		settings := map[string]any{
			"base_url":  rt.cfg.BaseURL,
			"device_id": rt.cfg.DeviceID,
			"tz":        rt.cfg.TimeZone,
		}
		// only persist an explicit live URL; the default follows base_url
		if viper.GetString("live_url") != "" {
			settings["live_url"] = rt.cfg.LiveURL
		}
		if err := config.SaveSettings(settings); err != nil {
			fmt.Printf("Failed to save configuration file: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Configuration saved. You can now run commands like 'carrito-cli monitor'.\n")
	},
}

func init() {
	rootCmd.AddCommand(configureCmd)
	configureCmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Save without contacting the backend")
}
