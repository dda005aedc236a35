package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"carrito-cli/internal/client"
	"carrito-cli/internal/config"
	"carrito-cli/internal/dashboard"
	"carrito-cli/internal/live"
	"carrito-cli/internal/logger"
	"carrito-cli/internal/timefmt"
)

var cfgFile string
var jsonOutput bool

// sessionID identifies this process as client_id on everything it posts.
var sessionID = uuid.NewString()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "carrito-cli",
	Short: "A terminal dashboard for the carrito device API",
	Long: `Send movement commands, watch movements and obstacles live, and build
and launch demo sequences against a carrito backend.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(func() {
		if err := config.InitConfig(cfgFile); err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.carrito-cli.yaml)")
	pf.BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	pf.String("base-url", config.DefaultBaseURL, "REST API base URL")
	pf.String("live-url", "", "Live channel URL; its path is the namespace (default <base-url>/ws)")
	pf.Int64("device", config.DefaultDeviceID, "Device ID")
	pf.String("tz", config.DefaultTimeZone, "IANA time zone for queries and display")
	pf.String("log-level", "warn", "Log level: debug, info, warn, error")
	pf.String("log-format", "console", "Log format: console or json")

	for key, flag := range map[string]string{
		"base_url":   "base-url",
		"live_url":   "live-url",
		"device_id":  "device",
		"tz":         "tz",
		"log.level":  "log-level",
		"log.format": "log-format",
	} {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}
}

// runtime is what every command needs once flags and config are resolved.
type runtime struct {
	cfg    config.Config
	logger *zap.Logger
	api    *client.CarritoClient
	format timefmt.Formatter
}

func loadRuntime() *runtime {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "carrito-cli")
	if err != nil {
		fmt.Printf("Error creating logger: %v\n", err)
		os.Exit(1)
	}
	format, err := timefmt.NewFormatter(cfg.TimeZone)
	if err != nil {
		log.Warn("unknown time zone, using UTC", zap.String("tz", cfg.TimeZone), zap.Error(err))
	}
	return &runtime{
		cfg:    cfg,
		logger: log,
		api:    client.New(client.ClientConfig{BaseURL: cfg.BaseURL, Timeout: cfg.Timeout}, log),
		format: format,
	}
}

func (r *runtime) newLive() *live.Client {
	lc, err := live.New(live.Config{
		URL:        r.cfg.LiveURL,
		EnginePath: r.cfg.LivePath,
		DeviceID:   r.cfg.DeviceID,
	}, r.logger)
	if err != nil {
		fmt.Printf("Error configuring live channel: %v\n", err)
		os.Exit(1)
	}
	return lc
}

func (r *runtime) settings() dashboard.Settings {
	return dashboard.Settings{
		DeviceID:  r.cfg.DeviceID,
		TimeZone:  r.cfg.TimeZone,
		ClientID:  sessionID,
		Formatter: r.format,
	}
}

// signalContext is cancelled on Ctrl-C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
