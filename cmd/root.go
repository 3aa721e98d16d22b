package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/vimeokit/account"
	"github.com/s0up4200/vimeokit/auth"
	"github.com/s0up4200/vimeokit/config"
	"github.com/s0up4200/vimeokit/vimeo"
)

var (
	cfgFile    string
	cfg        *config.Config
	logger     zerolog.Logger
	client     *vimeo.Client
	store      *account.FileStore
	controller *auth.Controller

	version   = "dev"
	buildTime = "unknown"
)

// SetVersion records the build metadata shown by the version command.
func SetVersion(v, t string) {
	version = v
	buildTime = t
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vimeokit",
	Short: "A CLI for the Vimeo API client runtime",
	Long: `vimeokit exercises the Vimeo API client library: authenticate with any
of the supported OAuth grants (client credentials, code grant, pin code),
then issue cached, retrying API requests.`,
	PersistentPreRunE: initializeApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp initializes the configuration, clients and the controller
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)

	// Create the API client
	client = vimeo.NewClient(vimeo.AppConfiguration{
		ClientIdentifier: cfg.App.ClientIdentifier,
		ClientSecret:     cfg.App.ClientSecret,
		Scopes:           cfg.App.Scopes,
		RedirectURI:      cfg.App.RedirectURI,
		BaseURL:          cfg.API.BaseURL,
	}, logger)

	// Account storage and authentication controller
	store, err = account.NewFileStore(cfg.Accounts.Dir, logger)
	if err != nil {
		return fmt.Errorf("failed to create account store: %w", err)
	}
	controller = auth.NewController(client, store, logger)

	// Reinstall a previously stored account, if any
	if acct, err := controller.LoadStoredAccount(); err != nil {
		logger.Warn().Err(err).Msg("Failed to load stored account, continuing unauthenticated")
	} else if acct != nil {
		logger.Debug().Bool("user", acct.IsUser()).Msg("Restored stored account")
	}

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// versionCmd prints build information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vimeokit %s (built %s)\n", version, buildTime)
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}
