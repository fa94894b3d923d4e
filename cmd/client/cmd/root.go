// Package cmd holds the chalets-admin commands.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qrchalets/chalets/internal/client/api"
	"github.com/qrchalets/chalets/internal/client/storage"
	"github.com/qrchalets/chalets/internal/client/store"
	"github.com/qrchalets/chalets/internal/logger"
	"github.com/qrchalets/chalets/internal/service"
)

var (
	version   string
	buildDate string
)

var (
	baseURL       string
	caFile        string
	storeLocation string
	logLevel      string

	app *application
)

// application is everything a command needs, built once per invocation.
type application struct {
	log      *zap.Logger
	client   *api.Client
	storage  *storage.SafeStorage
	session  *store.AuthStore
	data     *store.Store
	chalets  *service.ChaletService
	auth     *service.AuthService
	shutdown func()
}

var rootCmd = &cobra.Command{
	Use:   "chalets-admin",
	Short: "Manage QR Chalets chalets and pages",
	Long: `chalets-admin talks to the QR Chalets backend through the proxy and
keeps a local cache of chalets and pages between runs.

Examples:
  chalets-admin login --email admin@example.com
  chalets-admin chalets list
  chalets-admin pages create --chalet 64f1 --title "Wifi"
  chalets-admin qrcode 64f2 -o wifi.pdf`,
	Version:       fmt.Sprintf("%s (built %s)", orNA(version), orNA(buildDate)),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		if app != nil {
			app.shutdown()
		}
		a, err := newApplication(cmd.Context())
		if err != nil {
			return err
		}
		app = a
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			app.shutdown()
			app = nil
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&baseURL, "url", "u", envOr("CHALETS_URL", "http://localhost:8080/api/proxy"), "proxy base URL")
	rootCmd.PersistentFlags().StringVar(&caFile, "ca", "", "path to an extra CA certificate")
	rootCmd.PersistentFlags().StringVarP(&storeLocation, "store", "s", envOr("CHALETS_STORE", defaultStorePath()), "cache location: file path, postgres:// DSN or sqlite://path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")
}

func newApplication(ctx context.Context) (*application, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	l := logger.New()
	if err := l.Init(logLevel); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log := l.Log

	backend, closeStorage, err := openStorage(ctx, storeLocation, log)
	if err != nil {
		return nil, err
	}
	safe := storage.NewSafeStorage(backend, log)

	httpClient, err := api.NewHTTPClient(caFile)
	if err != nil {
		closeStorage()
		return nil, err
	}

	session := store.NewAuthStore(safe, log)
	client := api.New(baseURL, httpClient, session.Token)
	data := store.New(client, safe, log)

	return &application{
		log:     log,
		client:  client,
		storage: safe,
		session: session,
		data:    data,
		chalets: service.NewChaletService(client, data),
		auth:    service.NewAuthService(client, session, data, log),
		shutdown: func() {
			closeStorage()
			_ = log.Sync()
		},
	}, nil
}

// requireSession fails commands that need a logged-in user.
func requireSession() error {
	if !app.session.IsAuthenticated() {
		return fmt.Errorf("not logged in: run %q first", "chalets-admin login")
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
