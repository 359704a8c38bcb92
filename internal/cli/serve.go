package cli

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/listing-desk/internal/auth"
	"github.com/evcraddock/listing-desk/internal/export"
	"github.com/evcraddock/listing-desk/internal/logging"
	"github.com/evcraddock/listing-desk/internal/property"
	"github.com/evcraddock/listing-desk/internal/search"
	"github.com/evcraddock/listing-desk/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int
	var dev bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI",
		Long:  "Start the HTTP server for the admin search, listing editor and public grid.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, port, dev)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (default from config, 8080)")
	cmd.Flags().BoolVar(&dev, "dev", false, "human-readable debug logging")

	return cmd
}

func runServe(cmd *cobra.Command, port int, dev bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Server.Port
	}
	logging.Setup(dev || cfg.Log.Dev)

	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(database)

	nonces, err := auth.NewNonces(cfg.Auth.NonceSecret, cfg.Auth.NonceLifetime)
	if err != nil {
		return err
	}
	if cfg.Auth.NonceSecret == "" {
		slog.Warn("auth.nonce_secret is not set; form nonces will not survive a restart")
	}

	sessions := auth.NewSessionStore(database, isSecure(cfg.Server.BaseURL))
	if n, err := sessions.Cleanup(); err != nil {
		slog.Warn("cleaning up sessions", "error", err)
	} else if n > 0 {
		slog.Info("expired sessions removed", "count", n)
	}

	repo := property.NewRepository(database)
	mode := pagingMode(cfg.Search.ExactPaging)

	srv, err := web.NewServer(web.Deps{
		Properties: repo,
		Search:     search.NewService(repo, mode),
		Exporter:   export.NewExporter(repo),
		Locator:    newGeoClient(cfg),
		Nonces:     nonces,
		Sessions:   sessions,
		APIKeys:    auth.NewAPIKeyStore(database),
		Users:      auth.NewUserStore(database, cfg.Auth.AdminEmail),
		Limiter:    auth.DefaultLoginLimiter(),
	})
	if err != nil {
		return err
	}

	slog.Info("listing desk ready", "base_url", cfg.Server.BaseURL, "paging", mode.String())
	return srv.ListenAndServe(port)
}

func isSecure(baseURL string) bool {
	return strings.HasPrefix(baseURL, "https://")
}
