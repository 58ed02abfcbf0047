// Package cli contiene los comandos de petctl: sesión (login, logout,
// whoami, profile), registro y el dashboard de vacunas.
package cli

import (
	"context"
	"fmt"
	"io"

	"pet-vaccine-tracker/internal/adapters/gateway/httpapi"
	filestore "pet-vaccine-tracker/internal/adapters/sessionstore/file"
	redisstore "pet-vaccine-tracker/internal/adapters/sessionstore/redis"
	"pet-vaccine-tracker/internal/platform/config"
	"pet-vaccine-tracker/internal/platform/logger"
	"pet-vaccine-tracker/internal/session"

	"github.com/spf13/cobra"
)

// app es lo que comparten los subcomandos; se arma en PersistentPreRunE.
type app struct {
	cfg   config.CLI
	log   logger.Logger
	api   *httpapi.Client
	sess  *session.Cache
	close func() error
}

type rootFlags struct {
	apiURL  string
	verbose bool
}

// NewRootCmd arma el árbol de comandos. Cada llamada es independiente, así
// los tests pueden ejecutar varios comandos sin estado global.
func NewRootCmd() *cobra.Command {
	var (
		flags rootFlags
		a     = &app{}
	)

	root := &cobra.Command{
		Use:   "petctl",
		Short: "Cliente de línea de comandos de Pet Vaccine Tracker",
		Long: `petctl guarda la sesión localmente y la revalida contra el API en cada uso.

Ejemplos:
  petctl register --name Ana --email ana@example.com --password secreto
  petctl login --email ana@example.com --password secreto
  petctl dashboard
  petctl profile --phone "+55 11 99999-0000"
  petctl logout`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context(), flags, cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.close != nil {
				return a.close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flags.apiURL, "api-url", "", "URL del API (default PETCTL_API_URL)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "logs de debug en stderr")

	root.AddCommand(
		newRegisterCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newProfileCmd(a),
		newDashboardCmd(a),
	)
	return root
}

// Execute corre petctl con los argumentos del proceso.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (a *app) init(ctx context.Context, flags rootFlags, stderr io.Writer) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.LoadCLI()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if flags.apiURL != "" {
		cfg.APIURL = flags.apiURL
	}
	a.cfg = cfg

	level := logger.Warn
	if flags.verbose {
		level = logger.Debug
	}
	a.log = logger.New(logger.Options{Level: level, App: "petctl", Out: stderr})

	a.api, err = httpapi.New(cfg.APIURL, cfg.Timeout)
	if err != nil {
		return fmt.Errorf("api client: %w", err)
	}

	var store session.Storage
	if cfg.RedisURL != "" {
		rs, err := redisstore.NewFromURL(ctx, cfg.RedisURL, redisstore.Options{Prefix: "petctl:"})
		if err != nil {
			return err
		}
		store = rs
		a.close = rs.Close
		a.log.Debug("session storage", map[string]any{"backend": "redis"})
	} else {
		fs := filestore.New(cfg.SessionDir)
		store = fs
		a.log.Debug("session storage", map[string]any{"backend": "file", "path": fs.Path()})
	}

	a.sess = session.New(a.api, store, session.Options{
		Timeout: cfg.Timeout,
		Logger:  a.log,
	})
	return nil
}

// requireSession recarga la sesión guardada y exige que siga válida.
func (a *app) requireSession(ctx context.Context) (session.Snapshot, error) {
	snap := a.sess.LoadPersisted(ctx)
	if !snap.Authenticated() {
		return snap, errNotSignedIn
	}
	return snap, nil
}
