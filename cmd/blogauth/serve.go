package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	ba "github.com/panyam/blogauth"
	"github.com/panyam/blogauth/oauth2"
)

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "ensure indexes before serving")
	return cmd
}

func serve(parent context.Context, migrate bool) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	store, err := openStore(startCtx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close(context.Background())
	if migrate {
		if err := store.migrate(startCtx); err != nil {
			return err
		}
	}

	var verifier ba.ProviderVerifier
	if cfg.GoogleEnabled() {
		httpClient := &http.Client{Timeout: 10 * time.Second}
		verifier, err = oauth2.NewGoogleVerifier(ctx, cfg.GoogleClientID, option.WithHTTPClient(httpClient))
		if err != nil {
			return err
		}
	} else {
		log.Warn("GOOGLE_CLIENT_ID not set, /google-auth will fail")
	}

	service := ba.NewService(store, ba.NewTokenIssuer(cfg.SecretAccessKey, cfg.TokenTTL), verifier)
	service.StepTimeout = cfg.StepTimeout
	service.Logger = log

	session := scs.New()
	session.Lifetime = cfg.SessionLifetime
	session.Cookie.HttpOnly = true
	session.Cookie.SameSite = http.SameSiteLaxMode

	auth := &ba.BlogAuth{
		Service:        service,
		Session:        session,
		AllowedOrigins: cfg.CORSOrigins,
		Logger:         log,
	}
	auth.EnsureDefaults()
	if cfg.RedirectFlowEnabled() {
		google := oauth2.NewGoogleOAuth2(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL, auth.HandleGoogleIDToken)
		google.Logger = log
		auth.AddAuth("/auth/google", google.Handler())
	}

	server := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           auth.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", server.Addr, "backend", cfg.StoreBackend)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return server.Shutdown(shutdownCtx)
}
