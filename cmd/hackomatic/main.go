package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hackomatic/config"
	"hackomatic/internal/adapters/auth"
	"hackomatic/internal/adapters/email"
	"hackomatic/internal/database"
	deliveryhttp "hackomatic/internal/delivery/http"
	"hackomatic/internal/delivery/http/controllers"
	"hackomatic/internal/delivery/http/middleware"
	"hackomatic/internal/repository/postgres"
	"hackomatic/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := config.NewLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := issueToken(cfg, os.Args[2:], os.Stdout); err != nil {
			logger.Error("token issue failed", "err", err)
			os.Exit(2)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}

// issueToken prints a bearer token for the given email, for scripts and local testing.
func issueToken(cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	emailAddr := fs.String("email", "", "Email the token is issued for")
	ttl := fs.Duration("ttl", 24*time.Hour, "Token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if *emailAddr == "" {
		return errors.New("-email is required")
	}
	token, err := auth.NewJWTIssuer(cfg.JWTSecret).Issue(*emailAddr, *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := database.Open(ctx, cfg.DBType, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.CreateSchema(ctx, db, cfg.DBType); err != nil {
		return err
	}
	logger.Info("database schema ready", "type", cfg.DBType)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return err
	}
	emailService := services.NewEmailService(mailer, renderer)

	tx := postgres.NewTransactor(db)
	phaseService := services.NewPhaseService(tx, emailService, logger, cfg.PublicURL, cfg.EmailSuffix, cfg.ContextTimeout)
	teamService := services.NewTeamService(tx, cfg.MaxTeamsPerCreator, cfg.EmailSuffix, cfg.ContextTimeout)
	votingService := services.NewVotingService(tx, cfg.CoinsToSpend, logger, cfg.ContextTimeout)

	identity := middleware.IdentityConfig{
		AdminEmail:         cfg.AdminEmail,
		UnsafeDefaultEmail: cfg.UnsafeDefaultEmail,
	}
	if cfg.JWTSecret != "" {
		identity.Verifier = auth.NewJWTVerifier(cfg.JWTSecret)
	}

	mux := deliveryhttp.NewRouter(deliveryhttp.Controllers{
		Phase:  controllers.NewPhaseController(logger, phaseService, cfg.EmailSuffix),
		Team:   controllers.NewTeamController(logger, teamService),
		Vote:   controllers.NewVoteController(logger, votingService),
		Health: controllers.NewHealthController(logger, db, cfg.ContextTimeout),
	}, middleware.RequireUser(identity, logger))

	var handler http.Handler = deliveryhttp.WithPrefix(cfg.URLPrefix, mux)
	handler = middleware.CORS(cfg.CORSAllowedOrigins, handler)
	handler = middleware.LoggingMiddleware(logger, handler)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "port", cfg.Port, "prefix", cfg.URLPrefix, "env", cfg.Environment)
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

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server closed")
	return nil
}
