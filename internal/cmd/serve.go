package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/veilware/veil/internal/audit"
	"github.com/veilware/veil/internal/config"
	"github.com/veilware/veil/internal/ner"
	"github.com/veilware/veil/internal/redact"
	"github.com/veilware/veil/internal/server"
)

const shutdownGrace = 10 * time.Second

var serveFlags struct {
	addr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the anonymization HTTP API",
	Long: `Serve starts the HTTP API (detect, anonymize, validate) with the audit
ledger and its retention sweep. Configuration comes from VEIL_ env vars
or the config file; --addr overrides the listen address.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		operator, err := config.Load()
		if err != nil {
			return err
		}
		operator.WarnIfDefaultKeys()
		if err := operator.EnsureDataDir(); err != nil {
			return err
		}

		key, err := operator.AuditKeyBytes()
		if err != nil {
			return err
		}
		store, err := audit.NewStore(operator.AuditDBPath(), key)
		if err != nil {
			return fmt.Errorf("opening audit store: %w", err)
		}
		defer store.Close()

		retention, err := audit.NewRetention(store,
			operator.RetentionSchedule,
			time.Duration(operator.RetentionDays)*24*time.Hour)
		if err != nil {
			return err
		}
		retention.Start()
		defer retention.Stop()

		baseCfg := redact.DefaultConfig()
		baseCfg.HashSalt = operator.HashSalt
		baseCfg.PatternFile = operator.PatternFile
		if operator.FirstNamesFile != "" {
			if baseCfg.FirstNames, err = redact.LoadNameFile(operator.FirstNamesFile); err != nil {
				return err
			}
		}
		if operator.SurnamesFile != "" {
			if baseCfg.Surnames, err = redact.LoadNameFile(operator.SurnamesFile); err != nil {
				return err
			}
		}

		opts := []server.Option{
			server.WithAuditStore(store),
			server.WithRateLimit(operator.RateLimitRPS),
		}
		if operator.NERAPIKey != "" {
			var recognizer *ner.Recognizer
			if operator.NERBaseURL != "" {
				recognizer = ner.NewWithBaseURL(operator.NERAPIKey, operator.NERModel, operator.NERBaseURL)
			} else {
				recognizer = ner.New(operator.NERAPIKey, operator.NERModel)
			}
			opts = append(opts, server.WithExternalRecognizer(recognizer))
		}

		srv, err := server.New(baseCfg, opts...)
		if err != nil {
			return err
		}

		addr := operator.ListenAddr
		if serveFlags.addr != "" {
			addr = serveFlags.addr
		}
		httpSrv := &http.Server{
			Addr:              addr,
			Handler:           srv.Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("addr", addr).Msg("http api listening")
			errCh <- httpSrv.ListenAndServe()
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case sig := <-sigCh:
			log.Info().Str("signal", sig.String()).Msg("shutting down")
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return httpSrv.Shutdown(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", "", "listen address (overrides VEIL_LISTEN_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
