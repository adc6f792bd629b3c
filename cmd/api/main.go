package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/devicecontrols/pkg/api"
	"github.com/urmzd/devicecontrols/pkg/app"
	"github.com/urmzd/devicecontrols/pkg/mqtt"

	_ "github.com/urmzd/devicecontrols/docs"
)

// @title           Device Controls API
// @version         1.0
// @description     REST API for listing, streaming and operating device controls

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

const shutdownTimeout = 10 * time.Second

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/devicecontrols/devicecontrols.db)")
	catalogPath := flag.String("catalog", "", "Path to a YAML control catalog (default: profile catalog or built-in)")
	lang := flag.String("lang", "", "Status text language: en or ja (default: $CONTROLS_LANG, profile locale, system locale)")
	mqttPrefix := flag.String("mqtt-prefix", mqtt.DefaultPrefix, "Topic prefix for the MQTT bridge")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Load(ctx, app.Options{
		DBPath:      *dbPath,
		CatalogPath: *catalogPath,
		Lang:        *lang,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start")
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	if broker := a.Config.MQTTBroker(); broker != "" {
		client, err := startBridge(ctx, a, broker, *mqttPrefix)
		if err != nil {
			log.Warn().Err(err).Str("broker", broker).Msg("MQTT bridge unavailable")
		} else {
			defer func() { _ = client.Close() }()
		}
	}

	router := api.NewRouter(a.Service, a.Validator)
	srv := &http.Server{
		Addr:              a.Config.APIAddress(),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", srv.Addr).Msg("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("Server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down...")
	}

	// Long-lived SSE and WebSocket handlers only return once their stream closes.
	a.Service.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

func startBridge(ctx context.Context, a *app.App, broker, prefix string) (*mqtt.Client, error) {
	client, err := mqtt.Connect(mqtt.Config{
		Broker:   broker,
		ClientID: "devicecontrols-" + a.Config.Profile.Name,
	})
	if err != nil {
		return nil, err
	}

	bridge := mqtt.NewBridge(client, a.Service, a.Validator, mqtt.NewTopics(prefix))
	if err := bridge.Start(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	// Retained topics are republished after a broker restart.
	client.OnConnect(func() {
		if err := bridge.PublishCatalog(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Failed to republish catalog")
		}
	})

	return client, nil
}
