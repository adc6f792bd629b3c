// Package app wires the configuration database, catalog and locale into a
// running controls service. Both binaries start through Load.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/devicecontrols/pkg/controls"
	"github.com/urmzd/devicecontrols/pkg/db"
	"github.com/urmzd/devicecontrols/pkg/device"
	"github.com/urmzd/devicecontrols/pkg/device/schema"
	"github.com/urmzd/devicecontrols/pkg/i18n"
)

// Options come from command-line flags. Empty fields defer to the active profile.
type Options struct {
	DBPath      string
	CatalogPath string
	Lang        string
}

// App is a loaded runtime.
type App struct {
	DB         *db.DB
	Config     *db.Config
	Translator *i18n.Translator
	Service    *controls.Service
	Validator  *schema.Validator
}

// Load opens and prepares the database, then builds the service.
func Load(ctx context.Context, opts Options) (*App, error) {
	database, err := db.Open(opts.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	log.Info().Str("path", database.Path()).Msg("Database opened")

	a, err := load(ctx, database, opts)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	return a, nil
}

func load(ctx context.Context, database *db.DB, opts Options) (*App, error) {
	if err := database.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	needsBootstrap, err := database.NeedsBootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("check bootstrap status: %w", err)
	}
	if needsBootstrap {
		log.Info().Msg("First run detected, bootstrapping database...")
		if err := database.Bootstrap(ctx); err != nil {
			return nil, fmt.Errorf("bootstrap database: %w", err)
		}
	}

	cfg, err := database.ActiveConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	translator := i18n.Detect(cfg.Locale())
	if opts.Lang != "" {
		translator = i18n.New(opts.Lang)
	}

	catalog, source, err := loadCatalog(opts.CatalogPath, cfg.CatalogPath(), translator)
	if err != nil {
		return nil, err
	}

	svc, err := controls.NewService(catalog, translator)
	if err != nil {
		return nil, fmt.Errorf("build service from %s catalog: %w", source, err)
	}

	log.Info().
		Str("profile", cfg.Profile.Name).
		Str("lang", translator.Lang()).
		Str("catalog", source).
		Int("controls", svc.Count()).
		Str("api_address", cfg.APIAddress()).
		Str("mqtt_broker", cfg.MQTTBroker()).
		Msg("Configuration loaded")

	return &App{
		DB:         database,
		Config:     cfg,
		Translator: translator,
		Service:    svc,
		Validator:  schema.NewValidator(),
	}, nil
}

// loadCatalog prefers the flag, then the profile, then the built-in catalog
// localized with translator.
func loadCatalog(flagPath, profilePath string, translator *i18n.Translator) ([]device.Descriptor, string, error) {
	path := flagPath
	if path == "" {
		path = profilePath
	}
	if path == "" {
		return device.LocalizedCatalog(translator), "built-in", nil
	}

	catalog, err := device.LoadCatalog(path)
	if err != nil {
		return nil, path, err
	}
	return catalog, path, nil
}

// Close stops the service and closes the database.
func (a *App) Close() error {
	a.Service.Close()
	return a.DB.Close()
}
