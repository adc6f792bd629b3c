package main

import (
	"context"
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/devicecontrols/pkg/app"
	controlsmcp "github.com/urmzd/devicecontrols/pkg/mcp"
)

func main() {
	// Logging must go to stderr; stdout is the MCP transport
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	dbPath := flag.String("db", "", "Path to database file (default: ~/.config/devicecontrols/devicecontrols.db)")
	catalogPath := flag.String("catalog", "", "Path to a YAML control catalog (default: profile catalog or built-in)")
	lang := flag.String("lang", "", "Status text language: en or ja")
	flag.Parse()

	a, err := app.Load(context.Background(), app.Options{
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

	mcpServer := controlsmcp.NewServer(a.Service, a.Validator)

	log.Info().Msg("Starting MCP server on stdio")

	if err := mcpServer.ServeStdio(); err != nil {
		log.Error().Err(err).Msg("MCP server failed")
	}
}
