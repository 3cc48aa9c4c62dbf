package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/raine/stable-fast-3d-mcp/config"
	"github.com/raine/stable-fast-3d-mcp/internal/mcpserver"
	"github.com/raine/stable-fast-3d-mcp/internal/stability"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Stdout carries the MCP stdio framing, so all logging goes to stderr.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Try to load existing config.env file
	config.LoadEnvFile()

	// A missing key is not a startup error: it is reported as a
	// missing_credentials failure on first tool use, so the MCP client can
	// still list tools and read resources.
	apiKey := os.Getenv("STABILITY_API_KEY")
	if apiKey == "" {
		log.Warn().Msg("STABILITY_API_KEY is not set, tool calls will fail until it is")
	}

	client := stability.NewClient(stability.ClientOpts{APIKey: apiKey})
	srv := mcpserver.New(client)

	log.Info().Str("server", mcpserver.ServerName).Str("version", mcpserver.Version).Msg("serving over stdio")
	if err := srv.Serve(); err != nil {
		log.Fatal().Err(err).Msg("mcp server exited with error")
	}
}
