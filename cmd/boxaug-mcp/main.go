package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/boxaug/internal/config"
	"github.com/ironsheep/boxaug/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("boxaug-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("boxaug-mcp - MCP server for bounding-box aware image augmentation")
			fmt.Println()
			fmt.Println("Usage: boxaug-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  BOXAUG_LOG_LEVEL=debug       Enable debug logging")
			fmt.Println("  BOXAUG_CONFIG=<path>         Default augmentation config (JSON, YAML or TOML)")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			return
		}
	}

	logger := initLogger(os.Getenv("BOXAUG_LOG_LEVEL") == "debug")
	logger.WithFields(logrus.Fields{
		"version": Version,
		"built":   BuildTime,
		"commit":  GitCommit,
	}).Debug("boxaug MCP server starting")

	opts := []server.Option{server.WithLogger(logger)}
	if path := os.Getenv("BOXAUG_CONFIG"); path != "" {
		if _, err := config.Load(path); err != nil {
			logger.WithError(err).Fatal("invalid BOXAUG_CONFIG")
		}
		opts = append(opts, server.WithDefaultConfig(path))
	}

	srv := server.New(opts...)
	if err := srv.Run(); err != nil {
		logger.WithError(err).Fatal("server error")
	}
}

// initLogger writes to stderr since stdout carries the MCP protocol.
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
