package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	app "github.com/crosszero/tictactoe/internal"
	"github.com/crosszero/tictactoe/internal/config"
	"github.com/crosszero/tictactoe/internal/terminal"
)

var (
	configPath string
	serverURL  string
)

var rootCmd = &cobra.Command{
	Use:   "tictactoe",
	Short: "Tic-tac-toe in the terminal: hotseat, bots, and online play",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// default behavior: launch the terminal game
		return playCmd.RunE(cmd, nil)
	},
	SilenceUsage: true,
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal (hotseat, versus bot, or online)",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		conf := initConfig()
		// bubbletea owns stdout during play; keep log lines off the screen
		logger := initLogger(conf, os.Stderr)

		if err := terminal.Run(ctx, logger, serverURL); err != nil {
			return fmt.Errorf("game failed: %w", err)
		}

		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the multiplayer backend (REST + WebSocket)",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		conf := initConfig()
		logger := initLogger(conf, os.Stdout)

		if err := app.RunApp(ctx, logger, conf); err != nil {
			return fmt.Errorf("app run failed: %w", err)
		}

		return nil
	},
}

func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yml (default: ./config.yml)")
	playCmd.Flags().StringVar(&serverURL, "server", "ws://localhost:8080/ws", "backend WebSocket URL for online play")

	rootCmd.AddCommand(playCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	return ctx, cancel
}

// initialize config.
func initConfig() *config.Config {
	if configPath != "" {
		return config.MustLoad(configPath)
	}

	baseDir, err := os.Getwd()
	if err != nil {
		panic(fmt.Errorf("failed to get current directory: %w", err))
	}

	path := filepath.Join(baseDir, "config.yml")
	if _, err = os.Stat(path); err == nil {
		return config.MustLoad(path)
	}

	// no config.yml around; env variables and defaults are enough for
	// local play and for containerized servers
	conf, err := config.FromEnv()
	if err != nil {
		panic(fmt.Errorf("failed to load environment config: %w", err))
	}

	return conf
}

// initialize logger.
func initLogger(conf *config.Config, out io.Writer) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
}
