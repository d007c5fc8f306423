package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/insight-ledger/internal/common"
	"github.com/Veraticus/insight-ledger/internal/config"
	"github.com/Veraticus/insight-ledger/internal/server"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "ledgerd",
		Short: "Insight Ledger development backend",
		Long: `ledgerd serves the HTTP API the ledger client talks to: accounts,
bearer-token auth, and per-user transactions backed by SQLite.`,
		PersistentPreRunE: initConfig,
		RunE:              runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/ledger/ledgerd.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("addr", "", "listen address")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("server.addr", rootCmd.PersistentFlags().Lookup("addr"))

	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	viper.SetDefault("server.addr", "localhost:8000")
	viper.SetDefault("server.db_path", "~/.local/share/ledger/backend.db")
	viper.SetDefault("server.jwt_secret", "")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(fmt.Sprintf("%s/.config/ledger", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("ledgerd")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("LEDGERD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := common.SetupLogger(viper.GetString("logging.level"), viper.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	store, err := server.NewStore(config.ExpandPath(viper.GetString("server.db_path")))
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = store.Close() }()

	secret, err := jwtSecret()
	if err != nil {
		return err
	}

	srv := server.New(viper.GetString("server.addr"), store, secret)

	errChan := make(chan error, 1)
	go func() {
		slog.Info("Listening", "addr", viper.GetString("server.addr"))
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-cmd.Context().Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}
	return nil
}

// jwtSecret reads the signing secret from config. Without one, a
// random secret is generated: fine for development, but every restart
// invalidates all outstanding tokens.
func jwtSecret() ([]byte, error) {
	if configured := viper.GetString("server.jwt_secret"); configured != "" {
		return []byte(configured), nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate jwt secret: %w", err)
	}
	slog.Warn("No server.jwt_secret configured, using a random secret; tokens will not survive restarts")
	return []byte(hex.EncodeToString(raw)), nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			slog.Info("ledgerd version", "version", version)
		},
	}
}
