package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"evalconsole/internal/app"
	"evalconsole/internal/config"
	"evalconsole/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

type ServeFlags struct {
	ConfigPath      string
	ListenAddr      string
	LogMode         string
	StoreDriver     string
	ServedPolicy    string
	ShutdownTimeout time.Duration
}

func NewServeFlags() *ServeFlags {
	return &ServeFlags{ShutdownTimeout: 30 * time.Second}
}

func (f *ServeFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", f.ConfigPath, "path to the YAML config file (default $CONFIG_PATH or config.yaml)")
	fs.StringVar(&f.ListenAddr, "listen", f.ListenAddr, "listen address, overrides listen_addr and PORT")
	fs.StringVar(&f.LogMode, "log-mode", f.LogMode, "dev or prod")
	fs.StringVar(&f.StoreDriver, "store", f.StoreDriver, "mongo or memory")
	fs.StringVar(&f.ServedPolicy, "policy", f.ServedPolicy, "default serving policy: rule or ltr")
	fs.DurationVar(&f.ShutdownTimeout, "shutdown-timeout", f.ShutdownTimeout, "grace period for in-flight requests")
}

// LoadConfig layers flags over file and environment, then validates
func (f *ServeFlags) LoadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return nil, err
	}
	if f.ListenAddr != "" {
		cfg.ListenAddr = f.ListenAddr
	}
	if f.LogMode != "" {
		cfg.LogMode = f.LogMode
	}
	if f.StoreDriver != "" {
		cfg.Store.Driver = f.StoreDriver
	}
	if f.ServedPolicy != "" {
		cfg.Serving.DefaultPolicy = f.ServedPolicy
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	f := NewServeFlags()
	cmd := &cobra.Command{
		Use:           "evalconsole",
		Short:         "Serve paired candidate answers and collect preference feedback",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.LoadConfig()
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.LogMode)
			if err != nil {
				return err
			}
			defer log.Sync()
			return serve(cmd.Context(), cfg, f.ShutdownTimeout, log)
		},
	}
	f.BindFlags(cmd.Flags())
	return cmd
}

func serve(ctx context.Context, cfg *config.AppConfig, shutdownTimeout time.Duration, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           a.Router(version),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", cfg.ListenAddr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server exited")
	return nil
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
