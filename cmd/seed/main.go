// Command seed is the training pipeline's write path into the model
// registry. It registers a trained model from its metadata file and lists
// registry entries.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"evalconsole/internal/app"
	"evalconsole/internal/config"
	"evalconsole/internal/logger"
	"evalconsole/internal/model"
	"evalconsole/internal/ranking"
	"evalconsole/internal/service"
)

type StoreFlags struct {
	ConfigPath string
	Timeout    time.Duration
}

func (f *StoreFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", f.ConfigPath, "path to the YAML config file")
	fs.DurationVar(&f.Timeout, "timeout", 30*time.Second, "overall deadline for the command")
}

// open connects the configured store and returns the registry over it
func (f *StoreFlags) open(ctx context.Context, log *logger.Logger) (*config.AppConfig, *service.RegistryService, func(), error) {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Store.Driver != config.StoreMongo {
		return nil, nil, nil, fmt.Errorf("seed needs a durable store; store.driver is %q", cfg.Store.Driver)
	}

	store, err := app.OpenStore(ctx, cfg.Store, log)
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() { store.Close(context.Background()) }
	return cfg, service.NewRegistryService(store.Models, log), closeFn, nil
}

type RegisterFlags struct {
	StoreFlags
	MetaPath   string
	SkipVerify bool
}

func (f *RegisterFlags) BindFlags(fs *pflag.FlagSet) {
	f.StoreFlags.BindFlags(fs)
	fs.StringVar(&f.MetaPath, "meta", "", "training metadata JSON written next to the artifact")
	fs.BoolVar(&f.SkipVerify, "skip-verify", false, "register without loading the artifact first")
}

func newRegisterCommand(log *logger.Logger) *cobra.Command {
	f := &RegisterFlags{}
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a trained ltr model in the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.MetaPath == "" {
				return fmt.Errorf("--meta is required")
			}
			data, err := os.ReadFile(f.MetaPath)
			if err != nil {
				return err
			}
			rec, err := service.ParseTrainingMeta(data)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), f.Timeout)
			defer cancel()
			cfg, registry, closeFn, err := f.open(ctx, log)
			if err != nil {
				return err
			}
			defer closeFn()

			if !f.SkipVerify {
				if err := verifyArtifact(cfg.Serving.ArtifactsDir, rec); err != nil {
					return err
				}
			}
			if err := registry.Register(ctx, rec); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s (feature_version=%s, trained_at=%s)\n",
				rec.ModelVersion, rec.FeatureVersion, rec.TrainedAt.Format(time.RFC3339))
			return nil
		},
	}
	f.BindFlags(cmd.Flags())
	return cmd
}

// verifyArtifact loads the model the way the server would, so a broken
// artifact never reaches the registry
func verifyArtifact(artifactsDir string, rec *model.ModelRecord) error {
	if rec.FeatureVersion == "" {
		rec.FeatureVersion = ranking.FeatureVersionV1
	}
	if _, err := ranking.NewArtifactLoader(artifactsDir).Load(rec); err != nil {
		return fmt.Errorf("artifact check failed for %s: %w", rec.ModelVersion, err)
	}
	return nil
}

func newListCommand(log *logger.Logger) *cobra.Command {
	f := &StoreFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registry entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), f.Timeout)
			defer cancel()
			_, registry, closeFn, err := f.open(ctx, log)
			if err != nil {
				return err
			}
			defer closeFn()

			recs, err := registry.List(ctx)
			if err != nil {
				return err
			}
			return printModels(cmd.OutOrStdout(), recs)
		},
	}
	f.BindFlags(cmd.Flags())
	return cmd
}

func printModels(out io.Writer, recs []*model.ModelRecord) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL_VERSION\tFEATURE_VERSION\tTRAINED_AT\tSNAPSHOT\tARTIFACT")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.ModelVersion, r.FeatureVersion, r.TrainedAt.Format(time.RFC3339), r.SnapshotID, r.ArtifactPath)
	}
	return tw.Flush()
}

func newRootCommand(log *logger.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "seed",
		Short:         "Manage the ltr model registry",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRegisterCommand(log), newListCommand(log))
	return root
}

func main() {
	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := newRootCommand(log).ExecuteContext(context.Background()); err != nil {
		log.Error("seed failed", "error", err)
		log.Sync()
		os.Exit(1)
	}
}
