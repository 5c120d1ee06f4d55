package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/alexivanou/gazetteer/internal/config"
	"github.com/alexivanou/gazetteer/internal/database"
	"github.com/alexivanou/gazetteer/internal/importer"
	"github.com/alexivanou/gazetteer/internal/repository"
	"github.com/alexivanou/gazetteer/internal/resolver"
	"github.com/alexivanou/gazetteer/internal/seeder"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	force         bool
	dataDir       string
	languages     []string
	migrationsDir string
)

var rootCmd = &cobra.Command{
	Use:   "importer",
	Short: "Import GeoNames datasets into the gazetteer store",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch every dataset, store it and resolve canonical names",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withImporter(cmd.Context(), func(imp *importer.Importer) error {
			summary, err := imp.Run(cmd.Context())
			if summary != nil {
				printSummary(summary)
			}
			return err
		})
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Recompute main names and composites without fetching",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withImporter(cmd.Context(), func(imp *importer.Importer) error {
			report, err := imp.Resolve(cmd.Context())
			if report != nil {
				printResolution(report)
			}
			return err
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "migrations", "migrations", "directory holding the sqlite and postgres migrations")
	rootCmd.PersistentFlags().StringSliceVar(&languages, "languages", nil, "languages to resolve (defaults to IMPORT_LANGUAGES)")
	runCmd.Flags().BoolVar(&force, "force", false, "import datasets even when they are up to date")
	runCmd.Flags().StringVar(&dataDir, "data-dir", "", "download directory (defaults to IMPORT_DATA_DIR)")

	rootCmd.AddCommand(runCmd, resolveCmd)
}

func withImporter(ctx context.Context, fn func(*importer.Importer) error) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if force {
		cfg.Import.Force = true
	}
	if dataDir != "" {
		cfg.Import.DataDir = dataDir
	}
	if len(languages) > 0 {
		cfg.Import.Languages = languages
	}
	if cfg.DB.IsMemory() {
		logger.Warn("In-memory database: imported data is lost when this process exits")
	}

	db, err := connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	repos := repository.NewRepositories(db, cfg.DB.Type)
	return fn(importer.New(cfg.Import, repos, logger))
}

func connect(ctx context.Context, cfg config.DBConfig) (*sqlx.DB, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(db, cfg, migrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func printSummary(s *importer.Summary) {
	for _, name := range s.UpToDate {
		fmt.Printf("%-20s up to date\n", name)
	}
	for _, r := range s.Reports {
		printReport(r)
	}
	if s.Resolution != nil {
		printResolution(s.Resolution)
	}
	fmt.Printf("Finished in %s\n", s.Duration.Round(time.Millisecond))
}

func printReport(r *seeder.Report) {
	fmt.Printf("%-20s %8d rows, %8d imported\n", r.Dataset, r.Total, r.Imported)
	reasons := make([]string, 0, len(r.Skipped))
	for reason := range r.Skipped {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Printf("  skipped %-24s %8d\n", reason, r.Skipped[seeder.SkipReason(reason)])
	}
}

func printResolution(r *resolver.Report) {
	fmt.Printf("Resolution: %d gap filled, %d mains set, %d mains cleared, %d composites, %d failures\n",
		r.GapFilled, r.MainsSet, r.MainsCleared, r.Composites, len(r.Failures))
	for _, f := range r.Failures {
		fmt.Printf("  %s\n", f.Error())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
