// Command toolkit is the operational entry point for the single-table
// data layer: table health checks, source analysis and batch migrations
// from a relational database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/raywall/single-table-toolkit/dao"
	"github.com/raywall/single-table-toolkit/migrate"
	"github.com/raywall/single-table-toolkit/pkg/config"
	"github.com/raywall/single-table-toolkit/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: toolkit <health|analyze|migrate> [flags]")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "health":
		runHealth(os.Args[2:])
	case "analyze":
		runAnalyze(os.Args[2:])
	case "migrate":
		runMigrate(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, zerolog.Logger) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg, logger.Configure(cfg.Logging)
}

func runHealth(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the YAML configuration file")
	fs.Parse(args)

	cfg, log := loadConfig(*configPath)
	ctx := context.Background()

	factory, err := dao.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("wiring failed")
	}
	defer factory.Close()

	if !factory.HealthCheck(ctx) {
		fmt.Fprintf(os.Stderr, "table %s is not reachable\n", cfg.TableName)
		os.Exit(1)
	}
	fmt.Printf("table %s is reachable\n", cfg.TableName)
}

func runAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the YAML configuration file")
	fs.Parse(args)

	cfg, log := loadConfig(*configPath)
	ctx := context.Background()

	source, err := openSource(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("source not configured")
	}
	if err := source.Connect(ctx); err != nil {
		log.Fatal().Err(err).Msg("source unreachable")
	}
	defer source.Close()

	profiler, ok := source.(interface {
		Analyze(ctx context.Context) ([]migrate.TableProfile, error)
	})
	if !ok {
		log.Fatal().Str("source_type", cfg.Migration.SourceType).Msg("source does not support analysis")
	}

	profiles, err := profiler.Analyze(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("analysis failed")
	}
	out, _ := json.MarshalIndent(profiles, "", "  ")
	fmt.Println(string(out))
}

func runMigrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the YAML configuration file")
	dryRun := fs.Bool("dry-run", false, "count what would load without writing")
	continueOnError := fs.Bool("continue-on-error", false, "keep going past a failed table instead of aborting the plan")
	fs.Parse(args)

	cfg, log := loadConfig(*configPath)
	ctx := context.Background()

	factory, err := dao.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("wiring failed")
	}
	defer factory.Close()

	source, err := openSource(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("source not configured")
	}

	engine := migrate.NewEngine(factory.Store(), factory.Engine(), source, log)
	engine.OnProgress(func(p migrate.Progress) {
		log.Info().Str("entity_type", p.EntityType).Str("phase", string(p.Phase)).
			Int("processed", p.Processed).Int("total", p.Total).
			Int("failed", p.Failed).Msg("migration progress")
	})

	plan := migrate.Plan{
		Name: "relational-import",
		Mappings: []migrate.Mapping{
			migrate.UsersMapping(),
			migrate.CirclesMapping(),
		},
	}
	results, err := engine.ExecutePlan(ctx, plan, migrate.Config{
		BatchSize:       cfg.Migration.BatchSize,
		DryRun:          *dryRun,
		ContinueOnError: *continueOnError,
	})
	for _, result := range results {
		log.Info().Str("entity_type", result.EntityType).
			Int("total", result.Total).Int("migrated", result.Migrated).
			Int("failed", result.Failed).Int("skipped", result.Skipped).
			Float64("throughput", result.Throughput).Msg("mapping result")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
}

func openSource(cfg *config.Config, log zerolog.Logger) (migrate.DataSource, error) {
	switch cfg.Migration.SourceType {
	case "sqlite":
		return migrate.NewSQLiteSource(cfg.Migration.SourceDSN, log), nil
	case "postgresql":
		return migrate.NewPostgresSource(cfg.Migration.SourceDSN, log), nil
	default:
		return nil, fmt.Errorf("no migration source configured (source_type=%q)", cfg.Migration.SourceType)
	}
}
