// Command seed applies the schema, loads product fixtures and optionally
// creates a staff user.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/fixture"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		files        = flag.String("files", "", "comma-separated fixture files (default FIXTURE_FILES)")
		skipFixtures = flag.Bool("skip-fixtures", false, "do not load product fixtures")
		staffUser    = flag.String("staff-user", "", "create or update a staff user with this username")
		staffPass    = flag.String("staff-password", os.Getenv("STAFF_PASSWORD"), "password for -staff-user (default STAFF_PASSWORD)")
	)
	flag.Parse()

	if err := config.LoadEnvFile(".env"); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if *staffUser != "" {
		if err := seedStaff(ctx, repository.NewUserRepository(pool, logger), *staffUser, *staffPass, logger); err != nil {
			return err
		}
	}

	if *skipFixtures {
		return nil
	}

	paths := cfg.Fixture.Files
	if *files != "" {
		paths = strings.Split(*files, ",")
	}

	products := service.NewProductService(repository.NewProductRepository(pool, logger), logger)
	seeder := fixture.NewSeeder(newLoader(ctx, cfg, logger), products, logger)

	report, err := seeder.Seed(ctx, paths)
	if err != nil {
		return err
	}

	fmt.Printf("seeded %d products from %d files (%d rejected)\n", report.Created, report.Files, len(report.Rejected))
	return nil
}

// newLoader reads fixtures from S3 when enabled, falling back to local files.
func newLoader(ctx context.Context, cfg *config.Config, logger zerolog.Logger) fixture.Loader {
	fileLoader := fixture.NewFileLoader(logger)
	if !cfg.S3.Enabled {
		logger.Info().Msg("using local file system for fixture files (S3 disabled)")
		return fileLoader
	}

	s3Loader, err := fixture.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 loader, falling back to local file system only")
		return fileLoader
	}

	return fixture.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, true, logger)
}

func seedStaff(ctx context.Context, users repository.UserRepository, username, password string, logger zerolog.Logger) error {
	if password == "" {
		return fmt.Errorf("a password is required for staff user %q", username)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	user := &model.User{Username: username, PasswordHash: hash, IsStaff: true}
	if err := users.Upsert(ctx, user); err != nil {
		return err
	}

	logger.Info().Int64("user_id", user.ID).Str("username", username).Msg("staff user ready")
	return nil
}
