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

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/medicarehub/api/internal/config"
	"github.com/medicarehub/api/internal/domain/identity"
	"github.com/medicarehub/api/internal/domain/notes"
	"github.com/medicarehub/api/internal/domain/reports"
	"github.com/medicarehub/api/internal/platform/blobstore"
	"github.com/medicarehub/api/internal/platform/db"
	"github.com/medicarehub/api/internal/platform/mongodb"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medicare-server",
		Short: "Medicare Hub API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run PostgreSQL migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			migrator, closePool, err := openMigrator(ctx, dir)
			if err != nil {
				return err
			}
			defer closePool()

			fmt.Printf("Running migrations on schema: %s\n", schema)
			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", db.DefaultSchema, "Target schema for migrations")
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			migrator, closePool, err := openMigrator(ctx, dir)
			if err != nil {
				return err
			}
			defer closePool()

			statuses, err := migrator.Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("schema", db.DefaultSchema, "Target schema for migrations")
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func openMigrator(ctx context.Context, dir string) (*db.Migrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required for migrations")
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return db.NewMigrator(pool, dir), pool.Close, nil
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a patient or doctor account",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			role, _ := cmd.Flags().GetString("role")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			b, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.close()

			svc := newServices(cfg, b.repos, nil, zerolog.Nop())
			u, err := svc.identity.CreateUser(ctx, identity.RegisterInput{
				Name:     name,
				Email:    email,
				Password: password,
				Role:     identity.Role(role),
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created %s %s <%s> with id %s\n", u.Role, u.Name, u.Email, u.ID)
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Display name")
	createCmd.Flags().String("email", "", "Login e-mail")
	createCmd.Flags().String("password", "", "Initial password (min 6 characters)")
	createCmd.Flags().String("role", string(identity.RolePatient), "patient or doctor")

	cmd.AddCommand(createCmd)
	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// backend is the opened record store selected by STORE_DRIVER.
type backend struct {
	repos  repositories
	mongo  *mongo.Database
	checks []db.Check
	close  func()
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		client, database, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := mongodb.EnsureIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &backend{
			repos: repositories{
				users:   identity.NewUserRepoMongo(database),
				reports: reports.NewReportRepoMongo(database),
				notes:   notes.NewNoteRepoMongo(database),
			},
			mongo:  database,
			checks: []db.Check{mongodb.HealthCheck(client)},
			close:  func() { _ = client.Disconnect(context.Background()) },
		}, nil

	case config.StoreDriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		return &backend{
			repos: repositories{
				users:   identity.NewUserRepoPG(pool),
				reports: reports.NewReportRepoPG(pool),
				notes:   notes.NewNoteRepoPG(pool),
			},
			checks: []db.Check{db.PoolCheck(pool)},
			close:  pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}

// openBlobStore resolves where report files live. The filesystem backend
// prefers the shared mount when it is present.
func openBlobStore(ctx context.Context, cfg *config.Config, b *backend, logger zerolog.Logger) (blobstore.Store, []db.Check, error) {
	switch cfg.StorageBackend {
	case config.StorageFilesystem:
		loc, err := blobstore.ResolveLocation(cfg.SharedMountPath, cfg.SharedUploadDir, cfg.LocalUploadDir)
		if err != nil {
			return nil, nil, err
		}
		store, err := blobstore.NewFSStore(loc.Dir)
		if err != nil {
			return nil, nil, err
		}
		if loc.Shared {
			logger.Info().Str("dir", store.Location()).Msg("using shared upload directory")
		} else {
			logger.Warn().Str("dir", store.Location()).Msg("shared mount not found, using local upload directory")
		}
		return store, nil, nil

	case config.StorageMinIO:
		store, err := blobstore.NewMinIOStore(ctx, blobstore.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, []db.Check{{Name: "minio", Pinger: store}}, nil

	case config.StorageGridFS:
		if b.mongo == nil {
			return nil, nil, errors.New("gridfs storage requires the mongo store driver")
		}
		store, err := blobstore.NewGridFSStore(b.mongo, cfg.GridFSBucket)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
	return nil, nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
}

func newLogger(dev bool) zerolog.Logger {
	if dev {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.IsDev())

	ctx := context.Background()
	b, err := openBackend(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to connect to database")
	}
	defer b.close()
	logger.Info().Str("driver", cfg.StoreDriver).Msg("connected to database")

	store, storeChecks, err := openBlobStore(ctx, cfg, b, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.StorageBackend).Msg("failed to open report storage")
	}
	logger.Info().Str("location", store.Location()).Msg("report storage ready")

	svc := newServices(cfg, b.repos, store, logger)
	e := newRouter(cfg, svc, logger, append(b.checks, storeChecks...)...)

	go func() {
		logger.Info().Str("addr", cfg.Addr()).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
