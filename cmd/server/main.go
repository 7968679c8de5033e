package main

import (
	"context"
	"fmt"
	"os"

	"github.com/JustJay7/kanzlei/internal/aktenzeichen"
	"github.com/JustJay7/kanzlei/internal/cache"
	"github.com/JustJay7/kanzlei/internal/config"
	"github.com/JustJay7/kanzlei/internal/database"
	"github.com/JustJay7/kanzlei/internal/server"
	"github.com/JustJay7/kanzlei/internal/storage"
	"github.com/JustJay7/kanzlei/pkg/logger"
	"github.com/urfave/cli/v3"
)

func main() {
	root := &cli.Command{
		Name:  "kanzlei",
		Usage: "Case management backend for a law office",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			aktenzeichenCommand(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runServer(ctx, "")
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "kanzlei: %v\n", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API (default)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Usage: "listen port, overrides PORT"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runServer(ctx, cmd.String("port"))
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Run database migrations and exit",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			// Initialize migrates as part of opening
			if _, err := database.Initialize(cfg); err != nil {
				return err
			}
			log.Info("Database migrations completed successfully", "driver", cfg.DBDriver)
			return nil
		},
	}
}

func aktenzeichenCommand() *cli.Command {
	return &cli.Command{
		Name:  "aktenzeichen",
		Usage: "Print the next case number and exit",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			db, err := database.Initialize(cfg)
			if err != nil {
				return err
			}
			next, err := aktenzeichen.NewGenerator(db, cfg.AktenzeichenStart).Next(ctx)
			if err != nil {
				return err
			}
			fmt.Println(next)
			return nil
		},
	}
}

func runServer(ctx context.Context, port string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if port != "" {
		cfg.Port = port
	}

	db, err := database.Initialize(cfg)
	if err != nil {
		log.Error("Failed to initialize database", "driver", cfg.DBDriver, "error", err)
		return err
	}

	files, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		return err
	}

	cacheService, err := cache.New(ctx, cfg)
	if err != nil {
		log.Error("Failed to initialize cache", "backend", cfg.CacheBackend, "error", err)
		return err
	}
	if rc, ok := cacheService.(*cache.RedisCache); ok {
		defer rc.Close()
	}

	srv := server.New(cfg, db, cacheService, files, log)

	log.Info("Starting Kanzlei backend",
		"host", cfg.Host,
		"port", cfg.Port,
		"db_driver", cfg.DBDriver,
		"cache", cfg.CacheBackend,
		"storage", files.Root(),
	)

	return srv.Run(ctx)
}

func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}
