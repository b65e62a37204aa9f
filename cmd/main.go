package main

import (
	"context"
	"fmt"
	"os"

	"visit-tracking-service/cmd/bootstrap"
	"visit-tracking-service/config"
	"visit-tracking-service/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "visits",
		Short:         "Visit tracking API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		logrus.Errorf("%v", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	// Initialize application with all dependencies
	app, err := bootstrap.New()
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	// Run the application
	return app.Run()
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	for _, action := range []struct {
		use   string
		short string
	}{
		{"up", "Apply pending migrations"},
		{"down", "Roll back the most recent migration"},
		{"version", "Print the current schema version"},
	} {
		cmd.AddCommand(&cobra.Command{
			Use:   action.use,
			Short: action.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigration(action.use)
			},
		})
	}

	return cmd
}

func runMigration(action string) error {
	cfg, log, err := bootstrap.Load()
	if err != nil {
		return err
	}
	if cfg.App.StorageDriver != config.StorageDriverPostgres {
		return fmt.Errorf("migrations require STORAGE_DRIVER=%s", config.StorageDriverPostgres)
	}

	db, err := bootstrap.OpenPostgres(cfg, log, false)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	return bootstrap.RunMigration(db, log, action)
}

func seedCmd() *cobra.Command {
	var doctors, patients, visits int
	var randomSeed int64

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load generated doctors, patients and visits",
		Long:  "Load generated fixture data into PostgreSQL. Nothing is written when doctors already exist.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap.Load()
			if err != nil {
				return err
			}
			if cfg.App.StorageDriver != config.StorageDriverPostgres {
				return fmt.Errorf("seed command requires STORAGE_DRIVER=%s, use SEED_ON_STARTUP for memory storage", config.StorageDriverPostgres)
			}

			opts := bootstrap.SeedOptions(cfg.Seed)
			flags := cmd.Flags()
			if flags.Changed("doctors") {
				opts.Doctors = doctors
			}
			if flags.Changed("patients") {
				opts.Patients = patients
			}
			if flags.Changed("visits") {
				opts.Visits = visits
			}
			if flags.Changed("seed") {
				opts.RandomSeed = randomSeed
			}

			canonical, err := bootstrap.CanonicalLocation(cfg.App.CanonicalTimezone)
			if err != nil {
				return err
			}

			db, err := bootstrap.OpenPostgres(cfg, log, cfg.DB.AutoMigrate)
			if err != nil {
				return err
			}
			defer func() {
				if sqlDB, err := db.DB(); err == nil {
					sqlDB.Close()
				}
			}()

			return bootstrap.RunSeed(context.Background(), log, bootstrap.NewPostgresRepositories(db), service.NewTimeConverter(canonical), opts)
		},
	}

	cmd.Flags().IntVar(&doctors, "doctors", 10, "number of doctors")
	cmd.Flags().IntVar(&patients, "patients", 1000, "number of patients")
	cmd.Flags().IntVar(&visits, "visits", 5000, "number of visits")
	cmd.Flags().Int64Var(&randomSeed, "seed", 1, "random seed")

	return cmd
}
