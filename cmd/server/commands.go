package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"

	"github.com/example/snowstore/internal/config"
	"github.com/example/snowstore/internal/database"
	"github.com/example/snowstore/internal/handlers"
	"github.com/example/snowstore/internal/middleware"
	"github.com/example/snowstore/internal/routes"
	"github.com/example/snowstore/internal/services"
)

var (
	adminName     string
	adminEmail    string
	adminPassword string
)

var rootCmd = &cobra.Command{
	Use:   "snowstore",
	Short: "SnowStore storefront and back office",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		db, err := database.Open(cfg.DatabaseURL, cfg.DBLogLevel)
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Println("schema is up to date")
		return nil
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create the initial Admin account when none exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		db := database.Connect(cfg.DatabaseURL, cfg.DBLogLevel)

		created, err := services.NewUserService(db).EnsureAdmin(context.Background(), adminName, adminEmail, adminPassword)
		if err != nil {
			return err
		}
		if created {
			log.Printf("admin account %s created", adminEmail)
		} else {
			log.Println("an admin account already exists, nothing to do")
		}
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrator", "Display name")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "admin@snowstore.com", "Login email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "Admin@123", "Initial password")

	rootCmd.AddCommand(serveCmd, migrateCmd, createAdminCmd)
}

func runServe() error {
	cfg := config.Load()
	if err := cfg.ValidateServer(); err != nil {
		return err
	}
	db := database.Connect(cfg.DatabaseURL, cfg.DBLogLevel)

	app := fiber.New(fiber.Config{
		AppName:      "SnowStore",
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    cfg.BodyLimitBytes,
	})

	middleware.Setup(app, cfg)
	routes.Register(app, db, cfg)

	log.Printf("Starting server on :%s", cfg.AppPort)
	return app.Listen(":" + cfg.AppPort)
}
