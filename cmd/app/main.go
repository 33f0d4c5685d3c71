package main

import (
	"context"
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/siriwan88/dress-shop-backend/internal/assetstore"
	"github.com/siriwan88/dress-shop-backend/internal/audit"
	"github.com/siriwan88/dress-shop-backend/internal/category"
	"github.com/siriwan88/dress-shop-backend/internal/config"
	"github.com/siriwan88/dress-shop-backend/internal/dress"
	"github.com/siriwan88/dress-shop-backend/internal/user"
)

func main() {
	_ = godotenv.Load()
	log.SetFormatter(&log.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	db := mustOpenDB(cfg.DatabaseURL)
	defer db.Close()
	bootstrapSchema(db)

	assets := buildAssetStore(cfg)
	recorder := buildAuditRecorder(cfg)

	categoryRepo := category.NewPostgresRepository(db)
	dressRepo := dress.NewPostgresRepository(db)
	userRepo := user.NewPostgresRepository(db)

	categoryService := category.NewService(categoryRepo, assets, dressRepo, recorder)
	dressService := dress.NewService(dressRepo, assets, categoryService, recorder)
	userService := user.NewService(userRepo, cfg.JWTSecret, recorder)

	categoryHandler := category.NewHandler(categoryService)
	dressHandler := dress.NewHandler(dressService)
	userHandler := user.NewHandler(userService)
	assetHandler := assetstore.NewHandler(assets)

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(requestLogger)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"success": false, "message": "database unreachable"})
		}
		return c.JSON(fiber.Map{"success": true})
	})

	// Public surface first: fiber matches routes in registration order, so
	// everything registered before the JWT middleware stays open.
	userHandler.RegisterPublicRoutes(app)
	categoryHandler.RegisterPublicRoutes(app)
	dressHandler.RegisterPublicRoutes(app)

	app.Use(user.NewAuthMiddleware(cfg.JWTSecret))

	categoryHandler.RegisterAdminRoutes(app, user.RequireAdmin)
	dressHandler.RegisterAdminRoutes(app, user.RequireAdmin)
	assetHandler.RegisterAdminRoutes(app, user.RequireAdmin)

	log.WithField("addr", cfg.Addr).Info("starting dress shop backend")
	if err := app.Listen(cfg.Addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func mustOpenDB(url string) *sql.DB {
	db, err := sql.Open("pgx", url)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	if err := db.Ping(); err != nil {
		log.WithError(err).Fatal("failed to ping database")
	}
	return db
}

func bootstrapSchema(db *sql.DB) {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			category_id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			image_asset_id TEXT NOT NULL DEFAULT '',
			slug TEXT NOT NULL UNIQUE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			sort_order INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE SEQUENCE IF NOT EXISTS dress_sku_seq`,
		`CREATE TABLE IF NOT EXISTS dresses (
			dress_id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category_id INT NOT NULL REFERENCES categories(category_id),
			images JSONB NOT NULL DEFAULT '[]',
			price_original INT NOT NULL DEFAULT 0,
			price_discounted INT,
			sizes JSONB NOT NULL DEFAULT '[]',
			colors JSONB NOT NULL DEFAULT '[]',
			material TEXT NOT NULL DEFAULT '',
			care_instructions TEXT NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			sku TEXT NOT NULL UNIQUE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			is_featured BOOLEAN NOT NULL DEFAULT FALSE,
			sort_order INT NOT NULL DEFAULT 0,
			views INT NOT NULL DEFAULT 0,
			rating_average DOUBLE PRECISION NOT NULL DEFAULT 0,
			rating_count INT NOT NULL DEFAULT 0,
			contact_number TEXT NOT NULL DEFAULT '',
			contact_message_template TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS dresses_category_idx ON dresses (category_id)`,
		`CREATE INDEX IF NOT EXISTS dresses_featured_idx ON dresses (is_featured) WHERE is_featured`,
		`CREATE TABLE IF NOT EXISTS users (
			user_id SERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			log.WithError(err).Fatal("schema bootstrap failed")
		}
	}
}

// buildAssetStore prefers Google Drive when credentials are configured and
// falls back to the in-memory store for local development.
func buildAssetStore(cfg *config.Config) assetstore.Store {
	if cfg.DriveCredentialsFile == "" {
		log.Warn("DRIVE_CREDENTIALS_FILE not set, using in-memory asset store")
		return assetstore.NewInMemoryStore()
	}
	store, err := assetstore.NewDriveStore(context.Background(), cfg.DriveCredentialsFile, cfg.DriveFolderID)
	if err != nil {
		log.WithError(err).Fatal("failed to build drive asset store")
	}
	return store
}

// buildAuditRecorder returns a recorder that drops events unless Kafka
// brokers are configured.
func buildAuditRecorder(cfg *config.Config) *audit.Recorder {
	if cfg.KafkaBrokers == "" {
		return audit.NewRecorder(nil)
	}
	publisher, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.AuditTopic)
	if err != nil {
		log.WithError(err).Fatal("failed to build kafka audit publisher")
	}
	return audit.NewRecorder(publisher)
}

func requestLogger(c *fiber.Ctx) error {
	err := c.Next()
	log.WithFields(log.Fields{
		"method": c.Method(),
		"path":   c.Path(),
		"status": c.Response().StatusCode(),
	}).Info("request")
	return err
}
