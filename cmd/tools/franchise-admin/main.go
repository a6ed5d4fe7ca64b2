package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"optical-franchise/internal/common/config"
	"optical-franchise/internal/common/database"
	"optical-franchise/internal/common/logger"
	"optical-franchise/internal/products"
	"optical-franchise/internal/users"
)

func main() {
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	steps := migrateCmd.Int("steps", 1, "Number of migrations to roll back with down")

	adminCmd := flag.NewFlagSet("create-admin", flag.ExitOnError)
	email := adminCmd.String("email", "", "Admin email")
	name := adminCmd.String("name", "", "Admin display name")
	password := adminCmd.String("password", "", "Admin password (min 8 characters)")

	seedCmd := flag.NewFlagSet("seed-plans", flag.ExitOnError)
	reindexCmd := flag.NewFlagSet("reindex-products", flag.ExitOnError)

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewStructured(cfg.Logging.Level, "console")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "migrate":
		migrateCmd.Parse(os.Args[2:])
		direction := migrateCmd.Arg(0)
		if direction != "up" && direction != "down" {
			fmt.Println("Error: migrate needs a direction, up or down.")
			migrateCmd.Usage()
			os.Exit(1)
		}
		pg := mustConnect(ctx, cfg)
		defer pg.Close()

		version, err := runMigrate(pg, cfg.Database.Postgres.MigrationsPath, direction, *steps)
		if err != nil {
			fmt.Printf("Error running migrations: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Migrations %s complete, schema version %d\n", direction, version)

	case "seed-plans":
		seedCmd.Parse(os.Args[2:])
		pg := mustConnect(ctx, cfg)
		defer pg.Close()

		n, err := seedPlans(ctx, pg.DB, defaultPlans())
		if err != nil {
			fmt.Printf("Error seeding plans: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Seeded %d plans\n", n)

	case "create-admin":
		adminCmd.Parse(os.Args[2:])
		if *email == "" || *name == "" || *password == "" {
			fmt.Println("Error: email, name, and password are required for create-admin.")
			adminCmd.Usage()
			os.Exit(1)
		}
		pg := mustConnect(ctx, cfg)
		defer pg.Close()

		svc := users.NewService(users.NewRepository(pg.DB), nil, log)
		user, err := createAdmin(ctx, svc, *email, *name, *password)
		if err != nil {
			fmt.Printf("Error creating admin: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created admin %s (id %d)\n", user.Email, user.ID)

	case "reindex-products":
		reindexCmd.Parse(os.Args[2:])
		if !cfg.Database.Elasticsearch.Enabled() {
			fmt.Println("Error: database.elasticsearch is not configured.")
			os.Exit(1)
		}
		pg := mustConnect(ctx, cfg)
		defer pg.Close()

		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			fmt.Printf("Error connecting to Elasticsearch: %v\n", err)
			os.Exit(1)
		}
		if _, err := es.EnsureIndex(ctx, cfg.Database.Elasticsearch.ProductIndex, products.IndexMapping); err != nil {
			fmt.Printf("Error preparing index: %v\n", err)
			os.Exit(1)
		}

		index := products.NewElasticIndex(es.Client, cfg.Database.Elasticsearch.ProductIndex)
		indexed, failed, err := reindexProducts(ctx, products.NewRepository(pg.DB), index)
		if err != nil {
			fmt.Printf("Error reindexing products: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Indexed %d products (%d failed)\n", indexed, failed)
		if failed > 0 {
			os.Exit(1)
		}

	case "help":
		help()

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		help()
		os.Exit(1)
	}
}

func mustConnect(ctx context.Context, cfg *config.Config) *database.PostgresClient {
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		fmt.Printf("Error opening database: %v\n", err)
		os.Exit(1)
	}
	if err := pg.Ping(ctx); err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	return pg
}

func runMigrate(pg *database.PostgresClient, path, direction string, steps int) (uint, error) {
	m, err := database.NewMigrator(pg, path)
	if err != nil {
		return 0, err
	}

	if direction == "up" {
		err = m.Up()
	} else {
		err = m.Down(steps)
	}
	if err != nil {
		return 0, err
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, err
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}

func help() {
	fmt.Println("Usage: franchise-admin <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  migrate up|down     Apply or roll back schema migrations")
	fmt.Println("                      -steps int  migrations to roll back with down (default 1)")
	fmt.Println("  seed-plans          Insert or refresh the basic, gold and premium plans")
	fmt.Println("  create-admin        Create an active admin account")
	fmt.Println("                      -email -name -password")
	fmt.Println("  reindex-products    Rebuild the product search index from PostgreSQL")
	fmt.Println("  help                Show this help message")
}
