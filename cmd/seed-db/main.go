// Command seed-db loads the embedded launch catalog into PostgreSQL and
// provisions API keys for a demo customer and a back-office admin.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/dram-store/db"
	"github.com/xenking/dram-store/internal/domain/auth"
	"github.com/xenking/dram-store/internal/handler"
	"github.com/xenking/dram-store/internal/storage/postgres"
)

const upsertProductSQL = `INSERT INTO products
	(id, name, price, description, strength, volume, category, stock, images, owner_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name, price = EXCLUDED.price, description = EXCLUDED.description,
		strength = EXCLUDED.strength, volume = EXCLUDED.volume, category = EXCLUDED.category,
		stock = EXCLUDED.stock, images = EXCLUDED.images`

type productJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Strength    int             `json:"strength"`
	Volume      int             `json:"volume"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Images      []struct {
		PublicID string `json:"public_id"`
		URL      string `json:"url"`
	} `json:"images"`
}

func main() {
	var (
		databaseURL string
		userKey     string
		adminKey    string
		pepper      string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&userKey, "user-key", "", "customer API key to seed (or DRAM_SEED_USER_KEY env)")
	flag.StringVar(&adminKey, "admin-key", "", "admin API key to seed (or DRAM_SEED_ADMIN_KEY env)")
	flag.StringVar(&pepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or DRAM_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if userKey == "" {
		userKey = os.Getenv("DRAM_SEED_USER_KEY")
	}
	if adminKey == "" {
		adminKey = os.Getenv("DRAM_SEED_ADMIN_KEY")
	}
	if pepper == "" {
		pepper = os.Getenv("DRAM_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, userKey, adminKey, pepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, userKey, adminKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool); err != nil {
		return errors.Wrap(err, "seed products")
	}

	keys := postgres.NewAPIKeyRepository(pool)
	if userKey != "" {
		if err := seedKey(ctx, keys, userKey, pepper, "demo-user", "Demo Customer", auth.RoleUser); err != nil {
			return errors.Wrap(err, "seed user key")
		}
	}
	if adminKey != "" {
		if err := seedKey(ctx, keys, adminKey, pepper, "demo-admin", "Back Office", auth.RoleAdmin); err != nil {
			return errors.Wrap(err, "seed admin key")
		}
	}

	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool) error {
	var products []productJSON
	if err := json.Unmarshal(db.SeedProducts, &products); err != nil {
		return errors.Wrap(err, "parse embedded products")
	}

	for _, p := range products {
		images, err := json.Marshal(p.Images)
		if err != nil {
			return errors.Wrapf(err, "marshal images for %s", p.ID)
		}
		_, err = pool.Exec(ctx, upsertProductSQL,
			p.ID, p.Name, p.Price, p.Description, p.Strength, p.Volume,
			p.Category, p.Stock, images, "seed",
		)
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}
	}

	slog.Info("products seeded", slog.Int("count", len(products)))
	return nil
}

func seedKey(ctx context.Context, keys *postgres.APIKeyRepository, key, pepper, userID, name string, role auth.Role) error {
	err := keys.Upsert(ctx, &auth.Identity{
		KeyHash: handler.HashKey(key, []byte(pepper)),
		UserID:  userID,
		Name:    name,
		Role:    role,
	})
	if err != nil {
		return err
	}
	slog.Info("api key seeded", slog.String("user", userID), slog.String("role", string(role)))
	return nil
}
