// Command catalog-ingest loads gzipped supplier feed files (one JSON object
// per line) into the products table. Suppliers routinely resend the same SKUs
// across files; a bloom filter skips rewrites of SKUs already ingested this
// run, and the upsert keeps reruns idempotent anyway.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/dram-store/internal/domain/product"
	"github.com/xenking/dram-store/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

const upsertFeedProductSQL = `INSERT INTO products
	(id, name, price, description, strength, volume, category, stock, images, owner_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '[]', 'feed')
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name, price = EXCLUDED.price, description = EXCLUDED.description,
		strength = EXCLUDED.strength, volume = EXCLUDED.volume, category = EXCLUDED.category,
		stock = EXCLUDED.stock`

// feedProduct is one supplier feed line.
type feedProduct struct {
	SKU         string
	Name        string
	Price       decimal.Decimal
	Description string
	Strength    int
	Volume      int
	Category    string
	Stock       int
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.jsonl.gz feed files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "glob feed files")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.jsonl.gz files in %s", dataDir)
	}

	slog.Info("ingesting feeds", slog.Int("files", len(files)))

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	var (
		mu    sync.Mutex
		seen  = bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		total uint64
		kept  uint64
	)
	products := make(chan feedProduct, 1024)

	g, gctx := errgroup.WithContext(ctx)

	// One reader goroutine per feed file, one shared writer. The writer
	// sees the channel close only after every reader has returned.
	readers, rctx := errgroup.WithContext(gctx)
	for _, f := range files {
		readers.Go(ingestFile(rctx, f, func(p feedProduct) {
			mu.Lock()
			defer mu.Unlock()
			total++
			if total%progressEvery == 0 {
				slog.Info("ingest progress", slog.Uint64("lines", total))
			}
			// TestAndAdd may rarely skip a never-seen SKU (false positive);
			// acceptable because feeds resend full catalogs every night.
			if seen.TestAndAddString(p.SKU) {
				return
			}
			kept++
			select {
			case products <- p:
			case <-rctx.Done():
			}
		}))
	}

	g.Go(func() error {
		defer close(products)
		return readers.Wait()
	})
	g.Go(func() error {
		for p := range products {
			if err := upsertFeedProduct(gctx, pool, p); err != nil {
				return err
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("feeds ingested", slog.Uint64("lines", total), slog.Uint64("unique_skus", kept))
	return nil
}

// ingestFile streams one gzipped JSONL feed, calling emit for every decoded
// product line.
func ingestFile(ctx context.Context, path string, emit func(feedProduct)) func() error {
	return func() error {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer func() { _ = f.Close() }()

		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()

		scanner := bufio.NewScanner(gz)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		line := 0
		for scanner.Scan() {
			if err := ctx.Err(); err != nil {
				return err
			}
			line++

			p, err := decodeFeedLine(scanner.Bytes())
			if err != nil {
				return errors.Wrapf(err, "%s line %d", path, line)
			}
			if p.SKU == "" {
				return errors.Errorf("%s line %d: missing sku", path, line)
			}
			if !product.Category(p.Category).Valid() {
				slog.Warn("skipping unknown category",
					slog.String("sku", p.SKU), slog.String("category", p.Category))
				continue
			}
			emit(p)
		}

		if err := scanner.Err(); err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}
		return nil
	}
}

// decodeFeedLine parses one feed line without allocating an intermediate map.
func decodeFeedLine(data []byte) (feedProduct, error) {
	var p feedProduct
	d := jx.DecodeBytes(data)

	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "sku":
			p.SKU, err = d.Str()
		case "name":
			p.Name, err = d.Str()
		case "price":
			var raw string
			if raw, err = d.Str(); err == nil {
				p.Price, err = decimal.NewFromString(raw)
			}
		case "description":
			p.Description, err = d.Str()
		case "strength":
			p.Strength, err = d.Int()
		case "volume":
			p.Volume, err = d.Int()
		case "category":
			p.Category, err = d.Str()
		case "stock":
			p.Stock, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	return p, err
}

func upsertFeedProduct(ctx context.Context, pool *pgxpool.Pool, p feedProduct) error {
	_, err := pool.Exec(ctx, upsertFeedProductSQL,
		p.SKU, p.Name, p.Price, p.Description, p.Strength, p.Volume, p.Category, p.Stock,
	)
	if err != nil {
		return errors.Wrapf(err, "upsert product %s", p.SKU)
	}
	return nil
}
