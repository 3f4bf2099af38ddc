// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/briannabogos1157/threadtwin/internal/dupe"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool shared by the stores.
type Config struct {
	DSN              string
	ProductsTable    string
	SubmissionsTable string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// ProductStore persists extracted products in Postgres, one row per
// source URL. Attribute slices are stored as JSONB.
type ProductStore struct {
	pool  querier
	table string
}

// NewProductStore connects a pool and returns a store over it.
func NewProductStore(ctx context.Context, cfg Config) (*ProductStore, error) {
	pool, err := newPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	table := cfg.ProductsTable
	if table == "" {
		table = "products"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &ProductStore{pool: pool, table: table}, nil
}

// NewProductStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewProductStoreWithPool(pool querier, table string) (*ProductStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "products"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &ProductStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *ProductStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// GetByURL fetches the product stored under a source URL.
func (s *ProductStore) GetByURL(ctx context.Context, url string) (dupe.ProductAttributes, bool, error) {
	query := fmt.Sprintf(`
SELECT url, name, price, fabric, construction, fit, care, images
FROM %s WHERE url = $1`, s.table)

	product, err := scanProduct(s.pool.QueryRow(ctx, query, url))
	if errors.Is(err, pgx.ErrNoRows) {
		return dupe.ProductAttributes{}, false, nil
	}
	if err != nil {
		return dupe.ProductAttributes{}, false, fmt.Errorf("select product: %w", err)
	}
	return product, true, nil
}

// Upsert inserts or replaces the row keyed by the product's source URL.
func (s *ProductStore) Upsert(ctx context.Context, product dupe.ProductAttributes) error {
	if product.SourceURL == "" {
		return fmt.Errorf("product has no source url")
	}
	fabric, construction, fit, care, images, err := marshalAttributes(product)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (url, name, price, fabric, construction, fit, care, images, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now())
ON CONFLICT (url) DO UPDATE SET
	name = EXCLUDED.name,
	price = EXCLUDED.price,
	fabric = EXCLUDED.fabric,
	construction = EXCLUDED.construction,
	fit = EXCLUDED.fit,
	care = EXCLUDED.care,
	images = EXCLUDED.images,
	updated_at = now()`, s.table)

	args := []any{product.SourceURL, product.Name, product.Price, fabric, construction, fit, care, images}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

// List returns all stored products ordered by source URL.
func (s *ProductStore) List(ctx context.Context) ([]dupe.ProductAttributes, error) {
	query := fmt.Sprintf(`
SELECT url, name, price, fabric, construction, fit, care, images
FROM %s ORDER BY url`, s.table)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return collectProducts(rows)
}

// Search matches the query case-insensitively against names and URLs.
func (s *ProductStore) Search(ctx context.Context, queryText string) ([]dupe.ProductAttributes, error) {
	query := fmt.Sprintf(`
SELECT url, name, price, fabric, construction, fit, care, images
FROM %s
WHERE name ILIKE '%%' || $1 || '%%' OR url ILIKE '%%' || $1 || '%%'
ORDER BY url`, s.table)

	rows, err := s.pool.Query(ctx, query, queryText)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return collectProducts(rows)
}

func marshalAttributes(product dupe.ProductAttributes) (fabric, construction, fit, care, images []byte, err error) {
	for _, field := range []struct {
		name string
		src  []string
		dst  *[]byte
	}{
		{"fabric", product.FabricComposition, &fabric},
		{"construction", product.Construction, &construction},
		{"fit", product.Fit, &fit},
		{"care", product.CareInstructions, &care},
		{"images", product.Images, &images},
	} {
		src := field.src
		if src == nil {
			src = []string{}
		}
		*field.dst, err = json.Marshal(src)
		if err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("marshal %s: %w", field.name, err)
		}
	}
	return fabric, construction, fit, care, images, nil
}

func scanProduct(row pgx.Row) (dupe.ProductAttributes, error) {
	var (
		product                                 dupe.ProductAttributes
		fabric, construction, fit, care, images []byte
	)
	if err := row.Scan(&product.SourceURL, &product.Name, &product.Price,
		&fabric, &construction, &fit, &care, &images); err != nil {
		return dupe.ProductAttributes{}, err
	}
	for _, field := range []struct {
		raw []byte
		dst *[]string
	}{
		{fabric, &product.FabricComposition},
		{construction, &product.Construction},
		{fit, &product.Fit},
		{care, &product.CareInstructions},
		{images, &product.Images},
	} {
		*field.dst = []string{}
		if len(field.raw) > 0 {
			if err := json.Unmarshal(field.raw, field.dst); err != nil {
				return dupe.ProductAttributes{}, fmt.Errorf("unmarshal attribute: %w", err)
			}
		}
	}
	return product, nil
}

func collectProducts(rows pgx.Rows) ([]dupe.ProductAttributes, error) {
	defer rows.Close()
	var out []dupe.ProductAttributes
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

func newPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}
