// Package store queries the catalog database. Its methods are the loader
// functions behind the cache: they run only on a full cache miss.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eshopkit/tiercache/pkg/cachecodec"
)

// Product is the catalog read model cached under the "products" namespace.
type Product struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Brand      string    `json:"brand"`
	PriceCents int64     `json:"price_cents"`
	InStock    bool      `json:"in_stock"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Category is the taxonomy read model cached under "categories".
type Category struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// DashboardStats is the admin dashboard read model cached under
// "adminDashboard". Expensive to compute, tolerates a minute of staleness.
type DashboardStats struct {
	OrdersToday  int64     `json:"orders_today"`
	RevenueCents int64     `json:"revenue_cents"`
	ActiveUsers  int64     `json:"active_users"`
	ComputedAt   time.Time `json:"computed_at"`
}

// RegisterTypes adds the store's read models to a codec registry so they can
// travel through the distributed cache tier.
func RegisterTypes(r *cachecodec.Registry) error {
	if err := cachecodec.Register[*Product](r, "store.product"); err != nil {
		return err
	}
	if err := cachecodec.Register[[]Product](r, "store.products"); err != nil {
		return err
	}
	if err := cachecodec.Register[[]Category](r, "store.categories"); err != nil {
		return err
	}
	return cachecodec.Register[DashboardStats](r, "store.dashboard")
}

// Store runs catalog queries against PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps a connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ProductByID returns one product, or nil when it does not exist. Absence is
// not an error: the cache must not store it, and the handler answers 404.
func (s *Store) ProductByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	var p Product
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, brand, price_cents, in_stock, updated_at
		FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Brand, &p.PriceCents, &p.InStock, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Products returns one catalog page.
func (s *Store) Products(ctx context.Context, limit, offset int) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, brand, price_cents, in_stock, updated_at
		FROM products ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Brand, &p.PriceCents, &p.InStock, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FeaturedProducts returns the curated storefront selection. Warmed on a
// schedule because every visitor hits it.
func (s *Store) FeaturedProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.name, p.brand, p.price_cents, p.in_stock, p.updated_at
		FROM products p JOIN featured f ON f.product_id = p.id
		ORDER BY f.position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Brand, &p.PriceCents, &p.InStock, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Categories returns the full taxonomy.
func (s *Store) Categories(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, slug FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AdminDashboard aggregates today's order and user counters.
func (s *Store) AdminDashboard(ctx context.Context) (DashboardStats, error) {
	var d DashboardStats
	err := s.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE created_at >= date_trunc('day', now())),
			coalesce(sum(total_cents) FILTER (WHERE created_at >= date_trunc('day', now())), 0),
			(SELECT count(*) FROM users WHERE last_seen_at >= now() - interval '15 minutes')
		FROM orders`,
	).Scan(&d.OrdersToday, &d.RevenueCents, &d.ActiveUsers)
	if err != nil {
		return DashboardStats{}, err
	}
	d.ComputedAt = time.Now().UTC()
	return d, nil
}
