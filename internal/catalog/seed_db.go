package catalog

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

// PostgresSeedSource reads the seed from users/products tables. It is read
// once at startup; balances are never written back.
type PostgresSeedSource struct {
	db *sqlx.DB
}

func NewPostgresSeedSource(db *sqlx.DB) *PostgresSeedSource {
	return &PostgresSeedSource{db: db}
}

// OpenPostgres opens a pgx-backed handle and checks it is reachable.
func OpenPostgres(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	err = withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return db.PingContext(ctx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (s *PostgresSeedSource) Load(ctx context.Context) (Seed, error) {
	var seed Seed

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		users, err := s.loadUsers(ctx)
		if err != nil {
			return err
		}
		products, err := s.loadProducts(ctx)
		if err != nil {
			return err
		}
		seed = Seed{Users: users, Products: products}
		return nil
	})
	if err != nil {
		return Seed{}, err
	}

	if err := seed.Validate(); err != nil {
		return Seed{}, err
	}
	return seed, nil
}

func (s *PostgresSeedSource) loadUsers(ctx context.Context) ([]User, error) {
	out := make([]User, 0, 16)
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, first_name, last_name, balance
		FROM users
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	return out, nil
}

func (s *PostgresSeedSource) loadProducts(ctx context.Context) ([]Product, error) {
	out := make([]Product, 0, 16)
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, name, price
		FROM products
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return out, nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
