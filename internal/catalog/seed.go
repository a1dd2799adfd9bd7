package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var (
	ErrDuplicateID = errors.New("duplicate id")
	ErrInvalidSeed = errors.New("invalid seed")
)

// Seed is the startup dataset. It is configuration, loaded once.
type Seed struct {
	Users    []User    `json:"users"`
	Products []Product `json:"products"`
}

// DefaultSeed is the reference dataset.
func DefaultSeed() Seed {
	return Seed{
		Users: []User{
			{ID: 1, FirstName: "Ann", LastName: "Adams", Balance: 100},
			{ID: 2, FirstName: "Boris", LastName: "Brown", Balance: 12000},
			{ID: 3, FirstName: "Christian", LastName: "Cook", Balance: 150000},
		},
		Products: []Product{
			{ID: 1, Name: "Apple", Price: 125},
			{ID: 2, Name: "Bell", Price: 6550},
			{ID: 3, Name: "Cake", Price: 50000},
		},
	}
}

func (s Seed) Validate() error {
	seenUsers := make(map[int]struct{}, len(s.Users))
	for _, u := range s.Users {
		if _, dup := seenUsers[u.ID]; dup {
			return fmt.Errorf("user %d: %w", u.ID, ErrDuplicateID)
		}
		seenUsers[u.ID] = struct{}{}
		if u.Balance < 0 {
			return fmt.Errorf("%w: user %d has negative balance %d", ErrInvalidSeed, u.ID, u.Balance)
		}
	}

	seenProducts := make(map[int]struct{}, len(s.Products))
	for _, p := range s.Products {
		if _, dup := seenProducts[p.ID]; dup {
			return fmt.Errorf("product %d: %w", p.ID, ErrDuplicateID)
		}
		seenProducts[p.ID] = struct{}{}
		if p.Price < 0 {
			return fmt.Errorf("%w: product %d has negative price %d", ErrInvalidSeed, p.ID, p.Price)
		}
	}
	return nil
}

// LoadSeedFile reads a JSON seed of the form {"users":[...],"products":[...]}.
func LoadSeedFile(path string) (Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return Seed{}, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()

	var s Seed
	if err := dec.Decode(&s); err != nil {
		return Seed{}, fmt.Errorf("%w: %s: %v", ErrInvalidSeed, path, err)
	}
	if err := s.Validate(); err != nil {
		return Seed{}, err
	}
	return s, nil
}

// SeedOptions selects where LoadSeed reads from.
type SeedOptions struct {
	File        string
	DatabaseURL string
	// Migrate applies the bundled schema and reference rows before reading
	// from DatabaseURL.
	Migrate bool
}

// LoadSeed picks the seed source: the database when DatabaseURL is set, then
// the JSON file, then DefaultSeed.
func LoadSeed(ctx context.Context, opts SeedOptions) (Seed, error) {
	switch {
	case opts.DatabaseURL != "":
		if opts.Migrate {
			if err := MigrateSeedDB(ctx, opts.DatabaseURL); err != nil {
				return Seed{}, err
			}
		}
		db, err := OpenPostgres(ctx, opts.DatabaseURL)
		if err != nil {
			return Seed{}, err
		}
		defer db.Close()
		return NewPostgresSeedSource(db).Load(ctx)
	case opts.File != "":
		return LoadSeedFile(opts.File)
	default:
		return DefaultSeed(), nil
	}
}
