package catalog

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tidwall/btree"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrNegativeBalance = errors.New("balance would become negative")
)

type User struct {
	ID        int    `json:"id" db:"id"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	Balance   int64  `json:"balance" db:"balance"`
}

type Product struct {
	ID    int    `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Price int64  `json:"price" db:"price"`
}

// Catalog holds the seeded users and products. Products never change after
// construction; user balances only move through Debit.
type Catalog struct {
	mu       sync.RWMutex
	users    *btree.BTreeG[*User]
	products *btree.BTreeG[Product]
}

func New(seed Seed) (*Catalog, error) {
	if err := seed.Validate(); err != nil {
		return nil, err
	}

	// Ordered by id; the catalog mutex guards both trees.
	opts := btree.Options{NoLocks: true}
	c := &Catalog{
		users: btree.NewBTreeGOptions(func(a, b *User) bool {
			return a.ID < b.ID
		}, opts),
		products: btree.NewBTreeGOptions(func(a, b Product) bool {
			return a.ID < b.ID
		}, opts),
	}
	for _, u := range seed.Users {
		u := u
		c.users.Set(&u)
	}
	for _, p := range seed.Products {
		c.products.Set(p)
	}

	return c, nil
}

// MustNew is New for seeds known to be valid, such as DefaultSeed.
func MustNew(seed Seed) *Catalog {
	c, err := New(seed)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) GetUser(id int) (User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	u, ok := c.users.Get(&User{ID: id})
	if !ok {
		return User{}, false
	}
	return *u, true
}

func (c *Catalog) GetProduct(id int) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.products.Get(Product{ID: id})
}

// ListUsers returns a snapshot of all users in ascending id order.
func (c *Catalog) ListUsers() []User {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]User, 0, c.users.Len())
	c.users.Scan(func(u *User) bool {
		out = append(out, *u)
		return true
	})
	return out
}

// ListProducts returns all products in ascending id order.
func (c *Catalog) ListProducts() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Product, 0, c.products.Len())
	c.products.Scan(func(p Product) bool {
		out = append(out, p)
		return true
	})
	return out
}

// Debit lowers a user's balance by amount and returns the updated user.
// A debit that would go below zero is refused without touching the balance.
func (c *Catalog) Debit(userID int, amount int64) (User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, ok := c.users.Get(&User{ID: userID})
	if !ok {
		return User{}, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if amount < 0 {
		return *u, fmt.Errorf("user %d: negative debit %d", userID, amount)
	}
	if u.Balance < amount {
		return *u, fmt.Errorf("user %d debit %d: %w", userID, amount, ErrNegativeBalance)
	}

	u.Balance -= amount
	return *u, nil
}
