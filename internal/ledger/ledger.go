package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"MarketSim/internal/catalog"
	"MarketSim/pkg/kit"
)

// Receipt describes a completed purchase.
type Receipt struct {
	ID           string    `json:"id"`
	UserID       int       `json:"user_id"`
	ProductID    int       `json:"product_id"`
	Price        int64     `json:"price"`
	BalanceAfter int64     `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

// Ledger executes purchases against a Catalog and keeps the two purchase
// indices. The indices hold ids only; records are resolved through the
// Catalog when read.
type Ledger struct {
	catalog *catalog.Catalog
	now     func() time.Time

	mu              sync.Mutex
	purchasesByUser map[int][]int
	buyersByProduct map[int][]int
	isBuyer         map[int]map[int]struct{}
}

// New returns an empty ledger over c.
func New(c *catalog.Catalog) *Ledger {
	return &Ledger{
		catalog:         c,
		now:             time.Now,
		purchasesByUser: make(map[int][]int),
		buyersByProduct: make(map[int][]int),
		isBuyer:         make(map[int]map[int]struct{}),
	}
}

// Purchase debits the user by the product price and records the purchase.
// All checks happen before any mutation, so a failed purchase leaves
// balances and indices untouched.
func (l *Ledger) Purchase(ctx context.Context, userID, productID int) (Receipt, error) {
	_, span := kit.StartSpan(ctx, "Ledger.Purchase")
	defer span.End()
	span.SetAttributes(attribute.Int("user_id", userID), attribute.Int("product_id", productID))

	r, err := l.purchase(userID, productID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return r, err
}

func (l *Ledger) purchase(userID, productID int) (Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	user, userOK := l.catalog.GetUser(userID)
	product, productOK := l.catalog.GetProduct(productID)
	if !userOK || !productOK {
		return Receipt{}, &UnknownPartyError{
			UserID:         userID,
			ProductID:      productID,
			UserMissing:    !userOK,
			ProductMissing: !productOK,
		}
	}

	if user.Balance < product.Price {
		return Receipt{}, &InsufficientFundsError{
			UserID:    userID,
			ProductID: productID,
			Balance:   user.Balance,
			Price:     product.Price,
		}
	}

	// Only the ledger debits and it holds l.mu, so the check above still holds.
	user, err := l.catalog.Debit(userID, product.Price)
	if err != nil {
		return Receipt{}, fmt.Errorf("debit: %w", err)
	}

	l.purchasesByUser[userID] = append(l.purchasesByUser[userID], productID)

	buyers, ok := l.isBuyer[productID]
	if !ok {
		buyers = make(map[int]struct{})
		l.isBuyer[productID] = buyers
	}
	if _, seen := buyers[userID]; !seen {
		buyers[userID] = struct{}{}
		l.buyersByProduct[productID] = append(l.buyersByProduct[productID], userID)
	}

	return Receipt{
		ID:           "pur_" + uuid.NewString(),
		UserID:       userID,
		ProductID:    productID,
		Price:        product.Price,
		BalanceAfter: user.Balance,
		CreatedAt:    l.now().UTC(),
	}, nil
}

// ProductsOf returns the products a user bought, in purchase order and with
// repeats. Unknown users and users without purchases get an empty slice.
func (l *Ledger) ProductsOf(userID int) []catalog.Product {
	l.mu.Lock()
	ids := append([]int(nil), l.purchasesByUser[userID]...)
	l.mu.Unlock()

	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := l.catalog.GetProduct(id); ok {
			out = append(out, p)
		}
	}
	return out
}

// BuyersOf returns each distinct buyer of a product once, in the order of
// their first purchase, with current balances.
func (l *Ledger) BuyersOf(productID int) []catalog.User {
	l.mu.Lock()
	ids := append([]int(nil), l.buyersByProduct[productID]...)
	l.mu.Unlock()

	out := make([]catalog.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := l.catalog.GetUser(id); ok {
			out = append(out, u)
		}
	}
	return out
}

// Catalog returns the catalog purchases are executed against.
func (l *Ledger) Catalog() *catalog.Catalog { return l.catalog }
