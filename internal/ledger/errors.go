package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownParty      = errors.New("unknown user or product")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// UnknownPartyError reports which side of a purchase did not resolve.
type UnknownPartyError struct {
	UserID         int
	ProductID      int
	UserMissing    bool
	ProductMissing bool
}

func (e *UnknownPartyError) Error() string {
	switch {
	case e.UserMissing && e.ProductMissing:
		return fmt.Sprintf("unknown user %d and product %d", e.UserID, e.ProductID)
	case e.UserMissing:
		return fmt.Sprintf("unknown user %d", e.UserID)
	default:
		return fmt.Sprintf("unknown product %d", e.ProductID)
	}
}

func (e *UnknownPartyError) Is(target error) bool { return target == ErrUnknownParty }

// InsufficientFundsError reports a balance below the product price.
type InsufficientFundsError struct {
	UserID    int
	ProductID int
	Balance   int64
	Price     int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("user %d cannot afford product %d: balance %d, price %d",
		e.UserID, e.ProductID, e.Balance, e.Price)
}

func (e *InsufficientFundsError) Is(target error) bool { return target == ErrInsufficientFunds }

// Shortfall is how much more the user would need.
func (e *InsufficientFundsError) Shortfall() int64 { return e.Price - e.Balance }
