package shell

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"unicode"

	"go.uber.org/zap"

	"MarketSim/internal/ledger"
)

const (
	optExit = iota
	optListUsers
	optListProducts
	optBuy
	optUserProducts
	optProductBuyers
)

// maxWordLen caps a single input word; longer words read as one invalid entry.
const maxWordLen = 4096

var errNotNumber = errors.New("not a number")

// overlongWord stands in for a word longer than maxWordLen. It never parses
// as an int, whatever the word's digits were.
var overlongWord = []byte("<overlong>")

// Shell is the console front end: a numbered menu read from In and rendered
// to Out. Input is read as whitespace separated tokens, so "3 2 1" on one
// line buys product 1 for user 2.
type Shell struct {
	Ledger  *ledger.Ledger
	In      io.Reader
	Out     io.Writer
	NoColor bool
	Log     *zap.Logger

	tokens *bufio.Scanner
}

// Run shows the menu until the user picks 0, input ends, or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	s.tokens = bufio.NewScanner(s.In)
	s.tokens.Split(cappedWords())

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.info(menu)
		opt, err := s.readInt(ctx)
		if err == nil && opt == optExit {
			s.success(msgExit)
			return nil
		}
		if err == nil {
			err = s.runOperation(ctx, opt)
		}

		switch {
		case err == nil:
		case errors.Is(err, errNotNumber):
			s.fail(msgInvalidItem)
		case errors.Is(err, io.EOF):
			return nil
		default:
			return err
		}
	}
}

func (s *Shell) runOperation(ctx context.Context, opt int) error {
	switch opt {
	case optListUsers:
		s.listUsers()
	case optListProducts:
		s.listProducts()
	case optBuy:
		return s.buyProduct(ctx)
	case optUserProducts:
		return s.userProducts(ctx)
	case optProductBuyers:
		return s.productBuyers(ctx)
	default:
		s.fail(msgNonexistentItem)
	}
	return nil
}

func (s *Shell) listUsers() {
	for _, u := range s.Ledger.Catalog().ListUsers() {
		s.plain(formatUser(u))
	}
}

func (s *Shell) listProducts() {
	for _, p := range s.Ledger.Catalog().ListProducts() {
		s.plain(formatProduct(p))
	}
}

func (s *Shell) buyProduct(ctx context.Context) error {
	userID, err := s.prompt(ctx, msgUserIDPrompt)
	if err != nil {
		return err
	}
	productID, err := s.prompt(ctx, msgProductIDPrompt)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	receipt, err := s.Ledger.Purchase(ctx, userID, productID)
	switch {
	case err == nil:
		s.Log.Debug("purchase completed",
			zap.String("purchase_id", receipt.ID),
			zap.Int("user_id", userID),
			zap.Int("product_id", productID),
			zap.Int64("balance_after", receipt.BalanceAfter),
		)
		s.success(msgPurchaseSuccess)
	case errors.Is(err, ledger.ErrUnknownParty):
		s.Log.Debug("purchase rejected", zap.Error(err))
		s.fail(msgPurchaseFail)
	case errors.Is(err, ledger.ErrInsufficientFunds):
		s.Log.Debug("purchase rejected", zap.Error(err))
		s.fail(msgNotEnoughMoney)
	default:
		s.Log.Error("purchase failed", zap.Error(err))
		s.fail(msgUnexpectedFailure)
	}
	return nil
}

func (s *Shell) userProducts(ctx context.Context) error {
	userID, err := s.prompt(ctx, msgUserIDPrompt)
	if err != nil {
		return err
	}

	products := s.Ledger.ProductsOf(userID)
	if len(products) == 0 {
		s.info(msgNoPurchases)
		return nil
	}
	for _, p := range products {
		s.plain(formatProduct(p))
	}
	return nil
}

func (s *Shell) productBuyers(ctx context.Context) error {
	productID, err := s.prompt(ctx, msgProductIDPrompt)
	if err != nil {
		return err
	}

	users := s.Ledger.BuyersOf(productID)
	if len(users) == 0 {
		s.info(msgNoBuyers)
		return nil
	}
	for _, u := range users {
		s.plain(formatUser(u))
	}
	return nil
}

func (s *Shell) prompt(ctx context.Context, msg string) (int, error) {
	s.info(msg)
	return s.readInt(ctx)
}

// readInt returns io.EOF when input is exhausted and errNotNumber for a token
// that is not an integer. Input that arrives after ctx is done is dropped.
func (s *Shell) readInt(ctx context.Context) (int, error) {
	if !s.tokens.Scan() {
		if err := s.tokens.Err(); err != nil {
			return 0, err
		}
		return 0, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n, err := strconv.Atoi(s.tokens.Text())
	if err != nil {
		return 0, errNotNumber
	}
	return n, nil
}

// cappedWords is bufio.ScanWords with a bound on word length: a word longer
// than maxWordLen yields overlongWord once and the rest of it is discarded.
func cappedWords() bufio.SplitFunc {
	skipping := false
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if skipping {
			i := bytes.IndexFunc(data, unicode.IsSpace)
			if i < 0 {
				return len(data), nil, nil
			}
			skipping = false
			if i > 0 {
				return i, nil, nil
			}
		}

		advance, token, err := bufio.ScanWords(data, atEOF)
		if err != nil || token != nil || advance > 0 || atEOF {
			return advance, token, err
		}

		start := bytes.IndexFunc(data, func(r rune) bool { return !unicode.IsSpace(r) })
		if start >= 0 && len(data)-start > maxWordLen {
			skipping = true
			return len(data), overlongWord, nil
		}
		return 0, nil, nil
	}
}
