package ledger

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MarketSim/pkg/kit"
)

type Server struct {
	Ledger  *Ledger
	Events  Publisher
	Metrics *Metrics
	Log     *zap.Logger

	// PurchaseMiddleware wraps POST /purchases only (auth, rate limiting).
	PurchaseMiddleware []func(http.Handler) http.Handler
}

type purchaseReq struct {
	UserID    *int `json:"user_id"`
	ProductID *int `json:"product_id"`
}

func (s *Server) Register(r chi.Router) {
	r.Get("/users/{id}/products", s.productsOf)
	r.Get("/products/{id}/buyers", s.buyersOf)

	r.Group(func(pr chi.Router) {
		pr.Use(s.PurchaseMiddleware...)
		pr.Post("/purchases", s.purchase)
	})
}

// purchase
//
//	@Summary		Buy a product
//	@Description	Debits the product price from the user's balance and records the purchase.
//	@Tags			ledger
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		purchaseReq	true	"Buyer and product"
//	@Success		201		{object}	ledger.Receipt
//	@Failure		400		{object}	kit.ErrorResponse
//	@Failure		401		{object}	kit.ErrorResponse
//	@Failure		404		{object}	kit.ErrorResponse	"Unknown user or product"
//	@Failure		422		{object}	kit.ErrorResponse	"Insufficient funds"
//	@Failure		429		{object}	kit.ErrorResponse
//	@Router			/purchases [post]
func (s *Server) purchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if req.UserID == nil || req.ProductID == nil {
		kit.WriteError(w, r, http.StatusBadRequest, "user_id and product_id required", nil)
		return
	}

	receipt, err := s.Ledger.Purchase(r.Context(), *req.UserID, *req.ProductID)
	s.Metrics.Observe(receipt, err)
	if err != nil {
		s.writePurchaseError(w, r, err)
		return
	}

	s.logger().Info("purchase completed",
		zap.String("purchase_id", receipt.ID),
		zap.Int("user_id", receipt.UserID),
		zap.Int("product_id", receipt.ProductID),
		zap.Int64("price", receipt.Price),
		zap.Int64("balance_after", receipt.BalanceAfter),
	)

	if s.Events != nil {
		if err := s.Events.PublishPurchase(r.Context(), receipt); err != nil {
			s.logger().Error("Failed to publish purchase event", zap.Error(err), zap.String("purchase_id", receipt.ID))
		}
	}

	kit.WriteJSON(w, http.StatusCreated, receipt)
}

func (s *Server) writePurchaseError(w http.ResponseWriter, r *http.Request, err error) {
	var unknown *UnknownPartyError
	var funds *InsufficientFundsError

	switch {
	case errors.As(err, &unknown):
		kit.WriteError(w, r, http.StatusNotFound, "unknown party", map[string]any{
			"user_id":         unknown.UserID,
			"product_id":      unknown.ProductID,
			"user_missing":    unknown.UserMissing,
			"product_missing": unknown.ProductMissing,
		})
	case errors.As(err, &funds):
		kit.WriteError(w, r, http.StatusUnprocessableEntity, "insufficient funds", map[string]any{
			"balance":   funds.Balance,
			"price":     funds.Price,
			"shortfall": funds.Shortfall(),
		})
	default:
		s.logger().Error("purchase failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

// productsOf
//
//	@Summary	Products bought by a user
//	@Tags		ledger
//	@Produce	json
//	@Param		id	path	int	true	"User id"
//	@Success	200	{array}	catalog.Product
//	@Router		/users/{id}/products [get]
func (s *Server) productsOf(w http.ResponseWriter, r *http.Request) {
	id, ok := kit.IntURLParam(r, "id")
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid id", map[string]any{"id": chi.URLParam(r, "id")})
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.Ledger.ProductsOf(id))
}

// buyersOf
//
//	@Summary	Users who bought a product
//	@Tags		ledger
//	@Produce	json
//	@Param		id	path	int	true	"Product id"
//	@Success	200	{array}	catalog.User
//	@Router		/products/{id}/buyers [get]
func (s *Server) buyersOf(w http.ResponseWriter, r *http.Request) {
	id, ok := kit.IntURLParam(r, "id")
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid id", map[string]any{"id": chi.URLParam(r, "id")})
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.Ledger.BuyersOf(id))
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
