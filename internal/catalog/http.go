package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"MarketSim/pkg/kit"
)

type Server struct {
	Catalog *Catalog
}

func (s *Server) Register(r chi.Router) {
	r.Get("/users", s.listUsers)
	r.Get("/users/{id}", s.getUser)
	r.Get("/products", s.listProducts)
	r.Get("/products/{id}", s.getProduct)
}

// listUsers
//
//	@Summary	List users
//	@Tags		catalog
//	@Produce	json
//	@Success	200	{array}	catalog.User
//	@Router		/users [get]
func (s *Server) listUsers(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Catalog.ListUsers())
}

// listProducts
//
//	@Summary	List products
//	@Tags		catalog
//	@Produce	json
//	@Success	200	{array}	catalog.Product
//	@Router		/products [get]
func (s *Server) listProducts(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Catalog.ListProducts())
}

// getUser
//
//	@Summary	Get user
//	@Tags		catalog
//	@Produce	json
//	@Param		id	path		int	true	"User id"
//	@Success	200	{object}	catalog.User
//	@Failure	400	{object}	kit.ErrorResponse
//	@Failure	404	{object}	kit.ErrorResponse
//	@Router		/users/{id} [get]
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := kit.IntURLParam(r, "id")
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid id", map[string]any{"id": chi.URLParam(r, "id")})
		return
	}

	u, found := s.Catalog.GetUser(id)
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, u)
}

// getProduct
//
//	@Summary	Get product
//	@Tags		catalog
//	@Produce	json
//	@Param		id	path		int	true	"Product id"
//	@Success	200	{object}	catalog.Product
//	@Failure	400	{object}	kit.ErrorResponse
//	@Failure	404	{object}	kit.ErrorResponse
//	@Router		/products/{id} [get]
func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := kit.IntURLParam(r, "id")
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid id", map[string]any{"id": chi.URLParam(r, "id")})
		return
	}

	p, found := s.Catalog.GetProduct(id)
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}
