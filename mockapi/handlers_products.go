package mockapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-catalog-client/catalog"
)

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return v, nil
}

func (s *Server) ProductsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryInt(r, "limit", catalog.DefaultPageLimit)
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		skip, err := queryInt(r, "skip", 0)
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, s.products.Page(limit, skip))
	}
}

func (s *Server) CategoriesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.products.Categories(getScheme(r)+"://"+r.Host))
	}
}

func (s *Server) ProductsByCategoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.products.ByCategory(r.PathValue("slug")))
	}
}

// DeleteProductHandler deletes a product. Only admins and super admins may
// delete.
func (s *Server) DeleteProductHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := s.userFromRequest(r)
		if err != nil {
			writeJSONError(w, "Invalid/Expired Token!", http.StatusUnauthorized)
			return
		}
		if !user.IsSuperAdmin() {
			writeJSONError(w, "You don't have permission to delete products", http.StatusForbidden)
			return
		}

		rawID := r.PathValue("id")
		id, err := strconv.Atoi(rawID)
		if err != nil {
			writeJSONError(w, fmt.Sprintf("Invalid product id '%s'", rawID), http.StatusBadRequest)
			return
		}
		product, err := s.products.Delete(id)
		if err != nil {
			writeJSONError(w, fmt.Sprintf("Product with id '%d' not found", id), http.StatusNotFound)
			return
		}
		s.logger.Info().Int("productId", id).Str("username", user.Username).Msg("product deleted")
		writeJSON(w, http.StatusOK, product)
	}
}
