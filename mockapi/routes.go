package mockapi

import "net/http"

const (
	RouteAuthLogin          = "/auth/login"
	RouteAuthMe             = "/auth/me"
	RouteAuthRefresh        = "/auth/refresh"
	RouteProducts           = "/products"
	RouteProductCategories  = "/products/categories"
	RouteProductsByCategory = "/products/category/{slug}"
	RouteProductByID        = "/products/{id}"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireAuth())...))

	s.RegisterRouteHandler("GET "+RouteProducts, ChainMiddleware(s.ProductsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteProductCategories, ChainMiddleware(s.CategoriesHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteProductsByCategory, ChainMiddleware(s.ProductsByCategoryHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("DELETE "+RouteProductByID, ChainMiddleware(s.DeleteProductHandler(), s.APIMiddleware(s.RequireAuth())...))

	s.RegisterRouteHandler("/", ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, "Route not found", http.StatusNotFound)
	}, s.APIMiddleware()...))
}
