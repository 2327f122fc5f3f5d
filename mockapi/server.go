// Package mockapi is an in-process implementation of the catalog API used for
// local development and end-to-end tests.
package mockapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-catalog-client/catalog"
	"github.com/jrsteele09/go-catalog-client/internal/config"
	"github.com/rs/zerolog"
)

type Config interface {
	config.EnvConfig
	config.MockAPIConfig
}

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	logger zerolog.Logger

	accessTokens  *AccessTokens
	refreshTokens *RefreshTokens
	accounts      *Accounts
	products      *Products

	seedUsers    []SeedUser
	seedProducts []catalog.Product
}

type Option func(*Server)

func WithSeedUsers(seed []SeedUser) Option {
	return func(s *Server) {
		s.seedUsers = seed
	}
}

func WithSeedProducts(seed []catalog.Product) Option {
	return func(s *Server) {
		s.seedProducts = seed
	}
}

func New(cfg Config, logger zerolog.Logger, opts ...Option) (*Server, error) {
	s := &Server{
		env:          cfg.GetEnv(),
		mux:          http.NewServeMux(),
		logger:       logger.With().Str("component", "mockapi").Logger(),
		seedUsers:    DefaultSeedUsers(),
		seedProducts: DefaultSeedProducts(),
	}
	for _, opt := range opts {
		opt(s)
	}

	accounts, err := NewAccounts(s.seedUsers)
	if err != nil {
		return nil, fmt.Errorf("[mockapi New] failed to seed accounts: %w", err)
	}
	s.accounts = accounts
	s.products = NewProducts(s.seedProducts)
	s.accessTokens = NewAccessTokens(NewHMACSigner(cfg.GetMockAPISigningSecret()), cfg.GetMockAPIAccessTokenTTL())
	s.refreshTokens = NewRefreshTokens(cfg.GetMockAPIRefreshTokenLength())

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		s.logger.Debug().Str("method", method).Str("path", path).Msg("route registered")
	}
}
