package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// HTTPClient is the subset of client.Client the catalog API needs.
type HTTPClient interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// API wraps the products endpoints.
type API struct {
	http HTTPClient
}

func NewAPI(httpClient HTTPClient) *API {
	return &API{http: httpClient}
}

// Products fetches one page. Pages are numbered from 1; non-positive page or
// limit fall back to 1 and DefaultPageLimit.
func (a *API) Products(ctx context.Context, page, limit int) (*ProductsPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("skip", strconv.Itoa((page-1)*limit))

	var resp ProductsPage
	if err := a.http.Get(ctx, RouteProducts, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *API) ProductsByCategory(ctx context.Context, slug string) (*ProductsPage, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("[catalog ProductsByCategory] category is required")
	}
	var resp ProductsPage
	if err := a.http.Get(ctx, RouteProductsByCategory+url.PathEscape(slug), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (a *API) Categories(ctx context.Context) ([]Category, error) {
	var resp []Category
	if err := a.http.Get(ctx, RouteProductCategories, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// DeleteProduct returns the product as the API reports it after deletion.
func (a *API) DeleteProduct(ctx context.Context, id int) (*Product, error) {
	var resp Product
	if err := a.http.Delete(ctx, fmt.Sprintf("%s/%d", RouteProducts, id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
