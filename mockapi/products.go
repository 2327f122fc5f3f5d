package mockapi

import (
	"sort"
	"strings"
	"sync"

	"github.com/jrsteele09/go-catalog-client/catalog"
	"github.com/jrsteele09/go-catalog-client/internal/errors"
)

// DefaultSeedProducts is a small catalog across a few categories.
func DefaultSeedProducts() []catalog.Product {
	type seed struct {
		title, category, brand string
		price, discount       float64
		rating                float64
		stock                 int
	}
	seeds := []seed{
		{"Essence Mascara Lash Princess", "beauty", "Essence", 9.99, 10.48, 2.56, 99},
		{"Eyeshadow Palette with Mirror", "beauty", "Glamour Beauty", 19.99, 18.19, 2.86, 34},
		{"Powder Canister", "beauty", "Velvet Touch", 14.99, 9.84, 4.64, 89},
		{"Red Lipstick", "beauty", "Chic Cosmetics", 12.99, 12.16, 4.36, 91},
		{"Red Nail Polish", "beauty", "Nail Couture", 8.99, 11.44, 4.32, 79},
		{"Calvin Klein CK One", "fragrances", "Calvin Klein", 49.99, 1.89, 4.37, 29},
		{"Chanel Coco Noir Eau De", "fragrances", "Chanel", 129.99, 16.51, 4.26, 58},
		{"Dior J'adore", "fragrances", "Dior", 89.99, 14.72, 3.8, 98},
		{"Annibale Colombo Bed", "furniture", "Annibale Colombo", 1899.99, 8.57, 4.14, 88},
		{"Annibale Colombo Sofa", "furniture", "Annibale Colombo", 2499.99, 14.4, 3.08, 60},
		{"Bedside Table African Cherry", "furniture", "Furniture Co.", 299.99, 19.09, 3.48, 64},
		{"Apple", "groceries", "", 1.99, 12.62, 4.19, 8},
		{"Beef Steak", "groceries", "", 12.99, 9.61, 4.47, 86},
		{"Cat Food", "groceries", "", 8.99, 9.58, 3.13, 46},
	}
	products := make([]catalog.Product, 0, len(seeds))
	for i, s := range seeds {
		products = append(products, catalog.Product{
			ID:                 i + 1,
			Title:              s.title,
			Description:        s.title + " from the " + categoryName(s.category) + " range.",
			Category:           s.category,
			Price:              s.price,
			DiscountPercentage: s.discount,
			Rating:             s.rating,
			Stock:              s.stock,
			Brand:              s.brand,
		})
	}
	return products
}

// Products is the mock catalog.
type Products struct {
	lock     sync.RWMutex
	products []catalog.Product
}

func NewProducts(seed []catalog.Product) *Products {
	return &Products{products: append([]catalog.Product(nil), seed...)}
}

// Page returns products[skip:skip+limit]. A limit of zero returns everything
// after skip.
func (p *Products) Page(limit, skip int) catalog.ProductsPage {
	p.lock.RLock()
	defer p.lock.RUnlock()
	total := len(p.products)
	skip = min(max(skip, 0), total)
	end := total
	if limit > 0 {
		end = min(skip+limit, total)
	}
	return catalog.ProductsPage{
		Products: append([]catalog.Product{}, p.products[skip:end]...),
		Total:    total,
		Skip:     skip,
		Limit:    end - skip,
	}
}

func (p *Products) ByCategory(slug string) catalog.ProductsPage {
	p.lock.RLock()
	defer p.lock.RUnlock()
	matched := []catalog.Product{}
	for _, product := range p.products {
		if strings.EqualFold(product.Category, slug) {
			matched = append(matched, product)
		}
	}
	return catalog.ProductsPage{Products: matched, Total: len(matched), Limit: len(matched)}
}

// Categories lists the distinct categories; baseURL prefixes each category
// url.
func (p *Products) Categories(baseURL string) []catalog.Category {
	p.lock.RLock()
	seen := map[string]bool{}
	for _, product := range p.products {
		seen[product.Category] = true
	}
	p.lock.RUnlock()

	categories := make([]catalog.Category, 0, len(seen))
	for slug := range seen {
		categories = append(categories, catalog.Category{
			Slug: slug,
			Name: categoryName(slug),
			URL:  baseURL + catalog.RouteProductsByCategory + slug,
		})
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Slug < categories[j].Slug })
	return categories
}

func categoryName(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Delete removes the product and returns it marked deleted.
func (p *Products) Delete(id int) (*catalog.Product, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	for i, product := range p.products {
		if product.ID == id {
			p.products = append(p.products[:i], p.products[i+1:]...)
			product.IsDeleted = true
			product.DeletedOn = NowTimeFunc().UTC()
			return &product, nil
		}
	}
	return nil, errors.ErrNotFound
}
