package catalog

import "time"

const (
	RouteProducts           = "/products"
	RouteProductCategories  = "/products/categories"
	RouteProductsByCategory = "/products/category/"
	DefaultPageLimit        = 30
)

type Product struct {
	ID                 int       `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Category           string    `json:"category"`
	Price              float64   `json:"price"`
	DiscountPercentage float64   `json:"discountPercentage"`
	Rating             float64   `json:"rating"`
	Stock              int       `json:"stock"`
	Brand              string    `json:"brand,omitempty"`
	Thumbnail          string    `json:"thumbnail,omitempty"`
	Images             []string  `json:"images,omitempty"`
	IsDeleted          bool      `json:"isDeleted,omitempty"`
	DeletedOn          time.Time `json:"deletedOn,omitzero"`
}

// ProductsPage is one page of GET /products, or the whole result of a
// category listing.
type ProductsPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Skip     int       `json:"skip"`
	Limit    int       `json:"limit"`
}

// Without returns a copy of the page with the product removed and the total
// decremented. The page is returned unchanged when the product is absent.
func (p ProductsPage) Without(id int) ProductsPage {
	kept := make([]Product, 0, len(p.Products))
	for _, product := range p.Products {
		if product.ID != id {
			kept = append(kept, product)
		}
	}
	if len(kept) == len(p.Products) {
		return p
	}
	p.Products = kept
	p.Total = max(p.Total-1, 0)
	return p
}

type Category struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// NextPage returns the page number to load after pages, or false once every
// product counted by the last page's total has been loaded.
func NextPage(pages []ProductsPage) (int, bool) {
	if len(pages) == 0 {
		return 1, true
	}
	loaded := 0
	for _, p := range pages {
		loaded += len(p.Products)
	}
	if loaded < pages[len(pages)-1].Total {
		return len(pages) + 1, true
	}
	return 0, false
}
