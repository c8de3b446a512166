// Package catalog holds the read-only product list the storefront sells from.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Jlymoure25/regaltyecommerce/internal/domain"
	apperrors "github.com/Jlymoure25/regaltyecommerce/pkg/errors"
	"github.com/Jlymoure25/regaltyecommerce/pkg/pagination"
	"github.com/Jlymoure25/regaltyecommerce/pkg/slug"
)

//go:embed products.json
var defaultProducts []byte

// CategoryAll is the pseudo-category that matches every product.
const CategoryAll = "all"

var categoryNames = map[string]string{
	CategoryAll:           "All Luxury Items",
	"luxury-apparel":      "Luxury Apparel",
	"premium-accessories": "Premium Accessories",
	"luxury-home":         "Luxury Home",
}

// Category is a filter option with its display name and product count.
type Category struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SortOrder selects how search results are ordered.
type SortOrder string

const (
	SortDefault   SortOrder = "default"
	SortPriceLow  SortOrder = "price-low"
	SortPriceHigh SortOrder = "price-high"
	SortNameAZ    SortOrder = "name-az"
	SortNameZA    SortOrder = "name-za"
)

// ParseSortOrder maps a query value to a SortOrder. Empty means SortDefault.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return SortDefault, nil
	case SortDefault, SortPriceLow, SortPriceHigh, SortNameAZ, SortNameZA:
		return o, nil
	default:
		return "", apperrors.InvalidInput(fmt.Sprintf("unknown sort %q", s))
	}
}

// Query is a search over the catalog.
type Query struct {
	Search   string
	Category string
	Sort     SortOrder
	Page     pagination.Params
}

// Result is one page of matches plus the size of the whole catalog, so callers
// can render "showing N of M".
type Result struct {
	pagination.Result[domain.Product]
	CatalogSize int `json:"catalog_size"`
}

// Catalog is an immutable, validated product list. It is safe for concurrent use.
type Catalog struct {
	products   []domain.Product
	byID       map[int]int
	bySlug     map[string]int
	categories []Category
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultProducts)
}

// Load reads a catalog from a JSON file. An empty path yields the embedded catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog file %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a JSON array of products and validates it.
func Parse(data []byte) (*Catalog, error) {
	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(products)
}

// New validates products and indexes them. Missing slugs are derived from titles.
func New(products []domain.Product) (*Catalog, error) {
	if len(products) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	c := &Catalog{
		products: make([]domain.Product, 0, len(products)),
		byID:     make(map[int]int, len(products)),
		bySlug:   make(map[string]int, len(products)),
	}

	for _, p := range products {
		if p.ID <= 0 {
			return nil, fmt.Errorf("product %q: id must be positive", p.Title)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %d", p.ID)
		}
		if strings.TrimSpace(p.Title) == "" {
			return nil, fmt.Errorf("product %d: title is required", p.ID)
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("product %d: price must not be negative", p.ID)
		}
		if strings.TrimSpace(p.Category) == "" {
			return nil, fmt.Errorf("product %d: category is required", p.ID)
		}
		if p.Slug == "" {
			p.Slug = slug.Generate(p.Title)
		}
		if _, dup := c.bySlug[p.Slug]; dup {
			return nil, fmt.Errorf("product %d: duplicate slug %q", p.ID, p.Slug)
		}

		c.byID[p.ID] = len(c.products)
		c.bySlug[p.Slug] = len(c.products)
		c.products = append(c.products, p)
	}

	c.categories = buildCategories(c.products)
	return c, nil
}

func buildCategories(products []domain.Product) []Category {
	cats := []Category{{Slug: CategoryAll, Name: categoryName(CategoryAll), Count: len(products)}}
	index := make(map[string]int)
	for _, p := range products {
		i, ok := index[p.Category]
		if !ok {
			i = len(cats)
			index[p.Category] = i
			cats = append(cats, Category{Slug: p.Category, Name: categoryName(p.Category)})
		}
		cats[i].Count++
	}
	return cats
}

func categoryName(s string) string {
	if name, ok := categoryNames[s]; ok {
		return name
	}
	return s
}

// Len is the number of products in the catalog.
func (c *Catalog) Len() int {
	return len(c.products)
}

// Get looks up a product by ID.
func (c *Catalog) Get(id int) (domain.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, apperrors.NotFound("product", strconv.Itoa(id))
	}
	return c.products[i], nil
}

// GetBySlug looks up a product by its URL slug.
func (c *Catalog) GetBySlug(s string) (domain.Product, error) {
	i, ok := c.bySlug[s]
	if !ok {
		return domain.Product{}, apperrors.NotFound("product", s)
	}
	return c.products[i], nil
}

// Categories returns "all" followed by each category in first-seen order.
func (c *Catalog) Categories() []Category {
	return slices.Clone(c.categories)
}

// Search filters by text and category, orders the matches and returns the
// requested page. Text matches case-insensitively against title or description.
// An unknown category matches nothing.
func (c *Catalog) Search(q Query) Result {
	term := strings.ToLower(strings.TrimSpace(q.Search))
	category := strings.TrimSpace(q.Category)

	matched := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		if category != "" && category != CategoryAll && p.Category != category {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Title), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) {
			continue
		}
		matched = append(matched, p)
	}

	sortProducts(matched, q.Sort)

	page := q.Page
	if page.Page <= 0 || page.PerPage <= 0 {
		page = pagination.DefaultParams()
	}
	page.Offset = (page.Page - 1) * page.PerPage

	return Result{
		Result:      pagination.Slice(matched, page),
		CatalogSize: len(c.products),
	}
}

// sortProducts orders products in place. Ties keep catalog order.
func sortProducts(products []domain.Product, order SortOrder) {
	switch order {
	case SortPriceLow:
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return a.Price.Cmp(b.Price)
		})
	case SortPriceHigh:
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return b.Price.Cmp(a.Price)
		})
	case SortNameAZ, SortNameZA:
		// A Collator keeps scratch buffers, so each sort gets its own.
		col := collate.New(language.English, collate.IgnoreCase)
		sign := 1
		if order == SortNameZA {
			sign = -1
		}
		slices.SortStableFunc(products, func(a, b domain.Product) int {
			return sign * col.CompareString(a.Title, b.Title)
		})
	}
}
