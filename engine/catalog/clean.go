package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RawProduct mirrors the storefront's raw catalog dump before cleaning.
type RawProduct struct {
	ID          string      `json:"_id"`
	Name        string      `json:"productName"`
	Brands      rawBrand    `json:"brands"`
	Model       string      `json:"phoneModel"`
	CoverTypes  []string    `json:"coverType"`
	Description string      `json:"productDescription"`
	Price       json.Number `json:"productPrice"`
	Category    string      `json:"productCategory"`
	Image       string      `json:"productImage"`
}

type rawBrand struct {
	Name string `json:"brandName"`
}

// CleanProduct trims a raw catalog entry and derives its canonical URL
// from the store base URL, category, and source id.
func CleanProduct(raw RawProduct, baseURL string) Product {
	category := strings.ToLower(strings.TrimSpace(raw.Category))
	id := strings.TrimSpace(raw.ID)
	price := raw.Price
	if price == "" {
		price = "0"
	}
	return Product{
		Name:        strings.TrimSpace(raw.Name),
		Brand:       strings.TrimSpace(raw.Brands.Name),
		Model:       strings.TrimSpace(raw.Model),
		CoverTypes:  raw.CoverTypes,
		Description: strings.TrimSpace(raw.Description),
		Price:       price,
		Category:    category,
		Image:       strings.TrimSpace(raw.Image),
		URL:         fmt.Sprintf("%s/products/%s/%s", strings.TrimRight(baseURL, "/"), category, id),
	}
}

// CleanProducts cleans a full raw dump in input order.
func CleanProducts(raws []RawProduct, baseURL string) []Product {
	out := make([]Product, len(raws))
	for i, r := range raws {
		out[i] = CleanProduct(r, baseURL)
	}
	return out
}
