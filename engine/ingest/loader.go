package ingest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/casemellow/chatbot/engine/catalog"
)

// LoadProducts reads a cleaned product dataset. A missing or malformed
// file is fatal for the whole run: the caller aborts with zero successes.
func LoadProducts(path string) ([]catalog.Product, error) {
	var products []catalog.Product
	if err := loadJSON(path, &products); err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return products, nil
}

// LoadFAQs reads the FAQ dataset.
func LoadFAQs(path string) ([]catalog.FAQ, error) {
	var faqs []catalog.FAQ
	if err := loadJSON(path, &faqs); err != nil {
		return nil, fmt.Errorf("load faqs: %w", err)
	}
	return faqs, nil
}

// LoadRawProducts reads a raw storefront dump for cleaning.
func LoadRawProducts(path string) ([]catalog.RawProduct, error) {
	var raws []catalog.RawProduct
	if err := loadJSON(path, &raws); err != nil {
		return nil, fmt.Errorf("load raw products: %w", err)
	}
	return raws, nil
}

// SaveProducts writes a cleaned product dataset.
func SaveProducts(path string, products []catalog.Product) error {
	data, err := json.MarshalIndent(products, "", "    ")
	if err != nil {
		return fmt.Errorf("save products: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save products: %w", err)
	}
	return nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
