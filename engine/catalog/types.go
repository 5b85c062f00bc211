// Package catalog defines the product and FAQ records the chatbot serves,
// their canonical text forms for embedding, and query validation. It acts
// as the validation gate at the entry points of the ingestion and query
// pipelines.
package catalog

import "encoding/json"

// Kind names the vector store collection a record belongs to.
type Kind string

const (
	KindProducts Kind = "products"
	KindFAQs     Kind = "faqs"
)

// Prefix returns the entry id prefix for the kind ("product" / "faq").
func (k Kind) Prefix() string {
	if k == KindProducts {
		return "product"
	}
	return "faq"
}

// Product is one cleaned catalog entry.
type Product struct {
	Name        string      `json:"productName"`
	Brand       string      `json:"brandName"`
	Model       string      `json:"phoneModel"`
	CoverTypes  []string    `json:"coverType"`
	Description string      `json:"productDescription"`
	Price       json.Number `json:"productPrice"`
	Category    string      `json:"productCategory"`
	Image       string      `json:"productImage"`
	URL         string      `json:"productUrl"`
}

// FAQ is a question/answer pair. Its identity is its position in the
// source dataset.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
