package catalog

import (
	"fmt"
	"strings"
)

// ProductText renders a product into the canonical multi-line blob used
// for embedding. Missing fields render as empty values. A product with no
// displayable field at all yields the empty string so callers can skip it.
func ProductText(p Product) string {
	covers := strings.Join(p.CoverTypes, ", ")
	if p.Name == "" && p.Brand == "" && p.Model == "" && covers == "" &&
		p.Description == "" && p.Price == "" && p.Category == "" {
		return ""
	}
	return fmt.Sprintf(`Product Name: %s
Brand: %s
Model: %s
Type: %s
Description: %s
Price: %s
Category: %s`, p.Name, p.Brand, p.Model, covers, p.Description, p.Price, p.Category)
}

// FAQText renders a FAQ as "Q: ...\nA: ...". A FAQ with neither question
// nor answer yields the empty string.
func FAQText(f FAQ) string {
	if f.Question == "" && f.Answer == "" {
		return ""
	}
	return fmt.Sprintf("Q: %s\nA: %s", f.Question, f.Answer)
}
