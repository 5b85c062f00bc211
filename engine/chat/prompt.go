package chat

import (
	"fmt"
	"strings"
)

// buildPrompt assembles the instruction template with the retrieved
// context. Callers cap products and faqs before passing them in to bound
// prompt size.
func buildPrompt(query string, products []ProductResult, faqs []FAQResult) string {
	var b strings.Builder

	b.WriteString("You are a helpful e-commerce chatbot assistant for Casemellow, a phone case store.\n\n")
	fmt.Fprintf(&b, "User Query: %q\n\n", query)

	if len(products) > 0 {
		b.WriteString("Available Products:\n")
		for i, p := range products {
			fmt.Fprintf(&b, "%d. %s - %s\n", i+1, p.Name, p.Price)
			if p.Brand != "" {
				fmt.Fprintf(&b, "   Brand: %s\n", p.Brand)
			}
			if p.Model != "" {
				fmt.Fprintf(&b, "   Model: %s\n", p.Model)
			}
		}
		b.WriteString("\n")
	}

	if len(faqs) > 0 {
		b.WriteString("Frequently Asked Questions:\n")
		for i, f := range faqs {
			fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n\n", i+1, f.Question, i+1, f.Answer)
		}
	}

	b.WriteString(`Instructions:
- Provide a friendly, conversational response to the user's query
- If products are available, mention them naturally (e.g., "I found some great options for you...")
- If FAQs are relevant, incorporate that information naturally
- If no products/FAQs are found, politely suggest alternative searches or general help
- Keep response concise (2-4 sentences)
- Be enthusiastic and helpful
- Don't mention technical terms like "embeddings" or "database"
- Don't make up product details not in the context

Response:`)

	return b.String()
}
