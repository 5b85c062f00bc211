package chat

// ProductResult is a product surfaced to the caller. Name and Price are
// required; hits missing either are dropped during retrieval.
type ProductResult struct {
	Name     string `json:"productName"`
	URL      string `json:"productUrl"`
	Image    string `json:"productImage"`
	Price    string `json:"productPrice"`
	Brand    string `json:"brandName,omitempty"`
	Model    string `json:"phoneModel,omitempty"`
	Category string `json:"productCategory,omitempty"`
}

// FAQResult is a question/answer pair surfaced to the caller.
type FAQResult struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Response is the assembled answer for one query. Transient; one per
// request.
type Response struct {
	Query      string          `json:"query"`
	Text       string          `json:"responseText"`
	Products   []ProductResult `json:"products"`
	FAQs       []FAQResult     `json:"faqs"`
	HasResults bool            `json:"hasResults"`
	Context    string          `json:"conversationContext,omitempty"`
}
