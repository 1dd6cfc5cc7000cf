package domain

// ReaderView holds the cleaned-up article content extracted from a page.
type ReaderView struct {
	URL         string `json:"url"`
	Status      string `json:"status"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	TextContent string `json:"textContent"`
	Excerpt     string `json:"excerpt"`
	SiteName    string `json:"siteName"`
	Markdown    string `json:"markdown,omitempty"`
	Error       string `json:"error,omitempty"`
}
