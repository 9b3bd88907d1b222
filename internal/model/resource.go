package model

// Resource is an external learning resource curated for a subtopic.
type Resource struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}
