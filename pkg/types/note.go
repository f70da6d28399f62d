package types

// Note is free-form rich content attached to a project. Content and
// PlainText are stored as given; keeping them consistent is up to the caller.
type Note struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	PlainText string `json:"plainText"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}
