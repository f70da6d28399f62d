package types

// Step is an ordered unit of work inside a project. Display order is
// OrderIndex ascending; indexes need not be contiguous.
type Step struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"project_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	PlainText   *string `json:"plainText"` // Optional plain rendering of Description.
	OrderIndex  int     `json:"order_index"`
	Completed   bool    `json:"completed"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}
