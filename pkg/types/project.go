package types

// Project is the top-level record. Steps and notes are scoped to a project
// through their ProjectID.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"` // ISO-8601
	UpdatedAt   string `json:"updated_at"` // ISO-8601
	Gradient    string `json:"gradient"`   // Opaque display token.

	// CurrentStepID optionally references a Step of this project. The store
	// does not check that the step exists or belongs to the project.
	CurrentStepID *string `json:"currentStepId"`
}

// HasCurrentStep reports whether a current step is set.
func (p Project) HasCurrentStep() bool {
	return p.CurrentStepID != nil && *p.CurrentStepID != ""
}

// StringPtr returns a pointer to s. Handy for optional record fields.
func StringPtr(s string) *string {
	return &s
}
