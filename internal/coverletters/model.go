package coverletters

import "time"

const (
	StatusDraft     = "draft"
	StatusCompleted = "completed"
)

// CoverLetter is a generated letter owned by a single user.
type CoverLetter struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Content        string    `json:"content"`
	JobDescription string    `json:"jobDescription"`
	CompanyName    string    `json:"companyName"`
	JobTitle       string    `json:"jobTitle"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// GenerateInput carries the job details supplied by the caller.
type GenerateInput struct {
	JobTitle       string
	CompanyName    string
	JobDescription string
}
