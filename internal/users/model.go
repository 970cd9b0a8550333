package users

import "time"

type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	PictureURL string    `json:"pictureUrl"`
	Industry   string    `json:"industry"`
	Experience int       `json:"experience"`
	Skills     []string  `json:"skills"`
	Bio        string    `json:"bio"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Profile holds the career attributes used to personalise generated content.
type Profile struct {
	Industry   string
	Experience int
	Skills     []string
	Bio        string
}

// HasProfile reports whether onboarding filled in an industry.
func (u User) HasProfile() bool {
	return u.Industry != ""
}
