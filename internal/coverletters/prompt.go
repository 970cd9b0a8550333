package coverletters

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"career-backend/internal/users"
)

//go:embed prompts/cover_letter.tmpl
var coverLetterTemplate string

var promptTmpl = template.Must(template.New("cover_letter").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(coverLetterTemplate))

type promptData struct {
	JobTitle       string
	CompanyName    string
	JobDescription string
	Industry       string
	Experience     int
	Skills         []string
	Bio            string
}

// BuildPrompt fills the cover letter template with job details and the user's profile.
func BuildPrompt(in GenerateInput, user users.User) (string, error) {
	var buf bytes.Buffer
	err := promptTmpl.Execute(&buf, promptData{
		JobTitle:       in.JobTitle,
		CompanyName:    in.CompanyName,
		JobDescription: in.JobDescription,
		Industry:       user.Industry,
		Experience:     user.Experience,
		Skills:         user.Skills,
		Bio:            user.Bio,
	})
	if err != nil {
		return "", fmt.Errorf("render cover letter prompt: %w", err)
	}
	return buf.String(), nil
}
