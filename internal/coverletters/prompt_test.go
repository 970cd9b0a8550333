package coverletters

import (
	"strings"
	"testing"

	"career-backend/internal/users"
)

func TestBuildPromptIncludesProfileAndJob(t *testing.T) {
	prompt, err := BuildPrompt(
		GenerateInput{JobTitle: "Backend Engineer", CompanyName: "Acme", JobDescription: "Build APIs in Go."},
		users.User{Industry: "tech-software", Experience: 6, Skills: []string{"Go", "Postgres"}, Bio: "Shipped payments systems."},
	)
	if err != nil {
		t.Fatalf("BuildPrompt: %v", err)
	}

	for _, want := range []string{
		"Backend Engineer position at Acme",
		"Industry: tech-software",
		"Years of Experience: 6",
		"Skills: Go, Postgres",
		"Professional Background: Shipped payments systems.",
		"Build APIs in Go.",
		"max 400 words",
		"markdown",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPromptFallsBackForEmptyProfile(t *testing.T) {
	prompt, err := BuildPrompt(GenerateInput{JobTitle: "Analyst", CompanyName: "Initech", JobDescription: "Numbers."}, users.User{})
	if err != nil {
		t.Fatalf("BuildPrompt: %v", err)
	}
	if !strings.Contains(prompt, "Skills: Not specified") || !strings.Contains(prompt, "Industry: Not specified") {
		t.Fatalf("expected fallbacks in prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Years of Experience: 0") {
		t.Fatalf("expected zero experience in prompt:\n%s", prompt)
	}
}
