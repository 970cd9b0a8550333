package navigation

import (
	"context"
	"strings"

	"career-backend/internal/shared/telemetry"
	"career-backend/internal/users"
)

// UserEnsurer creates the user row on first sight.
type UserEnsurer interface {
	EnsureFromClaims(ctx context.Context, id users.Identity) (users.User, error)
}

type Service struct {
	Brand Brand
	Users UserEnsurer
}

func NewService(brand Brand, ensurer UserEnsurer) *Service {
	if strings.TrimSpace(brand.Href) == "" {
		brand.Href = "/"
	}
	return &Service{Brand: brand, Users: ensurer}
}

// SignedOut returns the header shown to anonymous visitors.
func (s *Service) SignedOut() Header {
	return Header{
		Brand:    s.Brand,
		SignedIn: false,
		Links:    []Link{},
		Menus:    []Menu{},
		Actions:  []Link{{Label: "Sign In", Href: "/sign-in"}},
	}
}

// SignedIn returns the header for an authenticated user, making sure the user
// row exists first. A failing lookup is logged and the header falls back to
// the identity carried by the token.
func (s *Service) SignedIn(ctx context.Context, id users.Identity) Header {
	hu := &HeaderUser{ID: id.ID, Name: id.Name, PictureURL: id.Picture}
	if s.Users != nil {
		user, err := s.Users.EnsureFromClaims(ctx, id)
		if err != nil {
			telemetry.Warn("nav.ensure_user_failed", map[string]any{
				"user_id": id.ID,
				"error":   err,
			})
		} else {
			if user.FullName != "" {
				hu.Name = user.FullName
			}
			if user.PictureURL != "" {
				hu.PictureURL = user.PictureURL
			}
		}
	}
	if hu.Name == "" {
		hu.Name = id.Email
	}

	return Header{
		Brand:    s.Brand,
		SignedIn: true,
		User:     hu,
		Links: []Link{
			{Label: "Industry Insights", Href: "/dashboard", Icon: "layout-dashboard"},
		},
		Menus: []Menu{{
			Label: "Growth Tools",
			Icon:  "stars",
			Items: []Link{
				{Label: "Build Resume", Href: "/resume", Icon: "file-text"},
				{Label: "Cover Letter", Href: "/ai-cover-letter", Icon: "pen-box"},
				{Label: "Interview Prep", Href: "/interview", Icon: "graduation-cap"},
			},
		}},
		Actions: []Link{{Label: "Sign Out", Href: "/sign-out"}},
	}
}
