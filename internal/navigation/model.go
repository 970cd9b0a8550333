package navigation

// Header is the view model for the top navigation bar.
type Header struct {
	Brand    Brand       `json:"brand"`
	SignedIn bool        `json:"signedIn"`
	User     *HeaderUser `json:"user,omitempty"`
	Links    []Link      `json:"links"`
	Menus    []Menu      `json:"menus"`
	Actions  []Link      `json:"actions"`
}

type Brand struct {
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl"`
	Href    string `json:"href"`
}

type HeaderUser struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PictureURL string `json:"pictureUrl,omitempty"`
}

type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
	Icon  string `json:"icon,omitempty"`
}

// Menu is a dropdown of links.
type Menu struct {
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
	Items []Link `json:"items"`
}
