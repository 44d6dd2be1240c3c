package domain

// Banner is a static promotional banner shown on the storefront. Class
// identifies the slot the banner is rendered into.
type Banner struct {
	Class string `json:"class"`
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}
