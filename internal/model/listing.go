package model

import "strings"

// Listing statuses as reported by the inventory endpoint.
const (
	StatusDraft   = "Draft"
	StatusSold    = "Sold"
	StatusForSale = "For Sale"
)

// Listing is one entry of a user's shop inventory.
type Listing struct {
	ID              int64          `json:"id"`
	ResourceURL     string         `json:"resource_url"`
	URI             string         `json:"uri"`
	Status          string         `json:"status"`
	MediaCondition  string         `json:"condition"`
	SleeveCondition string         `json:"sleeve_condition"`
	Comments        string         `json:"comments"`
	Price           Price          `json:"price"`
	Seller          Seller         `json:"seller"`
	Release         ListingRelease `json:"release"`
}

type Price struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

type Seller struct {
	Username    string `json:"username"`
	HTMLURL     string `json:"html_url,omitempty"`
	ResourceURL string `json:"resource_url,omitempty"`
}

// ListingRelease is the release summary embedded in a listing.
type ListingRelease struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Artist      string `json:"artist"`
	Format      string `json:"format"`
	Title       string `json:"title"`
}

func (l Listing) ReleaseID() int64  { return l.Release.ID }
func (l Listing) TitleKey() string  { return strings.ToLower(l.Release.Title) }
func (l Listing) ArtistKey() string { return strings.ToLower(l.Release.Artist) }

// ShopPage is one page of /users/{u}/inventory.
type ShopPage struct {
	Pagination Pagination `json:"pagination"`
	Listings   []Listing  `json:"listings"`
}
