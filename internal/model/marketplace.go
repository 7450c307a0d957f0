package model

// MarketplaceListing is one seller's offer for a release, scraped from the
// public marketplace page. Price keeps the page's formatting, e.g. "$24.99".
type MarketplaceListing struct {
	ReleaseID        int64  `json:"release_id" db:"release_id"`
	Title            string `json:"title" db:"title"`
	ResourceURL      string `json:"resource_url" db:"resource_url"`
	MediaCondition   string `json:"media_condition" db:"media_condition"`
	SleeveCondition  string `json:"sleeve_condition" db:"sleeve_condition"`
	Price            string `json:"price" db:"price"`
	Seller           string `json:"seller" db:"seller"`
	ShippingLocation string `json:"shipping_location" db:"shipping_location"`
}

// SellerListings groups marketplace listings offered by one seller.
type SellerListings struct {
	Seller   string               `json:"seller"`
	Listings []MarketplaceListing `json:"listings"`
}

// Count is the number of listings the seller offers.
func (s SellerListings) Count() int {
	return len(s.Listings)
}
