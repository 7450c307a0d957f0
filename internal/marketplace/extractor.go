// Package marketplace turns public marketplace listing pages into records.
package marketplace

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ezienecker/discogs-ctl/internal/discogs"
	"github.com/ezienecker/discogs-ctl/internal/model"
)

// Selectors for the listing table. The page markup is not a stable contract,
// so every field lookup tolerates a missing element.
const (
	rowSelector             = "#pjax_container > table > tbody > tr"
	titleSelector           = ".item_description strong > a"
	sellerSelector          = ".seller_info ul > li > .seller_block > strong > a"
	shippingSelector        = ".seller_info ul > li:nth-of-type(3n)"
	mediaConditionSelector  = ".item_description p.item_condition > span:nth-child(3)"
	sleeveConditionSelector = ".item_description .item_sleeve_condition"
	priceSelector           = ".item_price div > span.price"
)

// Extract parses a listing page and returns one record per table row.
// Fields whose element is absent are left empty. The resource URL is built
// from releaseID, not taken from the page.
func Extract(releaseID int64, body io.Reader) ([]model.MarketplaceListing, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page for release %d: %w", releaseID, err)
	}

	resourceURL := discogs.MarketplaceURL(discogs.DefaultWebURL, releaseID)
	rows := doc.Find(rowSelector)
	listings := make([]model.MarketplaceListing, 0, rows.Length())

	rows.Each(func(_ int, row *goquery.Selection) {
		listings = append(listings, model.MarketplaceListing{
			ReleaseID:        releaseID,
			Title:            text(row.Find(titleSelector)),
			ResourceURL:      resourceURL,
			MediaCondition:   ownText(row.Find(mediaConditionSelector)),
			SleeveCondition:  text(row.Find(sleeveConditionSelector)),
			Price:            text(row.Find(priceSelector)),
			Seller:           text(row.Find(sellerSelector)),
			ShippingLocation: ownText(row.Find(shippingSelector)),
		})
	})

	return listings, nil
}

// ExtractString is Extract over an in-memory page.
func ExtractString(releaseID int64, page string) ([]model.MarketplaceListing, error) {
	return Extract(releaseID, strings.NewReader(page))
}

// text is the whitespace-normalized text of the first match, descendants included.
func text(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return normalize(sel.First().Text())
}

// ownText is the text of the first match's direct text children only, so
// labels and tooltips nested in child elements are skipped.
func ownText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}

	var b strings.Builder
	for _, n := range sel.First().Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
				b.WriteByte(' ')
			}
		}
	}
	return normalize(b.String())
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
