// Package discogs talks to the remote catalog API and the public marketplace pages.
package discogs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ezienecker/discogs-ctl/internal/model"
	"github.com/ezienecker/discogs-ctl/pkg/apierror"
)

const (
	DefaultAPIURL = "https://api.discogs.com"
	DefaultWebURL = "https://www.discogs.com"
)

// Options configures a Client. Token is optional; when empty no
// Authorization header is sent.
type Options struct {
	APIURL     string
	WebURL     string
	Token      string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is a thin HTTP client for the list endpoints and the marketplace page.
type Client struct {
	apiURL    string
	webURL    string
	token     string
	userAgent string
	http      *http.Client
}

func NewClient(opts Options) (*Client, error) {
	api := strings.TrimSpace(opts.APIURL)
	if api == "" {
		api = DefaultAPIURL
	}
	web := strings.TrimSpace(opts.WebURL)
	if web == "" {
		web = DefaultWebURL
	}
	for _, base := range []string{api, web} {
		if _, err := url.Parse(base); err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", base, err)
		}
	}

	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = "discogs-ctl/1.0"
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		apiURL:    strings.TrimRight(api, "/"),
		webURL:    strings.TrimRight(web, "/"),
		token:     strings.TrimSpace(opts.Token),
		userAgent: ua,
		http:      hc,
	}, nil
}

// Classify maps a list endpoint status code onto the error taxonomy.
func Classify(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusForbidden:
		return apierror.AccessDenied()
	case status == http.StatusNotFound:
		return apierror.NotFound()
	case status >= 500 && status <= 599:
		return apierror.ServerUnavailable(status)
	default:
		return apierror.UnknownStatus(status)
	}
}

// ClassifyMarketplace maps a marketplace page status code onto the error taxonomy.
func ClassifyMarketplace(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status >= 400 && status <= 499:
		return apierror.ClientError(status)
	default:
		return apierror.UnknownStatus(status)
	}
}

// CollectionPage fetches one page of the user's collection (all folders).
func (c *Client) CollectionPage(ctx context.Context, username string, page, perPage int) ([]model.Release, model.Pagination, error) {
	u := c.listURL(fmt.Sprintf("/users/%s/collection/folders/0/releases", url.PathEscape(username)), page, perPage, nil)

	var p model.CollectionPage
	if err := c.getJSON(ctx, u, &p); err != nil {
		return nil, model.Pagination{}, err
	}
	return p.Releases, p.Pagination, nil
}

// ShopPage fetches one page of the user's for-sale inventory, newest first.
func (c *Client) ShopPage(ctx context.Context, username string, page, perPage int) ([]model.Listing, model.Pagination, error) {
	extra := url.Values{}
	extra.Set("sort", "listed")
	extra.Set("sort_order", "desc")
	u := c.listURL(fmt.Sprintf("/users/%s/inventory", url.PathEscape(username)), page, perPage, extra)

	var p model.ShopPage
	if err := c.getJSON(ctx, u, &p); err != nil {
		return nil, model.Pagination{}, err
	}
	return p.Listings, p.Pagination, nil
}

// WantlistPage fetches one page of the user's wantlist.
func (c *Client) WantlistPage(ctx context.Context, username string, page, perPage int) ([]model.Want, model.Pagination, error) {
	u := c.listURL(fmt.Sprintf("/users/%s/wants", url.PathEscape(username)), page, perPage, nil)

	var p model.WantlistPage
	if err := c.getJSON(ctx, u, &p); err != nil {
		return nil, model.Pagination{}, err
	}
	return p.Wants, p.Pagination, nil
}

// MarketplacePage fetches the raw HTML of the public listing page for a release.
func (c *Client) MarketplacePage(ctx context.Context, releaseID int64) ([]byte, error) {
	body, status, err := c.doGET(ctx, MarketplaceURL(c.webURL, releaseID), "text/html")
	if err != nil {
		return nil, err
	}
	if err := ClassifyMarketplace(status); err != nil {
		return nil, err
	}
	return body, nil
}

// MarketplaceURL is the canonical listing page of a release.
func MarketplaceURL(webURL string, releaseID int64) string {
	return strings.TrimRight(webURL, "/") + "/sell/release/" + strconv.FormatInt(releaseID, 10)
}

func (c *Client) listURL(path string, page, perPage int, extra url.Values) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return c.apiURL + path + "?" + q.Encode()
}

func (c *Client) getJSON(ctx context.Context, u string, out interface{}) error {
	body, status, err := c.doGET(ctx, u, "application/json")
	if err != nil {
		return err
	}
	if err := Classify(status); err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apierror.UnknownStatus(status).WithCause(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// doGET returns the body and status of any response that arrived. Only
// transport failures are returned as errors.
func (c *Client) doGET(ctx context.Context, u, accept string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Discogs token="+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, 0, ctxErr
		}
		return nil, 0, apierror.UnknownStatus(0).WithCause(err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, apierror.UnknownStatus(resp.StatusCode).WithCause(fmt.Errorf("failed to read body: %w", err))
	}
	return b, resp.StatusCode, nil
}
