package handler

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ezienecker/discogs-ctl/internal/model"
	"github.com/ezienecker/discogs-ctl/internal/service"
	"github.com/ezienecker/discogs-ctl/pkg/apierror"
	"github.com/ezienecker/discogs-ctl/pkg/response"
)

// InventoryHandler handles inventory and marketplace HTTP requests.
type InventoryHandler struct {
	inventory    *service.Inventory
	defaultOwner string
}

// NewInventoryHandler creates the handler. defaultOwner is substituted for
// the owner path segment "me".
func NewInventoryHandler(inventory *service.Inventory, defaultOwner string) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, defaultOwner: defaultOwner}
}

func (h *InventoryHandler) owner(r *http.Request) string {
	owner := chi.URLParam(r, "owner")
	if owner == "me" {
		return h.defaultOwner
	}
	return owner
}

// GetInventory handles GET /api/v1/inventory/{kind}/{owner}
//
// Query: sort_by (title|artist), sort_order (asc|desc), force, and
// filter_kind + filter_owner to keep only releases present in another
// user's inventory.
func (h *InventoryHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	force, err := parseBool(q.Get("force"))
	if err != nil {
		response.Error(w, err)
		return
	}

	opts := service.FetchOptions{
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
		Force:     force,
	}

	var filter map[int64]struct{}
	if filterOwner := strings.TrimSpace(q.Get("filter_owner")); filterOwner != "" {
		filterKind, err := service.ParseKind(q.Get("filter_kind"))
		if err != nil {
			response.Error(w, err)
			return
		}
		filter = h.inventory.ReleaseIDs(r.Context(), filterKind, filterOwner)
	}

	items, err := h.inventory.FetchInventory(r.Context(), chi.URLParam(r, "kind"), h.owner(r), opts)
	if err != nil {
		response.Error(w, err)
		return
	}

	switch v := items.(type) {
	case []model.Release:
		v = service.FilterByReleaseIDs(v, filter)
		response.List(w, v, len(v))
	case []model.Listing:
		v = service.FilterByReleaseIDs(v, filter)
		response.List(w, v, len(v))
	case []model.Want:
		v = service.FilterByReleaseIDs(v, filter)
		response.List(w, v, len(v))
	default:
		response.Error(w, apierror.InternalError("unexpected inventory type"))
	}
}

// Refresh handles POST /api/v1/inventory/{kind}/{owner}/refresh
func (h *InventoryHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	kind, owner := chi.URLParam(r, "kind"), h.owner(r)

	n, err := h.inventory.Refresh(r.Context(), kind, owner)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"status": "refreshed",
		"kind":   strings.ToLower(kind),
		"owner":  owner,
		"items":  n,
	})
}

// ReleaseIDs handles GET /api/v1/inventory/{kind}/{owner}/release-ids
func (h *InventoryHandler) ReleaseIDs(w http.ResponseWriter, r *http.Request) {
	kind, err := service.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		response.Error(w, err)
		return
	}

	set := h.inventory.ReleaseIDs(r.Context(), kind, h.owner(r))
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	response.List(w, ids, len(ids))
}

// WantlistSellers handles GET /api/v1/wantlist/{owner}/sellers?limit=&force=
func (h *InventoryHandler) WantlistSellers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		response.Error(w, err)
		return
	}
	force, err := parseBool(q.Get("force"))
	if err != nil {
		response.Error(w, err)
		return
	}

	groups, err := h.inventory.WantlistBySeller(r.Context(), h.owner(r), limit, force)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.List(w, groups, len(groups))
}

// SellersRequest is the body of POST /api/v1/marketplace/sellers.
type SellersRequest struct {
	ReleaseIDs []int64 `json:"release_ids"`
	Limit      int     `json:"limit"`
	Force      bool    `json:"force"`
}

// MarketplaceSellers handles POST /api/v1/marketplace/sellers
func (h *InventoryHandler) MarketplaceSellers(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req SellersRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON"))
		return
	}
	if len(req.ReleaseIDs) == 0 {
		response.Error(w, apierror.BadRequest("release_ids is required"))
		return
	}
	if req.Limit < 0 {
		response.Error(w, apierror.BadRequest("limit must not be negative"))
		return
	}

	groups := h.inventory.EnrichWantlistBySeller(r.Context(), req.ReleaseIDs, req.Limit, req.Force)
	response.List(w, groups, len(groups))
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, apierror.BadRequest("force must be a boolean")
	}
	return b, nil
}

func parseLimit(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, apierror.BadRequest("limit must be a non-negative integer")
	}
	return n, nil
}
