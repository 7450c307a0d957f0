package model

import "strings"

// Release is one entry of a user's collection.
type Release struct {
	ID               int64            `json:"id"`
	InstanceID       int64            `json:"instance_id"`
	DateAdded        string           `json:"date_added"`
	Rating           int              `json:"rating"`
	BasicInformation BasicInformation `json:"basic_information"`
}

// BasicInformation is the release metadata shared by collection and wantlist entries.
type BasicInformation struct {
	ID          int64    `json:"id"`
	MasterID    int64    `json:"master_id,omitempty"`
	MasterURL   string   `json:"master_url,omitempty"`
	ResourceURL string   `json:"resource_url"`
	Thumb       string   `json:"thumb,omitempty"`
	CoverImage  string   `json:"cover_image,omitempty"`
	Title       string   `json:"title"`
	Year        int      `json:"year"`
	Formats     []Format `json:"formats"`
	Labels      []Label  `json:"labels"`
	Artists     []Artist `json:"artists"`
	Genres      []string `json:"genres,omitempty"`
	Styles      []string `json:"styles,omitempty"`
}

// Format describes a physical or digital format of a release.
type Format struct {
	Name         string   `json:"name"`
	Qty          string   `json:"qty"`
	Text         string   `json:"text,omitempty"`
	Descriptions []string `json:"descriptions,omitempty"`
}

// String renders the format as "name, desc1, desc2".
func (f Format) String() string {
	parts := append([]string{f.Name}, f.Descriptions...)
	return strings.Join(parts, ", ")
}

type Label struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	CatNo          string `json:"catno"`
	EntityType     string `json:"entity_type,omitempty"`
	EntityTypeName string `json:"entity_type_name,omitempty"`
	ResourceURL    string `json:"resource_url,omitempty"`
}

type Artist struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Anv         string `json:"anv,omitempty"`
	Join        string `json:"join,omitempty"`
	Role        string `json:"role,omitempty"`
	Tracks      string `json:"tracks,omitempty"`
	ResourceURL string `json:"resource_url,omitempty"`
}

// FirstArtist returns the name of the first credited artist or "".
func (b BasicInformation) FirstArtist() string {
	if len(b.Artists) == 0 {
		return ""
	}
	return b.Artists[0].Name
}

func (r Release) ReleaseID() int64  { return r.ID }
func (r Release) TitleKey() string  { return strings.ToLower(r.BasicInformation.Title) }
func (r Release) ArtistKey() string { return strings.ToLower(r.BasicInformation.FirstArtist()) }

// CollectionPage is one page of /users/{u}/collection/folders/0/releases.
type CollectionPage struct {
	Pagination Pagination `json:"pagination"`
	Releases   []Release  `json:"releases"`
}
