package model

import "strings"

// Want is one entry of a user's wantlist.
type Want struct {
	ID               int64            `json:"id"`
	Rating           int              `json:"rating"`
	ResourceURL      string           `json:"resource_url"`
	BasicInformation BasicInformation `json:"basic_information"`
}

func (w Want) ReleaseID() int64  { return w.ID }
func (w Want) TitleKey() string  { return strings.ToLower(w.BasicInformation.Title) }
func (w Want) ArtistKey() string { return strings.ToLower(w.BasicInformation.FirstArtist()) }

// WantlistPage is one page of /users/{u}/wants.
type WantlistPage struct {
	Pagination Pagination `json:"pagination"`
	Wants      []Want     `json:"wants"`
}
