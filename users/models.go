// Package users holds the candidate profile shared by the clients,
// the store and the form.
package users

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Gender of a candidate, as accepted by the registration form
type Gender string

const (
	// Male is the default gender of a new draft
	Male Gender = "male"

	// Female is the other accepted value
	Female Gender = "female"
)

// Valid reports if g is one of the accepted genders.
func (g Gender) Valid() bool {
	return g == Male || g == Female
}

// Education is one entry of the candidate's education history
type Education struct {
	ID             string `json:"id,omitempty" csv:"-"` // set by the CMS for repeatable components
	Degree         string `json:"degree" csv:"degree"`
	College        string `json:"college" csv:"college"`
	GraduationYear string `json:"graduationYear" csv:"graduationYear"` // free text, never validated as a number
}

// UnmarshalJSON accepts numeric ids, as sent by the CMS for
// repeatable components.
func (e *Education) UnmarshalJSON(b []byte) error {
	type plain Education
	aux := struct {
		*plain
		ID json.RawMessage `json:"id,omitempty"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	e.ID = ParseID(aux.ID)
	return nil
}

// Media is the media object stored by the CMS upload plugin.
type Media struct {
	ID              int             `json:"id"`
	Name            string          `json:"name,omitempty"`
	AlternativeText string          `json:"alternativeText,omitempty"`
	Caption         string          `json:"caption,omitempty"`
	Width           int             `json:"width,omitempty"`
	Height          int             `json:"height,omitempty"`
	Formats         json.RawMessage `json:"formats,omitempty"`
	Hash            string          `json:"hash,omitempty"`
	Ext             string          `json:"ext,omitempty"`
	Mime            string          `json:"mime,omitempty"`
	Size            float64         `json:"size,omitempty"`
	URL             string          `json:"url"`
	PreviewURL      string          `json:"previewUrl,omitempty"`
	Provider        string          `json:"provider,omitempty"`
	CreatedAt       string          `json:"createdAt,omitempty"`
	UpdatedAt       string          `json:"updatedAt,omitempty"`
}

// Photo is either a plain URL (a data-URL included) or a reference
// to a media object stored by the CMS.
type Photo struct {
	URL   string
	Media *Media
}

// NewPhotoURL returns a photo pointing to the given URL.
func NewPhotoURL(url string) *Photo {
	return &Photo{URL: url}
}

// Location returns the URL to be used to show the photo.
func (p *Photo) Location() string {
	if p == nil {
		return ""
	}
	if p.Media != nil && p.Media.URL != "" {
		return p.Media.URL
	}
	return p.URL
}

// MarshalJSON encodes the photo as a string, or as the media
// object when there is one.
func (p Photo) MarshalJSON() ([]byte, error) {
	if p.Media != nil {
		return json.Marshal(p.Media)
	}
	return json.Marshal(p.URL)
}

// UnmarshalJSON accepts both shapes written by MarshalJSON. The CMS
// also wraps single relations as {"data": {"id", "attributes"}}.
func (p *Photo) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &p.URL)
	}
	if b[0] >= '0' && b[0] <= '9' { // media id, as sent to the CMS
		var id int
		if err := json.Unmarshal(b, &id); err != nil {
			return fmt.Errorf("falha ao decodificar id da foto, erro %w", err)
		}
		p.Media = &Media{ID: id}
		return nil
	}
	var wrapped struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &wrapped); err == nil && len(wrapped.Data) > 0 {
		if bytes.Equal(wrapped.Data, []byte("null")) {
			return nil
		}
		var entry struct {
			ID         int   `json:"id"`
			Attributes Media `json:"attributes"`
		}
		if err := json.Unmarshal(wrapped.Data, &entry); err != nil {
			return fmt.Errorf("falha ao decodificar foto, erro %w", err)
		}
		m := entry.Attributes
		m.ID = entry.ID
		p.Media = &m
		return nil
	}
	var m Media
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("falha ao decodificar foto, erro %w", err)
	}
	p.Media = &m
	return nil
}

// User is a registered candidate profile
type User struct {
	ID           string      `json:"id,omitempty"`
	FullName     string      `json:"fullName"`
	Constituency string      `json:"constituency"`
	Party        string      `json:"party"`
	Position     string      `json:"position"`
	DateOfBirth  string      `json:"dateOfBirth"`
	Gender       Gender      `json:"gender"`
	Vision       string      `json:"vision"`
	Education    []Education `json:"education"`
	Photo        *Photo      `json:"photo,omitempty"`

	// contact details, all optional
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`

	// set by server-backed variants, opaque to the client
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

// UnmarshalJSON accepts both string and numeric ids: json-server
// and the CMS disagree on it.
func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	aux := struct {
		*plain
		ID json.RawMessage `json:"id,omitempty"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	u.ID = ParseID(aux.ID)
	if u.Photo != nil && u.Photo.URL == "" && u.Photo.Media == nil { // {"data": null}
		u.Photo = nil
	}
	return nil
}

// ParseID returns the textual form of a JSON id, string or number.
func ParseID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// NewDraft returns the defaults of a new registration: gender male
// and a single blank education entry.
func NewDraft() User {
	return User{
		Gender:    Male,
		Education: []Education{{}},
	}
}

// Clone returns a deep copy of u, so drafts never share memory with
// the records held by the store.
func (u User) Clone() User {
	c := u
	if u.Education != nil {
		c.Education = make([]Education, len(u.Education))
		copy(c.Education, u.Education)
	}
	if u.Photo != nil {
		p := *u.Photo
		if u.Photo.Media != nil {
			m := *u.Photo.Media
			p.Media = &m
		}
		c.Photo = &p
	}
	return c
}

// WithoutServerFields returns a copy of u with the fields assigned
// by the backend cleared (id and timestamps).
func (u User) WithoutServerFields() User {
	c := u.Clone()
	c.ID = ""
	c.CreatedAt = ""
	c.UpdatedAt = ""
	c.PublishedAt = ""
	for i := range c.Education {
		c.Education[i].ID = ""
	}
	return c
}

// State is the state held by the user store. An empty Error means
// there is no error.
type State struct {
	Records []User
	Loading bool
	Error   string
}

// Clone returns a copy of s that shares nothing with it.
func (s State) Clone() State {
	c := State{Loading: s.Loading, Error: s.Error}
	if s.Records != nil {
		c.Records = make([]User, len(s.Records))
		for i, r := range s.Records {
			c.Records[i] = r.Clone()
		}
	}
	return c
}

// Find returns the record with the given id.
func (s State) Find(id string) (User, bool) {
	for _, r := range s.Records {
		if r.ID == id {
			return r, true
		}
	}
	return User{}, false
}
