package users

import (
	"encoding/json"
	"testing"
)

func TestPhotoUnmarshalJSON(t *testing.T) {
	testCases := []struct {
		name     string
		in       string
		location string
		mediaID  int
		isNil    bool
	}{
		{"url", `{"photo": "https://fotos.com/a.png"}`, "https://fotos.com/a.png", 0, false},
		{"data url", `{"photo": "data:image/png;base64,AAAA"}`, "data:image/png;base64,AAAA", 0, false},
		{"media object", `{"photo": {"id": 7, "url": "/uploads/a.png"}}`, "/uploads/a.png", 7, false},
		{"wrapped media", `{"photo": {"data": {"id": 8, "attributes": {"url": "/uploads/b.png"}}}}`, "/uploads/b.png", 8, false},
		{"media id", `{"photo": 9}`, "", 9, false},
		{"wrapped null", `{"photo": {"data": null}}`, "", 0, true},
		{"null", `{"photo": null}`, "", 0, true},
		{"missing", `{}`, "", 0, true},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			var u User
			if err := json.Unmarshal([]byte(tt.in), &u); err != nil {
				t.Fatalf("expected err nil decoding %s, got %q", tt.in, err)
			}
			if tt.isNil {
				if u.Photo != nil {
					t.Errorf("expected no photo, got %+v", u.Photo)
				}
				return
			}
			if u.Photo == nil {
				t.Fatalf("expected photo, got nil")
			}
			if u.Photo.Location() != tt.location {
				t.Errorf("expected location [%s], got [%s]", tt.location, u.Photo.Location())
			}
			if tt.mediaID != 0 && (u.Photo.Media == nil || u.Photo.Media.ID != tt.mediaID) {
				t.Errorf("expected media id %d, got %+v", tt.mediaID, u.Photo.Media)
			}
		})
	}
}

func TestPhotoMarshalJSON(t *testing.T) {
	b, err := json.Marshal(User{FullName: "Ana", Photo: NewPhotoURL("https://fotos.com/a.png")})
	if err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	if raw["photo"] != "https://fotos.com/a.png" {
		t.Errorf("expected photo as string, got %v", raw["photo"])
	}
	b, err = json.Marshal(User{FullName: "Ana"})
	if err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	raw = nil
	json.Unmarshal(b, &raw)
	if _, ok := raw["photo"]; ok {
		t.Errorf("expected photo to be omitted, got %v", raw["photo"])
	}
}

func TestNumericIDs(t *testing.T) {
	var u User
	in := `{"id": 12, "fullName": "Ana", "education": [{"id": 3, "degree": "Direito"}]}`
	if err := json.Unmarshal([]byte(in), &u); err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	if u.ID != "12" {
		t.Errorf("expected id 12, got [%s]", u.ID)
	}
	if u.FullName != "Ana" {
		t.Errorf("expected full name Ana, got [%s]", u.FullName)
	}
	if len(u.Education) != 1 || u.Education[0].ID != "3" || u.Education[0].Degree != "Direito" {
		t.Errorf("expected education with id 3, got %+v", u.Education)
	}
}

func TestParseID(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{`"abc"`, "abc"},
		{`42`, "42"},
		{``, ""},
		{`null`, ""},
		{`{}`, ""},
	}
	for _, tt := range testCases {
		if got := ParseID(json.RawMessage(tt.in)); got != tt.expected {
			t.Errorf("expected [%s] for %s, got [%s]", tt.expected, tt.in, got)
		}
	}
}

func TestNewDraft(t *testing.T) {
	d := NewDraft()
	if d.Gender != Male {
		t.Errorf("expected gender %s, got %s", Male, d.Gender)
	}
	if len(d.Education) != 1 || d.Education[0] != (Education{}) {
		t.Errorf("expected one blank education entry, got %+v", d.Education)
	}
}

func TestClone(t *testing.T) {
	u := User{
		ID:        "1",
		Education: []Education{{Degree: "Direito"}},
		Photo:     &Photo{Media: &Media{ID: 1, URL: "/a.png"}},
	}
	c := u.Clone()
	c.Education[0].Degree = "Medicina"
	c.Photo.Media.URL = "/b.png"
	if u.Education[0].Degree != "Direito" {
		t.Errorf("expected original education to be kept, got %s", u.Education[0].Degree)
	}
	if u.Photo.Media.URL != "/a.png" {
		t.Errorf("expected original photo to be kept, got %s", u.Photo.Media.URL)
	}
}

func TestWithoutServerFields(t *testing.T) {
	u := User{ID: "1", CreatedAt: "x", UpdatedAt: "y", PublishedAt: "z", Education: []Education{{ID: "2"}}}
	c := u.WithoutServerFields()
	if c.ID != "" || c.CreatedAt != "" || c.UpdatedAt != "" || c.PublishedAt != "" || c.Education[0].ID != "" {
		t.Errorf("expected server fields to be cleared, got %+v", c)
	}
	if u.ID != "1" || u.Education[0].ID != "2" {
		t.Errorf("expected original to be kept, got %+v", u)
	}
}

func TestStateFind(t *testing.T) {
	s := State{Records: []User{{ID: "1", FullName: "Ana"}, {ID: "2", FullName: "Bia"}}}
	u, ok := s.Find("2")
	if !ok || u.FullName != "Bia" {
		t.Errorf("expected to find Bia, got %+v", u)
	}
	if _, ok := s.Find("3"); ok {
		t.Errorf("expected id 3 to be missing")
	}
}
