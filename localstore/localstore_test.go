package localstore

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/candidatos-info/cadastro/userapi"
	"github.com/candidatos-info/cadastro/users"
)

var idPattern = regexp.MustCompile(`^[0-9]+[0-9a-z]{9}$`)

func TestCreateListUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), "cadastro.json"))
	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	if all == nil || len(all) != 0 {
		t.Errorf("expected empty list from a missing file, got %v", all)
	}
	draft := users.NewDraft()
	draft.FullName = "Ana"
	ana, err := s.Create(ctx, draft)
	if err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	if !idPattern.MatchString(ana.ID) {
		t.Errorf("expected id like millis plus 9 base36 chars, got [%s]", ana.ID)
	}
	draft.FullName = "Bia"
	bia, err := s.Create(ctx, draft)
	if err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	if bia.ID == ana.ID {
		t.Errorf("expected distinct ids, got [%s] twice", ana.ID)
	}
	ana.Party = "PX"
	if _, err := s.Update(ctx, ana.ID, ana); err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	got, err := s.GetOne(ctx, ana.ID)
	if err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	if got.Party != "PX" {
		t.Errorf("expected party PX, got [%s]", got.Party)
	}
	if err := s.Delete(ctx, ana.ID); err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	all, _ = s.ListAll(ctx)
	if len(all) != 1 || all[0].FullName != "Bia" {
		t.Errorf("expected only Bia to remain, got %+v", all)
	}
	if _, err := s.GetOne(ctx, ana.ID); !userapi.IsNotFound(err) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestUpdateMissingChangesNothing(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), "cadastro.json"))
	draft := users.NewDraft()
	draft.FullName = "Ana"
	if _, err := s.Create(ctx, draft); err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	ghost := users.NewDraft()
	ghost.FullName = "Fantasma"
	u, err := s.Update(ctx, "nope", ghost)
	if err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	if u.ID != "nope" {
		t.Errorf("expected returned id nope, got [%s]", u.ID)
	}
	all, _ := s.ListAll(ctx)
	if len(all) != 1 || all[0].FullName != "Ana" {
		t.Errorf("expected list unchanged, got %+v", all)
	}
}

func TestDocumentFormat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cadastro.json")
	if err := ioutil.WriteFile(path, []byte(`{"theme": "\"dark\""}`), 0644); err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	s := New(path)
	draft := users.NewDraft()
	draft.FullName = "Ana"
	if _, err := s.Create(ctx, draft); err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	b, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("expected a JSON document, got %q", err)
	}
	if _, ok := doc["theme"]; !ok {
		t.Errorf("expected other keys to be kept, got %s", b)
	}
	var encoded string
	if err := json.Unmarshal(doc[Key], &encoded); err != nil {
		t.Fatalf("expected %s to hold a JSON string, got %s", Key, doc[Key])
	}
	var all []users.User
	if err := json.Unmarshal([]byte(encoded), &all); err != nil {
		t.Fatalf("expected encoded users, got %q", err)
	}
	if len(all) != 1 || all[0].FullName != "Ana" {
		t.Errorf("expected Ana on the document, got %+v", all)
	}
}

func TestCorruptFile(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"not json", `{{{`},
		{"bad value", `{"registeredUsers": "[{oops"}`},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cadastro.json")
			ioutil.WriteFile(path, []byte(tt.content), 0644)
			all, err := New(path).ListAll(context.Background())
			if err != nil {
				t.Fatalf("expected err nil, got %q", err)
			}
			if len(all) != 0 {
				t.Errorf("expected empty list, got %+v", all)
			}
		})
	}
}

func TestRawArrayValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cadastro.json")
	ioutil.WriteFile(path, []byte(`{"registeredUsers": [{"id": "1", "fullName": "Ana"}]}`), 0644)
	all, _ := New(path).ListAll(context.Background())
	if len(all) != 1 || all[0].ID != "1" {
		t.Errorf("expected Ana with id 1, got %+v", all)
	}
}

func TestUploadPhoto(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "cadastro.json"))
	up, err := s.UploadPhoto(context.Background(), "a.txt", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	if !strings.HasPrefix(up.URL, "data:text/plain;base64,") {
		t.Errorf("expected data url, got [%s]", up.URL)
	}
}
