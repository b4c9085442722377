package list

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/candidatos-info/cadastro/users"
	"github.com/fatih/color"
)

type fakeSource struct {
	state   users.State
	fetches int
	deleted []string
	retries int
}

func (f *fakeSource) State() users.State { return f.state.Clone() }

func (f *fakeSource) FetchUsers(context.Context) error {
	f.fetches++
	return nil
}

func (f *fakeSource) DeleteUser(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSource) Retry(context.Context) error {
	f.retries++
	f.state.Error = ""
	return nil
}

type answer bool

func (a answer) Confirm(string) bool { return bool(a) }

func init() {
	color.NoColor = true
}

func TestShowFetchesOnce(t *testing.T) {
	src := &fakeSource{}
	p := New(src, new(bytes.Buffer), answer(true))
	p.Show(context.Background())
	p.Show(context.Background())
	if src.fetches != 1 {
		t.Errorf("expected one fetch, got %d", src.fetches)
	}
}

func TestRender(t *testing.T) {
	testCases := []struct {
		name     string
		state    users.State
		expected []string
		absent   []string
	}{
		{"loading", users.State{Loading: true, Records: []users.User{{FullName: "Ana"}}}, []string{"Carregando..."}, []string{"Ana"}},
		{"error", users.State{Error: "banco fora do ar"}, []string{"Erro: banco fora do ar"}, nil},
		{"empty", users.State{}, []string{"Nenhum usuário cadastrado."}, nil},
		{"records", users.State{Records: []users.User{{
			ID:        "1",
			FullName:  "Ana Souza",
			Party:     "PX",
			Gender:    users.Female,
			Vision:    "Saúde para todos",
			Education: []users.Education{{Degree: "Direito", College: "UFAL", GraduationYear: "2010"}},
			Email:     "ana@x.com",
		}}}, []string{"Ana Souza", "PX", "female", "Visão: Saúde para todos", "Direito em UFAL (2010)", "Contato: ana@x.com"}, []string{"Nenhum usuário"}},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			out := new(bytes.Buffer)
			New(&fakeSource{state: tt.state}, out, answer(true)).Render()
			for _, s := range tt.expected {
				if !strings.Contains(out.String(), s) {
					t.Errorf("expected output to contain [%s], got %s", s, out.String())
				}
			}
			for _, s := range tt.absent {
				if strings.Contains(out.String(), s) {
					t.Errorf("expected output not to contain [%s], got %s", s, out.String())
				}
			}
		})
	}
}

func TestDelete(t *testing.T) {
	testCases := []struct {
		name    string
		confirm answer
		issued  bool
	}{
		{"confirmed", true, true},
		{"refused", false, false},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{}
			issued, err := New(src, new(bytes.Buffer), tt.confirm).Delete(context.Background(), "1")
			if err != nil {
				t.Fatalf("expected err nil, got %q", err)
			}
			if issued != tt.issued {
				t.Errorf("expected issued %v, got %v", tt.issued, issued)
			}
			if tt.issued && (len(src.deleted) != 1 || src.deleted[0] != "1") {
				t.Errorf("expected delete of 1, got %v", src.deleted)
			}
			if !tt.issued && len(src.deleted) != 0 {
				t.Errorf("expected no delete, got %v", src.deleted)
			}
		})
	}
}

func TestRetryAndEdit(t *testing.T) {
	src := &fakeSource{state: users.State{Error: "x", Records: []users.User{{ID: "1", FullName: "Ana"}}}}
	p := New(src, new(bytes.Buffer), answer(true))
	p.Retry(context.Background())
	if src.retries != 1 {
		t.Errorf("expected one retry, got %d", src.retries)
	}
	u, ok := p.Edit("1")
	if !ok || u.FullName != "Ana" {
		t.Errorf("expected to edit Ana, got %+v", u)
	}
	if _, ok := p.Edit("2"); ok {
		t.Errorf("expected id 2 to be missing")
	}
}
