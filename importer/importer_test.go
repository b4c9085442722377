package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/candidatos-info/cadastro/userapi"
	"github.com/candidatos-info/cadastro/users"
	"golang.org/x/text/encoding/charmap"
)

const csvFile = `fullName,constituency,party,position,dateOfBirth,gender,vision,photo,degree,college,graduationYear
Ana Souza,Maceió,PX,Vereadora,1980-01-02,female,Saúde,,Direito,UFAL,2010
ANA SOUZA,Maceió,PX,Vereadora,1980-01-02,female,Saúde,,Medicina,UFPE,2015
Bia Lima,Recife,PY,Prefeita,1975-05-06,outro,,http://fotos/bia.png,,,
`

func TestReadAndRemoveDuplicates(t *testing.T) {
	rows, err := Read(strings.NewReader(csvFile), Options{})
	if err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	all := RemoveDuplicates(rows, "test.csv")
	if len(all) != 2 {
		t.Fatalf("expected 2 users, got %d", len(all))
	}
	ana := all[0]
	if ana.FullName != "Ana Souza" || len(ana.Education) != 2 {
		t.Errorf("expected Ana with 2 education entries, got %+v", ana)
	}
	if ana.Education[1].College != "UFPE" {
		t.Errorf("expected second entry from UFPE, got %+v", ana.Education[1])
	}
	bia := all[1]
	if bia.Gender != users.Male {
		t.Errorf("expected unknown gender to become male, got %s", bia.Gender)
	}
	if bia.Photo.Location() != "http://fotos/bia.png" {
		t.Errorf("expected Bia's photo, got %s", bia.Photo.Location())
	}
	if len(bia.Education) != 1 || bia.Education[0] != (users.Education{}) {
		t.Errorf("expected one blank education entry, got %+v", bia.Education)
	}
}

func TestReadLatin1(t *testing.T) {
	in, err := charmap.ISO8859_1.NewEncoder().String("fullName;constituency\nJoão;Maceió\n")
	if err != nil {
		t.Fatalf("expected err nil encoding test file, got %q", err)
	}
	rows, err := Read(strings.NewReader(in), Options{Comma: ';', Latin1: true})
	if err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	if len(rows) != 1 || rows[0].FullName != "João" || rows[0].Constituency != "Maceió" {
		t.Errorf("expected João from Maceió, got %+v", rows)
	}
}

type fakeCreator struct {
	errs  []error // returned in order, nil after the end
	calls int
}

func (f *fakeCreator) CreateUser(_ context.Context, draft users.User) (users.User, error) {
	f.calls++
	if len(f.errs) == 0 {
		return draft, nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return users.User{}, err
}

func TestImport(t *testing.T) {
	transport := &userapi.FetchError{Op: "create", Err: errors.New("conexão recusada")}
	invalid := &userapi.ValidationError{Op: "create", Message: "fullName must be defined"}
	testCases := []struct {
		name     string
		errs     []error
		calls    int
		created  int
		failures int
	}{
		{"ok", nil, 1, 1, 0},
		{"retried", []error{transport, transport}, 3, 1, 0},
		{"server error retried", []error{&userapi.FetchError{Op: "create", StatusCode: 503}}, 2, 1, 0},
		{"rejected", []error{invalid}, 1, 0, 1},
		{"gave up", []error{transport, transport, transport, transport, transport}, maxAttempts, 0, 1},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeCreator{errs: tt.errs}
			progress := 0
			rep := Import(context.Background(), c, []users.User{{FullName: "Ana"}}, func() { progress++ })
			if c.calls != tt.calls {
				t.Errorf("expected %d calls, got %d", tt.calls, c.calls)
			}
			if rep.Created != tt.created || len(rep.Failures) != tt.failures {
				t.Errorf("expected %d created and %d failures, got %+v", tt.created, tt.failures, rep)
			}
			if progress != 1 {
				t.Errorf("expected one progress call, got %d", progress)
			}
		})
	}
}

func TestRows(t *testing.T) {
	all := []users.User{
		{FullName: "Ana", Education: []users.Education{{Degree: "Direito"}, {Degree: "Medicina"}}},
		{FullName: "Bia"},
	}
	rows := Rows(all)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[1].FullName != "Ana" || rows[1].Degree != "Medicina" || rows[2].FullName != "Bia" {
		t.Errorf("expected one row per education entry, got %+v %+v %+v", rows[0], rows[1], rows[2])
	}
	back := RemoveDuplicates(rows, "rows")
	if len(back) != 2 || len(back[0].Education) != 2 {
		t.Errorf("expected rows to collapse back into 2 users, got %+v", back)
	}
}
