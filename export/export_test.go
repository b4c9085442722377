package export

import (
	"bytes"
	"errors"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/candidatos-info/cadastro/filestorage"
	"github.com/candidatos-info/cadastro/importer"
	"github.com/candidatos-info/cadastro/users"
)

var sample = []users.User{
	{
		ID:        "1",
		FullName:  "Ana Souza",
		Party:     "PX",
		Gender:    users.Female,
		Education: []users.Education{{Degree: "Direito", College: "UFAL", GraduationYear: "2010"}, {Degree: "Medicina"}},
		Photo:     users.NewPhotoURL("http://fotos/ana.png"),
	},
	{ID: "2", FullName: "Bia Lima", Gender: users.Male},
}

func TestFormatOf(t *testing.T) {
	testCases := []struct {
		fileName  string
		expected  Format
		expectErr bool
	}{
		{"usuarios.csv", CSV, false},
		{"dir/usuarios.PB", Protobuf, false},
		{"usuarios.json", "", true},
	}
	for _, tt := range testCases {
		f, err := FormatOf(tt.fileName)
		if tt.expectErr != (err != nil) {
			t.Errorf("expected error %v for %s, got %v", tt.expectErr, tt.fileName, err)
		}
		if f != tt.expected {
			t.Errorf("expected format [%s] for %s, got [%s]", tt.expected, tt.fileName, f)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(sample, CSV, &buf); err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	rows, err := importer.Read(strings.NewReader(buf.String()), importer.Options{})
	if err != nil {
		t.Fatalf("expected exported csv to be importable, got %q", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	all := importer.RemoveDuplicates(rows, "export")
	if len(all) != 2 || len(all[0].Education) != 2 || all[0].Photo.Location() != "http://fotos/ana.png" {
		t.Errorf("expected users back from csv, got %+v", all)
	}
}

func TestWriteProtobuf(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(sample, Protobuf, &buf); err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	all, err := Read(buf.Bytes())
	if err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 users, got %d", len(all))
	}
	if all[0].ID != "1" || all[0].FullName != "Ana Souza" || len(all[0].Education) != 2 {
		t.Errorf("expected Ana back, got %+v", all[0])
	}
	if all[0].Photo.Location() != "http://fotos/ana.png" {
		t.Errorf("expected Ana's photo, got %s", all[0].Photo.Location())
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	if err := Write(sample, Format("xml"), new(bytes.Buffer)); err == nil {
		t.Errorf("expected error for unknown format")
	}
}

func TestUpload(t *testing.T) {
	dir := t.TempDir()
	location, err := Upload(sample, CSV, filestorage.NewLocalStorage(), dir, "usuarios.csv")
	if err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	if location != filepath.Join(dir, "usuarios.csv") {
		t.Errorf("expected location on %s, got %s", dir, location)
	}
	b, err := ioutil.ReadFile(location)
	if err != nil {
		t.Fatalf("expected err nil reading %s, got %q", location, err)
	}
	if !strings.Contains(string(b), "Ana Souza") {
		t.Errorf("expected Ana on the snapshot, got %s", b)
	}
}

func TestUploadKeepsExistingSnapshot(t *testing.T) {
	dir := t.TempDir()
	storage := filestorage.NewLocalStorage()
	first, err := Upload(sample[:1], CSV, storage, dir, "usuarios.csv")
	if err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	second, err := Upload(sample, CSV, storage, dir, "usuarios.csv")
	if err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	if second != filepath.Join(dir, "usuarios-1.csv") {
		t.Errorf("expected second snapshot on usuarios-1.csv, got %s", second)
	}
	b, err := ioutil.ReadFile(first)
	if err != nil {
		t.Fatalf("expected err nil reading %s, got %q", first, err)
	}
	if strings.Contains(string(b), "Bia Lima") {
		t.Errorf("expected first snapshot untouched, got %s", b)
	}
}

type fullStorage struct {
	uploads int
}

func (f *fullStorage) Upload(b []byte, bucket, fileName string) (string, error) {
	f.uploads++
	return bucket + "/" + fileName, nil
}

func (f *fullStorage) FileExists(bucket, fileName string) bool {
	return true
}

func TestUploadNoFreeName(t *testing.T) {
	s := &fullStorage{}
	if _, err := Upload(sample, CSV, s, "bucket", "usuarios.csv"); err == nil {
		t.Errorf("expected error when every name is taken")
	}
	if s.uploads != 0 {
		t.Errorf("expected no upload, got %d", s.uploads)
	}
}

type flakyStorage struct {
	failures int
	calls    int
}

func (f *flakyStorage) Upload(b []byte, bucket, fileName string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("timeout")
	}
	return bucket + "/" + fileName, nil
}

func (f *flakyStorage) FileExists(bucket, fileName string) bool {
	return false
}

func TestUploadRetry(t *testing.T) {
	s := &flakyStorage{failures: 2}
	location, err := Upload(sample, Protobuf, s, "bucket", "usuarios.pb")
	if err != nil {
		t.Fatalf("expected err nil, got %q", err)
	}
	if s.calls != 3 || location != "bucket/usuarios.pb" {
		t.Errorf("expected 3 calls and location bucket/usuarios.pb, got %d and %s", s.calls, location)
	}
	s = &flakyStorage{failures: 10}
	if _, err := Upload(sample, Protobuf, s, "bucket", "usuarios.pb"); err == nil {
		t.Errorf("expected error after %d attempts", maxAttempts)
	}
	if s.calls != maxAttempts {
		t.Errorf("expected %d calls, got %d", maxAttempts, s.calls)
	}
}
