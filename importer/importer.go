// Package importer registers candidates in bulk from a CSV file.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/candidatos-info/cadastro/userapi"
	"github.com/candidatos-info/cadastro/users"
	"github.com/gocarina/gocsv"
	"github.com/matryer/try"
	"golang.org/x/text/encoding/charmap"
)

const (
	maxAttempts = 5 // number of times to retry a create
)

// Row is one line of the import file. A candidate with more than one
// education entry spans one line per entry.
type Row struct {
	FullName       string `csv:"fullName"`
	Constituency   string `csv:"constituency"`
	Party          string `csv:"party"`
	Position       string `csv:"position"`
	DateOfBirth    string `csv:"dateOfBirth"`
	Gender         string `csv:"gender"`
	Vision         string `csv:"vision"`
	Photo          string `csv:"photo"`
	Phone          string `csv:"phone"`
	Email          string `csv:"email"`
	Address        string `csv:"address"`
	City           string `csv:"city"`
	State          string `csv:"state"`
	ZipCode        string `csv:"zipCode"`
	Degree         string `csv:"degree"`
	College        string `csv:"college"`
	GraduationYear string `csv:"graduationYear"`
}

// Options controls how the file is read.
type Options struct {
	Comma  rune // defaults to ','
	Latin1 bool // decode the file as ISO 8859-1
}

// Read parses the rows of the CSV read from in.
func Read(in io.Reader, opts Options) ([]*Row, error) {
	if opts.Latin1 {
		in = charmap.ISO8859_1.NewDecoder().Reader(in)
	}
	r := csv.NewReader(in)
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	if opts.Comma != 0 {
		r.Comma = opts.Comma
	}
	var rows []*Row
	if err := gocsv.UnmarshalCSV(r, &rows); err != nil {
		return nil, fmt.Errorf("falha ao inflar slice de cadastros usando arquivo csv, erro %w", err)
	}
	return rows, nil
}

// RemoveDuplicates collapses the rows of the same candidate, identified
// by name and date of birth, into one user holding every education
// entry found. Users come out in the order they first appear.
func RemoveDuplicates(rows []*Row, fileBeingHandled string) []users.User {
	index := make(map[string]int)
	var out []users.User
	duplicatedLines := 0
	for _, r := range rows {
		key := strings.ToUpper(strings.TrimSpace(r.FullName)) + "|" + strings.TrimSpace(r.DateOfBirth)
		edu := users.Education{Degree: r.Degree, College: r.College, GraduationYear: r.GraduationYear}
		if i, ok := index[key]; ok { // candidate already seen, another education entry
			duplicatedLines++
			if edu != (users.Education{}) {
				out[i].Education = append(out[i].Education, edu)
			}
			continue
		}
		u := users.User{
			FullName:     r.FullName,
			Constituency: r.Constituency,
			Party:        r.Party,
			Position:     r.Position,
			DateOfBirth:  r.DateOfBirth,
			Gender:       users.Gender(strings.ToLower(r.Gender)),
			Vision:       r.Vision,
			Phone:        r.Phone,
			Email:        r.Email,
			Address:      r.Address,
			City:         r.City,
			State:        r.State,
			ZipCode:      r.ZipCode,
			Education:    []users.Education{edu},
		}
		if !u.Gender.Valid() {
			u.Gender = users.Male
		}
		if r.Photo != "" {
			u.Photo = users.NewPhotoURL(r.Photo)
		}
		index[key] = len(out)
		out = append(out, u)
	}
	log.Printf("file [%s], candidates [%d], duplicated lines [%d]\n", fileBeingHandled, len(out), duplicatedLines)
	return out
}

// Creator is the part of the user store used by the import.
type Creator interface {
	CreateUser(ctx context.Context, draft users.User) (users.User, error)
}

// Failure is a candidate that could not be registered.
type Failure struct {
	FullName string
	Err      error
}

// Report summarizes an import.
type Report struct {
	Created  int
	Failures []Failure
}

// Import registers every user through the store. Transport failures
// and 5xx answers are retried, a rejected payload is not. progress,
// when not nil, is called once per user.
func Import(ctx context.Context, store Creator, all []users.User, progress func()) Report {
	var rep Report
	for _, u := range all {
		err := try.Do(func(attempt int) (bool, error) {
			_, err := store.CreateUser(ctx, u)
			return attempt < maxAttempts && retryable(ctx, err), err
		})
		if err != nil {
			log.Printf("falha ao cadastrar [%s], erro %v\n", u.FullName, err)
			rep.Failures = append(rep.Failures, Failure{FullName: u.FullName, Err: err})
		} else {
			rep.Created++
		}
		if progress != nil {
			progress()
		}
	}
	return rep
}

func retryable(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	var fe *userapi.FetchError
	if !errors.As(err, &fe) {
		return false
	}
	return fe.StatusCode == 0 || fe.StatusCode >= 500
}

// Rows is the inverse of RemoveDuplicates: one row per education
// entry of each user.
func Rows(all []users.User) []*Row {
	var rows []*Row
	for _, u := range all {
		base := Row{
			FullName:     u.FullName,
			Constituency: u.Constituency,
			Party:        u.Party,
			Position:     u.Position,
			DateOfBirth:  u.DateOfBirth,
			Gender:       string(u.Gender),
			Vision:       u.Vision,
			Photo:        u.Photo.Location(),
			Phone:        u.Phone,
			Email:        u.Email,
			Address:      u.Address,
			City:         u.City,
			State:        u.State,
			ZipCode:      u.ZipCode,
		}
		if len(u.Education) == 0 {
			r := base
			rows = append(rows, &r)
			continue
		}
		for _, e := range u.Education {
			r := base
			r.Degree = e.Degree
			r.College = e.College
			r.GraduationYear = e.GraduationYear
			rows = append(rows, &r)
		}
	}
	return rows
}
