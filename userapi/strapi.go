package userapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/candidatos-info/cadastro/users"
)

const (
	strapiCollection = "/api/user-details"
	strapiUpload     = "/api/upload"
)

// Strapi is the client of the headless CMS backend. Records travel
// inside {data: ...} envelopes and come back as {id, attributes}.
type Strapi struct {
	origin string // like http://localhost:1337
	hc     *http.Client
}

// NewStrapi returns a client for the CMS served at origin.
func NewStrapi(origin string, opts ...Option) *Strapi {
	o := newOptions(opts)
	return &Strapi{
		origin: strings.TrimRight(origin, "/"),
		hc:     o.httpClient,
	}
}

type strapiEntry struct {
	ID         json.RawMessage `json:"id"`
	Attributes json.RawMessage `json:"attributes"`
}

type strapiPagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

type strapiList struct {
	Data []strapiEntry `json:"data"`
	Meta struct {
		Pagination *strapiPagination `json:"pagination,omitempty"`
	} `json:"meta"`
}

type strapiSingle struct {
	Data *strapiEntry `json:"data"`
}

// strapiAttributes is the payload of create and update. The CMS
// expects the id of an uploaded media instead of the whole object.
type strapiAttributes struct {
	users.User
	Photo interface{} `json:"photo,omitempty"`
}

type strapiRequest struct {
	Data strapiAttributes `json:"data"`
}

func (s *Strapi) ListAll(ctx context.Context) ([]users.User, error) {
	var res strapiList
	if err := do(ctx, s.hc, "list", http.MethodGet, s.origin+strapiCollection+"?populate=*", nil, &res); err != nil {
		return nil, err
	}
	out := make([]users.User, 0, len(res.Data))
	for _, e := range res.Data {
		u, err := fromStrapi(e)
		if err != nil {
			return nil, &FetchError{Op: "list", Err: err}
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *Strapi) GetOne(ctx context.Context, id string) (users.User, error) {
	var res strapiSingle
	err := do(ctx, s.hc, "get", http.MethodGet, s.entryURL(id)+"?populate=*", nil, &res)
	if err != nil {
		if fe, ok := err.(*FetchError); ok && fe.StatusCode == http.StatusNotFound {
			return users.User{}, &NotFoundError{ID: id, Message: fe.Message}
		}
		return users.User{}, err
	}
	if res.Data == nil {
		return users.User{}, &NotFoundError{ID: id}
	}
	u, err := fromStrapi(*res.Data)
	if err != nil {
		return users.User{}, &FetchError{Op: "get", Err: err}
	}
	return u, nil
}

func (s *Strapi) Create(ctx context.Context, draft users.User) (users.User, error) {
	return s.write(ctx, "create", http.MethodPost, s.origin+strapiCollection, draft)
}

func (s *Strapi) Update(ctx context.Context, id string, u users.User) (users.User, error) {
	return s.write(ctx, "update", http.MethodPut, s.entryURL(id), u)
}

func (s *Strapi) write(ctx context.Context, op, method, url string, u users.User) (users.User, error) {
	var res strapiSingle
	if err := do(ctx, s.hc, op, method, url, toStrapi(u), &res); err != nil {
		return users.User{}, classify(err)
	}
	if res.Data == nil {
		return users.User{}, &FetchError{Op: op, Err: fmt.Errorf("resposta sem campo data")}
	}
	saved, err := fromStrapi(*res.Data)
	if err != nil {
		return users.User{}, &FetchError{Op: op, Err: err}
	}
	return saved, nil
}

// Delete treats a 404 as success, the record is already gone.
func (s *Strapi) Delete(ctx context.Context, id string) error {
	err := do(ctx, s.hc, "delete", http.MethodDelete, s.entryURL(id), nil, nil)
	if fe, ok := err.(*FetchError); ok && fe.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}

// UploadPhoto sends the file to the CMS upload plugin and returns
// the absolute URL of the stored media.
func (s *Strapi) UploadPhoto(ctx context.Context, name string, r io.Reader) (Upload, error) {
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("files", name)
	if err != nil {
		return Upload{}, &FetchError{Op: "upload", Err: err}
	}
	if _, err := io.Copy(part, r); err != nil {
		return Upload{}, &FetchError{Op: "upload", Err: fmt.Errorf("falha ao ler arquivo %s, erro %w", name, err)}
	}
	if err := mw.Close(); err != nil {
		return Upload{}, &FetchError{Op: "upload", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.origin+strapiUpload, body)
	if err != nil {
		return Upload{}, &FetchError{Op: "upload", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var res []users.Media
	if err := send(s.hc, "upload", req, &res); err != nil {
		return Upload{}, err
	}
	if len(res) == 0 {
		return Upload{}, &FetchError{Op: "upload", Err: fmt.Errorf("resposta de upload vazia")}
	}
	return Upload{
		URL: s.absolute(res[0].URL),
		ID:  strconv.Itoa(res[0].ID),
	}, nil
}

func (s *Strapi) entryURL(id string) string {
	return fmt.Sprintf("%s%s/%s", s.origin, strapiCollection, url.PathEscape(id))
}

func (s *Strapi) absolute(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return s.origin + u
}

func toStrapi(u users.User) strapiRequest {
	c := u.WithoutServerFields()
	for i := range u.Education {
		c.Education[i].ID = u.Education[i].ID
	}
	attrs := strapiAttributes{User: c}
	if c.Photo != nil {
		if c.Photo.Media != nil {
			attrs.Photo = c.Photo.Media.ID
		} else if c.Photo.URL != "" {
			attrs.Photo = c.Photo.URL
		}
	}
	return strapiRequest{Data: attrs}
}

// fromStrapi flattens one {id, attributes} entry.
func fromStrapi(e strapiEntry) (users.User, error) {
	var u users.User
	raw := e.Attributes
	if len(raw) == 0 || string(raw) == "null" {
		return u, fmt.Errorf("registro sem atributos")
	}
	if err := json.Unmarshal(raw, &u); err != nil {
		return u, fmt.Errorf("falha ao decodificar atributos do registro, erro %w", err)
	}
	u.ID = users.ParseID(e.ID)
	return u, nil
}
