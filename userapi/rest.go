package userapi

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/candidatos-info/cadastro/filestorage"
	"github.com/candidatos-info/cadastro/users"
	"github.com/google/uuid"
)

const restCollection = "/users"

// REST is the client of a generic CRUD API (json-server style) that
// exchanges flat user objects.
type REST struct {
	baseURL string
	hc      *http.Client
	storage filestorage.FileStorage
	bucket  string
}

// NewREST returns a client for the API served at baseURL.
func NewREST(baseURL string, opts ...Option) *REST {
	o := newOptions(opts)
	return &REST{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      o.httpClient,
		storage: o.storage,
		bucket:  o.bucket,
	}
}

func (c *REST) ListAll(ctx context.Context) ([]users.User, error) {
	var out []users.User
	if err := do(ctx, c.hc, "list", http.MethodGet, c.baseURL+restCollection, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []users.User{}
	}
	return out, nil
}

func (c *REST) GetOne(ctx context.Context, id string) (users.User, error) {
	var u users.User
	err := do(ctx, c.hc, "get", http.MethodGet, c.entryURL(id), nil, &u)
	if fe, ok := err.(*FetchError); ok && fe.StatusCode == http.StatusNotFound {
		return users.User{}, &NotFoundError{ID: id, Message: fe.Message}
	}
	return u, err
}

func (c *REST) Create(ctx context.Context, draft users.User) (users.User, error) {
	payload := draft.Clone()
	payload.ID = ""
	var saved users.User
	if err := do(ctx, c.hc, "create", http.MethodPost, c.baseURL+restCollection, payload, &saved); err != nil {
		return users.User{}, classify(err)
	}
	return saved, nil
}

func (c *REST) Update(ctx context.Context, id string, u users.User) (users.User, error) {
	payload := u.Clone()
	payload.ID = id
	var saved users.User
	if err := do(ctx, c.hc, "update", http.MethodPut, c.entryURL(id), payload, &saved); err != nil {
		return users.User{}, classify(err)
	}
	if saved.ID == "" {
		saved.ID = id
	}
	return saved, nil
}

// Delete treats a 404 as success, the record is already gone.
func (c *REST) Delete(ctx context.Context, id string) error {
	err := do(ctx, c.hc, "delete", http.MethodDelete, c.entryURL(id), nil, nil)
	if fe, ok := err.(*FetchError); ok && fe.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}

// UploadPhoto stores the photo on the configured file storage. When
// there is none the photo becomes a data-URL and no request is made.
func (c *REST) UploadPhoto(_ context.Context, name string, r io.Reader) (Upload, error) {
	if c.storage == nil {
		u, err := DataURL(r)
		if err != nil {
			return Upload{}, err
		}
		return Upload{URL: u}, nil
	}
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return Upload{}, fmt.Errorf("falha ao ler arquivo da foto %s, erro %w", name, err)
	}
	id := uuid.New().String()
	location, err := c.storage.Upload(b, c.bucket, id+filepath.Ext(name))
	if err != nil {
		return Upload{}, &FetchError{Op: "upload", Err: err}
	}
	return Upload{URL: location, ID: id}, nil
}

func (c *REST) entryURL(id string) string {
	return fmt.Sprintf("%s%s/%s", c.baseURL, restCollection, url.PathEscape(id))
}
