package userapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/candidatos-info/cadastro/filestorage"
	"github.com/candidatos-info/cadastro/users"
)

// Client is the contract every backend variant implements. The store
// is its only caller.
type Client interface {
	ListAll(ctx context.Context) ([]users.User, error)
	GetOne(ctx context.Context, id string) (users.User, error)
	Create(ctx context.Context, draft users.User) (users.User, error)
	Update(ctx context.Context, id string, u users.User) (users.User, error)
	Delete(ctx context.Context, id string) error
}

// PhotoUploader is implemented by the clients able to store a
// candidate's photo.
type PhotoUploader interface {
	UploadPhoto(ctx context.Context, name string, r io.Reader) (Upload, error)
}

// Upload is the reference to a stored photo, usable as users.Photo
type Upload struct {
	URL string `json:"url"`
	ID  string `json:"id,omitempty"`
}

// Option configures the HTTP clients.
type Option func(*options)

type options struct {
	httpClient *http.Client
	storage    filestorage.FileStorage
	bucket     string
}

// WithHTTPClient replaces the default http client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithPhotoStorage makes the REST client upload photos to the given
// storage instead of building data-URLs.
func WithPhotoStorage(s filestorage.FileStorage, bucket string) Option {
	return func(o *options) {
		o.storage = s
		o.bucket = bucket
	}
}

func newOptions(opts []Option) options {
	o := options{
		httpClient: defaultHTTPClient(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func defaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: time.Second * 40,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// do sends one request and decodes a 2xx JSON answer into out. Any
// other outcome is returned as a *FetchError.
func do(ctx context.Context, hc *http.Client, op, method, url string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &FetchError{Op: op, Err: fmt.Errorf("falha ao serializar corpo da requisição, erro %w", err)}
		}
		reqBody = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return send(hc, op, req, out)
}

func send(hc *http.Client, op string, req *http.Request, out interface{}) error {
	res, err := hc.Do(req)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	defer res.Body.Close()
	b, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return &FetchError{Op: op, StatusCode: res.StatusCode, Err: fmt.Errorf("falha ao ler corpo da resposta, erro %w", err)}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &FetchError{Op: op, StatusCode: res.StatusCode, Message: backendMessage(b)}
	}
	if out == nil || len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return &FetchError{Op: op, StatusCode: res.StatusCode, Err: fmt.Errorf("falha ao decodificar resposta, erro %w", err)}
	}
	return nil
}

// backendMessage extracts the error message of the known envelopes:
// {"error": {"message"}} (CMS), {"message"} and {"error": "..."}.
func backendMessage(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return ""
	}
	if b[0] != '{' {
		s := string(b)
		if len(s) > 200 || strings.HasPrefix(s, "<") {
			return ""
		}
		return s
	}
	var env struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return ""
	}
	if s := rawString(env.Message); s != "" {
		return s
	}
	if s := rawString(env.Error); s != "" {
		return s
	}
	var nested struct {
		Message string `json:"message"`
	}
	if len(env.Error) > 0 && json.Unmarshal(env.Error, &nested) == nil {
		return nested.Message
	}
	return ""
}

func rawString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// classify turns the status of a failed create/update into a
// *ValidationError when the backend rejected the payload.
func classify(err error) error {
	fe, ok := err.(*FetchError)
	if !ok {
		return err
	}
	if fe.StatusCode == http.StatusBadRequest || fe.StatusCode == http.StatusUnprocessableEntity {
		return &ValidationError{Op: fe.Op, Message: fe.Message}
	}
	return err
}

// DataURL reads the whole content of r and encodes it as a data-URL.
// It is used by the backends without media storage.
func DataURL(r io.Reader) (string, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("falha ao ler arquivo da foto, erro %w", err)
	}
	mime := http.DetectContentType(b)
	if i := strings.Index(mime, ";"); i != -1 {
		mime = mime[:i]
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(b)), nil
}
