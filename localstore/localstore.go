// Package localstore keeps the registered users in a JSON document on
// disk, in the same layout a web client keeps in its local storage. It
// implements the same contract as the remote clients.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/candidatos-info/cadastro/userapi"
	"github.com/candidatos-info/cadastro/users"
)

// Key is the entry of the document holding the users.
const Key = "registeredUsers"

// Store is a file-backed key/value document. The users list is read
// and written wholesale on every operation.
type Store struct {
	path string
	mu   sync.Mutex // serializes read-modify-write of the file
	now  func() time.Time
	rand *rand.Rand
}

// New returns a store persisted at path. The file is created on the
// first write.
func New(path string) *Store {
	return &Store{
		path: path,
		now:  time.Now,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Store) ListAll(_ context.Context) ([]users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(), nil
}

func (s *Store) GetOne(_ context.Context, id string) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.load() {
		if u.ID == id {
			return u, nil
		}
	}
	return users.User{}, &userapi.NotFoundError{ID: id}
}

func (s *Store) Create(_ context.Context, draft users.User) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.load()
	u := draft.Clone()
	u.ID = s.generateID()
	if err := s.save(append(all, u)); err != nil {
		return users.User{}, err
	}
	return u, nil
}

// Update replaces the user with the same id. A missing id changes
// nothing and the given user is returned as it is.
func (s *Store) Update(_ context.Context, id string, u users.User) (users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.load()
	u = u.Clone()
	u.ID = id
	for i := range all {
		if all[i].ID == id {
			all[i] = u
		}
	}
	if err := s.save(all); err != nil {
		return users.User{}, err
	}
	return u, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.load()
	kept := all[:0]
	for _, u := range all {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	return s.save(kept)
}

// UploadPhoto never touches the disk, the photo is kept inline as a
// data-URL.
func (s *Store) UploadPhoto(_ context.Context, _ string, r io.Reader) (userapi.Upload, error) {
	u, err := userapi.DataURL(r)
	if err != nil {
		return userapi.Upload{}, err
	}
	return userapi.Upload{URL: u}, nil
}

// generateID returns unix millis followed by nine base36 random
// chars.
func (s *Store) generateID() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = alphabet[s.rand.Intn(len(alphabet))]
	}
	return strconv.FormatInt(s.now().UnixNano()/int64(time.Millisecond), 10) + string(suffix)
}

// load returns an empty list when the file is missing or unreadable.
func (s *Store) load() []users.User {
	b, err := ioutil.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("falha ao ler arquivo %s, erro %q\n", s.path, err)
		}
		return []users.User{}
	}
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &doc); err != nil {
		log.Printf("conteúdo inválido no arquivo %s, erro %q\n", s.path, err)
		return []users.User{}
	}
	var all []users.User
	raw, ok := doc[Key]
	if !ok {
		return []users.User{}
	}
	// the value is a JSON-encoded string
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = json.RawMessage(encoded)
	}
	if err := json.Unmarshal(raw, &all); err != nil {
		log.Printf("conteúdo inválido na chave %s do arquivo %s, erro %q\n", Key, s.path, err)
		return []users.User{}
	}
	if all == nil {
		all = []users.User{}
	}
	return all
}

func (s *Store) save(all []users.User) error {
	doc := map[string]json.RawMessage{}
	if b, err := ioutil.ReadFile(s.path); err == nil {
		_ = json.Unmarshal(b, &doc) // other keys are kept when readable
	}
	if all == nil {
		all = []users.User{}
	}
	value, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("falha ao serializar usuários, erro %w", err)
	}
	encoded, err := json.Marshal(string(value))
	if err != nil {
		return fmt.Errorf("falha ao serializar usuários, erro %w", err)
	}
	doc[Key] = encoded
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("falha ao serializar documento, erro %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("falha ao criar diretório %s, erro %w", dir, err)
		}
	}
	tmp, err := ioutil.TempFile(filepath.Dir(s.path), filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("falha ao criar arquivo temporário, erro %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("falha ao escrever arquivo %s, erro %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("falha ao fechar arquivo %s, erro %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("falha ao salvar arquivo %s, erro %w", s.path, err)
	}
	return nil
}
