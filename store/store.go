// Package store holds the registered users shown by the form and the
// list. It is the only caller of the data client: every operation
// sets loading, calls the client once and merges the result.
package store

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"

	"github.com/candidatos-info/cadastro/userapi"
	"github.com/candidatos-info/cadastro/users"
)

// messages used when the backend does not send one
const (
	fetchFailed  = "falha ao buscar usuários"
	createFailed = "falha ao criar usuário"
	updateFailed = "falha ao atualizar usuário"
	deleteFailed = "falha ao remover usuário"
)

// Listener is called with a copy of the state after every transition.
type Listener func(users.State)

// Store is the user store. Operations are not serialized: two
// overlapping operations race and the last one to settle decides
// Loading and Error.
type Store struct {
	client userapi.Client

	mu        sync.Mutex
	state     users.State
	listeners []subscription
	nextID    int
}

type subscription struct {
	id int
	l  Listener
}

// New returns an empty store backed by client.
func New(client userapi.Client) *Store {
	return &Store{
		client: client,
		state:  users.State{Records: []users.User{}},
	}
}

// ErrNoUploads is returned by UploadPhoto when the backend cannot
// store photos.
var ErrNoUploads = errors.New("backend não aceita envio de fotos")

// State returns a copy of the current state.
func (s *Store) State() users.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers l and returns the function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscription{id: id, l: l})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// FetchUsers replaces the records with the list held by the backend.
func (s *Store) FetchUsers(ctx context.Context) error {
	s.begin()
	all, err := s.client.ListAll(ctx)
	if err != nil {
		s.fail("list", err, fetchFailed)
		return err
	}
	s.settle(func(st *users.State) {
		st.Records = make([]users.User, len(all))
		for i, u := range all {
			st.Records[i] = u.Clone()
		}
	})
	return nil
}

// CreateUser submits draft and appends the saved record.
func (s *Store) CreateUser(ctx context.Context, draft users.User) (users.User, error) {
	s.begin()
	saved, err := s.client.Create(ctx, draft.Clone())
	if err != nil {
		s.fail("create", err, createFailed)
		return users.User{}, err
	}
	s.settle(func(st *users.State) {
		st.Records = append(st.Records, saved.Clone())
	})
	return saved, nil
}

// UpdateUser submits u and replaces the record with the same id.
// Nothing is inserted when no record matches.
func (s *Store) UpdateUser(ctx context.Context, u users.User) (users.User, error) {
	s.begin()
	saved, err := s.client.Update(ctx, u.ID, u.Clone())
	if err != nil {
		s.fail("update", err, updateFailed)
		return users.User{}, err
	}
	if saved.ID == "" {
		saved.ID = u.ID
	}
	s.settle(func(st *users.State) {
		for i := range st.Records {
			if st.Records[i].ID == saved.ID {
				st.Records[i] = saved.Clone()
				return
			}
		}
	})
	return saved, nil
}

// DeleteUser removes the record with the given id once the backend
// confirms it.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.begin()
	if err := s.client.Delete(ctx, id); err != nil {
		s.fail("delete", err, deleteFailed)
		return err
	}
	s.settle(func(st *users.State) {
		kept := make([]users.User, 0, len(st.Records))
		for _, r := range st.Records {
			if r.ID != id {
				kept = append(kept, r)
			}
		}
		st.Records = kept
	})
	return nil
}

// UploadPhoto stores the photo read from r on the backend. The state
// is left untouched, the photo only reaches the records once the
// draft pointing to it is submitted.
func (s *Store) UploadPhoto(ctx context.Context, name string, r io.Reader) (userapi.Upload, error) {
	uploader, ok := s.client.(userapi.PhotoUploader)
	if !ok {
		return userapi.Upload{}, ErrNoUploads
	}
	up, err := uploader.UploadPhoto(ctx, name, r)
	if err != nil {
		log.Printf("falha ao enviar foto %s, erro %v\n", name, err)
		return userapi.Upload{}, err
	}
	return up, nil
}

// ClearError empties the error slot.
func (s *Store) ClearError() {
	s.update(func(st *users.State) {
		st.Error = ""
	})
}

// Retry clears the error and lists the users again.
func (s *Store) Retry(ctx context.Context) error {
	s.ClearError()
	return s.FetchUsers(ctx)
}

func (s *Store) begin() {
	s.update(func(st *users.State) {
		st.Loading = true
		st.Error = ""
	})
}

func (s *Store) settle(merge func(*users.State)) {
	s.update(func(st *users.State) {
		st.Loading = false
		merge(st)
	})
}

func (s *Store) fail(op string, err error, fallback string) {
	log.Printf("falha na operação %s de usuários, erro %v\n", op, err)
	msg := userapi.Message(err)
	if msg == "" {
		msg = fallback
	}
	s.update(func(st *users.State) {
		st.Loading = false
		st.Error = msg
	})
}

// update applies fn under the lock and then notifies the listeners
// outside of it, so they may call back into the store.
func (s *Store) update(fn func(*users.State)) {
	s.mu.Lock()
	fn(&s.state)
	snapshot := s.state.Clone()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, sub := range s.listeners {
		listeners = append(listeners, sub.l)
	}
	s.mu.Unlock()
	for _, l := range listeners {
		l(snapshot)
	}
}
