package mockapi

import (
	"strconv"
	"sync"

	"github.com/candidatos-info/cadastro/users"
	"github.com/google/uuid"
)

// usersRepository keeps the users of one collection in insertion
// order.
type usersRepository interface {
	list() []users.User
	get(id string) (users.User, bool)
	insert(u users.User) users.User
	replace(id string, u users.User) (users.User, bool)
	remove(id string) bool
}

type inMemoryRepository struct {
	mu    sync.RWMutex
	order []string
	db    map[string]users.User
	newID func() string
}

func newInMemoryRepository(newID func() string) usersRepository {
	return &inMemoryRepository{
		db:    make(map[string]users.User),
		newID: newID,
	}
}

// uuidIDs is the id strategy of the /users collection.
func uuidIDs() func() string {
	return func() string {
		return uuid.New().String()
	}
}

// sequentialIDs is the id strategy of the CMS collection.
func sequentialIDs() func() string {
	var mu sync.Mutex
	next := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		next++
		return strconv.Itoa(next)
	}
}

func (m *inMemoryRepository) list() []users.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]users.User, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.db[id].Clone())
	}
	return out
}

func (m *inMemoryRepository) get(id string) (users.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.db[id]
	return u.Clone(), ok
}

func (m *inMemoryRepository) insert(u users.User) users.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u = u.Clone()
	u.ID = m.newID()
	m.db[u.ID] = u
	m.order = append(m.order, u.ID)
	return u.Clone()
}

func (m *inMemoryRepository) replace(id string, u users.User) (users.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.db[id]; !ok {
		return users.User{}, false
	}
	u = u.Clone()
	u.ID = id
	m.db[id] = u
	return u.Clone(), true
}

func (m *inMemoryRepository) remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.db[id]; !ok {
		return false
	}
	delete(m.db, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i:i], m.order[i+1:]...)
			break
		}
	}
	return true
}
