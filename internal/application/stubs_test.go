package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/example/salon-scheduler/internal/persistence"
)

var fixedNow = time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sequence(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// memoryStore implements every repository interface over maps.
type memoryStore struct {
	mu        sync.Mutex
	users     map[string]persistence.User
	employees map[string]persistence.Employee
	blocks    map[string]persistence.TimeBlock
	order     []string
	sessions  map[string]persistence.Session

	failCreateBlock error
	failUpdateBlock error
	blockWrites     int
	pruneCalls      []time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:     map[string]persistence.User{},
		employees: map[string]persistence.Employee{},
		blocks:    map[string]persistence.TimeBlock{},
		sessions:  map[string]persistence.Session{},
	}
}

func (m *memoryStore) CreateUser(_ context.Context, u persistence.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return persistence.ErrDuplicate
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *memoryStore) UpdateUser(_ context.Context, u persistence.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return persistence.ErrNotFound
	}
	m.users[u.ID] = u
	return nil
}

func (m *memoryStore) GetUser(_ context.Context, id string) (persistence.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return u, nil
}

func (m *memoryStore) GetUserByUsername(_ context.Context, username string) (persistence.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (m *memoryStore) ListUsers(context.Context) ([]persistence.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]persistence.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b persistence.User) int { return strings.Compare(a.Username, b.Username) })
	return out, nil
}

func (m *memoryStore) CreateEmployee(_ context.Context, e persistence.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[e.UserID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	m.employees[e.ID] = e
	return nil
}

func (m *memoryStore) UpdateEmployee(_ context.Context, e persistence.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[e.ID]; !ok {
		return persistence.ErrNotFound
	}
	m.employees[e.ID] = e
	return nil
}

func (m *memoryStore) GetEmployee(_ context.Context, id string) (persistence.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[id]
	if !ok {
		return persistence.Employee{}, persistence.ErrNotFound
	}
	return e, nil
}

func (m *memoryStore) ListEmployees(_ context.Context, userID string) ([]persistence.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []persistence.Employee
	for _, e := range m.employees {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b persistence.Employee) int {
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder - b.DisplayOrder
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *memoryStore) CountEmployees(ctx context.Context, userID string) (int, error) {
	list, err := m.ListEmployees(ctx, userID)
	return len(list), err
}

func (m *memoryStore) DeleteEmployee(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.employees, id)
	for bid, b := range m.blocks {
		if b.EmployeeID == id {
			m.removeBlock(bid)
		}
	}
	return nil
}

func (m *memoryStore) CreateTimeBlock(_ context.Context, b persistence.TimeBlock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockWrites++
	if m.failCreateBlock != nil {
		return m.failCreateBlock
	}
	if _, ok := m.blocks[b.ID]; ok {
		return persistence.ErrDuplicate
	}
	m.blocks[b.ID] = b
	m.order = append(m.order, b.ID)
	return nil
}

func (m *memoryStore) UpdateTimeBlock(_ context.Context, b persistence.TimeBlock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockWrites++
	if m.failUpdateBlock != nil {
		return m.failUpdateBlock
	}
	if _, ok := m.blocks[b.ID]; !ok {
		return persistence.ErrNotFound
	}
	m.blocks[b.ID] = b
	return nil
}

func (m *memoryStore) GetTimeBlock(_ context.Context, id string) (persistence.TimeBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blocks[id]
	if !ok {
		return persistence.TimeBlock{}, persistence.ErrNotFound
	}
	return b, nil
}

func (m *memoryStore) ListTimeBlocks(_ context.Context, userID, date string) ([]persistence.TimeBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []persistence.TimeBlock
	for _, id := range m.order {
		b := m.blocks[id]
		if b.UserID == userID && b.Date == date {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memoryStore) DeleteTimeBlock(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockWrites++
	if _, ok := m.blocks[id]; !ok {
		return persistence.ErrNotFound
	}
	m.removeBlock(id)
	return nil
}

func (m *memoryStore) removeBlock(id string) {
	delete(m.blocks, id)
	m.order = slices.DeleteFunc(m.order, func(v string) bool { return v == id })
}

func (m *memoryStore) CreateSession(_ context.Context, s persistence.Session) (persistence.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.CreatedAt = fixedNow
	s.UpdatedAt = fixedNow
	m.sessions[s.Token] = s
	return s, nil
}

func (m *memoryStore) GetSession(_ context.Context, token string) (persistence.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return s, nil
}

func (m *memoryStore) UpdateSession(_ context.Context, s persistence.Session) (persistence.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.Token]; !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	m.sessions[s.Token] = s
	return s, nil
}

func (m *memoryStore) RevokeSession(_ context.Context, token string, at time.Time) (persistence.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	s.RevokedAt = &at
	m.sessions[token] = s
	return s, nil
}

func (m *memoryStore) DeleteExpiredSessions(_ context.Context, ref time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneCalls = append(m.pruneCalls, ref)
	var n int64
	for token, s := range m.sessions {
		if !s.ExpiresAt.After(ref) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) addUser(id, username string) {
	m.users[id] = persistence.User{ID: id, Username: username, CreatedAt: fixedNow, UpdatedAt: fixedNow}
}

func (m *memoryStore) addEmployee(id, userID string, order int) {
	m.employees[id] = persistence.Employee{ID: id, UserID: userID, Name: "Staff " + id, Color: PaletteColor(order), DisplayOrder: order}
}

func (m *memoryStore) addBlock(id, userID, employeeID, date, start, end string) {
	m.blocks[id] = persistence.TimeBlock{ID: id, UserID: userID, EmployeeID: employeeID, Date: date, StartTime: start, EndTime: end, CreatedAt: fixedNow, UpdatedAt: fixedNow}
	m.order = append(m.order, id)
}
