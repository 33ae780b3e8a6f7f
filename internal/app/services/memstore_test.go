package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yigit/studentmanagement/internal/app/models"
	"github.com/yigit/studentmanagement/internal/pkg/apperrors"
)

// memStore is an in-memory UserStore. It copies records in and out so callers
// never share pointers with the stored state, and it joins the assigned teacher
// on reads the way the PostgreSQL repository does.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
	writes []string
	fail   map[string]error
}

var _ UserStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{users: make(map[int64]*models.User), fail: make(map[string]error)}
}

func (m *memStore) injected(op string) error {
	return m.fail[op]
}

func (m *memStore) out(u *models.User) *models.User {
	c := *u
	if u.TeacherID != nil {
		id := *u.TeacherID
		c.TeacherID = &id
		if t, ok := m.users[id]; ok {
			c.AssignedTeacher = t.Summary()
		}
	}
	return &c
}

func (m *memStore) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("Create"); err != nil {
		return err
	}
	for _, u := range m.users {
		if u.Username == user.Username {
			return apperrors.ErrUsernameAlreadyExists
		}
		if u.Email == user.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	c := *user
	c.AssignedTeacher = nil
	m.users[user.ID] = &c
	m.writes = append(m.writes, "create")
	return nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("GetByID"); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return m.out(u), nil
}

func (m *memStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return m.out(u), nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (m *memStore) filter(keep func(u *models.User) bool) []*models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*models.User, 0)
	for _, u := range m.users {
		if keep(u) {
			result = append(result, m.out(u))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *memStore) List(context.Context) ([]*models.User, error) {
	return m.filter(func(*models.User) bool { return true }), nil
}

func (m *memStore) ListByRole(_ context.Context, role models.Role) ([]*models.User, error) {
	return m.filter(func(u *models.User) bool { return u.Role == role }), nil
}

func (m *memStore) ListUnassignedStudents(context.Context) ([]*models.User, error) {
	return m.filter(func(u *models.User) bool { return u.Role == models.RoleStudent && u.TeacherID == nil }), nil
}

func (m *memStore) ListStudentsByTeacher(_ context.Context, teacherID int64) ([]*models.User, error) {
	return m.filter(func(u *models.User) bool { return u.TeacherID != nil && *u.TeacherID == teacherID }), nil
}

func (m *memStore) UsernameExists(_ context.Context, username string) (bool, error) {
	return len(m.filter(func(u *models.User) bool { return u.Username == username })) > 0, nil
}

func (m *memStore) EmailExists(_ context.Context, email string) (bool, error) {
	return len(m.filter(func(u *models.User) bool { return u.Email == email })) > 0, nil
}

func (m *memStore) Update(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("Update"); err != nil {
		return err
	}
	if _, ok := m.users[user.ID]; !ok {
		return apperrors.ErrUserNotFound
	}
	user.UpdatedAt = time.Now()
	c := *user
	c.AssignedTeacher = nil
	if user.TeacherID != nil {
		id := *user.TeacherID
		c.TeacherID = &id
	}
	m.users[user.ID] = &c
	m.writes = append(m.writes, "update")
	return nil
}

func (m *memStore) SetAssignedTeacher(_ context.Context, studentID int64, teacherID *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("SetAssignedTeacher"); err != nil {
		return err
	}
	u, ok := m.users[studentID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	if teacherID == nil {
		u.TeacherID = nil
	} else {
		id := *teacherID
		u.TeacherID = &id
	}
	m.writes = append(m.writes, "assign")
	return nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	for _, u := range m.users {
		if u.TeacherID != nil && *u.TeacherID == id {
			// a dangling reference means the caller did not unassign first
			panic("delete of a teacher that still has students")
		}
	}
	delete(m.users, id)
	m.writes = append(m.writes, "delete")
	return nil
}

func (m *memStore) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// stored returns the raw record without the teacher join
func (m *memStore) stored(id int64) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	c := *u
	return &c
}
