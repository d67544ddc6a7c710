package api

import (
	"sort"
	"sync"

	"github.com/studiofoundry/intake/internal/services"
)

// memoryStore is the no-database backing used for local development and
// handler tests. Everything is lost on restart.
type memoryStore struct {
	mu          sync.RWMutex
	forms       map[string]*services.StoredForm
	submissions map[string]*services.Submission
	deadLetters map[string]*services.DeadLetter
	operators   map[string]*services.Operator
}

var (
	_ services.FormStore       = (*memoryStore)(nil)
	_ services.SubmissionStore = (*memoryStore)(nil)
	_ services.AuthStore       = (*memoryStore)(nil)
)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() Store {
	return &memoryStore{
		forms:       map[string]*services.StoredForm{},
		submissions: map[string]*services.Submission{},
		deadLetters: map[string]*services.DeadLetter{},
		operators:   map[string]*services.Operator{},
	}
}

func (m *memoryStore) CreateForm(f *services.StoredForm) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.forms[f.ID]; exists {
		return services.ErrFormExists
	}
	cp := *f
	m.forms[f.ID] = &cp
	return nil
}

func (m *memoryStore) GetForm(id string) (*services.StoredForm, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.forms[id]
	if !ok {
		return nil, nil
	}
	cp := *f
	return &cp, nil
}

func (m *memoryStore) DeleteForm(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.forms[id]; !ok {
		return false, nil
	}
	delete(m.forms, id)
	return true, nil
}

func (m *memoryStore) ListForms() ([]*services.StoredForm, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*services.StoredForm, 0, len(m.forms))
	for _, f := range m.forms {
		cp := *f
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStore) InsertSubmission(sub *services.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sub
	m.submissions[sub.ID] = &cp
	return nil
}

func (m *memoryStore) ListSubmissionsByForm(formID string, limit int) ([]*services.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*services.Submission
	for _, sub := range m.submissions {
		if sub.FormID == formID {
			cp := *sub
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) DeleteSubmissionsByForm(formID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, sub := range m.submissions {
		if sub.FormID == formID {
			delete(m.submissions, id)
			removed++
		}
	}
	return removed, nil
}

func (m *memoryStore) InsertDeadLetter(dl *services.DeadLetter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *dl
	m.deadLetters[dl.ID] = &cp
	return nil
}

func (m *memoryStore) ListDeadLetters() ([]*services.DeadLetter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*services.DeadLetter, 0, len(m.deadLetters))
	for _, dl := range m.deadLetters {
		cp := *dl
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStore) GetDeadLetter(id string) (*services.DeadLetter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dl, ok := m.deadLetters[id]
	if !ok {
		return nil, nil
	}
	cp := *dl
	return &cp, nil
}

func (m *memoryStore) DeleteDeadLetter(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.deadLetters[id]; !ok {
		return false, nil
	}
	delete(m.deadLetters, id)
	return true, nil
}

func (m *memoryStore) FindOperatorByEmail(email string) (*services.Operator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, op := range m.operators {
		if op.Email == email {
			cp := *op
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) AddOperator(op *services.Operator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.operators {
		if existing.Email == op.Email {
			return services.NewConflictError("operator email already exists")
		}
	}
	cp := *op
	m.operators[op.ID] = &cp
	return nil
}

func (m *memoryStore) CountOperators() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.operators), nil
}
