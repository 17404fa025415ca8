package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonanatree/benefit-authorizer/authorizer/models"
)

var ErrConflict = fmt.Errorf("conflict")

// MemoryJournal keeps approved authorizations in process memory.
type MemoryJournal struct {
	mu      sync.RWMutex
	entries []*models.Authorization
	ids     map[string]struct{}
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{
		entries: make([]*models.Authorization, 0),
		ids:     make(map[string]struct{}),
	}
}

func (j *MemoryJournal) Record(_ context.Context, auth *models.Authorization) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, ok := j.ids[auth.ID]; ok {
		return fmt.Errorf("authorization %s: %w", auth.ID, ErrConflict)
	}
	entry := *auth
	j.entries = append(j.entries, &entry)
	j.ids[auth.ID] = struct{}{}
	return nil
}

// List returns the authorizations of an account, newest first.
func (j *MemoryJournal) List(_ context.Context, accountID string) ([]*models.Authorization, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	var out []*models.Authorization
	for i := len(j.entries) - 1; i >= 0; i-- {
		if e := j.entries[i]; e.AccountID == accountID {
			entry := *e
			out = append(out, &entry)
		}
	}
	return out, nil
}
