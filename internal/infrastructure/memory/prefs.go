package memory

import (
	"context"
	"sync"
)

// PrefsRepo keeps the session record in process memory. It survives nothing
// and is meant for development runs and tests.
type PrefsRepo struct {
	mu     sync.RWMutex
	fields map[string]string
}

func NewPrefsRepo() *PrefsRepo {
	return &PrefsRepo{fields: make(map[string]string)}
}

func (r *PrefsRepo) Load(_ context.Context) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out, nil
}

func (r *PrefsRepo) Update(_ context.Context, set map[string]string, remove []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range remove {
		delete(r.fields, k)
	}
	for k, v := range set {
		r.fields[k] = v
	}
	return nil
}

func (r *PrefsRepo) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fields = make(map[string]string)
	return nil
}
