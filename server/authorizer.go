package server

import (
	"os"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/zond/overseer"
)

// Authorizer is the host side permission store: a JSON file mapping admin
// IDs to granted capability names. It satisfies the capability check
// interface the console gates on.
type Authorizer struct {
	path string

	mu     sync.RWMutex
	grants map[string][]string
}

// LoadAuthorizer reads the grants file. A missing file means nobody has
// any capability yet; grants are then added with Grant.
func LoadAuthorizer(path string) (*Authorizer, error) {
	a := &Authorizer{
		path:   path,
		grants: map[string][]string{},
	}
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return a, nil
	} else if err != nil {
		return nil, overseer.WithStack(err)
	}
	if err := json.Unmarshal(content, &a.grants); err != nil {
		return nil, overseer.WithStack(err)
	}
	return a, nil
}

func (a *Authorizer) HasCapability(adminID, capability string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, granted := range a.grants[adminID] {
		if granted == capability {
			return true
		}
	}
	return false
}

// Grant adds a capability to an admin and persists the grants file.
func (a *Authorizer) Grant(adminID, capability string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, granted := range a.grants[adminID] {
		if granted == capability {
			return nil
		}
	}
	a.grants[adminID] = append(a.grants[adminID], capability)
	return a.saveLocked()
}

// Revoke removes a capability from an admin and persists the grants file.
func (a *Authorizer) Revoke(adminID, capability string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	kept := a.grants[adminID][:0]
	for _, granted := range a.grants[adminID] {
		if granted != capability {
			kept = append(kept, granted)
		}
	}
	if len(kept) == 0 {
		delete(a.grants, adminID)
	} else {
		a.grants[adminID] = kept
	}
	return a.saveLocked()
}

func (a *Authorizer) saveLocked() error {
	content, err := json.MarshalIndent(a.grants, "", "  ")
	if err != nil {
		return overseer.WithStack(err)
	}
	tmp := a.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0600); err != nil {
		return overseer.WithStack(err)
	}
	return overseer.WithStack(os.Rename(tmp, a.path))
}
