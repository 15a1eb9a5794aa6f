package api

import (
	"sync"
	"time"

	"github.com/BTreeMap/HerSpace/internal/models"
)

// credentialVault keeps validated credentials in process memory, keyed by session id.
// Session records handed to the store never carry them.
type credentialVault struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]vaultEntry
}

type vaultEntry struct {
	credential string
	touched    time.Time
}

func newCredentialVault(ttl time.Duration, now func() time.Time) *credentialVault {
	if now == nil {
		now = time.Now
	}
	return &credentialVault{ttl: ttl, now: now, entries: make(map[string]vaultEntry)}
}

// restore attaches the credential held for s.ID, if any.
func (v *credentialVault) restore(s models.Session) models.Session {
	v.mu.Lock()
	defer v.mu.Unlock()
	e, ok := v.entries[s.ID]
	if !ok {
		return s
	}
	now := v.now()
	if v.expired(e, now) {
		delete(v.entries, s.ID)
		return s
	}
	e.touched = now
	v.entries[s.ID] = e
	s.Credential = e.credential
	s.CredentialValidated = true
	return s
}

// record remembers the credential of s, or forgets it when s has none, and returns the
// copy of s that may be persisted.
func (v *credentialVault) record(s models.Session) models.Session {
	v.mu.Lock()
	now := v.now()
	if s.HasCredential() {
		v.entries[s.ID] = vaultEntry{credential: s.Credential, touched: now}
	} else {
		delete(v.entries, s.ID)
	}
	for id, e := range v.entries {
		if v.expired(e, now) {
			delete(v.entries, id)
		}
	}
	v.mu.Unlock()

	s.Credential = ""
	s.CredentialValidated = false
	return s
}

func (v *credentialVault) forget(id string) {
	v.mu.Lock()
	delete(v.entries, id)
	v.mu.Unlock()
}

func (v *credentialVault) size() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}

func (v *credentialVault) expired(e vaultEntry, now time.Time) bool {
	return v.ttl > 0 && now.Sub(e.touched) > v.ttl
}
