package main

import (
	"strings"
	"sync"
)

// Account holds the data we store server-side for a registered user.
type Account struct {
	Username string
	Password string
	LoggedIn bool
}

// Registry owns the set of known accounts. It is shared by every session
// handler, so all access goes through a single mutex; the structure is small
// and rarely mutated, so one lock is enough.
type Registry struct {
	mu       sync.Mutex
	accounts []Account
}

func newRegistry() *Registry {
	return &Registry{}
}

// Register adds a new account. Usernames are unique case-insensitively;
// a duplicate is rejected with ErrAlreadyRegistered.
func (r *Registry) Register(username, password string) error {
	if username == "" {
		return ErrInvalidUsername
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if strings.EqualFold(a.Username, username) {
			return ErrAlreadyRegistered
		}
	}

	r.accounts = append(r.accounts, Account{
		Username: username,
		Password: password,
	})

	return nil
}

// Verify reports whether the credentials match a registered account:
// case-insensitive username, exact password. Mutates nothing.
func (r *Registry) Verify(username, password string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if strings.EqualFold(a.Username, username) && a.Password == password {
			return true
		}
	}

	return false
}

// MarkLoggedIn sets the login flag for the matching account. Idempotent;
// unknown usernames are ignored.
func (r *Registry) MarkLoggedIn(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.accounts {
		if strings.EqualFold(r.accounts[i].Username, username) {
			r.accounts[i].LoggedIn = true
		}
	}
}
