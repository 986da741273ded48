package main

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := newRegistry()

	require.NoError(t, r.Register("alice", "a1"))

	err := r.Register("alice", "different")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	// Duplicate detection matches the same way login does.
	err = r.Register("ALICE", "a1")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegisterRejectsEmptyUsername(t *testing.T) {
	r := newRegistry()

	assert.ErrorIs(t, r.Register("", "pw"), ErrInvalidUsername)
	assert.Empty(t, r.accounts)
}

func TestVerify(t *testing.T) {
	r := newRegistry()
	require.NoError(t, r.Register("alice", "a1"))

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{"exact match", "alice", "a1", true},
		{"case-insensitive username", "Alice", "a1", true},
		{"wrong password", "alice", "A1", false},
		{"unknown user", "bob", "a1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Verify(tt.username, tt.password))
		})
	}
}

func TestMarkLoggedInIdempotent(t *testing.T) {
	r := newRegistry()
	require.NoError(t, r.Register("alice", "a1"))

	r.MarkLoggedIn("alice")
	r.MarkLoggedIn("ALICE")

	require.Len(t, r.accounts, 1)
	assert.True(t, r.accounts[0].LoggedIn)
}

func TestRegisterConcurrent(t *testing.T) {
	r := newRegistry()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, r.Register(fmt.Sprintf("user%d", i), "pw"))
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.accounts, n)
}
