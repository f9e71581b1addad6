package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterListRemove(t *testing.T) {
	r := NewRegistry()
	alice := Identity{Username: "alice", Roles: []string{"admin"}}
	bob := Identity{Username: "bob"}

	base := time.Now()
	r.Register("s2", bob, base.Add(time.Second), nil)
	r.Register("s1", alice, base, nil)

	entries := r.List()
	require.Len(t, entries, 2)
	assert.Equal(t, "s1", entries[0].SessionID, "list is ordered oldest first")
	assert.Equal(t, "alice", entries[0].Identity.Username)
	assert.Equal(t, "s2", entries[1].SessionID)

	assert.True(t, r.Remove("s1"))
	assert.False(t, r.Remove("s1"), "second removal reports not present")
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_KillNotFound(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Kill("no-such-session"))
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_KillInvokesCallback(t *testing.T) {
	r := NewRegistry()
	killed := make(chan struct{})
	r.Register("s1", Identity{Username: "alice"}, time.Now(), func() { close(killed) })

	require.True(t, r.Kill("s1"))
	select {
	case <-killed:
	case <-time.After(time.Second):
		t.Fatal("kill callback was not invoked")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i)
			r.Register(id, Identity{Username: "u"}, time.Now(), func() {})
			// Listing concurrently with inserts must never observe a
			// partially-constructed entry.
			for _, e := range r.List() {
				assert.NotEmpty(t, e.SessionID)
				assert.NotEmpty(t, e.Identity.Username)
			}
			if i%2 == 0 {
				r.Remove(id)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, r.Len())
}

func TestIdentity_HasRole(t *testing.T) {
	id := Identity{Username: "alice", Roles: []string{"admin", "operator"}}
	assert.True(t, id.HasRole("admin"))
	assert.False(t, id.HasRole("viewer"))
	assert.False(t, Identity{}.HasRole("admin"))
}
