package app

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loungefm/loungefm/internal/broker"
	"github.com/loungefm/loungefm/internal/domain"
)

func newManager() *LoungeManager {
	return NewLoungeManager(broker.NewChannelBroker())
}

func TestCreateValidation(t *testing.T) {
	m := newManager()

	t.Run("empty name", func(t *testing.T) {
		_, err := m.Create("", "u1", 0)
		require.ErrorIs(t, err, domain.ErrNameEmpty)
		_, err = m.Create("   ", "u1", 0)
		require.ErrorIs(t, err, domain.ErrNameEmpty)
	})

	t.Run("capacity floor", func(t *testing.T) {
		_, err := m.Create("tiny", "u1", 1)
		require.ErrorIs(t, err, domain.ErrCapacityTooSmall)
	})

	t.Run("capacity defaults", func(t *testing.T) {
		svc, err := m.Create("defaults", "u1", 0)
		require.NoError(t, err)
		snap := svc.Snapshot()
		require.Equal(t, domain.DefaultCapacity, snap.Capacity)
		require.Equal(t, []domain.UserID{"u1"}, snap.MemberIDs)
		require.Len(t, string(snap.Code), domain.CodeLength)
	})
}

func TestConcurrentCreatesYieldUniqueCodes(t *testing.T) {
	m := newManager()
	const n = 1000

	var wg sync.WaitGroup
	codes := make(chan domain.LoungeCode, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc, err := m.Create("same name", domain.UserID(fmt.Sprintf("u%d", i)), 0)
			require.NoError(t, err)
			codes <- svc.Code()
		}(i)
	}
	wg.Wait()
	close(codes)

	seen := make(map[domain.LoungeCode]bool, n)
	for code := range codes {
		require.False(t, seen[code], "code %s issued twice", code)
		seen[code] = true
	}
	require.Len(t, seen, n)
}

func TestFindByCode(t *testing.T) {
	m := newManager()
	svc, err := m.Create("coded", "u1", 0)
	require.NoError(t, err)
	code := string(svc.Code())

	t.Run("canonicalizes case and whitespace", func(t *testing.T) {
		got, err := m.FindByCode("  " + strings.ToLower(code) + " ")
		require.NoError(t, err)
		require.Equal(t, svc.ID(), got.ID())
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := m.FindByCode("ZZZZZZ")
		require.ErrorIs(t, err, domain.ErrLoungeNotFound)
	})

	t.Run("inactive lounges are invisible by code", func(t *testing.T) {
		_, err := svc.Leave("u1") // last member out deactivates
		require.NoError(t, err)
		_, err = m.FindByCode(code)
		require.ErrorIs(t, err, domain.ErrLoungeNotFound)

		// The record still exists by id until purged; the code stays
		// reserved.
		_, err = m.Get(svc.ID())
		require.NoError(t, err)
	})

	t.Run("purge frees the record", func(t *testing.T) {
		m.Purge(svc.ID())
		_, err := m.Get(svc.ID())
		require.ErrorIs(t, err, domain.ErrLoungeNotFound)
	})
}

func TestPurgeIgnoresActiveLounges(t *testing.T) {
	m := newManager()
	svc, err := m.Create("alive", "u1", 0)
	require.NoError(t, err)

	m.Purge(svc.ID())
	_, err = m.Get(svc.ID())
	require.NoError(t, err)
}

func TestListForUser(t *testing.T) {
	m := newManager()
	a, err := m.Create("a", "u1", 0)
	require.NoError(t, err)
	b, err := m.Create("b", "u2", 0)
	require.NoError(t, err)
	require.NoError(t, b.Join("u1"))
	_, err = m.Create("c", "u3", 0)
	require.NoError(t, err)

	got := m.ListForUser("u1")
	require.Len(t, got, 2)
	ids := map[domain.LoungeID]bool{got[0].ID(): true, got[1].ID(): true}
	require.True(t, ids[a.ID()])
	require.True(t, ids[b.ID()])
}

func TestListActiveSkipsDeactivated(t *testing.T) {
	m := newManager()
	svc, err := m.Create("gone", "u1", 0)
	require.NoError(t, err)
	keep, err := m.Create("kept", "u2", 0)
	require.NoError(t, err)

	_, err = svc.Leave("u1")
	require.NoError(t, err)

	got := m.ListActive()
	require.Len(t, got, 1)
	require.Equal(t, keep.ID(), got[0].ID())
}
