package migrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_CheckDuplicateNames(t *testing.T) {
	t.Parallel()

	t.Run("no duplicates across groups", func(t *testing.T) {
		t.Parallel()
		m := New()
		m.Add(Descriptor{Name: "one", Group: "a"})
		m.Add(Descriptor{Name: "one", Group: "b"})
		assert.NoError(t, m.checkDuplicateNames())
	})

	t.Run("duplicate within group", func(t *testing.T) {
		t.Parallel()
		m := New()
		m.Add(Descriptor{Name: "one", Group: "a"})
		m.Add(Descriptor{Name: "one", Group: "a"})
		err := m.checkDuplicateNames()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDuplicateNames)
	})
}

func TestMigrations_ResolveGroups(t *testing.T) {
	t.Parallel()

	m := New()
	m.Add(Descriptor{Name: "one", Group: "a"})
	m.Add(Descriptor{Name: "two", Group: "b"})

	t.Run("explicit groups override", func(t *testing.T) {
		t.Parallel()
		got := m.resolveGroups([]string{"b", "b", "c"}, nil)
		assert.Equal(t, []string{"b", "c"}, got)
	})

	t.Run("derived from declared and applied", func(t *testing.T) {
		t.Parallel()
		applied := []AppliedMigration{{Name: "three", Group: "c"}}
		got := m.resolveGroups(nil, applied)
		assert.Equal(t, []string{"a", "b", "c"}, got)
	})

	t.Run("defaults to DefaultGroup when ungrouped", func(t *testing.T) {
		t.Parallel()
		m2 := New()
		m2.Add(Descriptor{Name: "one"})
		assert.Equal(t, []string{DefaultGroup}, m2.resolveGroups(nil, nil))
	})
}

func TestMigrations_DeclaredAndAppliedInGroup(t *testing.T) {
	t.Parallel()

	m := New()
	m.Add(Descriptor{Name: "a1", Group: "a"})
	m.Add(Descriptor{Name: "b1", Group: "b"})
	m.Add(Descriptor{Name: "a2", Group: "a"})

	got := m.declaredInGroup("a")
	require.Len(t, got, 2)
	assert.Equal(t, "a1", got[0].Name)
	assert.Equal(t, "a2", got[1].Name)

	applied := []AppliedMigration{
		{Name: "a1", Group: "a"},
		{Name: "b1", Group: "b"},
	}
	gotApplied := appliedInGroup(applied, "b")
	require.Len(t, gotApplied, 1)
	assert.Equal(t, "b1", gotApplied[0].Name)
}

func TestMigrations_RevertRegistry(t *testing.T) {
	t.Parallel()

	m := New()
	m.Add(Descriptor{Name: "kept"})
	m.Register(Descriptor{Name: "removed"})

	registry := m.revertRegistry()
	assert.Contains(t, registry, "kept")
	assert.Contains(t, registry, "removed")
}

func TestDedupeFirstSeen(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"a", "b", "c"}, dedupeFirstSeen([]string{"a", "b", "a", "c", "b"}))
	assert.Empty(t, dedupeFirstSeen(nil))
}
