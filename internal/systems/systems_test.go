package systems

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fullstacknyc/portfolio/internal/storage"
)

const testYAML = `
systems:
  - id: frontend
    title: Front-end Development
    description: TypeScript, React
    tags: [react, ts]
    unlocked: true
  - id: physics
    title: Physics
    description: Classical mechanics
    unlocked: false
`

const testTOML = `
[[systems]]
id = "logic"
title = "Logic & Algorithms"
description = "Formal reasoning"
unlocked = false

[[systems]]
id = "research"
title = "Independent Research"
description = "Experiments, papers"
tags = ["research"]
unlocked = true
`

func testCatalog(t *testing.T) Catalog {
	t.Helper()
	c, err := ParseCatalog([]byte(testYAML), FormatYAML)
	require.NoError(t, err)
	return c
}

func TestParseCatalogYAML(t *testing.T) {
	c := testCatalog(t)
	require.Len(t, c, 2)
	assert.Equal(t, "frontend", c[0].ID)
	assert.Equal(t, []string{"react", "ts"}, c[0].Tags)
	assert.True(t, c[0].UnlockedByDefault)
	assert.False(t, c[1].UnlockedByDefault)
}

func TestParseCatalogTOML(t *testing.T) {
	c, err := ParseCatalog([]byte(testTOML), FormatTOML)
	require.NoError(t, err)
	require.Len(t, c, 2)
	assert.Equal(t, "Logic & Algorithms", c[0].Title)
	assert.True(t, c[1].UnlockedByDefault)
}

func TestCatalogValidation(t *testing.T) {
	cases := map[string]Catalog{
		"empty":     {},
		"blank id":  {{ID: " ", Title: "x"}},
		"no title":  {{ID: "a"}},
		"duplicate": {{ID: "a", Title: "A"}, {ID: "a", Title: "B"}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, c.Validate(), ErrInvalidCatalog)
		})
	}

	_, err := ParseCatalog([]byte("systems: []"), FormatYAML)
	assert.ErrorIs(t, err, ErrInvalidCatalog)
	_, err = ParseCatalog([]byte("systems: [unclosed"), FormatYAML)
	assert.ErrorIs(t, err, ErrInvalidCatalog)
	_, err = ParseCatalog([]byte(testYAML), Format("json"))
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}

func TestLoadCatalogByExtension(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "systems.yml")
	tomlPath := filepath.Join(dir, "systems.toml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(testYAML), 0o644))
	require.NoError(t, os.WriteFile(tomlPath, []byte(testTOML), 0o644))

	c, err := LoadCatalog(yamlPath)
	require.NoError(t, err)
	assert.Len(t, c, 2)

	c, err = LoadCatalog(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, "logic", c[0].ID)

	_, err = LoadCatalog(filepath.Join(dir, "systems.json"))
	assert.ErrorIs(t, err, ErrInvalidCatalog)

	_, err = LoadCatalog(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestEntryLine(t *testing.T) {
	s := System{ID: "chemistry", Title: "Chemistry", Description: "Physical & organic chemistry basics"}
	assert.Equal(t, "Chemistry: Physical & organic chemistry basics", Entry{System: s, Unlocked: true}.Line())
	assert.Equal(t, "Chemistry — Locked (unlock to reveal)", Entry{System: s}.Line())
}

func TestResolveFlagsOverrideDefaults(t *testing.T) {
	c := testCatalog(t)
	entries := Resolve(c, map[string]bool{"frontend": false, "physics": true, "gone": true})
	require.Len(t, entries, 2)
	assert.False(t, entries[0].Unlocked)
	assert.True(t, entries[1].Unlocked)

	assert.Equal(t, []string{
		"Front-end Development: TypeScript, React",
		"Physics — Locked (unlock to reveal)",
	}, Lines(c.Defaults()))
}

func TestServiceToggles(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(testCatalog(t), NewMemoryStore())
	require.NoError(t, err)

	seq, err := svc.Sequence(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Physics — Locked (unlock to reveal)", seq[1])

	require.NoError(t, svc.Unlock(ctx, "alice", "physics"))
	require.NoError(t, svc.Lock(ctx, "alice", "frontend"))

	seq, err = svc.Sequence(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Front-end Development — Locked (unlock to reveal)",
		"Physics: Classical mechanics",
	}, seq)

	// Other visitors keep the defaults.
	board, err := svc.Board(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, board[0].Unlocked)
	assert.False(t, board[1].Unlocked)

	err = svc.Unlock(ctx, "alice", "astrology")
	assert.ErrorIs(t, err, ErrUnknownSystem)

	_, err = NewService(Catalog{}, NewMemoryStore())
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.SetFlag(ctx, "v", "a", true))

	flags, err := m.Flags(ctx, "v")
	require.NoError(t, err)
	flags["a"] = false

	flags, err = m.Flags(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a": true}, flags)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	db, err := storage.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	s := NewSQLiteStore(db)
	flags, err := s.Flags(ctx, "v1")
	require.NoError(t, err)
	assert.Empty(t, flags)

	require.NoError(t, s.SetFlag(ctx, "v1", "physics", true))
	require.NoError(t, s.SetFlag(ctx, "v1", "frontend", false))
	require.NoError(t, s.SetFlag(ctx, "v2", "physics", true))
	// Upsert.
	require.NoError(t, s.SetFlag(ctx, "v1", "frontend", true))

	flags, err = s.Flags(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"physics": true, "frontend": true}, flags)

	counts, err := s.UnlockCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"physics": 2, "frontend": 1}, counts)
}

type countingStore struct {
	FlagStore
	reads  int
	failOn string
}

func (c *countingStore) Flags(ctx context.Context, owner string) (map[string]bool, error) {
	c.reads++
	return c.FlagStore.Flags(ctx, owner)
}

func (c *countingStore) SetFlag(ctx context.Context, owner, id string, unlocked bool) error {
	if id == c.failOn {
		return errors.New("disk full")
	}
	return c.FlagStore.SetFlag(ctx, owner, id, unlocked)
}

func TestCachedStore(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{FlagStore: NewMemoryStore(), failOn: "broken"}
	c := NewCachedStore(backing, 0)

	_, err := c.Flags(ctx, "v")
	require.NoError(t, err)
	_, err = c.Flags(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, 1, backing.reads)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.SetFlag(ctx, "v", "physics", true))
	flags, err := c.Flags(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"physics": true}, flags)
	assert.Equal(t, 1, backing.reads, "write updated the cached entry")

	assert.Error(t, c.SetFlag(ctx, "v", "broken", true))
	assert.Equal(t, 0, c.Len(), "failed write evicts the owner")

	flags, err = c.Flags(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"physics": true}, flags)
	assert.Equal(t, 2, backing.reads)
}
