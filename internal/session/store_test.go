package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := NewStoreAt(filepath.Join(t.TempDir(), "sessions"))
	require.NoError(t, err)

	sess := &Session{
		ID:        "efivm-a",
		BootImage: `C:\vm\boot.efi`,
		MemoryMB:  1024,
		Cores:     2,
		Status:    StatusCreated,
		StartedAt: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(sess))

	loaded, err := store.Load("efivm-a")
	require.NoError(t, err)
	assert.Equal(t, sess.BootImage, loaded.BootImage)
	assert.Equal(t, StatusCreated, loaded.Status)
	assert.True(t, sess.StartedAt.Equal(loaded.StartedAt))

	sess.Status = StatusRunning
	require.NoError(t, store.Save(sess))
	loaded, err = store.Load("efivm-a")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, loaded.Status)
}

func TestStoreLoadMissing(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreListSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStoreAt(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(&Session{ID: "efivm-a", Status: StatusRunning}))
	require.NoError(t, store.Save(&Session{ID: "efivm-b", Status: StatusFailed}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644))

	sessions, err := store.List()
	require.NoError(t, err)

	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{"efivm-a", "efivm-b"}, ids)
}

func TestStoreDelete(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(&Session{ID: "efivm-a"}))
	require.NoError(t, store.Delete("efivm-a"))
	require.NoError(t, store.Delete("efivm-a"))

	sessions, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestStoreBegin(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)

	t.Run("new name", func(t *testing.T) {
		require.NoError(t, store.Begin(&Session{ID: "fresh", Status: StatusCreated}))
		loaded, err := store.Load("fresh")
		require.NoError(t, err)
		assert.Equal(t, StatusCreated, loaded.Status)
	})

	t.Run("running record is kept", func(t *testing.T) {
		require.NoError(t, store.Save(&Session{ID: "busy", Status: StatusRunning, Pipe: "first"}))

		err := store.Begin(&Session{ID: "busy", Status: StatusCreated, Pipe: "second"})
		assert.ErrorIs(t, err, ErrAlreadyRunning)

		loaded, err := store.Load("busy")
		require.NoError(t, err)
		assert.Equal(t, StatusRunning, loaded.Status)
		assert.Equal(t, "first", loaded.Pipe)
	})

	t.Run("finished record is replaced", func(t *testing.T) {
		for _, status := range []string{StatusStopped, StatusFailed, StatusCreated} {
			require.NoError(t, store.Save(&Session{ID: "reuse", Status: status}))
			require.NoError(t, store.Begin(&Session{ID: "reuse", Status: StatusCreated, Pipe: status}))

			loaded, err := store.Load("reuse")
			require.NoError(t, err)
			assert.Equal(t, status, loaded.Pipe)
		}
	})
}

func TestStoreRejectsUnsafeNames(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "sessions")
	store, err := NewStoreAt(dir)
	require.NoError(t, err)

	for _, id := range []string{"../escaped", `a\b`, "a/b", "", ".hidden", "-x"} {
		t.Run(id, func(t *testing.T) {
			assert.ErrorIs(t, store.Save(&Session{ID: id}), ErrInvalidName)
			assert.ErrorIs(t, store.Begin(&Session{ID: id}), ErrInvalidName)
			_, err := store.Load(id)
			assert.ErrorIs(t, err, ErrInvalidName)
			assert.ErrorIs(t, store.Delete(id), ErrInvalidName)
		})
	}

	_, err = os.Stat(filepath.Join(root, "escaped.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestStoreListNewestFirst(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(&Session{ID: "old", StartedAt: base}))
	require.NoError(t, store.Save(&Session{ID: "new", StartedAt: base.Add(time.Hour)}))
	require.NoError(t, store.Save(&Session{ID: "mid", StartedAt: base.Add(time.Minute)}))

	sessions, err := store.List()
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, "new", sessions[0].ID)
	assert.Equal(t, "mid", sessions[1].ID)
	assert.Equal(t, "old", sessions[2].ID)
}
