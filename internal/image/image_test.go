package image

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	return path
}

func realDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func TestResolve(t *testing.T) {
	dir := realDir(t)
	boot := touch(t, dir, "boot.efi")

	t.Run("existing file", func(t *testing.T) {
		got, err := Resolve(boot)
		require.NoError(t, err)
		assert.Equal(t, boot, got)
	})

	t.Run("relative path is made absolute", func(t *testing.T) {
		t.Chdir(dir)
		got, err := Resolve("boot.efi")
		require.NoError(t, err)
		assert.Equal(t, boot, got)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := Resolve("")
		assert.ErrorIs(t, err, ErrEmptyPath)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Resolve(filepath.Join(dir, "missing.efi"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := Resolve(dir)
		assert.ErrorIs(t, err, ErrNotAFile)
	})
}

func TestResolveFollowsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need developer mode on windows")
	}
	dir := realDir(t)
	target := touch(t, dir, "real.vhdx")
	link := filepath.Join(dir, "link.vhdx")
	require.NoError(t, os.Symlink(target, link))

	got, err := Resolve(link)
	require.NoError(t, err)
	assert.Equal(t, target, got)
}

func TestIsISO(t *testing.T) {
	assert.True(t, IsISO("installer.iso"))
	assert.True(t, IsISO(`C:\images\INSTALLER.ISO`))
	assert.False(t, IsISO("disk.vhdx"))
	assert.False(t, IsISO("iso"))
}

func TestResolveSet(t *testing.T) {
	dir := realDir(t)
	boot := touch(t, dir, "boot.efi")
	a := touch(t, dir, "a.vhdx")
	b := touch(t, dir, "b.vhdx")

	t.Run("keeps disk order", func(t *testing.T) {
		set, err := ResolveSet(boot, []string{b, a})
		require.NoError(t, err)
		assert.Equal(t, boot, set.BootImage)
		assert.Equal(t, []string{b, a}, set.Disks)
	})

	t.Run("no disks", func(t *testing.T) {
		set, err := ResolveSet(boot, nil)
		require.NoError(t, err)
		assert.Empty(t, set.Disks)
	})

	t.Run("duplicate disk", func(t *testing.T) {
		_, err := ResolveSet(boot, []string{a, a})
		assert.ErrorIs(t, err, ErrDuplicateDisk)
	})

	t.Run("boot image as disk", func(t *testing.T) {
		_, err := ResolveSet(boot, []string{boot})
		assert.ErrorIs(t, err, ErrDuplicateDisk)
	})

	t.Run("missing disk", func(t *testing.T) {
		_, err := ResolveSet(boot, []string{filepath.Join(dir, "nope.vhdx")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk")
	})

	t.Run("missing boot image", func(t *testing.T) {
		_, err := ResolveSet(filepath.Join(dir, "nope.efi"), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boot image")
	})

	t.Run("too many disks", func(t *testing.T) {
		disks := make([]string, MaxDisks+1)
		for i := range disks {
			disks[i] = a
		}
		_, err := ResolveSet(boot, disks)
		assert.ErrorIs(t, err, ErrTooManyDisks)
	})
}
