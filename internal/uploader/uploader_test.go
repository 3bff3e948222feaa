package uploader

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solacese/romo-robot/pkg/storage"
)

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newLocal(t *testing.T) *storage.LocalStore {
	t.Helper()
	st, err := storage.NewLocalStore(storage.LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)
	return st
}

func TestUploadNormalizesToJPEG(t *testing.T) {
	st := newLocal(t)
	u := New(st, Config{KeyPrefix: "romo"})
	u.newID = func() string { return "fixed" }

	res, err := u.Upload(context.Background(), bytes.NewReader(pngImage(t, 32, 16)))
	require.NoError(t, err)

	assert.Equal(t, "romo-fixed.jpg", res.Key)
	assert.Equal(t, st.Bucket(), res.Bucket)
	assert.True(t, strings.HasPrefix(res.URL, "file://"))

	stored, err := imaging.Open(filepath.Join(st.Bucket(), res.Key))
	require.NoError(t, err)
	assert.Equal(t, 32, stored.Bounds().Dx())

	data, err := os.ReadFile(filepath.Join(st.Bucket(), res.Key))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8}, data[:2])
	assert.Equal(t, int64(len(data)), res.Size)
}

func TestUploadResizesToMaxWidth(t *testing.T) {
	st := newLocal(t)
	u := New(st, Config{KeyPrefix: "romo", MaxWidth: 10})

	res, err := u.Upload(context.Background(), bytes.NewReader(pngImage(t, 40, 20)))
	require.NoError(t, err)

	stored, err := imaging.Open(filepath.Join(st.Bucket(), res.Key))
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Bounds().Dx())
	assert.Equal(t, 5, stored.Bounds().Dy())
}

func TestUploadRejectsNonImage(t *testing.T) {
	u := New(newLocal(t), Config{KeyPrefix: "romo"})

	_, err := u.Upload(context.Background(), strings.NewReader("not an image"))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "romo-abc.jpg", New(nil, Config{KeyPrefix: "romo"}).Key("abc"))
	assert.Equal(t, "abc.jpg", New(nil, Config{}).Key("abc"))
}

func TestUploadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "face.png")
	require.NoError(t, os.WriteFile(path, pngImage(t, 8, 8), 0o644))

	st := newLocal(t)
	res, err := New(st, Config{KeyPrefix: "romo"}).UploadFile(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Key, "romo-"))

	_, err = New(st, Config{}).UploadFile(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func sequence(ids ...string) func() string {
	i := 0
	return func() string {
		id := ids[i%len(ids)]
		i++
		return id
	}
}

func TestUploadSkipsExistingKey(t *testing.T) {
	st := newLocal(t)
	require.NoError(t, st.Put(context.Background(), "romo-taken.jpg", strings.NewReader("old"), 3, "image/jpeg"))

	u := New(st, Config{KeyPrefix: "romo"})
	u.newID = sequence("taken", "free")

	res, err := u.Upload(context.Background(), bytes.NewReader(pngImage(t, 8, 8)))
	require.NoError(t, err)
	assert.Equal(t, "romo-free.jpg", res.Key)

	old, err := os.ReadFile(filepath.Join(st.Bucket(), "romo-taken.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))
}

func TestUploadGivesUpWhenEveryKeyIsTaken(t *testing.T) {
	st := newLocal(t)
	require.NoError(t, st.Put(context.Background(), "romo-taken.jpg", strings.NewReader("old"), 3, "image/jpeg"))

	u := New(st, Config{KeyPrefix: "romo"})
	u.newID = sequence("taken")

	_, err := u.Upload(context.Background(), bytes.NewReader(pngImage(t, 8, 8)))
	assert.ErrorContains(t, err, "no free key")
}

type failingStore struct {
	*storage.LocalStore
}

func (failingStore) Exists(context.Context, string) (bool, error) {
	return false, errors.New("AccessDenied")
}

func TestUploadFailsWhenKeyCheckFails(t *testing.T) {
	st := failingStore{newLocal(t)}
	u := New(st, Config{KeyPrefix: "romo"})

	_, err := u.Upload(context.Background(), bytes.NewReader(pngImage(t, 8, 8)))
	assert.ErrorContains(t, err, "AccessDenied")

	entries, err := os.ReadDir(st.Bucket())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
