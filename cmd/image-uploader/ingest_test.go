package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solacese/romo-robot/internal/mq"
	"github.com/solacese/romo-robot/internal/uploader"
	"github.com/solacese/romo-robot/pkg/storage"
)

func newIngester(t *testing.T) (imageIngester, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := storage.NewLocalStore(storage.LocalConfig{BasePath: dir})
	require.NoError(t, err)
	return imageIngester{up: uploader.New(st, uploader.Config{KeyPrefix: "romo"})}, dir
}

func TestImageIngesterStoresCapture(t *testing.T) {
	ing, dir := newIngester(t)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))

	require.NoError(t, ing.HandleImage(context.Background(), buf.Bytes()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^romo-[0-9a-f-]{36}\.jpg$`, entries[0].Name())
}

func TestImageIngesterMarksGarbageUnprocessable(t *testing.T) {
	ing, dir := newIngester(t)

	err := ing.HandleImage(context.Background(), []byte("not a jpeg"))
	assert.ErrorIs(t, err, mq.ErrUnprocessable)
	assert.ErrorIs(t, err, uploader.ErrInvalidImage)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
