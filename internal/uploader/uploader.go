package uploader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	pkglog "github.com/solacese/romo-robot/pkg/log"
	"github.com/solacese/romo-robot/pkg/storage"
)

// ErrInvalidImage is returned when the input cannot be decoded as an image.
var ErrInvalidImage = errors.New("input is not a decodable image")

// maxKeyAttempts bounds how often a colliding key is regenerated.
const maxKeyAttempts = 3

// Config holds uploader settings.
type Config struct {
	KeyPrefix   string        `mapstructure:"key_prefix"`
	JPEGQuality int           `mapstructure:"jpeg_quality"`
	MaxWidth    int           `mapstructure:"max_width"` // 0 keeps the original size
	URLExpiry   time.Duration `mapstructure:"url_expiry"`
}

// Result describes one stored upload.
type Result struct {
	Bucket string
	Key    string
	Size   int64
	URL    string
}

// Uploader normalizes images to JPEG and stores them under keys the face
// pipeline maps onto broker topics.
type Uploader struct {
	store storage.ObjectStore
	cfg   Config
	newID func() string
}

// New creates an Uploader writing to store.
func New(store storage.ObjectStore, cfg Config) *Uploader {
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 85
	}
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = time.Hour
	}
	return &Uploader{store: store, cfg: cfg, newID: uuid.NewString}
}

// Key returns the object key for id, e.g. "romo-<id>.jpg".
func (u *Uploader) Key(id string) string {
	if u.cfg.KeyPrefix == "" {
		return id + ".jpg"
	}
	return fmt.Sprintf("%s-%s.jpg", u.cfg.KeyPrefix, id)
}

// freeKey returns a generated key not yet present in the store. Existing
// objects are never overwritten.
func (u *Uploader) freeKey(ctx context.Context) (string, error) {
	for i := 0; i < maxKeyAttempts; i++ {
		key := u.Key(u.newID())
		exists, err := u.store.Exists(ctx, key)
		if err != nil {
			return "", fmt.Errorf("check key %s: %w", key, err)
		}
		if !exists {
			return key, nil
		}
		l := pkglog.Ctx(ctx)
		l.Warn().Str(pkglog.FieldKey, key).Msg("generated key already exists, retrying")
	}
	return "", fmt.Errorf("no free key after %d attempts", maxKeyAttempts)
}

// UploadFile reads path and uploads it.
func (u *Uploader) UploadFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return u.Upload(ctx, f)
}

// Upload decodes r, re-encodes it as JPEG and stores it under a fresh key.
func (u *Uploader) Upload(ctx context.Context, r io.Reader) (*Result, error) {
	l := pkglog.Ctx(ctx)

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if u.cfg.MaxWidth > 0 && img.Bounds().Dx() > u.cfg.MaxWidth {
		img = imaging.Resize(img, u.cfg.MaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(u.cfg.JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	key, err := u.freeKey(ctx)
	if err != nil {
		return nil, err
	}
	size := int64(buf.Len())
	if err := u.store.Put(ctx, key, bytes.NewReader(buf.Bytes()), size, "image/jpeg"); err != nil {
		return nil, fmt.Errorf("store %s: %w", key, err)
	}

	res := &Result{Bucket: u.store.Bucket(), Key: key, Size: size}
	if url, err := u.store.URL(ctx, key, u.cfg.URLExpiry); err != nil {
		l.Warn().Err(err).Str(pkglog.FieldKey, key).Msg("uploaded but could not build object URL")
	} else {
		res.URL = url
	}

	l.Info().
		Str(pkglog.FieldBucket, res.Bucket).
		Str(pkglog.FieldKey, key).
		Int64("size", size).
		Str(pkglog.FieldURL, res.URL).
		Msg("file uploaded")
	return res, nil
}
