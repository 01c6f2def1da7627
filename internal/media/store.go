// Package media integrates the third-party hosting service that keeps
// uploaded video files, thumbnails, and profile images.
package media

import (
	"context"
	"errors"
	"io"
)

// Key prefixes namespace uploads inside the bucket.
const (
	PrefixAvatars    = "avatars"
	PrefixCovers     = "covers"
	PrefixVideos     = "videos"
	PrefixThumbnails = "thumbnails"
)

// ErrStoreUnavailable indicates the media store is not configured.
var ErrStoreUnavailable = errors.New("media store unavailable")

// Store persists uploaded files and returns their public locations.
type Store interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// DurationProber reports the playback duration of an uploaded media file in
// seconds. A zero duration with nil error means the probe could not tell.
type DurationProber interface {
	Probe(ctx context.Context, path string) (float64, error)
}
