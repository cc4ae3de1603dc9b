package resolver

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mxpv/ytlink/pkg/link"
	"github.com/mxpv/ytlink/pkg/model"
)

type storage interface {
	AddVideo(ctx context.Context, video *model.Video) error
	GetVideo(ctx context.Context, code string) (*model.Video, error)
	UpdateVideo(code string, cb func(video *model.Video) error) error
	WalkVideos(ctx context.Context, cb func(video *model.Video) error) error
	DeleteVideo(ctx context.Context, code string) error
	DeleteVideoIf(ctx context.Context, code string, cond func(video *model.Video) bool) (bool, error)
}

const maxResolveAttempts = 3

// Resolver extracts video codes from links and keeps a history of resolved videos
type Resolver struct {
	db  storage
	now func() time.Time
}

func New(db storage) *Resolver {
	return &Resolver{db: db, now: time.Now}
}

// Resolve extracts video code from a raw link and records it.
// Returns model.ErrUnsupportedLink if the link is not recognized,
// link.ErrMalformedLink if it's recognized, but broken.
func (r *Resolver) Resolve(ctx context.Context, rawLink string) (*model.Video, error) {
	variant, ok := link.Classify(rawLink)
	if !ok {
		return nil, errors.Wrapf(model.ErrUnsupportedLink, "%q", rawLink)
	}

	code, _, err := link.VideoCode(rawLink)
	if err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{
		"code":    code,
		"variant": variant,
	})

	video := model.NewVideo(code, variant, rawLink, r.now())
	if code == "" {
		logger.Debugf("empty video code in %q, not recording", rawLink)
		return video, nil
	}

	// A video may be removed by cleanup between insert and update attempts, start over then
	for attempt := 0; attempt < maxResolveAttempts; attempt++ {
		err = r.db.AddVideo(ctx, video)
		if err == nil {
			logger.Debugf("recorded new video from %q", rawLink)
			return video, nil
		}

		if err != model.ErrAlreadyExists {
			return nil, errors.Wrapf(err, "failed to save video %q", code)
		}

		var updated model.Video
		err = r.db.UpdateVideo(code, func(existing *model.Video) error {
			existing.Hits++
			existing.LastAccess = model.Timestamp(r.now())
			updated = *existing
			return nil
		})

		if err == nil {
			logger.Debugf("video seen %d time(s)", updated.Hits)
			return &updated, nil
		}

		if err != model.ErrNotFound {
			break
		}
	}

	return nil, errors.Wrapf(err, "failed to update video %q", code)
}

// Convert resolves a raw link and renders it as the given variant
func (r *Resolver) Convert(ctx context.Context, rawLink string, to link.Variant) (string, *model.Video, error) {
	video, err := r.Resolve(ctx, rawLink)
	if err != nil {
		return "", nil, err
	}

	out, _, err := link.Convert(rawLink, to)
	if err != nil {
		return "", nil, err
	}

	return out, video, nil
}

// Get returns a previously resolved video
func (r *Resolver) Get(ctx context.Context, code string) (*model.Video, error) {
	return r.db.GetVideo(ctx, code)
}

// List returns all resolved videos
func (r *Resolver) List(ctx context.Context) ([]*model.Video, error) {
	var videos []*model.Video
	if err := r.db.WalkVideos(ctx, func(video *model.Video) error {
		videos = append(videos, video)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "failed to walk videos")
	}

	return videos, nil
}

// Delete removes a video from history
func (r *Resolver) Delete(ctx context.Context, code string) error {
	return r.db.DeleteVideo(ctx, code)
}

// Cleanup removes videos that were not accessed during maxAge.
// Returns the number of deleted records.
func (r *Resolver) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}

	deadline := r.now().Add(-maxAge)

	var expired []string
	if err := r.db.WalkVideos(ctx, func(video *model.Video) error {
		if video.LastAccess.Time().Before(deadline) {
			expired = append(expired, video.Code)
		}
		return nil
	}); err != nil {
		return 0, errors.Wrap(err, "failed to walk videos")
	}

	removed := 0
	for _, code := range expired {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		// The video might have been accessed after the walk, check again within the delete transaction
		deleted, err := r.db.DeleteVideoIf(ctx, code, func(video *model.Video) bool {
			return video.LastAccess.Time().Before(deadline)
		})
		if err != nil && err != model.ErrNotFound {
			return removed, errors.Wrapf(err, "failed to delete video %q", code)
		}

		if deleted {
			removed++
		}
	}

	log.Infof("removed %d expired video(s) from history", removed)
	return removed, nil
}
