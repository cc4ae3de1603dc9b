package db

import (
	"context"

	"github.com/mxpv/ytlink/pkg/model"
)

type Version int

const (
	CurrentVersion = 1
)

type Storage interface {
	Close() error
	Version() (int, error)

	// AddVideo inserts a new video record.
	// Returns model.ErrAlreadyExists if a video with the same code is already stored.
	AddVideo(ctx context.Context, video *model.Video) error

	// GetVideo gets a video by code
	GetVideo(ctx context.Context, code string) (*model.Video, error)

	// UpdateVideo updates video fields
	UpdateVideo(code string, cb func(video *model.Video) error) error

	// WalkVideos iterates over videos saved to database
	WalkVideos(ctx context.Context, cb func(video *model.Video) error) error

	// DeleteVideo deletes video from database
	DeleteVideo(ctx context.Context, code string) error

	// DeleteVideoIf deletes video only if cond returns true for its current state.
	// The check and the delete happen in one transaction.
	DeleteVideoIf(ctx context.Context, code string, cond func(video *model.Video) bool) (bool, error)
}
