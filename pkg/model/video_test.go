package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mxpv/ytlink/pkg/link"
)

func TestNewVideo(t *testing.T) {
	now := time.Now()
	video := NewVideo("abc123", link.VariantShort, "https://youtu.be/abc123/", now)

	assert.Equal(t, "abc123", video.Code)
	assert.Equal(t, link.VariantShort, video.Variant)
	assert.Equal(t, "https://youtu.be/abc123/", video.Source)
	assert.Equal(t, 1, video.Hits)
	assert.Len(t, video.Links, 3)
	assert.Equal(t, "https://www.youtube.com/watch/?v=abc123", video.Links[link.VariantWatch])
	assert.Equal(t, "https://www.youtube.com/embed/abc123", video.Links[link.VariantEmbed])
	assert.Equal(t, "https://youtu.be/abc123", video.Links[link.VariantShort])
	assert.Equal(t, now.Unix(), video.CreatedAt.Time().Unix())
}
