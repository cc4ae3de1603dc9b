package model

import (
	"time"

	"github.com/mxpv/ytlink/pkg/link"
)

// Video is a resolved video code along with the links it was seen as
type Video struct {
	Code       string                  `json:"code"`
	Variant    link.Variant            `json:"variant"` // Variant of the link the video was first resolved from
	Source     string                  `json:"source"`
	Links      map[link.Variant]string `json:"links"`
	CreatedAt  Timestamp               `json:"created_at"`
	LastAccess Timestamp               `json:"last_access"`
	Hits       int                     `json:"hits"`
}

// NewVideo builds a video record and renders links for all known variants
func NewVideo(code string, variant link.Variant, source string, now time.Time) *Video {
	links := make(map[link.Variant]string, len(link.Variants()))
	for _, v := range link.Variants() {
		links[v] = link.Render(v, code)
	}

	return &Video{
		Code:       code,
		Variant:    variant,
		Source:     source,
		Links:      links,
		CreatedAt:  Timestamp(now),
		LastAccess: Timestamp(now),
		Hits:       1,
	}
}
