package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_JSON(t *testing.T) {
	video := Video{Code: "abc123", CreatedAt: Timestamp(time.Unix(1600000000, 500))}

	data, err := json.Marshal(video)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"created_at":1600000000`)

	var out Video
	err = json.Unmarshal(data, &out)
	require.NoError(t, err)
	assert.EqualValues(t, 1600000000, out.CreatedAt.Time().Unix())
}

func TestTimestamp_InvalidJSON(t *testing.T) {
	var ts Timestamp
	assert.Error(t, ts.UnmarshalJSON([]byte(`"yesterday"`)))
}
