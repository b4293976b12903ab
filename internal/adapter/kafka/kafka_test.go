package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/couchcryptid/daymet-etl/internal/config"
	"github.com/couchcryptid/daymet-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	report := domain.OutputReport{
		RunID:      "run-1",
		DataType:   "daily",
		Parameter:  "tmax",
		Path:       "out/DAILY_DAYMET_GYE_TMAX.csv",
		Files:      3,
		Skipped:    1,
		Rows:       1095,
		FinishedAt: now,
	}

	msg, err := serializeToMessage(report)
	require.NoError(t, err)

	assert.Equal(t, []byte("daily/tmax"), msg.Key)
	assert.JSONEq(t, `{
		"run_id": "run-1",
		"data_type": "daily",
		"parameter": "tmax",
		"path": "out/DAILY_DAYMET_GYE_TMAX.csv",
		"files": 3,
		"skipped": 1,
		"rows": 1095,
		"finished_at": "2024-04-26T15:10:00Z"
	}`, string(msg.Value))

	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "run_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("run-1"), msg.Headers[0].Value)
	assert.Equal(t, "data_type", msg.Headers[1].Key)
	assert.Equal(t, []byte("daily"), msg.Headers[1].Value)
	assert.Equal(t, "finished_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)

	var roundtrip domain.OutputReport
	require.NoError(t, json.Unmarshal(msg.Value, &roundtrip))
	assert.Equal(t, report, roundtrip)
}

func TestNewNotifier_UsesConfiguredTopic(t *testing.T) {
	n := NewNotifier(&config.Config{
		KafkaBrokers: []string{"localhost:9092"},
		KafkaTopic:   "daymet-outputs",
	}, nil)
	t.Cleanup(func() { _ = n.Close() })

	assert.Equal(t, "daymet-outputs", n.writer.Topic)
	assert.Equal(t, "localhost:9092", n.writer.Addr.String())
}
