package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zombar/contentlens/internal/models"
)

func TestNewScoreTask(t *testing.T) {
	before := time.Now().UnixNano()
	task, err := newScoreTask(context.Background(), "abc", "Hello world.", models.LongForm)
	require.NoError(t, err)

	assert.Equal(t, TypeScore, task.Type())

	var payload ScorePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "abc", payload.AnalysisID)
	assert.Equal(t, "Hello world.", payload.Content)
	assert.Equal(t, models.LongForm, payload.ContentType)
	assert.GreaterOrEqual(t, payload.EnqueuedAt, before)
	// No span in the context, so no trace ids
	assert.Empty(t, payload.TraceID)
	assert.Empty(t, payload.SpanID)
}

func TestNewEnrichTask(t *testing.T) {
	task, err := newEnrichTask(context.Background(), "abc")
	require.NoError(t, err)

	assert.Equal(t, TypeEnrich, task.Type())
	assert.Equal(t, "abc-enrich", enrichTaskID("abc"))

	var payload EnrichPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "abc", payload.AnalysisID)
}

func TestRetryDelay(t *testing.T) {
	enrich := asynq.NewTask(TypeEnrich, nil)
	score := asynq.NewTask(TypeScore, nil)

	tests := []struct {
		name     string
		n        int
		task     *asynq.Task
		expected time.Duration
	}{
		{"enrich first retry", 0, enrich, 30 * time.Second},
		{"enrich second retry", 1, enrich, time.Minute},
		{"enrich fifth retry", 4, enrich, 10 * time.Minute},
		{"enrich beyond table", 9, enrich, 10 * time.Minute},
		{"score first retry", 0, score, 10 * time.Second},
		{"score beyond table", 5, score, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, retryDelay(tt.n, nil, tt.task))
		})
	}
}

func TestTaskStatus(t *testing.T) {
	assert.Equal(t, StatusQueued, taskStatus(asynq.TaskStatePending))
	assert.Equal(t, StatusQueued, taskStatus(asynq.TaskStateRetry))
	assert.Equal(t, StatusProcessing, taskStatus(asynq.TaskStateActive))
	assert.Equal(t, StatusCompleted, taskStatus(asynq.TaskStateCompleted))
}

func TestQueuePriorities(t *testing.T) {
	assert.Greater(t, queuePriorities[QueueScoring], queuePriorities[QueueEnrichment])
}
