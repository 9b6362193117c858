package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/fitleague/fitleague/internal/entries"
)

type sweepStub struct {
	cutoff int
	result entries.SweepResult
	err    error
}

func (s *sweepStub) SweepAutoApprove(_ context.Context, cutoffHours int) (entries.SweepResult, error) {
	s.cutoff = cutoffHours
	return s.result, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEntriesSweepHandlerRunsService(t *testing.T) {
	stub := &sweepStub{result: entries.SweepResult{ApprovedCount: 2, EntryIDs: []uuid.UUID{uuid.New(), uuid.New()}}}
	handler := NewEntriesSweepHandler(stub, discardLogger(), nil)

	task, err := NewEntriesAutoApproveTask(48, time.Now().UTC())
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, 48, stub.cutoff)
}

func TestEntriesSweepHandlerPropagatesServiceError(t *testing.T) {
	stub := &sweepStub{err: errors.New("db down")}
	handler := NewEntriesSweepHandler(stub, discardLogger(), nil)

	task, err := NewEntriesAutoApproveTask(48, time.Now().UTC())
	require.NoError(t, err)

	require.Error(t, handler(context.Background(), task))
}

func TestEntriesSweepHandlerSkipsBadPayload(t *testing.T) {
	stub := &sweepStub{}
	handler := NewEntriesSweepHandler(stub, discardLogger(), nil)

	task := asynq.NewTask(TaskEntriesAutoApprove, []byte("{not json"))
	err := handler(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Zero(t, stub.cutoff)
}

func TestEntriesAutoApproveTaskPayload(t *testing.T) {
	at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	task, err := NewEntriesAutoApproveTask(36, at)
	require.NoError(t, err)
	require.Equal(t, TaskEntriesAutoApprove, task.Type())

	var payload EntriesAutoApprovePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, 36, payload.CutoffHours)
	require.Equal(t, at, payload.ScheduledFor)
}
