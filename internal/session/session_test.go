package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"StudyChat/internal/classify"
)

func TestNewSeedsGreeting(t *testing.T) {
	s := New()

	_, err := uuid.Parse(s.ID)
	require.NoError(t, err)
	require.Equal(t, StatusIdle, s.Status)

	snap := s.Snapshot()
	require.Len(t, snap.Transcript, 1)
	require.Equal(t, RoleAssistant, snap.Transcript[0].Role)
	require.Equal(t, Greeting, snap.Transcript[0].Content)
	require.Equal(t, 1, snap.Transcript[0].Sequence)
}

func TestAppendAssignsGaplessSequence(t *testing.T) {
	s := New()
	s.Append(RoleUser, "a")
	s.Append(RoleAssistant, "b")
	last := s.Append(RoleUser, "c")

	require.Equal(t, 4, last.Sequence)
	for i, msg := range s.Snapshot().Transcript {
		require.Equal(t, i+1, msg.Sequence)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New()
	s.LastError = &classify.Result{Category: classify.RateLimited, Message: "x"}

	snap := s.Snapshot()
	snap.Transcript[0].Content = "changed"
	snap.LastError.Message = "changed"

	again := s.Snapshot()
	require.Equal(t, Greeting, again.Transcript[0].Content)
	require.Equal(t, "x", again.LastError.Message)
}
