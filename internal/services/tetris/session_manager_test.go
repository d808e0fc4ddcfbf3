package tetris

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/BLOCKFALL-backend/internal/models/tetris"
)

const (
	waitFor = 2 * time.Second
	pollAt  = 5 * time.Millisecond
)

func newTestManager(t *testing.T, dropInterval time.Duration) *SessionManager {
	t.Helper()
	sm := NewSessionManager(ManagerOptions{
		TickInterval: time.Millisecond,
		DropInterval: dropInterval,
		NewGenerator: func() PieceGenerator { return NewSequenceGenerator(tetris.TypeO) },
	})
	t.Cleanup(sm.Shutdown)
	return sm
}

func TestSessionManager_CreateAndSnapshot(t *testing.T) {
	sm := newTestManager(t, time.Hour)
	ctx := context.Background()

	id, err := sm.CreateSession(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	snap, err := sm.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Piece)

	n, err := sm.SessionCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSessionManager_UnknownSession(t *testing.T) {
	sm := newTestManager(t, time.Hour)
	ctx := context.Background()

	_, err := sm.Snapshot(ctx, "missing")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	_, err = sm.Apply(ctx, "missing", ActionStart)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = sm.Subscribe(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, sm.RemoveSession(ctx, "missing"), ErrSessionNotFound)

	// 非同期の入力はログに残して無視される
	assert.NoError(t, sm.Submit(ctx, PlayerInputEvent{SessionID: "missing", Action: ActionStart}))
}

func TestSessionManager_AutoDrop(t *testing.T) {
	sm := newTestManager(t, 10*time.Millisecond)
	ctx := context.Background()

	id, err := sm.CreateSession(ctx)
	require.NoError(t, err)
	changed, err := sm.Apply(ctx, id, ActionStart)
	require.NoError(t, err)
	require.True(t, changed)

	assert.Eventually(t, func() bool {
		snap, err := sm.Snapshot(ctx, id)
		return err == nil && snap.Piece != nil && snap.Piece.Anchor.Y > 0
	}, waitFor, pollAt)
}

func TestSessionManager_PauseFreezesPiece(t *testing.T) {
	sm := newTestManager(t, 5*time.Millisecond)
	ctx := context.Background()

	id, err := sm.CreateSession(ctx)
	require.NoError(t, err)
	_, err = sm.Apply(ctx, id, ActionStart)
	require.NoError(t, err)
	_, err = sm.Apply(ctx, id, ActionPause)
	require.NoError(t, err)

	before, err := sm.Snapshot(ctx, id)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	after, err := sm.Snapshot(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, StatePaused, after.State)
	assert.Equal(t, before.Piece, after.Piece)
}

func TestSessionManager_SubmitAndSubscribe(t *testing.T) {
	sm := newTestManager(t, time.Hour)
	ctx := context.Background()

	id, err := sm.CreateSession(ctx)
	require.NoError(t, err)
	updates, err := sm.Subscribe(ctx, id)
	require.NoError(t, err)

	initial := <-updates
	assert.Equal(t, StateIdle, initial.State)

	require.NoError(t, sm.Submit(ctx, PlayerInputEvent{SessionID: id, Action: ActionStart}))
	require.NoError(t, sm.Submit(ctx, PlayerInputEvent{SessionID: id, Action: ActionMoveLeft}))

	assert.Eventually(t, func() bool {
		for {
			select {
			case snap := <-updates:
				if snap.State == StatePlaying && snap.Piece != nil && snap.Piece.Anchor.X == 2 {
					return true
				}
			default:
				return false
			}
		}
	}, waitFor, pollAt)

	require.NoError(t, sm.Unsubscribe(ctx, id, updates))
	_, open := <-updates
	assert.False(t, open)
}

func TestSessionManager_RemoveSessionClosesSubscribers(t *testing.T) {
	sm := newTestManager(t, time.Hour)
	ctx := context.Background()

	id, err := sm.CreateSession(ctx)
	require.NoError(t, err)
	updates, err := sm.Subscribe(ctx, id)
	require.NoError(t, err)
	<-updates

	require.NoError(t, sm.RemoveSession(ctx, id))
	_, open := <-updates
	assert.False(t, open)

	_, err = sm.Snapshot(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionManager_Shutdown(t *testing.T) {
	sm := NewSessionManager(ManagerOptions{})
	ctx := context.Background()

	id, err := sm.CreateSession(ctx)
	require.NoError(t, err)
	updates, err := sm.Subscribe(ctx, id)
	require.NoError(t, err)

	sm.Shutdown()
	sm.Shutdown()

	// 最初のスナップショットの後、チャネルは閉じられている
	<-updates
	_, open := <-updates
	assert.False(t, open)

	_, err = sm.CreateSession(ctx)
	assert.ErrorIs(t, err, ErrManagerClosed)
	assert.ErrorIs(t, sm.Submit(ctx, PlayerInputEvent{SessionID: id, Action: ActionStart}), ErrManagerClosed)
}

func TestSessionManager_ContextCanceled(t *testing.T) {
	sm := newTestManager(t, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// 送信と取り消しが同時に成立する場合があるので、成功か context.Canceled のどちらか
	_, err := sm.CreateSession(ctx)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
