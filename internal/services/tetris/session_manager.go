package tetris

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/progate-hackathon-strawberry-flavor/BLOCKFALL-backend/internal/realtime"
)

// DefaultTickInterval はセッションマネージャーのタイマー間隔です（約60fps）。
const DefaultTickInterval = 16 * time.Millisecond

var (
	// ErrSessionNotFound は指定されたIDのセッションが存在しない場合に返されます。
	ErrSessionNotFound = errors.New("session not found")
	// ErrManagerClosed は Shutdown 後に操作しようとした場合に返されます。
	ErrManagerClosed = errors.New("session manager closed")
)

// PlayerInputEvent はセッションへのプレイヤー操作です。
type PlayerInputEvent struct {
	SessionID string `json:"session_id"` // 操作対象のセッションID
	Action    string `json:"action"`     // "move_left", "rotate", "hard_drop", "pause" など
}

// GameSession は1つのエンジンと、その購読者を束ねたものです。
// フィールドは SessionManager の Run ゴルーチンからのみ触られます。
type GameSession struct {
	ID        string
	Engine    *Engine
	CreatedAt time.Time

	lastTick time.Time                        // 前回タイマーで処理した時刻
	hub      *realtime.Broadcaster[Snapshot] // スナップショットの配信先
}

// ManagerOptions は SessionManager の生成オプションです。ゼロ値のフィールドはデフォルトになります。
type ManagerOptions struct {
	TickInterval time.Duration         // タイマー間隔（デフォルト: 16ms）
	DropInterval time.Duration         // 各エンジンの自動落下間隔（デフォルト: 1000ms）
	NewGenerator func() PieceGenerator // セッションごとのピース生成器（デフォルト: 一様ランダム）
	Now          func() time.Time      // 現在時刻（デフォルト: time.Now）
}

// sessionCommand は Run ゴルーチン上で実行される処理です。
type sessionCommand struct {
	run  func()
	done chan struct{}
}

// SessionManager はゲームセッションを管理し、全てのエンジン操作を一つのゴルーチンに集約します。
// 入力、タイマー、生成や削除の要求はチャネル経由で Run に届き、順番に処理されます。
type SessionManager struct {
	sessions    map[string]*GameSession // sessionID -> GameSession（Run ゴルーチン専用）
	commands    chan sessionCommand     // 生成、削除、スナップショット取得などの要求
	inputEvents chan PlayerInputEvent   // プレイヤー操作のキュー
	quit        chan struct{}           // シャットダウン用チャネル
	stopped     chan struct{}           // Run の終了通知
	closeOnce   sync.Once

	tickInterval time.Duration
	dropInterval time.Duration
	newGenerator func() PieceGenerator
	now          func() time.Time
}

// NewSessionManager は新しい SessionManager を作成し、メインイベントループをバックグラウンドで開始します。
//
// Parameters:
//   opts : タイマー間隔、落下間隔、ピース生成器などのオプション
// Returns:
//   *SessionManager: 初期化されたセッションマネージャーのポインタ
func NewSessionManager(opts ManagerOptions) *SessionManager {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.DropInterval <= 0 {
		opts.DropInterval = DefaultDropInterval
	}
	if opts.NewGenerator == nil {
		opts.NewGenerator = func() PieceGenerator { return NewUniformGenerator(0) }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	sm := &SessionManager{
		sessions:     make(map[string]*GameSession),
		commands:     make(chan sessionCommand),
		inputEvents:  make(chan PlayerInputEvent, 512), // プレイヤー操作のキューイング用
		quit:         make(chan struct{}),
		stopped:      make(chan struct{}),
		tickInterval: opts.TickInterval,
		dropInterval: opts.DropInterval,
		newGenerator: opts.NewGenerator,
		now:          opts.Now,
	}
	go sm.Run()
	return sm
}

// Run は SessionManager のメインイベントループです。
// 要求の実行、プレイヤー入力の処理、自動落下タイマーの管理、スナップショットの配信を行います。
func (sm *SessionManager) Run() {
	defer close(sm.stopped)

	ticker := time.NewTicker(sm.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case cmd := <-sm.commands:
			cmd.run()
			close(cmd.done)

		case event := <-sm.inputEvents:
			sm.handleInput(event)

		case <-ticker.C:
			sm.tick(sm.now())

		case <-sm.quit:
			for id, session := range sm.sessions {
				session.hub.Close()
				delete(sm.sessions, id)
			}
			log.Printf("[SessionManager] Stopped")
			return
		}
	}
}

// handleInput はプレイヤー操作をエンジンに適用し、変化があれば配信します。
func (sm *SessionManager) handleInput(event PlayerInputEvent) {
	session, ok := sm.sessions[event.SessionID]
	if !ok {
		log.Printf("[SessionManager] Received input %q for non-existent session %s", event.Action, event.SessionID)
		return
	}
	sm.apply(session, event.Action)
}

// apply は操作を適用して、状態が変わったかどうかを返します。
func (sm *SessionManager) apply(session *GameSession, action string) bool {
	before := session.Engine.State()
	if !ApplyPlayerInput(session.Engine, action) {
		return false
	}
	sm.publish(session)

	after := session.Engine.State()
	if after != before {
		log.Printf("[SessionManager] Session %s: %s -> %s (action: %s)", session.ID, before, after, action)
	}
	return true
}

// tick は全セッションに前回からの経過時間を渡します。
// Playing でないセッションも前回時刻だけは更新するので、再開直後にまとめて落下することはありません。
func (sm *SessionManager) tick(now time.Time) {
	for _, session := range sm.sessions {
		elapsed := now.Sub(session.lastTick)
		session.lastTick = now
		if session.Engine.State() != StatePlaying {
			continue
		}

		result, dropped := session.Engine.Tick(elapsed)
		if !dropped {
			continue
		}
		sm.publish(session)
		if result.GameOver {
			log.Printf("[SessionManager] Session %s game over (score: %d, lines: %d)",
				session.ID, session.Engine.Score(), session.Engine.LinesCleared())
		}
	}
}

func (sm *SessionManager) publish(session *GameSession) {
	session.hub.Publish(session.Engine.Snapshot())
}

// do は fn を Run ゴルーチン上で実行し、完了を待ちます。
func (sm *SessionManager) do(ctx context.Context, fn func()) error {
	cmd := sessionCommand{run: fn, done: make(chan struct{})}
	select {
	case sm.commands <- cmd:
	case <-sm.quit:
		return ErrManagerClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-cmd.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CreateSession は Idle 状態の新しいセッションを作成します。
//
// Returns:
//   string: 新しいセッションID
//   error : マネージャーが停止している場合など
func (sm *SessionManager) CreateSession(ctx context.Context) (string, error) {
	now := sm.now()
	session := &GameSession{
		ID: uuid.New().String(),
		Engine: NewEngine(Options{
			DropInterval: sm.dropInterval,
			Generator:    sm.newGenerator(),
		}),
		CreatedAt: now,
		lastTick:  now,
		hub:       realtime.NewBroadcaster[Snapshot](0),
	}

	err := sm.do(ctx, func() {
		sm.sessions[session.ID] = session
	})
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	log.Printf("[SessionManager] Session created: %s", session.ID)
	return session.ID, nil
}

// RemoveSession はセッションを削除し、購読者のチャネルを閉じます。
func (sm *SessionManager) RemoveSession(ctx context.Context, id string) error {
	found := false
	err := sm.do(ctx, func() {
		session, ok := sm.sessions[id]
		if !ok {
			return
		}
		found = true
		session.hub.Close()
		delete(sm.sessions, id)
	})
	if err != nil {
		return fmt.Errorf("failed to remove session %s: %w", id, err)
	}
	if !found {
		return fmt.Errorf("failed to remove session %s: %w", id, ErrSessionNotFound)
	}
	log.Printf("[SessionManager] Session removed: %s", id)
	return nil
}

// Submit はプレイヤー操作をキューに入れます。処理は非同期で行われ、
// 存在しないセッションへの操作はログに残して無視されます。
func (sm *SessionManager) Submit(ctx context.Context, event PlayerInputEvent) error {
	select {
	case <-sm.quit:
		return ErrManagerClosed
	default:
	}

	select {
	case sm.inputEvents <- event:
		return nil
	case <-sm.quit:
		return ErrManagerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Apply はプレイヤー操作を同期的に適用します。
//
// Returns:
//   bool : ゲーム状態が変わった場合はtrue
//   error: セッションが存在しない場合は ErrSessionNotFound
func (sm *SessionManager) Apply(ctx context.Context, id, action string) (bool, error) {
	found, changed := false, false
	err := sm.do(ctx, func() {
		session, ok := sm.sessions[id]
		if !ok {
			return
		}
		found = true
		changed = sm.apply(session, action)
	})
	if err != nil {
		return false, fmt.Errorf("failed to apply %q to session %s: %w", action, id, err)
	}
	if !found {
		return false, fmt.Errorf("failed to apply %q to session %s: %w", action, id, ErrSessionNotFound)
	}
	return changed, nil
}

// Snapshot はセッションの現在のスナップショットを返します。
func (sm *SessionManager) Snapshot(ctx context.Context, id string) (Snapshot, error) {
	var (
		snap  Snapshot
		found bool
	)
	err := sm.do(ctx, func() {
		session, ok := sm.sessions[id]
		if !ok {
			return
		}
		found = true
		snap = session.Engine.Snapshot()
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to get snapshot of session %s: %w", id, err)
	}
	if !found {
		return Snapshot{}, fmt.Errorf("failed to get snapshot of session %s: %w", id, ErrSessionNotFound)
	}
	return snap, nil
}

// Subscribe はセッションのスナップショットを受け取るチャネルを返します。
// 最初に現在のスナップショットが一つ届き、その後は状態が変わるたびに届きます。
// 受信が遅れた場合、古いスナップショットは捨てられます。
func (sm *SessionManager) Subscribe(ctx context.Context, id string) (chan Snapshot, error) {
	var ch chan Snapshot
	err := sm.do(ctx, func() {
		session, ok := sm.sessions[id]
		if !ok {
			return
		}
		ch = session.hub.Subscribe()
		ch <- session.Engine.Snapshot() // 新しいチャネルなのでバッファに空きがある
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to session %s: %w", id, err)
	}
	if ch == nil {
		return nil, fmt.Errorf("failed to subscribe to session %s: %w", id, ErrSessionNotFound)
	}
	return ch, nil
}

// Unsubscribe は購読を解除し、チャネルを閉じます。
func (sm *SessionManager) Unsubscribe(ctx context.Context, id string, ch chan Snapshot) error {
	found := false
	err := sm.do(ctx, func() {
		session, ok := sm.sessions[id]
		if !ok {
			return
		}
		found = true
		session.hub.Unsubscribe(ch)
	})
	if err != nil {
		return fmt.Errorf("failed to unsubscribe from session %s: %w", id, err)
	}
	if !found {
		return fmt.Errorf("failed to unsubscribe from session %s: %w", id, ErrSessionNotFound)
	}
	return nil
}

// SessionCount は現在管理しているセッション数を返します。
func (sm *SessionManager) SessionCount(ctx context.Context) (int, error) {
	n := 0
	if err := sm.do(ctx, func() { n = len(sm.sessions) }); err != nil {
		return 0, err
	}
	return n, nil
}

// Shutdown はイベントループを停止し、全ての購読チャネルを閉じます。複数回呼んでも安全です。
func (sm *SessionManager) Shutdown() {
	sm.closeOnce.Do(func() {
		close(sm.quit)
	})
	<-sm.stopped
}
