package tetris

import (
	"log"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/BLOCKFALL-backend/internal/models/tetris"
)

// ゲーム全体に影響する定数です。
const (
	DefaultDropInterval = 1000 * time.Millisecond // 自動落下の間隔
	ScorePerRow         = 10                      // 1ラインあたりのスコア（複数ライン同時でも線形）
)

// SpawnPosition は新しいピースの出現位置（行列の左上）です。
var SpawnPosition = tetris.Position{X: tetris.BoardWidth/2 - 2, Y: 0}

// GameState はゲームの状態です。常にどれか一つだけが成り立ちます。
type GameState int

const (
	StateIdle     GameState = iota // 開始前、またはリセット後
	StatePlaying                   // プレイ中（自動落下と入力を受け付ける）
	StatePaused                    // 一時停止中
	StateGameOver                  // ゲームオーバー（リセットでのみ抜けられる）
)

func (s GameState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StatePlaying:
		return "PLAYING"
	case StatePaused:
		return "PAUSED"
	case StateGameOver:
		return "GAME_OVER"
	default:
		return "UNKNOWN"
	}
}

// MarshalText はJSON出力で "PLAYING" のような文字列にします。
func (s GameState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ActivePiece は現在落下中のテトリミノです。
type ActivePiece struct {
	Type     tetris.PieceType `json:"type"`     // テトリミノの種類（固定時の色を決める）
	Shape    tetris.Shape     `json:"shape"`    // 現在の（回転後の）占有行列
	Anchor   tetris.Position  `json:"anchor"`   // 行列の左上のボード座標
	Collided bool             `json:"collided"` // 下方向への移動に失敗し、固定待ちであるか
}

// Clone はピースのディープコピーを返します。
func (p *ActivePiece) Clone() *ActivePiece {
	if p == nil {
		return nil
	}
	c := *p
	c.Shape = p.Shape.Clone()
	return &c
}

// Cells は現在占有しているボード座標を返します。
func (p *ActivePiece) Cells() []tetris.Position {
	local := p.Shape.Cells()
	out := make([]tetris.Position, 0, len(local))
	for _, c := range local {
		out = append(out, tetris.Position{X: p.Anchor.X + c[0], Y: p.Anchor.Y + c[1]})
	}
	return out
}

// Options はエンジンの生成オプションです。ゼロ値のフィールドはデフォルトになります。
type Options struct {
	DropInterval time.Duration  // 自動落下の間隔（デフォルト: 1000ms）
	Generator    PieceGenerator // ピースの選び方（デフォルト: 一様ランダム）
}

// Engine は1ゲーム分のボード、落下中ピース、スコア、状態、落下タイマーを所有します。
// 内部に並行処理はありません。呼び出し側（SessionManager など）が一つのゴルーチンから
// 呼び出すことで、全ての操作が直列に実行されます。
type Engine struct {
	board        tetris.Board
	piece        *ActivePiece
	score        int
	linesCleared int
	state        GameState

	dropInterval time.Duration
	dropCounter  time.Duration // 前回の落下からの経過時間の累積
	generator    PieceGenerator
}

// NewEngine は Idle 状態の新しいエンジンを返します。
func NewEngine(opts Options) *Engine {
	if opts.DropInterval <= 0 {
		opts.DropInterval = DefaultDropInterval
	}
	if opts.Generator == nil {
		opts.Generator = NewUniformGenerator(0)
	}
	return &Engine{
		board:        tetris.NewBoard(),
		state:        StateIdle,
		dropInterval: opts.DropInterval,
		generator:    opts.Generator,
	}
}

// State は現在のゲーム状態を返します。
func (e *Engine) State() GameState { return e.state }

// Score は現在のスコアを返します。
func (e *Engine) Score() int { return e.score }

// LinesCleared はこのゲームでクリアした合計ライン数を返します。
func (e *Engine) LinesCleared() int { return e.linesCleared }

// DropInterval は自動落下の間隔を返します。
func (e *Engine) DropInterval() time.Duration { return e.dropInterval }

// Board は固定済みブロックだけのボードのコピーを返します。
func (e *Engine) Board() tetris.Board { return e.board }

// Piece は落下中ピースのコピーを返します。ピースがなければnilです。
func (e *Engine) Piece() *ActivePiece { return e.piece.Clone() }

// Start は Idle から新しいゲームを始めます。
// ボードとスコアをリセットし、最初のピースを出現させ、落下タイマーを0から開始します。
//
// Returns:
//   bool: 状態が変わった場合はtrue（Idle以外からは何もしない）
func (e *Engine) Start() bool {
	if e.state != StateIdle {
		return false
	}
	e.board = tetris.NewBoard()
	e.score = 0
	e.linesCleared = 0
	e.dropCounter = 0
	e.state = StatePlaying
	e.spawnPiece()
	return true
}

// Pause は Playing から一時停止します。ボード、ピース、スコアはそのまま保持されます。
func (e *Engine) Pause() bool {
	if e.state != StatePlaying {
		return false
	}
	e.state = StatePaused
	return true
}

// Resume は Paused から再開します。停止中の時間は落下に反映しません。
func (e *Engine) Resume() bool {
	if e.state != StatePaused {
		return false
	}
	e.dropCounter = 0
	e.state = StatePlaying
	return true
}

// Reset はどの状態からでも Idle に戻し、ボードとスコアを消去してピースを破棄します。
// 二回続けて呼んでも結果は一回と同じです。
//
// Returns:
//   bool: 何かが変わった場合はtrue
func (e *Engine) Reset() bool {
	changed := e.state != StateIdle || e.score != 0 || e.linesCleared != 0 ||
		e.piece != nil || e.board != tetris.NewBoard()

	e.board = tetris.NewBoard()
	e.piece = nil
	e.score = 0
	e.linesCleared = 0
	e.dropCounter = 0
	e.state = StateIdle
	return changed
}

// Tick はホスト側のタイマーから経過時間を受け取り、累積が落下間隔を超えたら Drop を一度だけ実行します。
// Playing 以外では何もしません（時間も累積しません）。
// 一度に大きな経過時間が来ても落下は一回だけで、累積は0に戻ります。
//
// Parameters:
//   elapsed : 前回の Tick からの経過時間（負の値は0として扱う）
// Returns:
//   DropResult: 落下を実行した場合の結果
//   bool      : 落下を実行した場合はtrue
func (e *Engine) Tick(elapsed time.Duration) (DropResult, bool) {
	if e.state != StatePlaying {
		return DropResult{}, false
	}
	if elapsed > 0 {
		e.dropCounter += elapsed
	}
	if e.dropCounter <= e.dropInterval {
		return DropResult{}, false
	}
	e.dropCounter = 0
	return e.Drop(), true
}

// spawnPiece は新しいピースを出現位置に置きます。
// 出現位置で既に衝突している場合はゲームオーバーにします。
//
// Returns:
//   bool: ゲームを続行できる場合はtrue
func (e *Engine) spawnPiece() bool {
	pieceType := e.generator.Next()
	if !pieceType.Valid() {
		log.Printf("[Engine] Warning: generator returned invalid piece type %d, falling back to I", pieceType)
		pieceType = tetris.TypeI
	}

	e.piece = &ActivePiece{
		Type:   pieceType,
		Shape:  tetris.ShapeOf(pieceType),
		Anchor: SpawnPosition,
	}

	// ゲームオーバー判定: 新しいピースがスポーン位置で既に衝突している場合
	if e.board.Collides(e.piece.Anchor, e.piece.Shape) {
		e.state = StateGameOver
		e.dropCounter = 0
		log.Printf("[Engine] Game Over! Final Score: %d, Lines Cleared: %d", e.score, e.linesCleared)
		return false
	}
	return true
}

// SnapshotCellKind は描画用のマスの種類です。
type SnapshotCellKind string

const (
	SnapshotEmpty  SnapshotCellKind = "empty"
	SnapshotLocked SnapshotCellKind = "locked"
	SnapshotActive SnapshotCellKind = "active"
)

// SnapshotCell は描画用の1マスです。
type SnapshotCell struct {
	Kind  SnapshotCellKind `json:"kind"`
	Color tetris.Color     `json:"color,omitempty"`
}

// Snapshot は描画側に渡す読み取り専用の状態です。呼び出しのたびに作り直されます。
type Snapshot struct {
	Cells        [tetris.BoardHeight][tetris.BoardWidth]SnapshotCell `json:"cells"`
	Piece        *ActivePiece                                        `json:"piece,omitempty"`
	Score        int                                                 `json:"score"`
	LinesCleared int                                                 `json:"lines_cleared"`
	State        GameState                                           `json:"state"`
}

// Snapshot は固定済みブロックに落下中ピースを重ねたグリッドと、スコア、状態を返します。
// 落下中ピースは Playing と Paused の間だけ重ねます。
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		Score:        e.score,
		LinesCleared: e.linesCleared,
		State:        e.state,
		Piece:        e.piece.Clone(),
	}

	for y := 0; y < tetris.BoardHeight; y++ {
		for x := 0; x < tetris.BoardWidth; x++ {
			c := e.board[y][x]
			if c.IsLocked() {
				snap.Cells[y][x] = SnapshotCell{Kind: SnapshotLocked, Color: c.Color}
			} else {
				snap.Cells[y][x] = SnapshotCell{Kind: SnapshotEmpty}
			}
		}
	}

	overlay := e.piece != nil && !e.piece.Collided &&
		(e.state == StatePlaying || e.state == StatePaused)
	if overlay {
		color := tetris.ColorOf(e.piece.Type)
		for _, pos := range e.piece.Cells() {
			if e.board.InBounds(pos.X, pos.Y) {
				snap.Cells[pos.Y][pos.X] = SnapshotCell{Kind: SnapshotActive, Color: color}
			}
		}
	}
	return snap
}
