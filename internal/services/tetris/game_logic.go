package tetris

import (
	"log"

	"github.com/progate-hackathon-strawberry-flavor/BLOCKFALL-backend/internal/models/tetris"
)

// Direction は左右移動の向きです。
type Direction int

const (
	Left  Direction = -1
	Right Direction = 1
)

// プレイヤー操作とゲームコマンドのアクション名です。
const (
	ActionMoveLeft    = "move_left"
	ActionMoveRight   = "move_right"
	ActionRotate      = "rotate"
	ActionRotateRight = "rotate_right"
	ActionSoftDrop    = "soft_drop"
	ActionHardDrop    = "hard_drop"
	ActionStart       = "start"
	ActionPause       = "pause"
	ActionResume      = "resume"
	ActionReset       = "reset"
)

// DropResult は Drop の結果です。
type DropResult struct {
	Moved       bool         `json:"moved"`            // 1マス下に移動した
	Locked      *ActivePiece `json:"locked,omitempty"` // 固定されたピース（Collided は true）
	RowsCleared int          `json:"rows_cleared"`     // 固定後にクリアされたライン数
	GameOver    bool         `json:"game_over"`        // 次のピースが出現できずゲームオーバーになった
}

// Move はピースを左右に1マス動かします。衝突する場合は何も変えません。
//
// Parameters:
//   dir : Left (-1) または Right (+1)
// Returns:
//   bool: 移動した場合はtrue
func (e *Engine) Move(dir Direction) bool {
	if e.state != StatePlaying || e.piece == nil {
		return false
	}
	if dir != Left && dir != Right {
		return false
	}

	// 候補位置で判定してから確定する
	candidate := e.piece.Anchor
	candidate.X += int(dir)
	if e.board.Collides(candidate, e.piece.Shape) {
		return false
	}
	e.piece.Anchor = candidate
	return true
}

// Rotate はピースを時計回りに90度回転させます。
// 現在位置で衝突する場合は、横方向に +1, -2, +3, -4 ... と位置をずらしながら
// 衝突しない位置を探します（簡易的な壁蹴り）。次のずらし幅が回転後の幅を超えたら諦め、
// ピースは形状も位置も元のままです。
//
// Returns:
//   bool: 回転した場合はtrue
func (e *Engine) Rotate() bool {
	if e.state != StatePlaying || e.piece == nil {
		return false
	}

	rotated := e.piece.Shape.Rotate()
	candidate := e.piece.Anchor
	step := 1
	for e.board.Collides(candidate, rotated) {
		candidate.X += step
		if step > 0 {
			step = -(step + 1)
		} else {
			step = -(step - 1)
		}
		if step > rotated.Width() {
			return false
		}
	}

	// 形状と位置を同時に確定する
	e.piece.Shape = rotated
	e.piece.Anchor = candidate
	return true
}

// Drop はピースを1マス下に動かします。自動落下とソフトドロップの両方で使われます。
// 下が塞がっている場合は動かさずに Collided を立て、ボードに固定し、
// ラインクリアとスコア加算を行ってから次のピースを出現させます。
func (e *Engine) Drop() DropResult {
	if e.state != StatePlaying || e.piece == nil {
		return DropResult{}
	}

	candidate := e.piece.Anchor
	candidate.Y++
	if !e.board.Collides(candidate, e.piece.Shape) {
		e.piece.Anchor = candidate
		return DropResult{Moved: true}
	}

	e.piece.Collided = true
	return e.lockPiece()
}

// HardDrop はピースが固定されるまで Drop を繰り返します。ボーナススコアはありません。
func (e *Engine) HardDrop() DropResult {
	for {
		result := e.Drop()
		if !result.Moved {
			return result
		}
	}
}

// lockPiece はピースをボードに固定した後の処理をすべて行います。
// 固定、ラインクリア、スコア加算、次のピース生成、ゲームオーバー判定が含まれます。
func (e *Engine) lockPiece() DropResult {
	locked := e.piece.Clone()

	// 新しいボードを組み立ててから一括で置き換える
	board := e.board.Lock(locked.Anchor, locked.Shape, tetris.ColorOf(locked.Type))
	board, rowsCleared := board.Sweep()
	e.board = board

	if rowsCleared > 0 {
		e.score += rowsCleared * ScorePerRow
		e.linesCleared += rowsCleared
	}

	gameOver := !e.spawnPiece()
	return DropResult{
		Locked:      locked,
		RowsCleared: rowsCleared,
		GameOver:    gameOver,
	}
}

// ApplyPlayerInput はアクション名に基づいてエンジンを操作します。
//
// Parameters:
//   e      : 操作するエンジン
//   action : 実行するアクション（例: "move_left", "rotate", "start"）
// Returns:
//   bool: ゲーム状態が実際に変更された場合はtrue、変更されなかった場合はfalse
func ApplyPlayerInput(e *Engine, action string) bool {
	switch action {
	case ActionMoveLeft:
		return e.Move(Left)
	case ActionMoveRight:
		return e.Move(Right)
	case ActionRotate, ActionRotateRight:
		return e.Rotate()
	case ActionSoftDrop:
		r := e.Drop()
		return r.Moved || r.Locked != nil
	case ActionHardDrop:
		return e.HardDrop().Locked != nil
	case ActionStart:
		return e.Start()
	case ActionPause:
		return e.Pause()
	case ActionResume:
		return e.Resume()
	case ActionReset:
		return e.Reset()
	default:
		log.Printf("[Engine] Unknown action %q ignored", action)
		return false
	}
}
