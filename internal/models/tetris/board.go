package tetris

const (
	BoardWidth  = 10 // テトリスボードの幅
	BoardHeight = 20 // テトリスボードの高さ
)

// CellKind はボード上のマスの状態です。
type CellKind uint8

const (
	CellEmpty  CellKind = iota // 0: 空のマス
	CellLocked                 // 1: 固定されたブロック
)

// Cell はボードの1マスです。空か、固定済みブロックの色タグを持つかのどちらかです。
// どのピースから来たかは保持しません。
type Cell struct {
	Kind  CellKind `json:"kind"`
	Color Color    `json:"color,omitempty"`
}

// EmptyCell は空のマスを返します。
func EmptyCell() Cell {
	return Cell{Kind: CellEmpty}
}

// LockedCell は指定色の固定ブロックを返します。
func LockedCell(color Color) Cell {
	return Cell{Kind: CellLocked, Color: color}
}

// IsEmpty はマスが空かどうかを返します。
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// IsLocked はマスが固定ブロックかどうかを返します。
func (c Cell) IsLocked() bool {
	return c.Kind == CellLocked
}

// Position はボード上の座標です。ピースの場合は行列の左上を指します。
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Board はテトリスのゲームボードを表す2次元配列です。
// Board[y][x] でアクセスします。yは行、xは列です。
// 配列型なので全ての行は常に BoardWidth マスを持ちます。
type Board [BoardHeight][BoardWidth]Cell

// NewBoard は新しい空のボードを返します。
// Cellのゼロ値は CellEmpty なので特別な初期化は不要です。
func NewBoard() Board {
	var board Board
	return board
}

// InBounds は座標がボードの範囲内かどうかを返します。
func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && x < BoardWidth && y >= 0 && y < BoardHeight
}

// Cell は指定座標のマスを返します。範囲外の場合は空のマスとfalseを返します。
func (b *Board) Cell(x, y int) (Cell, bool) {
	if !b.InBounds(x, y) {
		return EmptyCell(), false
	}
	return b[y][x], true
}

// Collides は形状 shape を anchor に置いたとき、ボードの外に出るか
// 固定済みブロックと重なるかを判定します。
// ボードは読み取るだけで変更しないため、移動候補の事前チェックに使えます。
//
// Parameters:
//   anchor : 行列の左上に対応するボード座標
//   shape  : 判定する占有行列
// Returns:
//   bool: 衝突する場合はtrue、全ての埋まったマスが範囲内の空きマスならfalse
func (b *Board) Collides(anchor Position, shape Shape) bool {
	for y, row := range shape {
		for x, v := range row {
			if v == 0 {
				continue
			}
			bx := anchor.X + x
			by := anchor.Y + y

			// 上下左右の境界（上端より上も範囲外として扱う）
			if !b.InBounds(bx, by) {
				return true
			}
			// 既存のブロックとの衝突
			if b[by][bx].IsLocked() {
				return true
			}
		}
	}
	return false
}

// Lock は形状の埋まったマスを color の固定ブロックとして書き込んだ新しいボードを返します。
// 範囲外のマスは黙ってスキップします。
func (b Board) Lock(anchor Position, shape Shape, color Color) Board {
	for y, row := range shape {
		for x, v := range row {
			if v == 0 {
				continue
			}
			bx := anchor.X + x
			by := anchor.Y + y
			if b.InBounds(bx, by) {
				b[by][bx] = LockedCell(color)
			}
		}
	}
	return b
}

// IsRowFull は指定行に空きマスが一つもないかを返します。
func (b *Board) IsRowFull(y int) bool {
	if y < 0 || y >= BoardHeight {
		return false
	}
	for x := 0; x < BoardWidth; x++ {
		if b[y][x].IsEmpty() {
			return false
		}
	}
	return true
}

// Sweep は揃った行を取り除き、取り除いた数だけ空の行を上に追加した新しいボードを返します。
// 残った行の相対的な順序は保たれます。
//
// Returns:
//   Board: 整理後のボード（行数は常に BoardHeight）
//   int  : クリアされた行数
func (b Board) Sweep() (Board, int) {
	cleared := 0
	newBoard := NewBoard()

	destY := BoardHeight - 1 // 新しいボードにコピーする際の一番下の行

	// 最下部から上に向かって、揃っていない行だけを詰めてコピーする
	for y := BoardHeight - 1; y >= 0; y-- {
		if b.IsRowFull(y) {
			cleared++
			continue
		}
		newBoard[destY] = b[y]
		destY--
	}
	// destY より上は NewBoard の空行のまま
	return newBoard, cleared
}

// FilledCount は固定ブロックの数を返します。
func (b *Board) FilledCount() int {
	n := 0
	for y := 0; y < BoardHeight; y++ {
		for x := 0; x < BoardWidth; x++ {
			if b[y][x].IsLocked() {
				n++
			}
		}
	}
	return n
}
