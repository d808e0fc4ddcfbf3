package tetris

import "encoding/json"

// PieceType はテトリミノの種類を表します。
type PieceType int

const (
	TypeI PieceType = iota // 0: I-ミノ (シアン)
	TypeJ                  // 1: J-ミノ (青)
	TypeL                  // 2: L-ミノ (オレンジ)
	TypeO                  // 3: O-ミノ (黄色)
	TypeS                  // 4: S-ミノ (緑)
	TypeT                  // 5: T-ミノ (紫)
	TypeZ                  // 6: Z-ミノ (赤)
)

// PieceTypeCount はテトリミノの種類数です。
const PieceTypeCount = 7

// AllPieceTypes はカタログ順の全テトリミノです。ランダム選択の順序にも使われます。
var AllPieceTypes = [PieceTypeCount]PieceType{TypeI, TypeJ, TypeL, TypeO, TypeS, TypeT, TypeZ}

// Color は固定されたブロックの表示色タグです。描画側がこのタグを実際の色に変換します。
type Color string

const (
	ColorNone   Color = ""
	ColorCyan   Color = "cyan"
	ColorBlue   Color = "blue"
	ColorOrange Color = "orange"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorPurple Color = "purple"
	ColorRed    Color = "red"
)

// Shape はテトリミノの占有行列です。shape[y][x] が 0 以外ならそのマスは埋まっています。
type Shape [][]uint8

// tetrimino はカタログの1エントリです。
type tetrimino struct {
	shape Shape
	color Color
}

// catalog は各PieceTypeの初期形状と色を定義します。
// ここにある行列は直接外に出さず、ShapeOf でコピーを返します。
var catalog = [PieceTypeCount]tetrimino{
	TypeI: {
		shape: Shape{{1, 1, 1, 1}},
		color: ColorCyan,
	},
	TypeJ: {
		shape: Shape{
			{1, 0, 0},
			{1, 1, 1},
		},
		color: ColorBlue,
	},
	TypeL: {
		shape: Shape{
			{0, 0, 1},
			{1, 1, 1},
		},
		color: ColorOrange,
	},
	TypeO: {
		shape: Shape{
			{1, 1},
			{1, 1},
		},
		color: ColorYellow,
	},
	TypeS: {
		shape: Shape{
			{0, 1, 1},
			{1, 1, 0},
		},
		color: ColorGreen,
	},
	TypeT: {
		shape: Shape{
			{0, 1, 0},
			{1, 1, 1},
		},
		color: ColorPurple,
	},
	TypeZ: {
		shape: Shape{
			{1, 1, 0},
			{0, 1, 1},
		},
		color: ColorRed,
	},
}

// Valid はPieceTypeがカタログに存在するかを返します。
func (t PieceType) Valid() bool {
	return t >= 0 && int(t) < PieceTypeCount
}

// ShapeOf は指定されたテトリミノの初期形状のコピーを返します。
// 不明な種類の場合はnilを返します。
func ShapeOf(t PieceType) Shape {
	if !t.Valid() {
		return nil
	}
	return catalog[t].shape.Clone()
}

// ColorOf は指定されたテトリミノの色タグを返します。
func ColorOf(t PieceType) Color {
	if !t.Valid() {
		return ColorNone
	}
	return catalog[t].color
}

// Clone は行列のディープコピーを返します。
func (s Shape) Clone() Shape {
	if s == nil {
		return nil
	}
	out := make(Shape, len(s))
	for y, row := range s {
		out[y] = append([]uint8(nil), row...)
	}
	return out
}

// Height は行列の行数です。
func (s Shape) Height() int {
	return len(s)
}

// Width は行列の列数です（先頭行の長さ）。
func (s Shape) Width() int {
	if len(s) == 0 {
		return 0
	}
	return len(s[0])
}

// Rotate は時計回りに90度回転させた新しい行列を返します。
// 転置してから各行を反転します。元の行列は変更しません。
//
// Returns:
//   Shape: 回転後の行列（元が h×w なら w×h）
func (s Shape) Rotate() Shape {
	h, w := s.Height(), s.Width()
	out := make(Shape, w)
	for x := 0; x < w; x++ {
		row := make([]uint8, h)
		for y := 0; y < h; y++ {
			// 転置: row[y] = s[y][x]、その後の反転で row[h-1-y] になる
			row[h-1-y] = s[y][x]
		}
		out[x] = row
	}
	return out
}

// Cells は埋まっているマスのローカル座標 {x, y} を行優先で返します。
func (s Shape) Cells() [][2]int {
	cells := make([][2]int, 0, 4)
	for y, row := range s {
		for x, v := range row {
			if v != 0 {
				cells = append(cells, [2]int{x, y})
			}
		}
	}
	return cells
}

// Equal は2つの行列が同じ形状かどうかを返します。
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for y := range s {
		if len(s[y]) != len(other[y]) {
			return false
		}
		for x := range s[y] {
			if s[y][x] != other[y][x] {
				return false
			}
		}
	}
	return true
}

// StringToPieceType は文字列のテトリミノタイプ（"I", "O", "T"など）をPieceTypeに変換します。
func StringToPieceType(s string) (PieceType, bool) {
	switch s {
	case "I":
		return TypeI, true
	case "J":
		return TypeJ, true
	case "L":
		return TypeL, true
	case "O":
		return TypeO, true
	case "S":
		return TypeS, true
	case "T":
		return TypeT, true
	case "Z":
		return TypeZ, true
	default:
		return TypeI, false // デフォルト値とfalseを返す
	}
}

// PieceTypeToString はPieceTypeを文字列表現に変換します。
func PieceTypeToString(t PieceType) string {
	switch t {
	case TypeI:
		return "I"
	case TypeJ:
		return "J"
	case TypeL:
		return "L"
	case TypeO:
		return "O"
	case TypeS:
		return "S"
	case TypeT:
		return "T"
	case TypeZ:
		return "Z"
	default:
		return "?"
	}
}

// MarshalJSON は行列を [[0,1,0],[1,1,1]] のような数値の配列として出力します。
// []uint8 のままだと encoding/json は各行をbase64文字列にしてしまいます。
func (s Shape) MarshalJSON() ([]byte, error) {
	rows := make([][]int, len(s))
	for y, row := range s {
		rows[y] = make([]int, len(row))
		for x, v := range row {
			rows[y][x] = int(v)
		}
	}
	return json.Marshal(rows)
}

func (t PieceType) String() string {
	return PieceTypeToString(t)
}

// MarshalText はJSONなどでPieceTypeを "I" のような文字で出力します。
func (t PieceType) MarshalText() ([]byte, error) {
	return []byte(PieceTypeToString(t)), nil
}
