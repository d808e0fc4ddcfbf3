package tetris

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/BLOCKFALL-backend/internal/models/tetris"
)

// ランダマイザーの種類です。
const (
	RandomizerUniform = "uniform"
	RandomizerBag     = "bag"
)

// PieceGenerator は次に出現するテトリミノの種類を決めます。
type PieceGenerator interface {
	Next() tetris.PieceType
}

// newRand は seed が 0 なら現在時刻で初期化した乱数生成器を返します。
func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// UniformGenerator は毎回7種類から独立に一様ランダムで選びます。
type UniformGenerator struct {
	rng *rand.Rand
}

// NewUniformGenerator は一様ランダムのジェネレータを返します。seed が 0 なら時刻で初期化します。
func NewUniformGenerator(seed int64) *UniformGenerator {
	return &UniformGenerator{rng: newRand(seed)}
}

func (g *UniformGenerator) Next() tetris.PieceType {
	return tetris.AllPieceTypes[g.rng.Intn(tetris.PieceTypeCount)]
}

// BagGenerator は7種類を1袋としてシャッフルし、順番に取り出す7-bagシステムです。
// 袋の境目で同じテトリミノが連続しないように、新しい袋の先頭を入れ替えます。
type BagGenerator struct {
	rng   *rand.Rand
	queue []tetris.PieceType
	last  tetris.PieceType
	drawn bool
}

// NewBagGenerator は7-bagのジェネレータを返します。
func NewBagGenerator(seed int64) *BagGenerator {
	return &BagGenerator{rng: newRand(seed)}
}

// refill は新しい袋をシャッフルしてキューに追加します。
func (g *BagGenerator) refill() {
	bag := tetris.AllPieceTypes
	g.rng.Shuffle(len(bag), func(i, j int) {
		bag[i], bag[j] = bag[j], bag[i]
	})

	// 連続防止：直前に出たピースと新しい袋の先頭が同じなら入れ替える
	if g.drawn && bag[0] == g.last {
		swapIndex := g.rng.Intn(len(bag)-1) + 1
		bag[0], bag[swapIndex] = bag[swapIndex], bag[0]
	}
	g.queue = append(g.queue, bag[:]...)
}

func (g *BagGenerator) Next() tetris.PieceType {
	if len(g.queue) == 0 {
		g.refill()
	}
	next := g.queue[0]
	g.queue = g.queue[1:]
	g.last = next
	g.drawn = true
	return next
}

// SequenceGenerator は与えられた順番を繰り返し返します。テストやリプレイで使います。
type SequenceGenerator struct {
	seq []tetris.PieceType
	i   int
}

// NewSequenceGenerator は固定順のジェネレータを返します。空の場合は I だけを返します。
func NewSequenceGenerator(seq ...tetris.PieceType) *SequenceGenerator {
	if len(seq) == 0 {
		seq = []tetris.PieceType{tetris.TypeI}
	}
	return &SequenceGenerator{seq: seq}
}

func (g *SequenceGenerator) Next() tetris.PieceType {
	next := g.seq[g.i%len(g.seq)]
	g.i++
	return next
}

// NewGenerator は名前からジェネレータを作ります。
//
// Parameters:
//   kind : "uniform"（空文字も同じ）または "bag"
//   seed : 乱数シード（0なら現在時刻）
// Returns:
//   PieceGenerator: 生成されたジェネレータ
//   error         : 不明な種類の場合
func NewGenerator(kind string, seed int64) (PieceGenerator, error) {
	switch kind {
	case "", RandomizerUniform:
		return NewUniformGenerator(seed), nil
	case RandomizerBag:
		log.Printf("[Engine] Using 7-bag randomizer (seed=%d)", seed)
		return NewBagGenerator(seed), nil
	default:
		return nil, fmt.Errorf("unknown randomizer %q (expected %q or %q)", kind, RandomizerUniform, RandomizerBag)
	}
}
