package tetris

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/BLOCKFALL-backend/internal/models/tetris"
)

func TestUniformGenerator_SeededIsDeterministic(t *testing.T) {
	a := NewUniformGenerator(42)
	b := NewUniformGenerator(42)
	for i := 0; i < 100; i++ {
		pa, pb := a.Next(), b.Next()
		require.Equal(t, pa, pb)
		require.True(t, pa.Valid())
	}
}

func TestUniformGenerator_ProducesEveryType(t *testing.T) {
	g := NewUniformGenerator(1)
	seen := make(map[tetris.PieceType]bool)
	for i := 0; i < 1000; i++ {
		seen[g.Next()] = true
	}
	assert.Len(t, seen, tetris.PieceTypeCount)
}

func TestBagGenerator_EachBagContainsAllTypes(t *testing.T) {
	g := NewBagGenerator(7)
	for bag := 0; bag < 20; bag++ {
		seen := make(map[tetris.PieceType]int)
		for i := 0; i < tetris.PieceTypeCount; i++ {
			seen[g.Next()]++
		}
		assert.Len(t, seen, tetris.PieceTypeCount, "bag %d", bag)
		for pt, n := range seen {
			assert.Equal(t, 1, n, "bag %d piece %s", bag, pt)
		}
	}
}

func TestBagGenerator_NoRepeatAcrossBags(t *testing.T) {
	g := NewBagGenerator(3)
	prev := g.Next()
	for i := 1; i < 7*200; i++ {
		next := g.Next()
		assert.NotEqual(t, prev, next, "draw %d", i)
		prev = next
	}
}

func TestSequenceGenerator_Wraps(t *testing.T) {
	g := NewSequenceGenerator(tetris.TypeS, tetris.TypeZ)
	assert.Equal(t, tetris.TypeS, g.Next())
	assert.Equal(t, tetris.TypeZ, g.Next())
	assert.Equal(t, tetris.TypeS, g.Next())

	empty := NewSequenceGenerator()
	assert.Equal(t, tetris.TypeI, empty.Next())
}

func TestNewGenerator(t *testing.T) {
	g, err := NewGenerator("", 1)
	require.NoError(t, err)
	assert.IsType(t, &UniformGenerator{}, g)

	g, err = NewGenerator(RandomizerBag, 1)
	require.NoError(t, err)
	assert.IsType(t, &BagGenerator{}, g)

	_, err = NewGenerator("weighted", 1)
	assert.Error(t, err)
}

func TestSpawn_InvalidGeneratorOutputFallsBackToI(t *testing.T) {
	e := NewEngine(Options{Generator: NewSequenceGenerator(tetris.PieceType(99))})
	require.True(t, e.Start())
	assert.Equal(t, tetris.TypeI, e.Piece().Type)
}
