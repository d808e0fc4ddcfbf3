package tetris

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShapeOf_ReturnsCopy(t *testing.T) {
	s := ShapeOf(TypeT)
	s[0][0] = 9

	fresh := ShapeOf(TypeT)
	assert.Equal(t, uint8(0), fresh[0][0], "catalog template must not be mutated through a returned shape")
}

func TestShapeOf_Unknown(t *testing.T) {
	assert.Nil(t, ShapeOf(PieceType(42)))
	assert.Equal(t, ColorNone, ColorOf(PieceType(-1)))
}

func TestCatalog_EveryPieceHasFourCells(t *testing.T) {
	for _, pt := range AllPieceTypes {
		assert.Len(t, ShapeOf(pt).Cells(), 4, "piece %s", pt)
		assert.NotEqual(t, ColorNone, ColorOf(pt), "piece %s", pt)
	}
}

func TestRotate_Clockwise(t *testing.T) {
	tests := []struct {
		name string
		in   Shape
		want Shape
	}{
		{"I", ShapeOf(TypeI), Shape{{1}, {1}, {1}, {1}}},
		{"T", ShapeOf(TypeT), Shape{{1, 0}, {1, 1}, {1, 0}}},
		{"J", ShapeOf(TypeJ), Shape{{1, 1}, {1, 0}, {1, 0}}},
		{"S", ShapeOf(TypeS), Shape{{1, 0}, {1, 1}, {0, 1}}},
		{"O", ShapeOf(TypeO), Shape{{1, 1}, {1, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Rotate())
		})
	}
}

func TestRotate_FourTimesIsIdentity(t *testing.T) {
	for _, pt := range AllPieceTypes {
		s := ShapeOf(pt)
		r := s.Rotate().Rotate().Rotate().Rotate()
		assert.True(t, s.Equal(r), "piece %s", pt)
	}
}

func TestRotate_DoesNotMutateInput(t *testing.T) {
	s := ShapeOf(TypeL)
	before := s.Clone()
	_ = s.Rotate()
	assert.True(t, before.Equal(s))
}

func TestPieceTypeStringRoundTrip(t *testing.T) {
	for _, pt := range AllPieceTypes {
		got, ok := StringToPieceType(PieceTypeToString(pt))
		assert.True(t, ok)
		assert.Equal(t, pt, got)
	}
	_, ok := StringToPieceType("X")
	assert.False(t, ok)
}
