package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/canco/internal/shape"
)

func newTestManager() *Manager {
	return NewManager(shape.NewFactory(
		shape.WithIDGenerator(shape.NewFixedGenerator("s1", "s2", "s3")),
	))
}

func TestManager_Defaults(t *testing.T) {
	m := newTestManager()
	assert.False(t, m.Armed())
	assert.Equal(t, DefaultColor, m.Color())
	assert.Equal(t, DefaultStrokeWidth, m.StrokeWidth())
	assert.Equal(t, "none", m.Tool().String())
}

func TestManager_StrokeWidthClamp(t *testing.T) {
	m := newTestManager()
	m.SetStrokeWidth(0.2)
	assert.Equal(t, 1.0, m.StrokeWidth())
	m.SetStrokeWidth(6)
	assert.Equal(t, 6.0, m.StrokeWidth())
}

func TestManager_CreateShape(t *testing.T) {
	m := newTestManager()

	_, ok := m.CreateShape(shape.Point{X: 1, Y: 2})
	assert.False(t, ok, "no tool armed")

	m.SetTool(Rectangle)
	m.SetColor("red")
	s, ok := m.CreateShape(shape.Point{X: 1, Y: 2})
	require.True(t, ok)
	assert.Equal(t, shape.Shape{
		ID: "s1", Kind: shape.KindRectangle, X: 1, Y: 2,
		Color: "red", IsSelected: true, ZIndex: 1,
	}, s)

	m.Clear()
	_, ok = m.CreateShape(shape.Point{})
	assert.False(t, ok)
}

func TestUpdateTempShape(t *testing.T) {
	start := shape.Point{X: 100, Y: 80}
	end := shape.Point{X: 10, Y: 10}

	line := UpdateTempShape(shape.Shape{Kind: shape.KindLine}, start, end)
	assert.Equal(t, 100.0, line.X)
	assert.Equal(t, 80.0, line.Y)
	assert.Equal(t, -90.0, line.Width)
	assert.Equal(t, -70.0, line.Height)

	for _, k := range []shape.Kind{shape.KindRectangle, shape.KindCircle} {
		box := UpdateTempShape(shape.Shape{Kind: k}, start, end)
		assert.Equal(t, 10.0, box.X, k)
		assert.Equal(t, 10.0, box.Y, k)
		assert.Equal(t, 90.0, box.Width, k)
		assert.Equal(t, 70.0, box.Height, k)
	}
}

func TestViable(t *testing.T) {
	tests := []struct {
		name string
		w, h float64
		want bool
	}{
		{"both above", 16, 16, true},
		{"exactly min is not viable", 15, 40, false},
		{"negative line deltas", -20, -30, true},
		{"one axis too small", 100, 3, false},
		{"zero", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Viable(shape.Shape{Width: tt.w, Height: tt.h}, MinSize))
		})
	}
}

func TestParse(t *testing.T) {
	for in, want := range map[string]Tool{"": None, "none": None, "line": Line, "rectangle": Rectangle, "circle": Circle} {
		got, err := Parse(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := Parse("triangle")
	assert.Error(t, err)
}
