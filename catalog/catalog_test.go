package catalog

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/dotmap/projection"
)

func TestLoad(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "_info"))
	require.NoError(t, err)

	assert.Equal(t, 4, c.Len())
	assert.Equal(t, 3, c.ProjectionLen())
	assert.Equal(t, []string{"Africa", "USA", "World", "usa50"}, c.Names())

	world, ok := c.Map("World")
	require.True(t, ok)
	assert.Equal(t, "World100.png", world.Image)
	assert.Equal(t, projection.BoundingBox{TopLat: 90, TopLon: -170, BotLat: -90, BotLon: 190}, world.Box)
	assert.Equal(t, filepath.Join("testdata", "World100.png"), c.ImagePath(world))

	// Lower-case tags are accepted.
	_, ok = c.Map("usa50")
	assert.True(t, ok)

	_, ok = c.Map("Atlantis")
	assert.False(t, ok)
}

func TestSpec(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "_info"))
	require.NoError(t, err)

	spec, err := c.Spec("World")
	require.NoError(t, err)
	assert.Nil(t, spec, "maps without PROJECTION use the bounding box")

	spec, err = c.Spec("usa50")
	require.NoError(t, err)
	require.NotNil(t, spec)
	assert.Equal(t, projection.KindAlbers, spec.Kind)
	assert.Equal(t, 704.0, spec.Albers.R)
	assert.Equal(t, 388.0, spec.Albers.FalseNorthing)

	// Unknown kinds load fine and fail only when resolved.
	info, ok := c.Projection("Africa")
	require.True(t, ok)
	assert.Equal(t, "MERCATOR", info.Kind)
	_, err = c.Spec("Africa")
	assert.ErrorIs(t, err, projection.ErrUnknownProjection)
}

func TestParse_DuplicatesOverwrite(t *testing.T) {
	src := `
MAP A first.png 1 2 3 4
MAP A second.png 5 6 7 8
PROJECTION A ALBER 1 2 3 4 5 6 7
PROJECTION A ALBER 9 2 3 4 5 6 7
`
	c, err := Parse(strings.NewReader(src), "/maps")
	require.NoError(t, err)

	m, ok := c.Map("A")
	require.True(t, ok)
	assert.Equal(t, "second.png", m.Image)
	assert.Equal(t, 5.0, m.Box.TopLat)

	p, ok := c.Projection("A")
	require.True(t, ok)
	assert.Equal(t, 9.0, p.Params[0])
	assert.Equal(t, "/maps/second.png", c.ImagePath(m))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"unknown tag", "LAYER A x.png 1 2 3 4", 1},
		{"too few fields", "MAP A", 1},
		{"missing coordinates", "MAP A x.png 1 2 3", 1},
		{"bad coordinate", "\nMAP A x.png 1 2 north 4", 2},
		{"bad projection value", "PROJECTION A ALBER 1 two", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src), "")
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.line, pe.Line)
		})
	}
}

func TestNew(t *testing.T) {
	c := New("/img", []MapInfo{{Name: "X", Image: "/abs/x.png"}}, nil)
	m, ok := c.Map("X")
	require.True(t, ok)
	assert.Equal(t, "/abs/x.png", c.ImagePath(m))
	spec, err := c.Spec("X")
	assert.NoError(t, err)
	assert.Nil(t, spec)
}

func TestDefault(t *testing.T) {
	_, err := Default()
	assert.ErrorIs(t, err, ErrNotLoaded)

	c, err := LoadDefault(filepath.Join("testdata", "_info"))
	require.NoError(t, err)

	// Later loads are ignored.
	again, err := LoadDefault("does-not-exist")
	require.NoError(t, err)
	assert.Same(t, c, again)

	d, err := Default()
	require.NoError(t, err)
	assert.Same(t, c, d)
}
