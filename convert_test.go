package dotmap

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/dotmap/canvas"
)

func TestConvert_PNG(t *testing.T) {
	m := pixmapMap(t, WithStyle(opaqueStyle()))
	require.NoError(t, m.AddDot(10, 10, 4))

	data, err := m.Convert("png")
	require.NoError(t, err)
	assert.Zero(t, m.PendingLen())

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	r, g, b, a := img.At(10, 10).RGBA()
	assert.Equal(t, [4]uint32{0xffff, 0, 0, 0xffff}, [4]uint32{r, g, b, a})
}

func TestConvert_CaseInsensitive(t *testing.T) {
	m, rec := recorderMap(t, "World", 360, 180)
	_, err := m.Convert("Jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"JPG"}, rec.Encoded)
}

func TestConvert_CapabilityError(t *testing.T) {
	tests := []struct {
		format  string
		unknown bool
	}{
		{"webp", false},
		{"xcf", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			m, rec := recorderMap(t, "World", 360, 180)
			require.NoError(t, m.AddDot(10, 10, 4))

			_, err := m.Convert(tt.format)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupportedFormat)

			var ce *CapabilityError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.unknown, ce.Unknown)
			assert.Equal(t, canvas.CapBlob, ce.Op)

			// Rejected before flushing.
			assert.Empty(t, rec.Batches)
			assert.Equal(t, 1, m.PendingLen())
		})
	}
}

func TestConvert_BlobOnlyFormat(t *testing.T) {
	m := pixmapMap(t)
	data, err := m.Convert("rgba")
	require.NoError(t, err)
	assert.Len(t, data, 40*20*4)

	err = m.WriteFile("rgba", filepath.Join(t.TempDir(), "out.rgba"))
	var ce *CapabilityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, canvas.CapWrite, ce.Op)
}

func TestWriteFile(t *testing.T) {
	m := pixmapMap(t, WithStyle(opaqueStyle()))
	require.NoError(t, m.AddDot(10, 10, 4))

	path := filepath.Join(t.TempDir(), "world")
	require.NoError(t, m.WriteFile("PNG", path))
	assert.Zero(t, m.PendingLen())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
}

func TestWriteFile_UnsupportedCreatesNothing(t *testing.T) {
	m, rec := recorderMap(t, "World", 360, 180)
	require.NoError(t, m.AddDot(1, 1, 1))

	path := filepath.Join(t.TempDir(), "out.webp")
	assert.ErrorIs(t, m.WriteFile("webp", path), ErrUnsupportedFormat)
	assert.NoFileExists(t, path)
	assert.Empty(t, rec.Written)
	assert.Equal(t, 1, m.PendingLen())
}

func TestFormats(t *testing.T) {
	m, _ := recorderMap(t, "World", 360, 180)
	names := m.Formats().Names(canvas.CapWrite)
	assert.Contains(t, names, "PNG")
	assert.NotContains(t, names, "RGBA")
}
