package world

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	g := sketch(t,
		"RH.",
		"OPS",
	)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, g))
	assert.Equal(t, "3x2\nROAD HOUSE EMPTY\nOFFICE PARK SCHOOL\n", buf.String())
}

func TestDecode_roundTrip(t *testing.T) {
	g := GenerateCity(SmallTestConfig())
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, g))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.True(t, g.Equal(got))
}

func TestDecode_shortRowsStayEmpty(t *testing.T) {
	g, err := Decode(strings.NewReader("3x2\nroad\n"))
	require.NoError(t, err)
	assert.Equal(t, TileRoad, g.Get(0, 0))
	assert.Equal(t, TileEmpty, g.Get(1, 0))
	assert.Equal(t, TileEmpty, g.Get(2, 1))
}

func TestDecode_errors(t *testing.T) {
	for _, tc := range []struct {
		name, input string
	}{
		{"empty", ""},
		{"no separator", "33\n"},
		{"bad cols", "ax2\n"},
		{"negative", "-1x2\n"},
		{"overflowing size", "3037000500x3037000500\n"},
		{"too many cells", "4097x4096\n"},
		{"too many tiles", "2x1\nROAD ROAD ROAD\n"},
		{"unknown tile", "2x1\nROAD LAVA\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tc.input))
			assert.Error(t, err)
		})
	}
}

func TestSaveFile_loadLatest(t *testing.T) {
	dir := t.TempDir()

	_, _, err := LoadLatest(dir)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	first := NewGrid(4, 3)
	first.PaintRect(0, 0, 3, 0, TileRoad)
	second := first.Clone()
	second.PaintRect(0, 1, 1, 2, TileHouse)

	at := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)
	p1, err := SaveFile(dir, first, at)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "grid_2024-03-09_14-05-00.txt"), p1)

	p2, err := SaveFile(dir, second, at.Add(time.Minute))
	require.NoError(t, err)

	got, path, err := LoadLatest(dir)
	require.NoError(t, err)
	assert.Equal(t, p2, path)
	assert.True(t, second.Equal(got))

	loaded, err := LoadFile(p1)
	require.NoError(t, err)
	assert.True(t, first.Equal(loaded))
}

func TestLoadLatest_missingDir(t *testing.T) {
	_, _, err := LoadLatest(filepath.Join(t.TempDir(), "nope"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
