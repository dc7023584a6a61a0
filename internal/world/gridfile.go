// Grid text persistence. The first line holds the dimensions as COLSxROWS,
// followed by one line per row of space-separated tile names.
package world

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// MaxCells bounds the size of a decoded grid.
const MaxCells = 1 << 24

// Encode writes the grid in the text format.
func Encode(w io.Writer, g *Grid) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%dx%d\n", g.Cols, g.Rows)
	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			if x > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(g.Get(x, y).String())
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Decode reads a grid in the text format. Missing trailing cells stay empty.
func Decode(r io.Reader) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		return nil, fmt.Errorf("read header: empty input")
	}
	cols, rows, err := parseHeader(sc.Text())
	if err != nil {
		return nil, err
	}

	g := NewGrid(cols, rows)
	for y := 0; y < rows && sc.Scan(); y++ {
		for x, name := range strings.Fields(sc.Text()) {
			if x >= cols {
				return nil, fmt.Errorf("row %d: more than %d tiles", y, cols)
			}
			t, err := ParseTile(name)
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", y, x, err)
			}
			g.Set(x, y, t)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return g, nil
}

func parseHeader(line string) (int, int, error) {
	cs, rs, ok := strings.Cut(strings.TrimSpace(line), "x")
	if !ok {
		return 0, 0, fmt.Errorf("bad header %q", line)
	}
	cols, err := strconv.Atoi(strings.TrimSpace(cs))
	if err != nil {
		return 0, 0, fmt.Errorf("bad header cols %q: %w", line, err)
	}
	rows, err := strconv.Atoi(strings.TrimSpace(rs))
	if err != nil {
		return 0, 0, fmt.Errorf("bad header rows %q: %w", line, err)
	}
	if cols < 0 || rows < 0 {
		return 0, 0, fmt.Errorf("bad header %q: negative size", line)
	}
	if cols > 0 && rows > MaxCells/cols {
		return 0, 0, fmt.Errorf("bad header %q: more than %d cells", line, MaxCells)
	}
	return cols, rows, nil
}

// SaveFile writes the grid to dir under a timestamped name and returns the path.
func SaveFile(dir string, g *Grid, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create save dir: %w", err)
	}
	path := filepath.Join(dir, "grid_"+now.Format("2006-01-02_15-04-05")+".txt")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, g); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, f.Close()
}

// LoadFile reads a grid from a file.
func LoadFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return g, nil
}

// LoadLatest loads the save with the greatest file name in dir. It returns
// os.ErrNotExist when there is nothing to load.
func LoadLatest(dir string) (*Grid, string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, "", err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, "", os.ErrNotExist
	}

	path := filepath.Join(dir, slices.Max(names))
	g, err := LoadFile(path)
	return g, path, err
}
