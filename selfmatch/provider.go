package selfmatch

import (
	"bufio"
	"bytes"
	"io"
	"math/rand"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	sg "shogi-engine/shogimg"
	"shogi-engine/usi"
)

// ErrNoPositions is returned by a FileProvider built from an empty file.
var ErrNoPositions = errors.New("no positions")

// Provider hands out the initial SFEN of each game.
type Provider interface {
	Next() (string, error)
}

// StartPos always returns the standard start position.
type StartPos struct{}

func (StartPos) Next() (string, error) { return sg.StartSFEN, nil }

// FixedSFEN always returns the same position.
type FixedSFEN string

func (f FixedSFEN) Next() (string, error) { return string(f), nil }

// FileProvider picks a random position from a list loaded from a file.
// Each non-blank line is "startpos", "sfen <SFEN>" or a bare SFEN, any
// of them optionally followed by "moves ...". Lines starting with '#'
// are ignored.
type FileProvider struct {
	mu        sync.Mutex
	rng       *rand.Rand
	positions []string
}

// NewFileProvider reads the positions in path. The file may be UTF-8 or
// Shift_JIS.
func NewFileProvider(path string, seed int64) (*FileProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open positions")
	}
	defer f.Close()
	p, err := ReadPositions(f, seed)
	return p, errors.Wrapf(err, "positions %s", path)
}

// ReadPositions builds a FileProvider from r.
func ReadPositions(r io.Reader, seed int64) (*FileProvider, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	p := &FileProvider{rng: rand.New(rand.NewSource(seed))}
	sc := bufio.NewScanner(strings.NewReader(text))
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sfen, err := positionLine(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", n)
		}
		p.positions = append(p.positions, sfen)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(p.positions) == 0 {
		return nil, ErrNoPositions
	}
	return p, nil
}

// positionLine resolves one line to the SFEN of the position it reaches.
func positionLine(line string) (string, error) {
	if !strings.HasPrefix(line, "startpos") && !strings.HasPrefix(line, "sfen ") {
		line = "sfen " + line
	}
	cmd, err := usi.ParseCommand("position " + line)
	if err != nil {
		return "", err
	}
	b, err := cmd.(usi.Position).Board()
	if err != nil {
		return "", err
	}
	return b.SFEN(), nil
}

// Len is the number of loaded positions.
func (p *FileProvider) Len() int { return len(p.positions) }

func (p *FileProvider) Next() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positions[p.rng.Intn(len(p.positions))], nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText returns data as a string, converting from Shift_JIS unless
// it is already valid UTF-8.
func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), japanese.ShiftJIS.NewDecoder()))
	if err != nil {
		return "", errors.Wrap(err, "decode shift_jis")
	}
	return string(out), nil
}
