package entry

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motd/internal/format"
)

func newSeeker(t *testing.T, src string, opts ...Option) *Seeker {
	t.Helper()
	s, err := New(strings.NewReader(src), opts...)
	require.NoError(t, err)
	return s
}

func texts(t *testing.T, s *Seeker) []string {
	t.Helper()
	var out []string
	for rec, err := range s.All() {
		require.NoError(t, err)
		out = append(out, rec.Text)
	}
	return out
}

func TestCountMatchesUnescapedDelimiters(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{"", 0},
		{"no delimiter at all", 0},
		{"a%", 1},
		{"a%b%c%", 3},
		{`a\%b%`, 1},
		{`\%\%%`, 1},
		{"%%%", 3},
		{"one\n%\ntwo\n%\n", 2},
	}
	for _, tt := range tests {
		s := newSeeker(t, tt.src)
		assert.Equal(t, tt.want, s.Count(), "source %q", tt.src)
	}
}

func TestTrailingRecordIsDropped(t *testing.T) {
	s := newSeeker(t, "a%b")
	require.Equal(t, 1, s.Count())

	rec, err := s.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "a", rec.Text)
	assert.Equal(t, 0, rec.Index)
}

func TestEscapedDelimiterIsNotABoundary(t *testing.T) {
	s := newSeeker(t, `a\%b%`)
	require.Equal(t, 1, s.Count())

	rec, err := s.Get(0)
	require.NoError(t, err)
	// The escape is resolved by the tokenizer, not here.
	assert.Equal(t, `a\%b`, rec.Text)
}

func TestEscapeSpansBufferBoundary(t *testing.T) {
	src := `abc\%def%ghi%`
	for size := 1; size <= len(src); size++ {
		s := newSeeker(t, src, WithBufferSize(size))
		assert.Equal(t, []string{`abc\%def`, "ghi"}, texts(t, s), "buffer size %d", size)
	}
}

func TestEscapeClearedByNewline(t *testing.T) {
	s := newSeeker(t, "a\\\n%b%")
	assert.Equal(t, []string{"a\\", "b"}, texts(t, s))
}

func TestLineNumbers(t *testing.T) {
	s := newSeeker(t, "\nfoo%")
	rec, err := s.Get(0)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Line)

	s = newSeeker(t, "first\n%\n\n  second\nmore\n%third%")
	var lines []int
	for rec, err := range s.All() {
		require.NoError(t, err)
		lines = append(lines, rec.Line)
	}
	assert.Equal(t, []int{1, 4, 6}, lines)
}

func TestWhitespaceOnlyRecordTakesDelimiterLine(t *testing.T) {
	s := newSeeker(t, "a%\n\n   \n%")
	require.Equal(t, 2, s.Count())

	rec, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "", rec.Text)
	assert.Equal(t, 4, rec.Line)
}

func TestDescriptorsAreContiguous(t *testing.T) {
	src := "alpha%\nbeta\\%%\n\ngamma%tail"
	s := newSeeker(t, src)
	ds := s.Descriptors()
	require.Len(t, ds, 3)

	assert.Equal(t, int64(0), ds[0].Offset)
	for i := 1; i < len(ds); i++ {
		assert.Equal(t, ds[i-1].Offset+ds[i-1].Length, ds[i].Offset)
	}
	last := ds[len(ds)-1]
	assert.Equal(t, int64(len(src)-len("tail")), last.Offset+last.Length)
}

func TestScanStartsAtCurrentPosition(t *testing.T) {
	r := strings.NewReader("skipped%kept%")
	_, err := r.Seek(int64(len("skipped%")), io.SeekStart)
	require.NoError(t, err)

	s, err := New(r)
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, texts(t, s))
}

func TestGetIsIndependentOfOrder(t *testing.T) {
	s := newSeeker(t, "one%two%three%")
	first, err := s.Get(1)
	require.NoError(t, err)

	_, err = s.Get(2)
	require.NoError(t, err)
	_, err = s.Get(0)
	require.NoError(t, err)

	again, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, "two", again.Text)
}

func TestEmptySourceReturnsEmptyRecord(t *testing.T) {
	s := newSeeker(t, "")
	assert.Equal(t, 0, s.Count())

	for _, i := range []int{0, 5, -1} {
		rec, err := s.Get(i)
		require.NoError(t, err)
		assert.Equal(t, Record{}, rec)
	}
	assert.Empty(t, texts(t, s))
}

func TestGetOutOfRangePanics(t *testing.T) {
	s := newSeeker(t, "a%b%")
	assert.Panics(t, func() { _, _ = s.Get(2) })
	assert.Panics(t, func() { _, _ = s.Get(-1) })
}

func TestInvalidUTF8IsCorrupt(t *testing.T) {
	s := newSeeker(t, "ok%\n\xff\xfe%")
	_, err := s.Get(1)
	require.Error(t, err)

	var bad *ErrInvalidUTF8
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, 1, bad.Index)
	assert.Equal(t, 2, bad.Line)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Contains(t, err.Error(), "line 2")
}

type failingSeeker struct {
	*bytes.Reader
	fail bool
}

var errDisk = errors.New("disk gone")

func (f *failingSeeker) Seek(off int64, whence int) (int64, error) {
	if f.fail && !(off == 0 && whence == io.SeekCurrent) {
		return 0, errDisk
	}
	return f.Reader.Seek(off, whence)
}

func TestAllStopsOnReadError(t *testing.T) {
	src := &failingSeeker{Reader: bytes.NewReader([]byte("a%b%c%"))}
	s, err := New(src)
	require.NoError(t, err)
	src.fail = true

	calls := 0
	for _, err := range s.All() {
		calls++
		assert.ErrorIs(t, err, errDisk)
	}
	assert.Equal(t, 1, calls)
}

func TestAllIsRestartable(t *testing.T) {
	s := newSeeker(t, "x%y%")
	assert.Equal(t, texts(t, s), texts(t, s))

	n := 0
	for range s.All() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestIndexForLine(t *testing.T) {
	s := newSeeker(t, "a\n%\nb\n%\nc\n%")
	// records start on lines 1, 3, 5
	assert.Equal(t, 0, s.IndexForLine(1))
	assert.Equal(t, 1, s.IndexForLine(2))
	assert.Equal(t, 1, s.IndexForLine(3))
	assert.Equal(t, 2, s.IndexForLine(5))
	assert.Equal(t, 2, s.IndexForLine(100))
}

func TestCustomDelimiter(t *testing.T) {
	s := newSeeker(t, `a;b\;c;d%e;`, WithSyntax(format.Default.WithDelimiter(';')))
	assert.Equal(t, []string{"a", `b\;c`, "d%e"}, texts(t, s))
}

type countingReader struct {
	io.ReadSeeker
	seeks int
}

func (c *countingReader) Seek(off int64, whence int) (int64, error) {
	c.seeks++
	return c.ReadSeeker.Seek(off, whence)
}

func TestCacheAvoidsRereads(t *testing.T) {
	cr := &countingReader{ReadSeeker: strings.NewReader("a%b%")}
	s, err := New(cr, WithCache())
	require.NoError(t, err)

	before := cr.seeks
	for i := 0; i < 3; i++ {
		rec, err := s.Get(1)
		require.NoError(t, err)
		assert.Equal(t, "b", rec.Text)
	}
	assert.Equal(t, before+1, cr.seeks)
}

func TestCloseReleasesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motd.conf")
	require.NoError(t, os.WriteFile(path, []byte("hello%"), 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)

	s, err := New(f)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Get(0)
	assert.Error(t, err)
	assert.NoError(t, newSeeker(t, "x%").Close())
}
