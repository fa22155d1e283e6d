package browse

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motd/internal/entry"
	"motd/internal/format"
	"motd/internal/message"
)

func seeker(t *testing.T, src string) *entry.Seeker {
	t.Helper()
	s, err := entry.New(strings.NewReader(src))
	require.NoError(t, err)
	return s
}

func testModel(t *testing.T, src Source, start int) model {
	t.Helper()
	m := newModel(src, message.NewParser(format.Default), Options{
		Filename: "motd.conf",
		FileSize: 2048,
		Start:    start,
		Rand:     rand.New(rand.NewSource(1)),
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 10})
	return next.(model)
}

func press(m model, k tea.KeyMsg) (model, tea.Cmd) {
	next, cmd := m.Update(k)
	return next.(model), cmd
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestNavigationWraps(t *testing.T) {
	m := testModel(t, seeker(t, "one%two%three%"), 0)
	assert.Contains(t, m.View(), "one")

	m, _ = press(m, runes("n"))
	assert.Equal(t, 1, m.index)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 2, m.index)
	m, _ = press(m, runes("n"))
	assert.Equal(t, 0, m.index)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 2, m.index)
	assert.Contains(t, m.View(), "three")

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyHome})
	assert.Equal(t, 0, m.index)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnd})
	assert.Equal(t, 2, m.index)
}

func TestRandomPicksAnotherEntry(t *testing.T) {
	m := testModel(t, seeker(t, "a%b%c%d%"), 1)
	for i := 0; i < 20; i++ {
		before := m.index
		m, _ = press(m, runes("r"))
		assert.NotEqual(t, before, m.index)
	}
}

func TestStartIsClamped(t *testing.T) {
	m := testModel(t, seeker(t, "a%b%"), 10)
	assert.Equal(t, 1, m.index)
}

func TestViewShowsPosition(t *testing.T) {
	m := testModel(t, seeker(t, "a%\n\nsecond [pic.png] entry%"), 1)
	v := m.View()
	assert.Contains(t, v, "motd.conf")
	assert.Contains(t, v, "2.00KB")
	assert.Contains(t, v, "entry 2 / 2  line 3")
	assert.Contains(t, v, "pic.png")
}

func TestViewShowsParseError(t *testing.T) {
	m := testModel(t, seeker(t, "broken [ref%"), 0)
	assert.Contains(t, m.View(), "error parsing entry at line 1")
}

func TestEmptySource(t *testing.T) {
	m := testModel(t, seeker(t, ""), 0)
	m, _ = press(m, runes("n"))
	assert.Equal(t, 0, m.index)
	assert.Contains(t, m.View(), "does not contain any entries")
	assert.Contains(t, m.View(), " 0 / 0 ")
}

func TestQuitKeys(t *testing.T) {
	m := testModel(t, seeker(t, "a%"), 0)
	_, cmd := press(m, runes("q"))
	assert.True(t, isQuit(cmd))
	_, cmd = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, isQuit(cmd))
}

type flakySource struct {
	*entry.Seeker
	failAt int
}

var errRead = errors.New("read failed")

func (f flakySource) Get(i int) (entry.Record, error) {
	if i == f.failAt {
		return entry.Record{}, errRead
	}
	return f.Seeker.Get(i)
}

func TestReadErrorQuits(t *testing.T) {
	m := testModel(t, flakySource{Seeker: seeker(t, "a%b%"), failAt: 1}, 0)
	m, cmd := press(m, runes("n"))
	assert.True(t, isQuit(cmd))
	assert.ErrorIs(t, m.err, errRead)
	assert.Contains(t, m.View(), "error: read failed")
}

func TestSmoothScroll(t *testing.T) {
	long := strings.Repeat("line\n", 40) + "end%"
	m := testModel(t, seeker(t, long), 0)
	require.Greater(t, m.totalLines, m.view.Height)

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyPgDown})
	require.NotNil(t, cmd)
	require.True(t, m.animating)

	for i := 0; i < 100 && m.animating; i++ {
		next, _ := m.Update(scrollTick{})
		m = next.(model)
	}
	assert.False(t, m.animating)
	assert.Equal(t, m.view.Height, m.view.YOffset)
}

func TestDrawProgressBar(t *testing.T) {
	assert.Equal(t, "██", drawProgressBar(2, 0.5, "x"))
	assert.Equal(t, "░░░░░░░░░░", drawProgressBar(10, 0, ""))
	assert.Equal(t, "█████░░░░░", drawProgressBar(10, 0.5, ""))
	assert.Equal(t, "████ab░░░░", drawProgressBar(10, 0.5, "ab"))
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512B", humanSize(512))
	assert.Equal(t, "1.50KB", humanSize(1536))
	assert.Equal(t, "3.00MB", humanSize(3*1024*1024))
}
