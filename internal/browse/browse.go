// Package browse is an interactive pager over the entries of a message
// file.
package browse

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"motd/internal/entry"
	"motd/internal/message"
	"motd/internal/render"
)

// Source is the part of entry.Seeker the pager reads from.
type Source interface {
	Count() int
	Get(i int) (entry.Record, error)
}

// Options configure the pager.
type Options struct {
	Filename string
	FileMod  time.Time
	FileSize int64
	Start    int    // first entry shown
	Markdown bool   // render text runs with glamour
	Style    string // glamour style
	Rand     *rand.Rand
}

var (
	headerStyle = lipgloss.NewStyle().Reverse(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))
	refStyle    = lipgloss.NewStyle().Faint(true)
)

// ---------- model ----------

type model struct {
	src    Source
	parser *message.Parser
	opts   Options
	rand   *rand.Rand

	index int
	rec   entry.Record
	color lipgloss.Color
	err   error // fatal read error; quits

	view       viewport.Model
	totalLines int

	// smooth scroll animation
	animating    bool
	targetOffset int
}

func newModel(src Source, parser *message.Parser, opts Options) model {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	v := viewport.New(0, 0)
	v.YPosition = 1

	m := model{src: src, parser: parser, opts: opts, rand: rng, view: v}
	m.index = clamp(opts.Start, 0, max(0, src.Count()-1))
	m.load()
	return m
}

// load reads the current entry and picks a fresh color for it.
func (m *model) load() {
	rec, err := m.src.Get(m.index)
	if err != nil {
		m.err = err
		return
	}
	m.rec = rec
	m.color = lipgloss.Color(render.RandomColor(m.rand, render.LightnessLower, render.LightnessUpper).Hex())
	m.animating = false
	m.recalcRendered()
	m.view.GotoTop()
}

// ---------- rendering ----------

func (m *model) renderEntry(width int) string {
	if m.src.Count() == 0 {
		return refStyle.Render("(message file does not contain any entries)")
	}
	tokens, err := m.parser.Parse(m.rec.Text)
	if err != nil {
		return errorStyle.Render(fmt.Sprintf("error parsing entry at line %d: %v", m.rec.Line, err)) +
			"\n\n" + m.rec.Text
	}

	text := lipgloss.NewStyle().Width(width).Foreground(m.color)
	var parts []string
	for _, tok := range tokens {
		switch tok.Kind {
		case message.Text:
			s := strings.TrimSpace(tok.Value)
			if s == "" {
				continue
			}
			if m.opts.Markdown {
				if out, err := render.RenderMarkdown(s, width, m.opts.Style); err == nil {
					parts = append(parts, strings.TrimRight(out, "\n"))
					continue
				}
			}
			parts = append(parts, text.Render(s))
		case message.Resource:
			parts = append(parts, refStyle.Render(render.ImageFallback+" "+tok.Value))
		}
	}
	return strings.Join(parts, "\n")
}

func (m *model) recalcRendered() {
	width := m.view.Width
	if width <= 0 {
		width = 80
	}
	out := m.renderEntry(width)
	m.totalLines = strings.Count(out, "\n") + 1
	m.view.SetContent(out)
}

func (m *model) resize(width, height int) {
	bodyHeight := height - 2 // header + footer
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	m.view.Width = width
	m.view.Height = bodyHeight
	m.recalcRendered()
}

// ---------- navigation ----------

func (m *model) goTo(i int) {
	n := m.src.Count()
	if n == 0 {
		return
	}
	i = ((i % n) + n) % n
	if i == m.index {
		return
	}
	m.index = i
	m.load()
}

type scrollTick struct{}

func scrollTicker() tea.Cmd {
	return tea.Tick(time.Second/60, func(time.Time) tea.Msg { return scrollTick{} })
}

func (m *model) startScrollTo(target int) tea.Cmd {
	m.targetOffset = clamp(target, 0, max(0, m.totalLines-m.view.Height))
	if m.view.YOffset == m.targetOffset {
		m.animating = false
		return nil
	}
	m.animating = true
	return scrollTicker()
}

// stepScroll moves a fifth of the remaining distance, at least one line.
func (m *model) stepScroll() {
	cur, tgt := m.view.YOffset, m.targetOffset
	if cur == tgt {
		m.animating = false
		return
	}
	diff := tgt - cur
	step := diff / 5
	if step == 0 {
		if diff > 0 {
			step = 1
		} else {
			step = -1
		}
	}
	next := cur + step
	if (diff > 0 && next > tgt) || (diff < 0 && next < tgt) {
		next = tgt
	}
	m.view.SetYOffset(next)
	if next == tgt {
		m.animating = false
	}
}

// ---------- bubbletea plumbing ----------

func (m model) Init() tea.Cmd {
	if m.err != nil {
		return tea.Quit
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc, tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyRight:
			m.goTo(m.index + 1)
		case tea.KeyLeft:
			m.goTo(m.index - 1)
		case tea.KeyUp:
			return m, m.startScrollTo(m.view.YOffset - 1)
		case tea.KeyDown:
			return m, m.startScrollTo(m.view.YOffset + 1)
		case tea.KeyPgUp, tea.KeyCtrlB:
			return m, m.startScrollTo(m.view.YOffset - m.view.Height)
		case tea.KeyPgDown, tea.KeyCtrlF:
			return m, m.startScrollTo(m.view.YOffset + m.view.Height)
		case tea.KeyHome:
			m.goTo(0)
		case tea.KeyEnd:
			m.goTo(m.src.Count() - 1)
		default:
			switch strings.ToLower(msg.String()) {
			case "q":
				return m, tea.Quit
			case "n", "l", " ":
				m.goTo(m.index + 1)
			case "p", "h":
				m.goTo(m.index - 1)
			case "r":
				if n := m.src.Count(); n > 1 {
					m.goTo(m.index + 1 + m.rand.Intn(n-1))
				}
			}
		}
		if m.err != nil {
			return m, tea.Quit
		}
		return m, nil

	case scrollTick:
		if m.animating {
			m.stepScroll()
		}
		if m.animating {
			return m, scrollTicker()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

// ---------- view ----------

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("error: %v\n", m.err)
	}
	w := m.view.Width
	if w <= 0 {
		w = 80
	}

	right := humanSize(m.opts.FileSize)
	if !m.opts.FileMod.IsZero() {
		right = m.opts.FileMod.Format(time.RFC3339) + " " + right
	}
	available := max(1, w-lipgloss.Width(right)-1)
	left := truncateToWidth(m.opts.Filename, available)
	header := headerStyle.Render(fmt.Sprintf("%-*s %s", available, left, right))

	n := m.src.Count()
	label := " 0 / 0 "
	ratio := 0.0
	if n > 0 {
		label = fmt.Sprintf(" entry %d / %d  line %d ", m.index+1, n, m.rec.Line)
		if n > 1 {
			ratio = float64(m.index) / float64(n-1)
		}
	}
	footer := drawProgressBar(w, ratio, label)

	return header + "\n" + m.view.View() + "\n" + footer
}

func drawProgressBar(width int, ratio float64, label string) string {
	if width < 3 {
		return strings.Repeat("█", width)
	}
	fill := clamp(int(float64(width)*ratio), 0, width)
	bar := strings.Repeat("█", fill) + strings.Repeat("░", width-fill)

	if len(label) > 0 && len(label) < width {
		start := (width - len(label)) / 2
		runes := []rune(bar)
		labelRunes := []rune(label)
		for i := 0; i < len(labelRunes) && start+i < len(runes); i++ {
			runes[start+i] = labelRunes[i]
		}
		bar = string(runes)
	}
	return bar
}

// ---------- util ----------

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncateToWidth(s string, w int) string {
	runes := []rune(s)
	if len(runes) <= w {
		return s
	}
	return string(runes[:w])
}

func humanSize(n int64) string {
	u := []string{"B", "KB", "MB", "GB", "TB", "PB"}
	if n < 1024 {
		return fmt.Sprintf("%dB", n)
	}
	f := float64(n)
	i := 0
	for f >= 1024 && i < len(u)-1 {
		f /= 1024
		i++
	}
	return fmt.Sprintf("%.2f%s", f, u[i])
}

// ---------- entry point ----------

// Run starts the pager on the alternate screen and blocks until the user
// quits. A read error from src ends the session and is returned.
func Run(src Source, parser *message.Parser, opts Options, teaOpts ...tea.ProgramOption) error {
	m := newModel(src, parser, opts)
	if m.err != nil {
		return m.err
	}
	teaOpts = append([]tea.ProgramOption{tea.WithAltScreen()}, teaOpts...)
	final, err := tea.NewProgram(m, teaOpts...).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}

var _ tea.Model = model{}
