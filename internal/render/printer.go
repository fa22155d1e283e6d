// Package render prints parsed entries to a terminal: text runs in a
// random color, resource references as images.
package render

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"motd/internal/entry"
	"motd/internal/message"
)

// DefaultImgHeight is the image height in terminal rows.
const DefaultImgHeight = 8

// ImageFallback is printed in place of an image that cannot be drawn.
const ImageFallback = "🖼️"

// Config controls how entries are printed.
type Config struct {
	ImgHeight int    // rows; 0 means DefaultImgHeight
	ImgWidth  int    // columns; 0 keeps the aspect ratio
	Markdown  bool   // render text runs with glamour
	Style     string // glamour style for Markdown

	Logger *slog.Logger
	Rand   *rand.Rand
}

// Printer writes entries to out.
type Printer struct {
	cfg    Config
	out    io.Writer
	term   *termenv.Output
	tty    bool
	width  int
	log    *slog.Logger
	rng    *rand.Rand
	parser *message.Parser
}

// NewPrinter returns a Printer writing to out. Color and images are only
// used when out is a terminal.
func NewPrinter(out io.Writer, parser *message.Parser, cfg Config) *Printer {
	p := &Printer{cfg: cfg, out: out, log: cfg.Logger, rng: cfg.Rand, parser: parser}
	if p.log == nil {
		p.log = slog.New(slog.DiscardHandler)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if p.cfg.ImgHeight <= 0 {
		p.cfg.ImgHeight = DefaultImgHeight
	}

	if f, ok := out.(*os.File); ok {
		fd := f.Fd()
		p.tty = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		if w, _, err := term.GetSize(int(fd)); err == nil && w > 0 {
			p.width = w
		}
	}
	p.setTTY(p.tty)
	return p
}

func (p *Printer) setTTY(tty bool) {
	p.tty = tty
	if tty {
		p.term = termenv.NewOutput(p.out)
	} else {
		p.term = termenv.NewOutput(p.out, termenv.WithProfile(termenv.Ascii))
	}
}

// Print parses rec and writes its tokens. A parse error is returned before
// anything is written.
func (p *Printer) Print(rec entry.Record) error {
	tokens, err := p.parser.Parse(rec.Text)
	if err != nil {
		return fmt.Errorf("error parsing entry at line %d: %w", rec.Line, err)
	}

	c := RandomColor(p.rng, LightnessLower, LightnessUpper)
	fg := p.term.Color(c.Hex())
	for _, tok := range tokens {
		switch tok.Kind {
		case message.Text:
			p.printText(tok.Value, fg)
		case message.Resource:
			p.printImage(tok.Value)
		}
	}
	return nil
}

func (p *Printer) printText(text string, fg termenv.Color) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if p.cfg.Markdown {
		width := p.width
		if width <= 0 {
			width = 80
		}
		out, err := RenderMarkdown(text, width, p.cfg.Style)
		if err == nil {
			_, _ = io.WriteString(p.out, out)
			return
		}
		p.log.Debug("markdown render failed, printing plain text", "err", err)
	}
	_, _ = fmt.Fprintln(p.out, p.term.String(text).Foreground(fg).String())
}

func (p *Printer) printFallback() {
	_, _ = fmt.Fprintln(p.out, ImageFallback)
}

func (p *Printer) printImage(path string) {
	if !p.tty {
		p.printFallback()
		return
	}
	img, err := LoadImage(path)
	if err == nil {
		err = DrawImage(p.out, p.term, img, p.cfg.ImgHeight, p.cfg.ImgWidth, p.width)
	}
	if err != nil {
		p.printFallback()
		p.log.Debug("error displaying image", "path", path, "err", err)
	}
}
