package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"motd/internal/browse"
	"motd/internal/entry"
	"motd/internal/format"
	"motd/internal/message"
	"motd/internal/msgfile"
	"motd/internal/render"
)

// ---------- flags ----------

type globalFlags struct {
	file     string
	debug    bool
	markdown bool
	style    string
}

type printFlags struct {
	entry     int
	line      int
	validate  bool
	imgHeight int
	imgWidth  int
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	if !debug {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// ---------- message file ----------

// openSeeker resolves, opens (creating if missing) and indexes the message
// file. The caller owns the returned seeker.
func openSeeker(g *globalFlags, stderr io.Writer, opts ...entry.Option) (*entry.Seeker, string, error) {
	path := msgfile.Path(g.file)
	f, err := msgfile.Open(path, stderr)
	if err != nil {
		return nil, path, err
	}
	opts = append([]entry.Option{entry.WithSyntax(format.Default)}, opts...)
	s, err := entry.New(f, opts...)
	if err != nil {
		_ = f.Close()
		return nil, path, fmt.Errorf("index message file '%s': %w", path, err)
	}
	return s, path, nil
}

// ---------- selection ----------

// pickEntry chooses the entry to print: an explicit index, the entry
// containing a line, or a random one. s must not be empty.
func pickEntry(s *entry.Seeker, pf *printFlags, entrySet, lineSet bool, rng *rand.Rand, log *slog.Logger) (entry.Record, error) {
	switch {
	case entrySet:
		if pf.entry >= s.Count() {
			return entry.Record{}, fmt.Errorf("requested entry exceeds entry count (%d)", s.Count())
		}
		return s.Get(pf.entry)
	case lineSet:
		rec, err := s.Get(s.IndexForLine(pf.line))
		if err != nil {
			return entry.Record{}, err
		}
		log.Debug("selected entry by line", "line", rec.Line, "entry", rec.Index)
		return rec, nil
	default:
		return s.Get(rng.Intn(s.Count()))
	}
}

// ---------- validation ----------

// validateEntries parses every entry and reports missing resources as
// warnings on w. The first read or parse error is returned.
func validateEntries(s *entry.Seeker, parser *message.Parser, w io.Writer, log *slog.Logger) error {
	checked := 0
	for rec, err := range s.All() {
		if err != nil {
			return fmt.Errorf("validation error: failed to read entry: %w", err)
		}
		tokens, err := parser.Parse(rec.Text)
		if err != nil {
			return fmt.Errorf("validation error on line %d: %w", rec.Line, err)
		}
		for _, tok := range tokens {
			if tok.Kind != message.Resource {
				continue
			}
			if _, err := os.Stat(tok.Value); errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintf(w, "Resource '%s' doesn't exist (from line %d)\n", tok.Value, rec.Line)
			}
		}
		checked++
	}
	log.Debug("validated message file", "entries", checked)
	return nil
}

// ---------- cobra CLI ----------

func newRootCmd() *cobra.Command {
	var g globalFlags
	var pf printFlags

	cmd := &cobra.Command{
		Use:           "motd",
		Short:         "Print a random entry from a message file, with inline images",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if pf.entry < 0 {
				return fmt.Errorf("invalid --entry: %d", pf.entry)
			}
			if pf.line < 0 {
				return fmt.Errorf("invalid --line: %d", pf.line)
			}
			if pf.imgHeight < 0 || pf.imgWidth < 0 {
				return fmt.Errorf("invalid image size: %dx%d", pf.imgWidth, pf.imgHeight)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			stderr := cmd.ErrOrStderr()
			log := newLogger(stderr, g.debug)

			s, path, err := openSeeker(&g, stderr)
			if err != nil {
				return err
			}
			defer s.Close()

			if s.Count() == 0 {
				log.Debug("message file does not contain any entries", "path", path)
				return nil
			}

			parser := message.NewParser(format.Default)
			if pf.validate {
				return validateEntries(s, parser, stderr, log)
			}

			rng := rand.New(rand.NewSource(time.Now().UnixNano()))
			rec, err := pickEntry(s, &pf, cmd.Flags().Changed("entry"), cmd.Flags().Changed("line"), rng, log)
			if err != nil {
				return err
			}

			p := render.NewPrinter(cmd.OutOrStdout(), parser, render.Config{
				ImgHeight: pf.imgHeight,
				ImgWidth:  pf.imgWidth,
				Markdown:  g.markdown,
				Style:     g.style,
				Logger:    log,
				Rand:      rng,
			})
			if err := p.Print(rec); err != nil {
				log.Debug("skipping entry", "line", rec.Line, "err", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&g.file, "file", "f", "", "message file (default $"+msgfile.EnvVar+" or <config dir>/"+msgfile.DefaultName+")")
	cmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "print error messages instead of suppressing them")
	cmd.PersistentFlags().BoolVar(&g.markdown, "markdown", false, "render text as markdown")
	cmd.PersistentFlags().StringVar(&g.style, "style", "auto", "glamour style: auto, dark, light, notty, dracula, pink, or a JSON style file path")

	cmd.Flags().IntVarP(&pf.entry, "entry", "e", 0, "print entry NUM instead of a random entry")
	cmd.Flags().IntVar(&pf.line, "line", 0, "print the entry on line NUM instead of a random entry (debugging only)")
	cmd.Flags().BoolVar(&pf.validate, "validate", false, "check message file for parsing errors")
	cmd.Flags().IntVar(&pf.imgHeight, "img-height", render.DefaultImgHeight, "height in rows to use for images")
	cmd.Flags().IntVar(&pf.imgWidth, "img-width", 0, "width in columns for images (0 = preserve aspect ratio)")
	cmd.MarkFlagsMutuallyExclusive("entry", "line")

	cmd.AddCommand(newValidateCmd(&g), newBrowseCmd(&g))
	return cmd
}

func newValidateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the message file for parsing errors and missing resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stderr := cmd.ErrOrStderr()
			log := newLogger(stderr, g.debug)
			s, _, err := openSeeker(g, stderr)
			if err != nil {
				return err
			}
			defer s.Close()
			return validateEntries(s, message.NewParser(format.Default), stderr, log)
		},
	}
}

func newBrowseCmd(g *globalFlags) *cobra.Command {
	var start int
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Page through all entries interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return errors.New("stdout is not a TTY (refusing to render ANSI output)")
			}
			s, path, err := openSeeker(g, cmd.ErrOrStderr(), entry.WithCache())
			if err != nil {
				return err
			}
			defer s.Close()

			abs, _ := filepath.Abs(path)
			opts := browse.Options{
				Filename: abs,
				Start:    start,
				Markdown: g.markdown,
				Style:    g.style,
			}
			if fi, err := os.Stat(path); err == nil {
				opts.FileMod = fi.ModTime()
				opts.FileSize = fi.Size()
			}
			return browse.Run(s, message.NewParser(format.Default), opts)
		},
	}
	cmd.Flags().IntVarP(&start, "entry", "e", 0, "entry to open first")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
