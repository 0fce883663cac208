package main

import (
	"bytes"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/term"
)

// renderTable writes rows under headers as a rounded box table. Headers are
// upper-cased by the renderer.
func renderTable(w io.Writer, headers []string, rows [][]string) error {
	var buf bytes.Buffer

	opts := []tablewriter.Option{
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleRounded),
		})),
		tablewriter.WithPadding(tw.Padding{Left: " ", Right: " "}),
		tablewriter.WithConfig(tablewriter.NewConfigBuilder().
			WithTrimSpace(tw.Off).
			Row().Formatting().WithAutoWrap(tw.WrapNormal).Build().Build().
			Build()),
	}

	// Long library paths wrap instead of overflowing the terminal.
	if width := termWidth(); width > 0 {
		opts = append(opts, tablewriter.WithMaxWidth(width))
	}

	t := tablewriter.NewTable(&buf, opts...)

	t.Header(headers)

	for _, row := range rows {
		if err := t.Append(row); err != nil {
			return err
		}
	}

	if err := t.Render(); err != nil {
		return err
	}

	_, err := w.Write(buf.Bytes())

	return err
}

// termWidth returns the terminal width or 0 if stdout is not a terminal.
func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd())) //nolint:gosec // fd fits int
	if err != nil || w <= 0 {
		return 0
	}

	return w
}
