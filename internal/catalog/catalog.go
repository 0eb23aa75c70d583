// SPDX-License-Identifier: MPL-2.0

// Package catalog renders the games.html page that links every ROM into the
// web front-end.
//
// The document is a fixed preamble (metadata plus the keyboard legend) and a
// single list. Each ROM is one item whose link target is "./#" followed by
// the ROM's link token. A plain-text separator item labels the SUPER-CHIP and
// community sections; the CHIP-8 section comes first and is unlabelled.
//
// Rendering is a pure function of its input: no timestamps, no map
// iteration, so unchanged ROMs produce byte-identical output.
package catalog

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/oxi8/oxi8pack/internal/linkenc"
	"github.com/oxi8/oxi8pack/internal/romsource"
)

// DefaultFileName is the catalog file name the front-end navigates back to
// when the user leaves a game.
const DefaultFileName = "games.html"

// DefaultTitle is the document title used when none is configured.
const DefaultTitle = "oxi8 games"

// controls is the instructional block shown above the list. The bindings
// mirror the front-end's keymap.
const controls = `CHIP-8 keypad    keyboard
  1 2 3 C        1 2 3 4
  4 5 6 D        Q W E R
  7 8 9 E        A S D F
  A 0 B F        Z X C V

Enter      reset the program
Backspace  return to this list
Space / I  toggle the debug view
O          step one instruction (debug view)
= / -      raise / lower the clock by 10 Hz
0          CHIP-8 speed (500 Hz)
9          SUPER-CHIP speed (1000 Hz)`

type (
	// Section is one dialect group and its ordered entries.
	Section struct {
		Group   romsource.DialectGroup
		Entries []romsource.RomEntry
	}

	// Catalog is the ordered list of sections rendered into one document.
	Catalog struct {
		Sections []Section
	}

	// Options configures a Builder.
	Options struct {
		// Title is the document title. Empty uses DefaultTitle.
		Title string
		// MaxRomSize rejects ROMs larger than this many bytes. Zero disables
		// the check.
		MaxRomSize int
	}

	// Builder renders catalogs.
	Builder struct {
		opts Options
	}

	// EntryError reports which ROM could not be rendered.
	EntryError struct {
		Path string
		Err  error
	}
)

// FromResult builds a catalog with one section per group in render order.
func FromResult(res *romsource.Result) *Catalog {
	c := &Catalog{Sections: make([]Section, 0, len(romsource.Groups()))}
	for _, g := range romsource.Groups() {
		c.Sections = append(c.Sections, Section{Group: g, Entries: res.Entries(g)})
	}
	return c
}

// NewBuilder creates a Builder.
func NewBuilder(opts Options) *Builder {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	return &Builder{opts: opts}
}

// Render writes the HTML document for c to w.
func (b *Builder) Render(w io.Writer, c *Catalog) error {
	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html>\n<head>\n")
	sb.WriteString("<meta charset=\"utf-8\">\n")
	sb.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(b.opts.Title))
	sb.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&sb, "<h1>%s</h1>\n", html.EscapeString(b.opts.Title))
	sb.WriteString("<pre>\n")
	sb.WriteString(html.EscapeString(controls))
	sb.WriteString("\n</pre>\n")
	sb.WriteString("<ul>\n")

	for _, section := range c.Sections {
		if heading := section.Group.Heading(); heading != "" {
			fmt.Fprintf(&sb, "<li>%s</li>\n", html.EscapeString(heading))
		}
		for _, entry := range section.Entries {
			token, err := linkenc.EncodeLimited(entry.RawBytes, b.opts.MaxRomSize)
			if err != nil {
				return &EntryError{Path: entry.SourcePath, Err: err}
			}
			// The token alphabet needs no escaping inside an attribute.
			fmt.Fprintf(&sb, "<li><a href=\"./#%s\">%s</a></li>\n", token, html.EscapeString(entry.DisplayName))
		}
	}

	sb.WriteString("</ul>\n")
	sb.WriteString("</body>\n</html>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// RenderBytes renders c into memory.
func (b *Builder) RenderBytes(c *Catalog) ([]byte, error) {
	var buf bytes.Buffer
	if err := b.Render(&buf, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Error implements the error interface for EntryError.
func (e *EntryError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *EntryError) Unwrap() error { return e.Err }
