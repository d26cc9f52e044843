package sqlhtml

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PreHandler emits the text of a <pre> block verbatim, minus carriage
// returns.
type PreHandler struct{}

func (PreHandler) Visit(n *html.Node, _ []TagHandler) string {
	if !isElement(n, atom.Pre) {
		return ""
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(decodeText(c.Data))
		}
	}
	return sb.String()
}

// TextHandler emits text nodes with whitespace runs collapsed. A run that
// holds a newline becomes one newline, any other run one space. Whitespace
// at either edge is kept only where the text touches an inline element such
// as <b>, so "Hello <b>world</b>" keeps its space while text next to a
// block, a <br> or the edge of its parent is trimmed.
type TextHandler struct{}

func (TextHandler) Visit(n *html.Node, _ []TagHandler) string {
	if n.Type != html.TextNode {
		return ""
	}
	text := collapseSpace(decodeText(n.Data))
	if strings.Trim(text, " \n") == "" {
		if isInline(n.PrevSibling) && isInline(n.NextSibling) {
			return " "
		}
		return ""
	}
	if !isInline(n.PrevSibling) {
		text = strings.TrimLeft(text, " \n")
	}
	if !isInline(n.NextSibling) {
		text = strings.TrimRight(text, " \n")
	}
	return text
}

var inlineAtoms = map[atom.Atom]bool{
	atom.A: true, atom.Abbr: true, atom.B: true, atom.Big: true, atom.Cite: true,
	atom.Code: true, atom.Em: true, atom.Font: true, atom.I: true, atom.Kbd: true,
	atom.Mark: true, atom.Q: true, atom.S: true, atom.Samp: true, atom.Small: true,
	atom.Span: true, atom.Strike: true, atom.Strong: true, atom.Sub: true,
	atom.Sup: true, atom.Tt: true, atom.U: true, atom.Var: true,
}

func isInline(n *html.Node) bool {
	if n == nil {
		return false
	}
	if n.Type == html.TextNode {
		return true
	}
	return n.Type == html.ElementNode && inlineAtoms[n.DataAtom]
}

// collapseSpace replaces each run of ASCII whitespace with "\n" when the
// run contains a line break and with " " otherwise. Non-breaking spaces are
// content and stay.
func collapseSpace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	inRun, newline := false, false
	flush := func() {
		if !inRun {
			return
		}
		if newline {
			sb.WriteByte('\n')
		} else {
			sb.WriteByte(' ')
		}
		inRun, newline = false, false
	}
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\n':
			inRun, newline = true, true
		case ' ', '\t', '\f', '\v':
			inRun = true
		default:
			flush()
			sb.WriteByte(c)
		}
	}
	flush()
	return sb.String()
}

// ParagraphHandler puts a paragraph on its own lines.
type ParagraphHandler struct{}

func (ParagraphHandler) Visit(n *html.Node, chain []TagHandler) string {
	if !isElement(n, atom.P) {
		return ""
	}
	inner := strings.Trim(RenderChildren(n, chain), "\n")
	if strings.TrimSpace(inner) == "" {
		return ""
	}
	return "\n" + inner + "\n"
}

// BreakHandler turns <br> into a newline.
type BreakHandler struct{}

func (BreakHandler) Visit(n *html.Node, _ []TagHandler) string {
	if !isElement(n, atom.Br) {
		return ""
	}
	return "\n"
}

// BoldHandler emits the content of <b> and <strong>. With a Style set the
// content is rendered through it; otherwise it passes through unstyled.
type BoldHandler struct {
	Style *lipgloss.Style
}

func (h BoldHandler) Visit(n *html.Node, chain []TagHandler) string {
	if !isElement(n, atom.B, atom.Strong) {
		return ""
	}
	inner := RenderChildren(n, chain)
	if h.Style == nil || inner == "" {
		return inner
	}
	// Render pads multi-line blocks to a common width, so style line by line.
	lines := strings.Split(inner, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = h.Style.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// TableHandler lays a <table> out as aligned columns. A row made only of
// <th> cells is a header and gets a dashed rule below it. Cells with
// align="right" are right-aligned, which is how SQL*Plus marks numbers.
type TableHandler struct {
	// Separator goes between columns. Empty means one space.
	Separator string
}

type cell struct {
	text  string
	right bool
}

type row struct {
	cells  []cell
	header bool
}

func (h TableHandler) Visit(n *html.Node, chain []TagHandler) string {
	if !isElement(n, atom.Table) {
		return ""
	}

	rows := collectRows(n, chain)
	if len(rows) == 0 {
		return ""
	}

	var widths []int
	for _, r := range rows {
		for i, c := range r.cells {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(c.text))
		}
	}

	sep := h.Separator
	if sep == "" {
		sep = " "
	}

	var sb strings.Builder
	sb.WriteByte('\n')
	for _, r := range rows {
		parts := make([]string, len(widths))
		for i, w := range widths {
			var c cell
			if i < len(r.cells) {
				c = r.cells[i]
			}
			if c.right {
				parts[i] = runewidth.FillLeft(c.text, w)
			} else {
				parts[i] = runewidth.FillRight(c.text, w)
			}
		}
		sb.WriteString(strings.TrimRight(strings.Join(parts, sep), " "))
		sb.WriteByte('\n')

		if r.header {
			rule := make([]string, len(widths))
			for i, w := range widths {
				rule[i] = strings.Repeat("-", w)
			}
			sb.WriteString(strings.Join(rule, sep))
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// collectRows gathers the rows of a table, looking through the implicit
// tbody and any thead or tfoot but not into nested tables.
func collectRows(table *html.Node, chain []TagHandler) []row {
	var rows []row
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case isElement(c, atom.Tr):
				if r, ok := buildRow(c, chain); ok {
					rows = append(rows, r)
				}
			case isElement(c, atom.Thead, atom.Tbody, atom.Tfoot):
				walk(c)
			}
		}
	}
	walk(table)
	return rows
}

func buildRow(tr *html.Node, chain []TagHandler) (row, bool) {
	var r row
	headers := 0
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if !isElement(c, atom.Th, atom.Td) {
			continue
		}
		if c.DataAtom == atom.Th {
			headers++
		}
		r.cells = append(r.cells, cell{
			text:  strings.Join(strings.Fields(RenderChildren(c, chain)), " "),
			right: strings.EqualFold(attr(c, "align"), "right"),
		})
	}
	r.header = headers > 0 && headers == len(r.cells)
	return r, len(r.cells) > 0
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// decodeText resolves the entities left after parsing and drops carriage
// returns.
func decodeText(s string) string {
	return strings.ReplaceAll(html.UnescapeString(s), "\r", "")
}
