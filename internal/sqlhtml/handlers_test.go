package sqlhtml

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// firstBodyChild parses markup and returns the first element under <body>.
func firstBodyChild(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	body := findElement(doc, atom.Body)
	require.NotNil(t, body)
	for n := body.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode {
			return n
		}
	}
	t.Fatalf("no element in %q", markup)
	return nil
}

func TestTableHandler(t *testing.T) {
	chain := NewDefault().Handlers()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name: "header rule and right aligned numbers",
			input: `<table><tr><th>ID</th><th>NAME</th></tr>` +
				`<tr><td align="right">1</td><td>alpha</td></tr>` +
				`<tr><td align="right">10</td><td>b</td></tr></table>`,
			want: "\nID NAME\n-- -----\n 1 alpha\n10 b\n",
		},
		{
			name:  "no header row",
			input: `<table><tr><td>a</td><td>bb</td></tr><tr><td>ccc</td><td>d</td></tr></table>`,
			want:  "\na   bb\nccc d\n",
		},
		{
			name:  "mixed th and td is not a header",
			input: `<table><tr><th>k</th><td>v</td></tr></table>`,
			want:  "\nk v\n",
		},
		{
			name:  "ragged rows are padded",
			input: `<table><tr><td>a</td><td>b</td><td>c</td></tr><tr><td>d</td></tr></table>`,
			want:  "\na b c\nd\n",
		},
		{
			name:  "cell whitespace is collapsed",
			input: "<table><tr><td>\n  two\n  words  \n</td><td>x</td></tr></table>",
			want:  "\ntwo words x\n",
		},
		{
			name:  "thead and tfoot rows are included",
			input: `<table><thead><tr><th>H</th></tr></thead><tbody><tr><td>b</td></tr></tbody><tfoot><tr><td>f</td></tr></tfoot></table>`,
			want:  "\nH\n-\nb\nf\n",
		},
		{
			name:  "wide characters align by display width",
			input: `<table><tr><td>日本</td><td>x</td></tr><tr><td>abc</td><td>y</td></tr></table>`,
			want:  "\n日本 x\nabc  y\n",
		},
		{
			name:  "cell entities are decoded",
			input: `<table><tr><td>a &lt; b</td></tr></table>`,
			want:  "\na < b\n",
		},
		{
			name:  "inline bold inside a cell keeps its space",
			input: `<table><tr><td>foo <b>bar</b></td><td>x</td></tr></table>`,
			want:  "\nfoo bar x\n",
		},
		{
			name:  "empty table",
			input: `<table></table>`,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := firstBodyChild(t, tt.input)
			assert.Equal(t, tt.want, TableHandler{}.Visit(n, chain))
		})
	}
}

func TestTableHandler_Separator(t *testing.T) {
	n := firstBodyChild(t, `<table><tr><th>A</th><th>B</th></tr><tr><td>1</td><td>2</td></tr></table>`)
	got := TableHandler{Separator: " | "}.Visit(n, NewDefault().Handlers())
	assert.Equal(t, "\nA | B\n- | -\n1 | 2\n", got)
}

func TestHandlersIgnoreOtherNodes(t *testing.T) {
	chain := NewDefault().Handlers()
	p := firstBodyChild(t, "<p>text</p>")
	text := p.FirstChild
	require.Equal(t, html.TextNode, text.Type)

	tests := []struct {
		name    string
		handler TagHandler
		node    *html.Node
	}{
		{"table ignores p", TableHandler{}, p},
		{"pre ignores p", PreHandler{}, p},
		{"break ignores p", BreakHandler{}, p},
		{"bold ignores p", BoldHandler{}, p},
		{"text ignores elements", TextHandler{}, p},
		{"paragraph ignores text", ParagraphHandler{}, text},
		{"bold ignores text", BoldHandler{}, text},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, "", tt.handler.Visit(tt.node, chain))
		})
	}
}

func TestPreHandler_OnlyDirectText(t *testing.T) {
	n := firstBodyChild(t, "<pre>line 1\n<b>skipped</b>line 2</pre>")
	assert.Equal(t, "line 1\nline 2", PreHandler{}.Visit(n, NewDefault().Handlers()))
}

func TestParagraphHandler_RendersNestedTable(t *testing.T) {
	n := firstBodyChild(t, "<p>\n<table><tr><td>x</td></tr></table>\n")
	assert.Equal(t, "\nx\n", ParagraphHandler{}.Visit(n, NewDefault().Handlers()))
}

func TestBoldHandler_Style(t *testing.T) {
	n := firstBodyChild(t, "<b>hot</b>")
	style := lipgloss.NewStyle().Bold(true)

	got := BoldHandler{Style: &style}.Visit(n, NewDefault().Handlers())
	assert.Equal(t, style.Render("hot"), got)
	assert.Contains(t, got, "hot")

	empty := firstBodyChild(t, "<b></b>")
	assert.Equal(t, "", BoldHandler{Style: &style}.Visit(empty, nil))
}

func TestBoldHandler_StylesEachLine(t *testing.T) {
	n := firstBodyChild(t, "<b>one<br>longer two</b>")
	style := lipgloss.NewStyle().Bold(true)

	got := BoldHandler{Style: &style}.Visit(n, NewDefault().Handlers())
	assert.Equal(t, style.Render("one")+"\n"+style.Render("longer two"), got)
	for _, line := range strings.Split(got, "\n") {
		assert.Equal(t, strings.TrimRight(line, " "), line, "no padding after %q", line)
	}
}

func TestNewDefault_WithBoldStyle(t *testing.T) {
	style := lipgloss.NewStyle().Underline(true)
	b := NewDefault(WithBoldStyle(style))

	assert.Equal(t, style.Render("x"), b.Beautify("<b>x</b>"))
}

func TestTextHandler_KeepsSpaceNextToInlineElements(t *testing.T) {
	p := firstBodyChild(t, "<p>Hello <b>world</b> again <i>x</i> <i>y</i></p>")

	var got []string
	for c := p.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			got = append(got, TextHandler{}.Visit(c, nil))
		}
	}
	assert.Equal(t, []string{"Hello ", " again ", " "}, got)
}

func TestTextHandler(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"trims", "  hello \n", "hello"},
		{"strips carriage returns", "a\r\nb", "a\nb"},
		{"decodes remaining entities", "x &amp; y", "x & y"},
		{"whitespace only", " \n\t ", ""},
		{"collapses runs", "a  \t b", "a b"},
		{"run with a newline becomes one newline", "a \n\n b", "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &html.Node{Type: html.TextNode, Data: tt.data}
			assert.Equal(t, tt.want, TextHandler{}.Visit(n, nil))
		})
	}
}
