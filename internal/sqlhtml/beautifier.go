package sqlhtml

import (
	"regexp"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TagHandler renders one kind of node as plain text. Visit is called for
// every node the walker reaches, so a handler returns "" for nodes that are
// not its concern. chain is the full handler list, for handlers that render
// their children. Handlers must not modify the tree.
type TagHandler interface {
	Visit(n *html.Node, chain []TagHandler) string
}

// HandlerFunc adapts a plain function to TagHandler. Funcs are not
// comparable, so a HandlerFunc cannot be unregistered.
type HandlerFunc func(n *html.Node, chain []TagHandler) string

func (f HandlerFunc) Visit(n *html.Node, chain []TagHandler) string { return f(n, chain) }

// brBeforeP matches the stray line break SQL*Plus emits in front of a
// paragraph.
var brBeforeP = regexp.MustCompile(`(?i)\s*<br>\s*\n\s*<p>`)

// Beautifier converts SQL*Plus HTML markup into aligned plain text using an
// ordered set of tag handlers.
//
// Beautify takes a read lock on the handler list and Register/Unregister a
// write lock, so changing handlers never races an in-flight walk.
type Beautifier struct {
	mu       sync.RWMutex
	handlers []TagHandler
}

// New creates a Beautifier with the given handlers in order.
func New(handlers ...TagHandler) *Beautifier {
	return &Beautifier{handlers: append([]TagHandler(nil), handlers...)}
}

type options struct {
	bold *lipgloss.Style
}

// Option customizes NewDefault.
type Option func(*options)

// WithBoldStyle renders <b> and <strong> text through style instead of
// passing it through unstyled.
func WithBoldStyle(style lipgloss.Style) Option {
	return func(o *options) { o.bold = &style }
}

// NewDefault creates a Beautifier with the standard handlers registered:
// table, pre, paragraph, break, bold and text.
func NewDefault(opts ...Option) *Beautifier {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return New(
		&TableHandler{},
		&PreHandler{},
		&ParagraphHandler{},
		&BreakHandler{},
		&BoldHandler{Style: o.bold},
		&TextHandler{},
	)
}

// Register appends h to the handler chain.
func (b *Beautifier) Register(h TagHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Unregister removes every occurrence of h. It reports whether anything was
// removed.
func (b *Beautifier) Unregister(h TagHandler) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.handlers[:0]
	removed := false
	for _, existing := range b.handlers {
		if sameHandler(existing, h) {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	for i := len(kept); i < len(b.handlers); i++ {
		b.handlers[i] = nil
	}
	b.handlers = kept
	return removed
}

// sameHandler compares handlers without panicking on uncomparable values.
func sameHandler(a, b TagHandler) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

// Handlers returns a copy of the handler chain.
func (b *Beautifier) Handlers() []TagHandler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]TagHandler(nil), b.handlers...)
}

// Beautify renders markup as plain text. It never fails: malformed markup
// is repaired by the parser, unknown tags produce nothing and invalid UTF-8
// sequences are dropped.
func (b *Beautifier) Beautify(markup string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	markup = brBeforeP.ReplaceAllString(markup, "<p>")
	// Handlers decode entities once more; the extra escape keeps an
	// encoded ampersand from collapsing into markup.
	markup = strings.ReplaceAll(markup, "&amp;", "&amp;amp;")

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	body := findElement(doc, atom.Body)
	if body == nil {
		return ""
	}

	var parts []fragment
	for child := body.FirstChild; child != nil; child = child.NextSibling {
		var sb strings.Builder
		for _, h := range b.handlers {
			sb.WriteString(h.Visit(child, b.handlers))
		}
		if sb.Len() > 0 {
			parts = append(parts, fragment{node: child, text: strings.ToValidUTF8(sb.String(), "")})
		}
	}
	return joinTrimmed(parts)
}

// fragment is the rendered text of one child of <body>.
type fragment struct {
	node *html.Node
	text string
}

// joinTrimmed concatenates fragments and drops the blank lines handlers put
// around the first and last block. A <pre> at either end keeps its own
// leading or trailing newlines.
func joinTrimmed(parts []fragment) string {
	blank := func(f fragment) bool { return strings.Trim(f.text, "\n") == "" }
	for len(parts) > 0 && blank(parts[0]) {
		parts = parts[1:]
	}
	for len(parts) > 0 && blank(parts[len(parts)-1]) {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return ""
	}

	first, last := parts[0], parts[len(parts)-1]
	var sb strings.Builder
	for i, f := range parts {
		text := f.text
		if i == 0 && !isElement(first.node, atom.Pre) {
			text = strings.TrimLeft(text, "\n")
		}
		if i == len(parts)-1 && !isElement(last.node, atom.Pre) {
			text = strings.TrimRight(text, "\n")
		}
		sb.WriteString(text)
	}
	return sb.String()
}

// RenderChildren runs every handler in chain over each child of n and
// concatenates the fragments, the same way the top-level walk does.
func RenderChildren(n *html.Node, chain []TagHandler) string {
	var sb strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		for _, h := range chain {
			sb.WriteString(h.Visit(child, chain))
		}
	}
	return sb.String()
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func isElement(n *html.Node, atoms ...atom.Atom) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range atoms {
		if n.DataAtom == a {
			return true
		}
	}
	return false
}
