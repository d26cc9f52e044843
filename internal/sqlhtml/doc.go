// Package sqlhtml renders the HTML that SQL*Plus prints under
// SET MARKUP HTML ON as plain, column-aligned text.
//
// A Beautifier walks the direct children of <body> and offers every child
// to every registered TagHandler, concatenating whatever each returns.
// Handlers that render nested content (paragraphs, bold text, table cells)
// call RenderChildren with the same chain, so nesting is each handler's own
// business.
package sqlhtml
