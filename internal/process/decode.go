package process

import (
	"io"
	"strings"

	"github.com/rileyhilliard/vorax/internal/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// lookupEncoding resolves a charset name. UTF-8 and the empty name return
// nil, meaning bytes pass through untouched.
func lookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Unknown output encoding '"+name+"'",
			"Use a WHATWG charset label such as utf-8, windows-1252 or iso-8859-2.")
	}
	if canonical, _ := htmlindex.Name(enc); canonical == "utf-8" {
		return nil, nil
	}
	return enc, nil
}

// decoderFor returns a wrapper converting child output into UTF-8.
func decoderFor(enc encoding.Encoding) func(io.Reader) io.Reader {
	if enc == nil {
		return func(r io.Reader) io.Reader { return r }
	}
	return func(r io.Reader) io.Reader {
		return transform.NewReader(r, enc.NewDecoder())
	}
}
