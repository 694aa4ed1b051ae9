package formatter

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/ianaindex"
)

// charsetReader is installed as xml.Decoder.CharsetReader. encoding/xml only
// understands UTF-8 on its own; older dumps are sometimes windows-1252 or
// ISO-8859-1 and declare it in the prolog.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("xml: unsupported encoding %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("xml: unsupported encoding %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}
