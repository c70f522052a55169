package intake

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// CharsetPreprocessor converts inbound documents from a legacy
// single-byte encoding to UTF-8. Trading partners still export in
// Latin-1 or Windows-1252; parsing assumes UTF-8 throughout.
type CharsetPreprocessor struct {
	decoder *encoding.Decoder
}

// NewCharsetPreprocessor creates a preprocessor for the named source
// encoding. Supported names: latin1, windows1252, utf8 (pass-through).
func NewCharsetPreprocessor(sourceEncoding string) (*CharsetPreprocessor, error) {
	switch sourceEncoding {
	case "", "utf8", "utf-8":
		return &CharsetPreprocessor{}, nil
	case "latin1", "iso-8859-1":
		return &CharsetPreprocessor{decoder: charmap.ISO8859_1.NewDecoder()}, nil
	case "windows1252", "windows-1252", "cp1252":
		return &CharsetPreprocessor{decoder: charmap.Windows1252.NewDecoder()}, nil
	default:
		return nil, fmt.Errorf("unsupported source encoding %q", sourceEncoding)
	}
}

// Normalize converts raw bytes to UTF-8. Input that is already valid
// UTF-8 passes through unchanged, so a partner switching encodings
// mid-feed cannot double-decode.
func (p *CharsetPreprocessor) Normalize(raw []byte) ([]byte, error) {
	if p.decoder == nil || utf8.Valid(raw) {
		return raw, nil
	}
	decoded, err := p.decoder.Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return decoded, nil
}
