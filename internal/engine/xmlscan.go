package engine

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// ScanAttributes streams an XML document and returns, in document order, the
// non-empty value of attr on every element below the root whose local name
// is element. Namespaces are ignored on elements; attr must be unqualified.
// A leading UTF-8 byte order mark is skipped. Failures of r itself are
// returned as they are; only malformed content reports ErrInvalidXML.
func ScanAttributes(r io.Reader, element, attr string) ([]string, error) {
	src := &sourceReader{r: r}
	br := bufio.NewReader(src)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	dec := xml.NewDecoder(br)
	dec.CharsetReader = charset.NewReaderLabel

	var (
		values []string
		depth  int
		roots  int
	)
	for {
		tok, err := dec.Token()
		if src.err != nil {
			return nil, fmt.Errorf("reading xml: %w", src.err)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidXML, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					return nil, fmt.Errorf("%w: multiple root elements", ErrInvalidXML)
				}
			} else if t.Name.Local == element {
				if v, ok := attrValue(t.Attr, attr); ok && v != "" {
					values = append(values, v)
				}
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && strings.TrimSpace(string(t)) != "" {
				return nil, fmt.Errorf("%w: text outside the root element", ErrInvalidXML)
			}
		}
	}

	if roots == 0 {
		return nil, fmt.Errorf("%w: no root element", ErrInvalidXML)
	}
	return values, nil
}

func attrValue(attrs []xml.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sourceReader remembers the first read failure of the underlying reader so
// it can be told apart from a syntax error reported by the decoder.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && s.err == nil {
		s.err = err
	}
	return n, err
}
