package xmldoc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNoRoot is returned when a document contains no element at all.
var ErrNoRoot = errors.New("no root element")

// IsBlank reports whether data carries no payload: only whitespace, byte
// order marks or NUL padding.
func IsBlank(data []byte) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n', 0x00, 0xEF, 0xBB, 0xBF, 0xFE, 0xFF:
			continue
		default:
			return false
		}
	}
	return true
}

// Parse decodes a UTF-8 or UTF-16 document and returns its root element.
func Parse(data []byte) (*Node, error) {
	text, err := toUTF8(data)
	if err != nil {
		return nil, err
	}

	decoder := xml.NewDecoder(bytes.NewReader(text))
	decoder.Strict = false
	decoder.CharsetReader = charsetReader

	var root *Node
	var stack []*Node
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xml decode: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local, Attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				n.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root == nil {
					root = n
				}
			} else {
				parent := stack[len(stack)-1]
				n.Parent = parent
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, ErrNoRoot
	}
	return root, nil
}

// toUTF8 transcodes UTF-16 input (with or without BOM) to UTF-8 and strips a
// UTF-8 BOM.
func toUTF8(data []byte) ([]byte, error) {
	var (
		endianness unicode.Endianness
		bom        unicode.BOMPolicy
	)
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		endianness, bom = unicode.LittleEndian, unicode.ExpectBOM
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		endianness, bom = unicode.BigEndian, unicode.ExpectBOM
	case len(data) >= 2 && data[0] == '<' && data[1] == 0x00:
		endianness, bom = unicode.LittleEndian, unicode.IgnoreBOM
	case len(data) >= 2 && data[0] == 0x00 && data[1] == '<':
		endianness, bom = unicode.BigEndian, unicode.IgnoreBOM
	default:
		out := bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
		return bytes.TrimRight(out, "\x00"), nil
	}

	decoded, _, err := transform.Bytes(unicode.UTF16(endianness, bom).NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("utf-16 decode: %w", err)
	}
	return bytes.TrimRight(decoded, "\x00"), nil
}

// charsetReader handles the encoding named in the XML declaration. UTF-16
// input has already been transcoded by toUTF8, so it passes through.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	l := strings.ToLower(strings.TrimSpace(label))
	if strings.HasPrefix(l, "utf-16") || l == "unicode" || l == "utf-8" {
		return input, nil
	}
	enc, err := htmlindex.Get(l)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}
