package bookreview

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// payload is a list response parsed once so every matcher can look at it.
type payload struct {
	raw    []byte
	fields []field
}

type field struct {
	name  string
	value json.RawMessage
}

// shapeMatcher returns the book array hidden in p, if this shape applies.
type shapeMatcher struct {
	name  string
	match func(p payload) (json.RawMessage, bool)
}

// bookShapes is the ordered compatibility list for feed responses. The
// first matcher that finds an array wins.
var bookShapes = []shapeMatcher{
	{name: "array", match: matchBareArray},
	{name: "data", match: matchField("data")},
	{name: "items", match: matchField("items")},
	{name: "books", match: matchField("books")},
	{name: "first-array-field", match: matchFirstArrayField},
}

// NormalizeBooks extracts a book list from any of the response shapes the
// service has used. It never fails: unknown shapes give an empty slice and
// elements that do not decode as a Book are skipped.
func NormalizeBooks(raw []byte) []Book {
	books, _ := normalizeBooks(raw)
	return books
}

func normalizeBooks(raw []byte) ([]Book, string) {
	p := payload{raw: bytes.TrimSpace(raw)}
	p.fields, _ = objectFields(p.raw)
	for _, shape := range bookShapes {
		arr, ok := shape.match(p)
		if !ok {
			continue
		}
		return decodeBookArray(arr), shape.name
	}
	return []Book{}, ""
}

// DecodeBooks is the strict contract: the payload must be a JSON array of books.
func DecodeBooks(raw []byte) ([]Book, error) {
	trimmed := bytes.TrimSpace(raw)
	if !isArray(trimmed) {
		return nil, errors.New("decode books: payload is not an array")
	}
	var books []Book
	if err := json.Unmarshal(trimmed, &books); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}
	return books, nil
}

func matchBareArray(p payload) (json.RawMessage, bool) {
	if isArray(p.raw) {
		return p.raw, true
	}
	return nil, false
}

func matchField(name string) func(p payload) (json.RawMessage, bool) {
	return func(p payload) (json.RawMessage, bool) {
		for _, f := range p.fields {
			if f.name != name {
				continue
			}
			return f.value, isArray(f.value)
		}
		return nil, false
	}
}

func matchFirstArrayField(p payload) (json.RawMessage, bool) {
	for _, f := range p.fields {
		if isArray(f.value) {
			return f.value, true
		}
	}
	return nil, false
}

func isArray(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// objectFields walks a JSON object's top-level members in document order.
func objectFields(raw []byte) ([]field, error) {
	if len(raw) == 0 || raw[0] != '{' {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var fields []field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fields, err
		}
		name, ok := tok.(string)
		if !ok {
			return fields, fmt.Errorf("unexpected object key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			if errors.Is(err, io.EOF) {
				return fields, io.ErrUnexpectedEOF
			}
			return fields, err
		}
		fields = append(fields, field{name: name, value: value})
	}
	return fields, nil
}

func decodeBookArray(arr json.RawMessage) []Book {
	var elems []json.RawMessage
	if err := json.Unmarshal(arr, &elems); err != nil {
		return []Book{}
	}
	books := make([]Book, 0, len(elems))
	for _, elem := range elems {
		if trimmed := bytes.TrimSpace(elem); len(trimmed) == 0 || trimmed[0] != '{' {
			continue
		}
		var book Book
		if err := json.Unmarshal(elem, &book); err != nil {
			continue
		}
		books = append(books, book)
	}
	return books
}
