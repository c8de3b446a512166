package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// SizeSpec describes the sizes a product is offered in. It is either
// FlatSizes or GenderedSizes; a product without sizes has a nil SizeSpec.
type SizeSpec interface {
	// Offers reports whether size is offered for gender. FlatSizes ignores gender.
	Offers(gender, size string) bool
	isSizeSpec()
}

// FlatSizes is an ordered list of size labels, e.g. XS through XXL.
type FlatSizes []string

func (FlatSizes) isSizeSpec() {}

// Offers reports whether size is one of the labels.
func (f FlatSizes) Offers(_, size string) bool {
	return slices.Contains(f, size)
}

// GenderSizes is the size list for one gender.
type GenderSizes struct {
	Gender string
	Sizes  []string
}

// GenderedSizes maps gender labels to size lists, keeping the catalog's order.
type GenderedSizes []GenderSizes

func (GenderedSizes) isSizeSpec() {}

// Genders returns the gender labels in catalog order.
func (g GenderedSizes) Genders() []string {
	out := make([]string, len(g))
	for i, gs := range g {
		out[i] = gs.Gender
	}
	return out
}

// Lookup returns the sizes offered for gender.
func (g GenderedSizes) Lookup(gender string) ([]string, bool) {
	for _, gs := range g {
		if gs.Gender == gender {
			return gs.Sizes, true
		}
	}
	return nil, false
}

// Offers reports whether size is listed under gender.
func (g GenderedSizes) Offers(gender, size string) bool {
	sizes, ok := g.Lookup(gender)
	return ok && slices.Contains(sizes, size)
}

// MarshalJSON encodes the mapping as a JSON object in catalog order.
func (g GenderedSizes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, gs := range g {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(gs.Gender)
		if err != nil {
			return nil, err
		}
		sizes := gs.Sizes
		if sizes == nil {
			sizes = []string{}
		}
		val, err := json.Marshal(sizes)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of gender -> sizes, preserving key order.
func (g *GenderedSizes) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("gendered sizes: expected object")
	}

	var out GenderedSizes
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		gender, _ := tok.(string)
		if _, dup := out.Lookup(gender); dup {
			return fmt.Errorf("gendered sizes: duplicate gender %q", gender)
		}
		var sizes []string
		if err := dec.Decode(&sizes); err != nil {
			return fmt.Errorf("gendered sizes: %s: %w", gender, err)
		}
		out = append(out, GenderSizes{Gender: gender, Sizes: sizes})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*g = out
	return nil
}

// ParseSizeSpec decodes the JSON form of a SizeSpec: an array is FlatSizes, an
// object is GenderedSizes, and null or empty input means no sizes.
func ParseSizeSpec(raw json.RawMessage) (SizeSpec, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var flat FlatSizes
		if err := json.Unmarshal(trimmed, &flat); err != nil {
			return nil, fmt.Errorf("flat sizes: %w", err)
		}
		return flat, nil
	case '{':
		var gendered GenderedSizes
		if err := json.Unmarshal(trimmed, &gendered); err != nil {
			return nil, err
		}
		return gendered, nil
	default:
		return nil, fmt.Errorf("sizes must be an array or an object, got %s", trimmed)
	}
}
