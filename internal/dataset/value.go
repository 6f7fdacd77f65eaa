package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the scalar type held by a Value.
type Kind int

const (
	// KindNull represents an absent cell.
	KindNull Kind = iota
	// KindNumber represents a numeric cell.
	KindNumber
	// KindString represents a textual cell.
	KindString
)

// Value is a single immutable cell of a Dataset. The zero value is null.
type Value struct {
	kind Kind
	num  float64
	str  string
}

// Null returns an absent cell.
func Null() Value {
	return Value{kind: KindNull}
}

// Number returns a numeric cell.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// String returns a textual cell.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Kind returns the scalar type of the cell.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the cell is absent.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Float returns the numeric content of the cell. The second return is false
// for null and string cells.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Text returns the cell rendered as a string. Null cells render empty;
// numbers use the shortest representation that round-trips.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Numeric attempts a numeric reading of the cell. Numbers pass through;
// strings are trimmed, stripped of currency symbols and thousand separators,
// then parsed. The second return is false when no numeric reading exists.
func (v Value) Numeric() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		s := strings.TrimSpace(v.str)
		if s == "" {
			return 0, false
		}
		s = strings.ReplaceAll(s, "$", "")
		s = strings.ReplaceAll(s, "¥", "")
		s = strings.ReplaceAll(s, ",", "")
		s = strings.TrimSpace(s)
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Equal compares two cells for exact equality. Numeric NaN cells are treated
// as equal to each other so that duplicate detection is stable.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) && math.IsNaN(other.num) {
			return true
		}
		return v.num == other.num
	case KindString:
		return v.str == other.str
	default:
		return true
	}
}

// String implements fmt.Stringer for diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "<null>"
	case KindNumber:
		return fmt.Sprintf("Number(%s)", strconv.FormatFloat(v.num, 'f', -1, 64))
	default:
		return fmt.Sprintf("String(%q)", v.str)
	}
}

// fingerprint appends an unambiguous encoding of the cell to b.
func (v Value) fingerprint(b *strings.Builder) {
	switch v.kind {
	case KindNull:
		b.WriteString("_|")
	case KindNumber:
		b.WriteString("n")
		b.WriteString(strconv.FormatFloat(v.num, 'g', -1, 64))
		b.WriteString("|")
	default:
		b.WriteString("s")
		b.WriteString(strconv.Itoa(len(v.str)))
		b.WriteString(":")
		b.WriteString(v.str)
		b.WriteString("|")
	}
}
