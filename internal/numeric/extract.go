// Package numeric extracts and normalizes numeric literals from advisory text
// and plan data so that differently formatted figures compare equal.
package numeric

import (
	"encoding/json"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kind classifies how a number was written.
type Kind string

const (
	KindCurrency   Kind = "currency"
	KindPercentage Kind = "percentage"
	KindDecimal    Kind = "decimal"
)

// Match is one numeric literal found in text.
type Match struct {
	Raw    string  `json:"raw"`
	Kind   Kind    `json:"kind"`
	Value  float64 `json:"value"`
	Offset int     `json:"offset"`
}

// Candidates returns every normalized value the match may correspond to on
// the source side. A percentage may be stored either as written (73) or as a
// fraction (0.73).
func (m Match) Candidates() []float64 {
	if m.Kind == KindPercentage {
		return []float64{m.Value, Normalize(m.Value / 100)}
	}
	return []float64{m.Value}
}

const numberCore = `\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?|\.\d+`

// Alternatives are tried in priority order at each position: currency, then
// percentage, then bare decimal.
var literalRe = regexp.MustCompile(
	`(?i)(\$\s?(?:` + numberCore + `)(?:\s?(?:thousand|million|billion|k|m|b)\b)?)` +
		`|((?:` + numberCore + `)\s?%)` +
		`|(` + numberCore + `)`,
)

var suffixRe = regexp.MustCompile(`(?i)\s?(thousand|million|billion|k|m|b)$`)

// Normalize rounds v to six decimal places and drops the sign so that
// equivalent representations produce the same set key.
func Normalize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(math.Abs(v)*1e6) / 1e6
}

// Matches returns every numeric literal in text, in order of appearance.
func Matches(text string) []Match {
	text = norm.NFKC.String(text)

	locs := literalRe.FindAllStringSubmatchIndex(text, -1)
	out := make([]Match, 0, len(locs))
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		// A digit glued to a preceding letter or digit group is part of an
		// identifier such as "AL001" or "W2", not a figure.
		if start > 0 && isWordByte(text[start-1]) && text[start] != '$' {
			continue
		}

		raw := text[start:end]
		var kind Kind
		switch {
		case loc[2] >= 0:
			kind = KindCurrency
		case loc[4] >= 0:
			kind = KindPercentage
		default:
			kind = KindDecimal
		}

		v, ok := parseLiteral(raw, kind)
		if !ok {
			continue
		}
		out = append(out, Match{Raw: strings.TrimSpace(raw), Kind: kind, Value: v, Offset: start})
	}
	return out
}

// Extract returns the flat set of normalized values appearing in text.
func Extract(text string) Set {
	s := NewSet()
	for _, m := range Matches(text) {
		for _, c := range m.Candidates() {
			s.Add(c)
		}
	}
	return s
}

// ExtractValue walks a decoded JSON-like tree and returns every numeric leaf,
// plus any numbers embedded in string leaves.
func ExtractValue(v any) Set {
	s := NewSet()
	walk(reflect.ValueOf(v), s)
	return s
}

func walk(v reflect.Value, s Set) {
	if !v.IsValid() {
		return
	}

	if v.CanInterface() {
		if n, ok := v.Interface().(json.Number); ok {
			if f, err := n.Float64(); err == nil {
				s.Add(f)
			}
			return
		}
	}

	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if !v.IsNil() {
			walk(v.Elem(), s)
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			walk(iter.Value(), s)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			walk(v.Index(i), s)
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if v.Type().Field(i).IsExported() {
				walk(v.Field(i), s)
			}
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		s.Add(float64(v.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		s.Add(float64(v.Uint()))
	case reflect.Float32, reflect.Float64:
		s.Add(v.Float())
	case reflect.String:
		s.Merge(Extract(v.String()))
	}
}

func parseLiteral(raw string, kind Kind) (float64, bool) {
	s := strings.TrimSpace(raw)
	mult := 1.0

	switch kind {
	case KindCurrency:
		s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
		if m := suffixRe.FindStringSubmatch(s); m != nil {
			mult = magnitude(m[1])
			s = strings.TrimSpace(s[:len(s)-len(m[0])])
		}
	case KindPercentage:
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}

	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return Normalize(f * mult), true
}

func magnitude(suffix string) float64 {
	switch strings.ToLower(suffix) {
	case "k", "thousand":
		return 1e3
	case "m", "million":
		return 1e6
	case "b", "billion":
		return 1e9
	default:
		return 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b == '.' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
