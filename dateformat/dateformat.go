package dateformat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultTimestampFormat = "yyyy-MM-dd HH:mm:ss"
	DefaultDateFormat      = "yyyy-MM-dd"
)

var (
	ErrMalformedSpec = errors.New("malformed date format spec")
	ErrEmptyValue    = errors.New("empty date value")
)

// ParseSpec parses "col1:pattern1,col2:pattern2" into a map keyed by
// lower-cased column name. Patterns may contain ':' (HH:mm:ss).
func ParseSpec(spec string) (map[string]string, error) {
	out := make(map[string]string)
	if strings.TrimSpace(spec) == "" {
		return out, nil
	}
	for _, entry := range strings.Split(spec, ",") {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		kv := strings.SplitN(entry, ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("entry %q: %w", entry, ErrMalformedSpec)
		}
		col := strings.ToLower(strings.TrimSpace(kv[0]))
		pattern := strings.TrimSpace(kv[1])
		if col == "" || pattern == "" {
			return nil, fmt.Errorf("entry %q: %w", entry, ErrMalformedSpec)
		}
		out[col] = pattern
	}
	return out, nil
}

// pattern tokens, longest first so "yyyy" wins over "yy"
var tokens = []struct {
	pattern string
	layout  string
}{
	{"yyyy", "2006"},
	{"yy", "06"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"M", "1"},
	{"dd", "02"},
	{"d", "2"},
	{"EEEE", "Monday"},
	{"EEE", "Mon"},
	{"HH", "15"},
	{"H", "15"},
	{"hh", "03"},
	{"h", "3"},
	{"mm", "04"},
	{"m", "4"},
	{"ss", "05"},
	{"s", "5"},
	{"SSS", "000"},
	{"a", "PM"},
	{"XXX", "-07:00"},
	{"Z", "-0700"},
	{"z", "MST"},
}

// literalMark stands in for quoted text in a layout. Go layouts have no
// escape, so quoted text is matched against the value by Parse instead.
const literalMark = "|"

// split breaks pattern at its quoted literals. layouts always has one more
// element than literals. An empty pair of quotes is a literal single quote.
func split(pattern string) (layouts, literals []string) {
	var b strings.Builder
	for i := 0; i < len(pattern); {
		if pattern[i] != '\'' {
			b.WriteByte(pattern[i])
			i++
			continue
		}
		end := strings.IndexByte(pattern[i+1:], '\'')
		var lit string
		if end < 0 {
			lit = pattern[i+1:]
			i = len(pattern)
		} else {
			lit = pattern[i+1 : i+1+end]
			i += end + 2
		}
		if lit == "" {
			lit = "'"
		}
		layouts = append(layouts, b.String())
		literals = append(literals, lit)
		b.Reset()
	}
	return append(layouts, b.String()), literals
}

func convertTokens(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); {
		matched := false
		for _, tok := range tokens {
			if strings.HasPrefix(pattern[i:], tok.pattern) {
				b.WriteString(tok.layout)
				i += len(tok.pattern)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(pattern[i])
			i++
		}
	}
	return b.String()
}

// ToLayout converts a SimpleDateFormat style pattern (yyyy-MM-dd HH:mm:ss)
// into a Go time layout. Each quoted literal becomes a "|" placeholder.
func ToLayout(pattern string) string {
	layouts, _ := split(pattern)
	for i := range layouts {
		layouts[i] = convertTokens(layouts[i])
	}
	return strings.Join(layouts, literalMark)
}

// stripLiterals replaces the pattern's literals in value with the placeholder,
// searching left to right.
func stripLiterals(value string, layouts, literals []string) (string, error) {
	var b strings.Builder
	pos := 0
	for i, lit := range literals {
		from := pos
		if layouts[i] != "" && from < len(value) {
			from++
		}
		idx := strings.Index(value[from:], lit)
		if idx < 0 {
			return "", fmt.Errorf("literal %q not found in %q", lit, value)
		}
		idx += from
		b.WriteString(value[pos:idx])
		b.WriteString(literalMark)
		pos = idx + len(lit)
	}
	b.WriteString(value[pos:])
	return b.String(), nil
}

// Parse reads value with the given SimpleDateFormat pattern. Bare integers are
// taken as unix milliseconds.
func Parse(value, pattern string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrEmptyValue
	}
	layouts, literals := split(pattern)
	stripped, err := stripLiterals(value, layouts, literals)
	if err == nil {
		var t time.Time
		if t, err = time.Parse(ToLayout(pattern), stripped); err == nil {
			return t, nil
		}
	}
	if ms, intErr := strconv.ParseInt(value, 10, 64); intErr == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("error in time.Parse for %q with pattern %q: %w", value, pattern, err)
}
