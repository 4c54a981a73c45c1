// Package header splits, sniffs and validates the column-name header of a
// delimited input against a table's schema.
package header

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type (
	Source int

	// Header is a raw header line and where it came from.
	Header struct {
		Raw       string
		Delimiter string
		Source    Source
		// FileName is only set for HeaderFromFile and only used in diagnostics
		FileName string
	}

	// MatchOptions controls how header names are compared to column names.
	MatchOptions struct {
		CaseSensitive bool
		TrimSpace     bool
		// FoldAccents strips combining marks, so "Město" matches "Mesto"
		FoldAccents bool
		// StrictOrder requires the header to list columns in schema order
		StrictOrder bool
	}
)

const (
	HeaderFromDDL Source = iota
	HeaderFromFile
)

const utf8BOM = "\uFEFF"

var ErrEmptyHeader = errors.New("empty header line")

// DefaultMatchOptions compares names case-insensitively after trimming.
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{TrimSpace: true}
}

func (s Source) String() string {
	if s == HeaderFromFile {
		return "file"
	}
	return "ddl"
}

// Explicit wraps a header supplied with the load request. Explicit headers are
// always comma separated regardless of the data delimiter.
func Explicit(raw string) Header {
	return Header{Raw: raw, Delimiter: ",", Source: HeaderFromDDL}
}

// FromFile sniffs the header from the first line of the file at path.
func FromFile(path, delimiter string) (Header, error) {
	raw, err := SniffFileHeader(path)
	if err != nil {
		return Header{}, err
	}
	return Header{
		Raw:       raw,
		Delimiter: delimiter,
		Source:    HeaderFromFile,
		FileName:  filepath.Base(path),
	}, nil
}

// SniffFileHeader returns the first line of the file without reading the rest.
func SniffFileHeader(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("error in os.Open: %w", err)
	}
	defer f.Close()
	return ReadHeaderLine(f)
}

// ReadHeaderLine reads the first line of r, stripping a BOM and line ending.
func ReadHeaderLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("error reading header line: %w", err)
	}
	line = strings.TrimPrefix(line, utf8BOM)
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return "", ErrEmptyHeader
	}
	return line, nil
}

// GetColumnFields splits a header line into column names, dropping surrounding
// quotes. Whitespace is left in place.
func GetColumnFields(header, delimiter string) []string {
	if delimiter == "" {
		delimiter = ","
	}
	parts := strings.Split(header, delimiter)
	out := make([]string, len(parts))
	for i, p := range parts {
		// padding around the quotes is kept, MatchOptions.TrimSpace decides on it
		core := strings.TrimSpace(p)
		if len(core) >= 2 && core[0] == '"' && core[len(core)-1] == '"' {
			start := strings.Index(p, core)
			p = p[:start] + core[1:len(core)-1] + p[start+len(core):]
		}
		out[i] = p
	}
	return out
}

// Fields is GetColumnFields on the header's own delimiter.
func (h Header) Fields() []string {
	return GetColumnFields(h.Raw, h.Delimiter)
}

// Normalize applies the match options to one name.
func (o MatchOptions) Normalize(name string) string {
	if o.TrimSpace {
		name = strings.TrimSpace(name)
	}
	if o.FoldAccents {
		t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
		if folded, _, err := transform.String(t, name); err == nil {
			name = folded
		}
	}
	if !o.CaseSensitive {
		name = cases.Fold().String(name)
	}
	return name
}
