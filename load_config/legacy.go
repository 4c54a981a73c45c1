package load_config

import "strings"

// LegacyPair is one decoded "name,value" property. Name is kept for
// diagnostics only and is never checked.
type LegacyPair struct {
	Name  string
	Value string
}

// DecodeLegacyPair decodes the "name,value" encoding the upstream load
// planner uses for some properties. The value is the second comma separated
// token; anything after a further comma is ignored.
func DecodeLegacyPair(property, raw string) (LegacyPair, error) {
	tokens := strings.Split(raw, ",")
	if len(tokens) < 2 || tokens[1] == "" {
		return LegacyPair{}, &ConfigurationError{
			Property: property,
			Value:    raw,
			Reason:   "expected \"name,value\"",
		}
	}
	return LegacyPair{Name: tokens[0], Value: tokens[1]}, nil
}
