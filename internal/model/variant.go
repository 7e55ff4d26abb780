package model

import (
	"errors"
	"strings"
)

// DefaultModelID is the card detection model used when no variant is named.
const DefaultModelID = "Matthieu68857/pokemon-cards-detection"

// ErrUnknownVariant is returned when the inference service does not know a
// model id.
var ErrUnknownVariant = errors.New("unknown model variant")

// Size aliases kept for callers of the older layout models. All of them
// resolve to the card detector.
var aliases = map[string]string{
	"nano":   DefaultModelID,
	"small":  DefaultModelID,
	"medium": DefaultModelID,
}

// ResolveModelID maps a variant name to a model id. The empty name and the
// size aliases resolve to DefaultModelID; anything else is taken as an
// explicit model id.
func ResolveModelID(variant string) string {
	v := strings.TrimSpace(variant)
	if v == "" {
		return DefaultModelID
	}
	if id, ok := aliases[strings.ToLower(v)]; ok {
		return id
	}
	return v
}
