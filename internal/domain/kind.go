package domain

import (
	"fmt"
	"strings"
)

// Kind identifies one widget family. Every surface belongs to exactly one kind.
type Kind string

const (
	KindInjuries  Kind = "injuries"
	KindStandings Kind = "standings"
	KindScores    Kind = "scores"
	KindGames     Kind = "games"
)

// Kinds returns every known widget kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindInjuries, KindStandings, KindScores, KindGames}
}

// ParseKind resolves a case-insensitive kind name.
func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown widget kind %q", raw)
}

func (k Kind) String() string { return string(k) }
