package query

import (
	"errors"
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"
)

var (
	ErrUnknownColumn    = errors.New("query: unknown column")
	ErrNotFilterable    = errors.New("query: column is not filterable")
	ErrNotSortable      = errors.New("query: column is not sortable")
	ErrShapeMismatch    = errors.New("query: filter value does not match column variant")
	ErrInvalidDirection = errors.New("query: sort direction must be asc or desc")
	ErrInvalidPageSize  = errors.New("query: page size must be positive")
	ErrDuplicateSort    = errors.New("query: column listed twice in sort")
)

// unknownColumn wraps ErrUnknownColumn with the closest known id, if any is near.
func unknownColumn(id string, known []string) error {
	if best := closest(id, known); best != "" {
		return fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownColumn, id, best)
	}
	return fmt.Errorf("%w %q", ErrUnknownColumn, id)
}

func closest(id string, known []string) string {
	if id == "" || len(known) == 0 {
		return ""
	}
	candidates := append([]string(nil), known...)
	sort.Strings(candidates)
	best, bestDist := "", -1
	for _, k := range candidates {
		d := levenshtein.ComputeDistance(id, k)
		if bestDist < 0 || d < bestDist {
			best, bestDist = k, d
		}
	}
	// Anything further than half the id length is noise.
	if bestDist > (len(id)+1)/2 {
		return ""
	}
	return best
}
