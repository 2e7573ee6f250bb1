package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumns is returned when a table lacks a required header.
var ErrMissingColumns = errors.New("missing required columns")

// RequireColumns returns ErrMissingColumns naming every header in want that
// is not in have.
func RequireColumns(have, want []string) error {
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[h] = struct{}{}
	}

	var missing []string
	for _, w := range want {
		if _, ok := set[w]; !ok {
			missing = append(missing, w)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}
