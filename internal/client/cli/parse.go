package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iudanet/annosync/internal/models"
)

func parsePoint(xs, ys string) (models.Point, error) {
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return models.Point{}, fmt.Errorf("invalid x %q", xs)
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return models.Point{}, fmt.Errorf("invalid y %q", ys)
	}
	return models.Point{X: x, Y: y}, nil
}

func parsePositiveFloat(s, name string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive number", name, s)
	}
	return v, nil
}

func parsePage(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid page %q: must be a positive integer", s)
	}
	return n, nil
}

// resolveID matches a typed id or unique id prefix against the known
// annotations, so the prompt does not require full UUIDs.
func resolveID(prefix string, all []models.Annotation) (string, error) {
	var matches []string
	for _, a := range all {
		if a.ID == prefix {
			return a.ID, nil
		}
		if strings.HasPrefix(a.ID, prefix) {
			matches = append(matches, a.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no annotation matches %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%q is ambiguous: %d annotations match", prefix, len(matches))
	}
}
