package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/himanishpuri/automapper/pkg/automapper/chart"
)

// PatternKey renders a zone sequence as "a,b,c".
func PatternKey(zones []int) string {
	var b strings.Builder
	for i, z := range zones {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(z))
	}
	return b.String()
}

// ParsePattern is the inverse of PatternKey.
func ParsePattern(key string) ([]int, error) {
	if key == "" {
		return nil, nil
	}
	parts := strings.Split(key, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		z, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", key, err)
		}
		if !chart.Valid(z) {
			return nil, fmt.Errorf("invalid pattern %q: zone %d out of range", key, z)
		}
		out[i] = z
	}
	return out, nil
}

// ContextKey renders the zone preceding a 3-gram plus the 3-gram: "p|a,b,c".
func ContextKey(prev int, gram []int) string {
	return strconv.Itoa(prev) + "|" + PatternKey(gram)
}

func splitPair(key, sep string) (string, string, error) {
	a, b, ok := strings.Cut(key, sep)
	if !ok {
		return "", "", fmt.Errorf("invalid key %q: missing %q", key, sep)
	}
	return a, b, nil
}

func atoiZone(s string) (int, error) {
	z, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if !chart.Valid(z) {
		return 0, fmt.Errorf("zone %d out of range", z)
	}
	return z, nil
}
