package checkpoint

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// dirPattern matches package directory names: a zero-padded sequence label,
// a dash, and a human-readable slug.
var dirPattern = regexp.MustCompile(`^(\d{4})-`)

// nextSequenceLabel derives the next zero-padded label by scanning existing
// package directories in root. The label is for human-readable ordering only;
// identity and uniqueness always come from PackageID.
func nextSequenceLabel(root string) (string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("scan collection %s: %w", root, err)
	}

	highest := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		m := dirPattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err == nil && n > highest {
			highest = n
		}
	}

	return fmt.Sprintf("%04d", highest+1), nil
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// slugify turns a posting title or reference into a short directory-safe
// slug.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugUnsafe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 40 {
		s = strings.Trim(s[:40], "-")
	}
	if s == "" {
		return "posting"
	}
	return s
}
