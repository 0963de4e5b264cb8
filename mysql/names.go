package mysql

import (
	"fmt"
	"strings"
)

func sanitizePrefix(prefix string) (string, error) {
	if prefix == "" {
		return "", ErrPrefixRequired
	}
	parts := strings.Split(prefix, ".")
	for _, part := range parts {
		if part == "" {
			return "", fmt.Errorf("%w: %s", ErrInvalidPrefix, prefix)
		}
		for _, r := range part {
			if r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				continue
			}

			return "", fmt.Errorf("%w: %s", ErrInvalidPrefix, prefix)
		}
	}

	return prefix, nil
}
