package sqlite

import "fmt"

func sanitizePrefix(prefix string) (string, error) {
	if prefix == "" {
		return "", ErrPrefixRequired
	}
	for _, r := range prefix {
		if r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}

		return "", fmt.Errorf("%w: %s", ErrInvalidPrefix, prefix)
	}

	return prefix, nil
}
