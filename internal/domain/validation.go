package domain

import "regexp"

// sha256 hex: ровно 64 символа [0-9a-f]
var checksumRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

func ValidChecksum(s string) bool {
	return checksumRe.MatchString(s)
}
