package utils

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"
)

const referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewBookingReference builds a human-readable booking code: the "BK"
// prefix, the current Unix millisecond timestamp in base 36, and six
// random alphanumeric characters. The timestamp keeps codes roughly
// sortable by creation time; true uniqueness is enforced by the
// database, and callers regenerate on a collision.
func NewBookingReference() (string, error) {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	for i, b := range suffix {
		suffix[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return "BK" + strings.ToUpper(ts) + string(suffix), nil
}
