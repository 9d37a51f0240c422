// Package reference generates and recognises application reference numbers.
package reference

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Pattern matches well-formed reference numbers, e.g. ETA-LX3K9M2F-A7QZ.
var Pattern = regexp.MustCompile(`^ETA-[0-9A-Z]+-[0-9A-Z]{4}$`)

// Generate produces a reference of the form ETA-<timestamp>-<suffix>, where
// the timestamp is the current epoch milliseconds in base36 and the suffix is
// four random base36 characters. Uppercased for display.
func Generate(now time.Time) string {
	ts := strconv.FormatInt(now.UnixMilli(), 36)

	suffix := make([]byte, 4)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			// crypto/rand failing means the platform entropy source is
			// broken; fall back to a time-derived index so generation
			// still terminates.
			suffix[i] = alphabet[int(now.UnixNano()>>uint(i*8))%len(alphabet)]
			continue
		}
		suffix[i] = alphabet[n.Int64()]
	}

	return strings.ToUpper("eta-" + ts + "-" + string(suffix))
}

// Normalize uppercases and trims a user-entered reference so lookups are
// forgiving about casing and stray whitespace.
func Normalize(ref string) string {
	return strings.ToUpper(strings.TrimSpace(ref))
}

// IsValid reports whether ref (after normalisation) looks like a reference
// this service could have issued.
func IsValid(ref string) bool {
	return Pattern.MatchString(Normalize(ref))
}
