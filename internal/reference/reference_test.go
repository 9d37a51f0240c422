package reference

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateFormat(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	ref := Generate(now)

	assert.True(t, Pattern.MatchString(ref), "generated reference %q should match pattern", ref)
	assert.True(t, strings.HasPrefix(ref, "ETA-"))

	parts := strings.Split(ref, "-")
	assert.Len(t, parts, 3)

	ms, err := strconv.ParseInt(strings.ToLower(parts[1]), 36, 64)
	assert.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), ms)

	assert.Len(t, parts[2], 4)
}

func TestGenerateUnique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref := Generate(now)
		assert.False(t, seen[ref], "duplicate reference %q", ref)
		seen[ref] = true
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ETA-LX3K9M2F-A7QZ", Normalize("  eta-lx3k9m2f-a7qz "))
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("ETA-LX3K9M2F-A7QZ"))
	assert.True(t, IsValid("eta-lx3k9m2f-a7qz"))
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("ETA-"))
	assert.False(t, IsValid("REF-LX3K9M2F-A7QZ"))
	assert.False(t, IsValid("ETA-LX3K9M2F-A7Q"))
	assert.False(t, IsValid("ETA-LX3K9M2F-A7QZX"))
}
