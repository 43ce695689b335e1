// Package meet generates placeholder conferencing links for new bookings.
// There is no real Google Meet integration; codes only follow the familiar
// xxx-yyyy-zzz shape so downstream consumers can treat them uniformly.
package meet

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	baseURL  = "https://meet.google.com"
	alphabet = "abcdefghijkmnopqrstuvwxyz"
)

// LinkGenerator issues meeting links.
type LinkGenerator struct {
	base string
}

// NewLinkGenerator constructs a generator against the default base URL.
func NewLinkGenerator() *LinkGenerator {
	return &LinkGenerator{base: baseURL}
}

// NewLink returns a fresh meeting URL.
func (g *LinkGenerator) NewLink() (string, error) {
	code, err := meetingCode()
	if err != nil {
		return "", fmt.Errorf("generate meeting code: %w", err)
	}
	return fmt.Sprintf("%s/%s", g.base, code), nil
}

func meetingCode() (string, error) {
	segments := []int{3, 4, 3}
	parts := make([]string, 0, len(segments))
	for _, n := range segments {
		seg, err := randomSegment(n)
		if err != nil {
			return "", err
		}
		parts = append(parts, seg)
	}
	return strings.Join(parts, "-"), nil
}

func randomSegment(length int) (string, error) {
	var sb strings.Builder
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < length; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphabet[idx.Int64()])
	}
	return sb.String(), nil
}
