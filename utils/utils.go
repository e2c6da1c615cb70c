package utils

import (
	"math/rand"
	"sync"
	"time"
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyz0123456789"

var (
	randMu  sync.Mutex
	randSrc = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// ContainsString returns true iff the provided string slice hay contains string
// needle.
func ContainsString(hay []string, needle string) bool {
	for _, str := range hay {
		if str == needle {
			return true
		}
	}
	return false
}

// RandomAlphabetString returns a random string of lowercase letters.
func RandomAlphabetString(length int) string {
	return randomString(length, alphanumeric[:26])
}

// RandomAlphanumericString returns a random string of lowercase letters and
// digits, used for session and participant codes.
func RandomAlphanumericString(length int) string {
	return randomString(length, alphanumeric)
}

func randomString(length int, charset string) string {
	randMu.Lock()
	defer randMu.Unlock()
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[randSrc.Intn(len(charset))]
	}
	return string(b)
}

// StringPtr returns nil for the empty string, a pointer to s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringOrEmpty dereferences s, nil becomes "".
func StringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
