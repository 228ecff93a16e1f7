package app

import (
	"math/rand"
	"sync"
	"time"
)

var nameRand = struct {
	mu sync.Mutex
	r  *rand.Rand
}{r: rand.New(rand.NewSource(time.Now().UnixNano()))}

// generateName builds a guest display name: five random lowercase letters
// followed by three random digits, with no repeated characters within either
// group.
func generateName() string {
	nameRand.mu.Lock()
	defer nameRand.mu.Unlock()

	letters := []byte("abcdefghijklmnopqrstuvwxyz")
	nameRand.r.Shuffle(len(letters), func(i, j int) { letters[i], letters[j] = letters[j], letters[i] })

	digits := []byte("0123456789")
	nameRand.r.Shuffle(len(digits), func(i, j int) { digits[i], digits[j] = digits[j], digits[i] })

	return string(letters[:5]) + string(digits[:3])
}
