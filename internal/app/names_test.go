package app

import (
	"regexp"
	"testing"
)

func TestGenerateNameShape(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-z]{5}[0-9]{3}$`)
	for i := 0; i < 100; i++ {
		name := generateName()
		if !pattern.MatchString(name) {
			t.Fatalf("unexpected name %q", name)
		}
		seen := make(map[byte]bool)
		for j := 0; j < len(name); j++ {
			if seen[name[j]] {
				t.Fatalf("repeated character in %q", name)
			}
			seen[name[j]] = true
		}
	}
}
