package commentservice

import "strings"

// Blacklist is an immutable set of words comments may not contain.
type Blacklist struct {
	words map[string]struct{}
}

func NewBlacklist(words []string) *Blacklist {
	b := &Blacklist{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			b.words[w] = struct{}{}
		}
	}
	return b
}

// Contains reports whether any whitespace separated word of text is blacklisted, ignoring case.
func (b *Blacklist) Contains(text string) bool {
	if b == nil || len(b.words) == 0 {
		return false
	}

	for _, w := range strings.Fields(strings.ToLower(text)) {
		if _, ok := b.words[w]; ok {
			return true
		}
	}
	return false
}

func (b *Blacklist) Len() int {
	if b == nil {
		return 0
	}
	return len(b.words)
}
