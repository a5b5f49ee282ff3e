package model

import "time"

// PromptCacheEntry is a single cached, composed prompt.
type PromptCacheEntry struct {
	Hash         string
	SystemPrompt string
	Context      string
	CreatedAt    time.Time
	LastUsed     time.Time
	HitCount     int
	TTL          time.Duration
}

// Expired reports whether the entry's sliding TTL has lapsed as of now.
func (e PromptCacheEntry) Expired(now time.Time) bool {
	return now.After(e.LastUsed.Add(e.TTL))
}
