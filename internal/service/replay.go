package service

import "time"

// shouldReplayContexts reports whether the conversation sat idle long enough
// that the backend has likely expired its in-memory context. The boundary is
// inclusive: exactly at the threshold, replay fires.
func shouldReplayContexts(lastInteraction, now time.Time, threshold time.Duration) bool {
	return now.Sub(lastInteraction) >= threshold
}
