package orchestration

import (
	"sync"
	"time"

	"github.com/dmarkovic/trainer-core/core/dialogue"
	"github.com/jinzhu/copier"
)

// TranscriptEntry is one visible transcript line.
type TranscriptEntry struct {
	Role      string
	Content   string
	Timestamp time.Time
}

// conversation is the session transcript. User entries are appended
// optimistically before the exchange and are never rolled back.
type conversation struct {
	mu      sync.RWMutex
	entries []TranscriptEntry
}

func (c *conversation) append(role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, TranscriptEntry{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// Snapshot returns a point-in-time copy of the transcript.
func (c *conversation) Snapshot() []TranscriptEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]TranscriptEntry, len(c.entries))
	copy(entries, c.entries)
	return entries
}

// history projects the transcript into the role+content shape the backend
// expects, dropping timestamps.
func (c *conversation) history() []dialogue.HistoryEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	history := make([]dialogue.HistoryEntry, 0, len(c.entries))
	if err := copier.Copy(&history, &c.entries); err != nil {
		for _, entry := range c.entries {
			history = append(history, dialogue.HistoryEntry{Role: entry.Role, Content: entry.Content})
		}
	}
	return history
}
