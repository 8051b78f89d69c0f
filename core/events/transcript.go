package events

// KindTranscriptAppended identifies transcript append operations.
const KindTranscriptAppended Kind = "transcript.appended"

// TranscriptAppended carries one entry appended to the visible transcript.
// User entries are appended optimistically before the dialogue exchange and
// are never rolled back.
type TranscriptAppended struct {
	Base
	Role    string
	Content string
}

// NewTranscriptAppended creates a transcript append event.
func NewTranscriptAppended(role, content string) TranscriptAppended {
	return TranscriptAppended{Base: NewBase(KindTranscriptAppended), Role: role, Content: content}
}
