package dialogue

// Transcript roles used by the backend contract.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Stage ordinals of the PULSE sales methodology.
const (
	StageProbe = iota + 1
	StageUnderstand
	StageLink
	StageSolve
	StageEarn
)

var stageNames = map[int]string{
	StageProbe:      "Probe",
	StageUnderstand: "Understand",
	StageLink:       "Link",
	StageSolve:      "Solve",
	StageEarn:       "Earn",
}

// StageName returns the display name for a stage ordinal, or an empty string
// for ordinals outside 1-5.
func StageName(stage int) string {
	return stageNames[stage]
}

// HistoryEntry is one transcript entry as the backend expects it: role and
// content only, timestamps deliberately dropped.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StartSessionRequest opens a new training session.
type StartSessionRequest struct {
	UserID    string `json:"userId"`
	PersonaID string `json:"personaId"`
	AvatarID  string `json:"avatarId,omitempty"`
	VoiceID   string `json:"voiceId,omitempty"`
}

// StartSessionResponse carries the new session and the persona's opener.
type StartSessionResponse struct {
	SessionID    string `json:"sessionId"`
	PersonaID    string `json:"personaId"`
	PersonaName  string `json:"personaName"`
	Difficulty   string `json:"difficulty"`
	Description  string `json:"description"`
	Greeting     string `json:"greeting"`
	CurrentStage int    `json:"currentStage"`
	StageName    string `json:"stageName"`
	TrustScore   int    `json:"trustScore"`
	AvatarID     string `json:"avatarId,omitempty"`
	VoiceID      string `json:"voiceId,omitempty"`
}

// ExchangeRequest is one dialogue turn sent to the backend.
type ExchangeRequest struct {
	SessionID           string         `json:"sessionId"`
	Message             string         `json:"message"`
	PersonaID           string         `json:"personaId"`
	CurrentStage        int            `json:"currentStage"`
	TrustScore          int            `json:"trustScore"`
	ConversationHistory []HistoryEntry `json:"conversationHistory"`
}

// Misstep is a detected policy or behavioral violation in the trainee's
// input. EndsSession marks violations severe enough to terminate the session.
type Misstep struct {
	ID           string `json:"id"`
	Severity     string `json:"severity"`
	TrustPenalty int    `json:"trust_penalty"`
	ResponseHint string `json:"response_hint"`
	EndsSession  bool   `json:"ends_session"`
	Reason       string `json:"reason,omitempty"`
}

// ExchangeResponse is the normalized result of one dialogue exchange.
type ExchangeResponse struct {
	SessionID string `json:"sessionId"`
	Response  string `json:"response"`
	Emotion   string `json:"emotion"`

	CurrentStage int    `json:"currentStage"`
	StageName    string `json:"stageName"`
	TrustScore   int    `json:"trustScore"`
	SaleOutcome  string `json:"saleOutcome"`

	Missteps []Misstep `json:"missteps"`

	EngagementLevel      int    `json:"engagementLevel"`
	EngagementTrend      string `json:"engagementTrend"`
	BuyingSignalStrength int    `json:"buyingSignalStrength"`
	ReadyToClose         bool   `json:"readyToClose"`

	AudioURL    string `json:"audioUrl,omitempty"`
	AudioBase64 string `json:"audioBase64,omitempty"`
}

// EndsSession reports whether any detected misstep terminates the session.
func (r *ExchangeResponse) EndsSession() bool {
	for _, misstep := range r.Missteps {
		if misstep.EndsSession {
			return true
		}
	}
	return false
}

// CompleteRequest closes a session and submits the material the scorecard is
// built from.
type CompleteRequest struct {
	SessionID           string         `json:"sessionId"`
	ConversationHistory []HistoryEntry `json:"conversationHistory"`
	CurrentStage        int            `json:"currentStage"`
	TrustScore          int            `json:"trustScore"`
	SaleOutcome         string         `json:"saleOutcome"`
	Missteps            []Misstep      `json:"missteps"`
	PersonaID           string         `json:"personaId"`
}
