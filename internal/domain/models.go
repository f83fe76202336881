package domain

import (
	"encoding/json"
	"time"
)

// sentinel emitted by the extraction model for fields it could not read.
const placeholderValue = "N/A"

// Year is the exam year of a question. Bank files store it as a JSON
// number; AI-generated items use symbolic tags like "AI", so it accepts
// either form on the wire.
type Year string

func (y *Year) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*y = Year(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*y = Year(n.String())
	return nil
}

// QuizItem is one ORD question: a word and five labeled options (A-E),
// exactly one of which is the closest synonym.
type QuizItem struct {
	Word    string            `json:"word"`
	Options map[string]string `json:"options"`
	Answer  string            `json:"answer"`
	Year    Year              `json:"year"`
	Term    string            `json:"term"`
	Source  string            `json:"source"`
}

// Valid reports whether the item survived extraction intact. Upstream
// parsing occasionally emits empty or placeholder fields; those items are
// dropped silently rather than surfaced to players.
func (q QuizItem) Valid() bool {
	if q.Word == "" || q.Word == placeholderValue {
		return false
	}
	if len(q.Options) == 0 {
		return false
	}
	for _, text := range q.Options {
		if text == "" || text == placeholderValue {
			return false
		}
	}
	if q.Answer == "" || q.Answer == placeholderValue {
		return false
	}
	if _, ok := q.Options[q.Answer]; !ok {
		return false
	}
	return true
}

// Mode is a named play configuration. It determines how many items a
// round serves and which leaderboard partition results land in.
type Mode string

const (
	// ModeStora is the classic 40-word full test.
	ModeStora Mode = "stora"
	// ModeSnabb is a short 10-word drill.
	ModeSnabb Mode = "snabb"
	// ModeMaraton is an unbounded endurance run ranked by precision.
	ModeMaraton Mode = "maraton"
	// ModeAI serves freshly generated words instead of bank items.
	ModeAI Mode = "ai"
)

// DefaultMode is used when a request does not name a mode.
const DefaultMode = ModeMaraton

// ParseMode validates a mode tag from the wire.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeStora, ModeSnabb, ModeMaraton, ModeAI:
		return Mode(s), nil
	}
	return "", ErrUnknownMode
}

// ItemLimit returns how many items the mode serves; 0 means unbounded.
func (m Mode) ItemLimit() int {
	switch m {
	case ModeStora:
		return 40
	case ModeSnabb, ModeAI:
		return 10
	default:
		return 0
	}
}

// Generated reports whether the mode synthesizes items on demand instead
// of drawing from the bank.
func (m Mode) Generated() bool {
	return m == ModeAI
}

// Identity describes the player as resolved from the sign-in provider.
// Zero-value fields fall back to the guest path.
type Identity struct {
	Subject string
	Name    string
	Email   string
	Image   string
}

const (
	// GuestUserID marks records submitted without a provider session.
	GuestUserID = "guest"
	// AnonymousName is the display name of last resort.
	AnonymousName = "Anonym"
)

// ScoreRecord is one persisted outcome of a finished or abandoned round.
// Records are write-once: the application never updates or deletes them.
type ScoreRecord struct {
	ID         string    `json:"id,omitempty"`
	UserID     string    `json:"userId"`
	UserName   string    `json:"userName"`
	UserImage  string    `json:"userImage,omitempty"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Percentage float64   `json:"percentage"`
	Time       float64   `json:"time"`
	Mode       Mode      `json:"mode"`
	CreatedAt  time.Time `json:"createdAt"`
}
