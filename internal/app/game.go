package app

import (
	"context"
	"math"
	"sync"

	"ordprov-service/internal/domain"
)

// Phase is the lifecycle state of one play-through.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseLoading    Phase = "loading"
	PhaseInProgress Phase = "in_progress"
	PhaseRevealed   Phase = "revealed"
	PhaseFinished   Phase = "finished"
)

// QuestionSource provides the item set for a round. Bank-backed modes
// return a shuffled slice; AI mode generates one.
type QuestionSource interface {
	Questions(ctx context.Context, mode domain.Mode) ([]domain.QuizItem, error)
}

// Game drives one play-through: question progression, answer scoring and
// completion. It is owned by a single client connection; the mutex only
// guards against the transport's reader and observers overlapping.
type Game struct {
	source QuestionSource

	mu       sync.Mutex
	phase    Phase
	mode     domain.Mode
	items    []domain.QuizItem
	index    int
	score    int
	selected string
	revealed bool
	total    int // attempted total, fixed at finish
}

// NewGame returns a game in NotStarted.
func NewGame(source QuestionSource) *Game {
	return &Game{source: source, phase: PhaseNotStarted}
}

// Start fetches the item set for mode and enters the first question. On
// an empty or failed fetch the game returns to NotStarted so the player
// can try again; the error says which of the two happened.
func (g *Game) Start(ctx context.Context, mode domain.Mode) error {
	g.mu.Lock()
	if g.phase != PhaseNotStarted {
		g.mu.Unlock()
		if g.phase == PhaseFinished {
			return domain.ErrGameFinished
		}
		return domain.ErrGameNotStarted
	}
	g.phase = PhaseLoading
	g.mode = mode
	g.mu.Unlock()

	items, err := g.source.Questions(ctx, mode)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.phase = PhaseNotStarted
		return err
	}
	if len(items) == 0 {
		g.phase = PhaseNotStarted
		return domain.ErrNoQuestions
	}

	g.items = items
	g.index = 0
	g.score = 0
	g.selected = ""
	g.revealed = false
	g.phase = PhaseInProgress
	return nil
}

// SelectOption records the player's pick for the current word and reveals
// the outcome. Calling it again while the outcome is already shown is a
// no-op, so a double click can never double-count a correct answer.
func (g *Game) SelectOption(key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.phase {
	case PhaseRevealed:
		return g.selected == g.items[g.index].Answer, nil
	case PhaseInProgress:
	case PhaseFinished:
		return false, domain.ErrGameFinished
	default:
		return false, domain.ErrGameNotStarted
	}

	item := g.items[g.index]
	if _, ok := item.Options[key]; !ok {
		return false, domain.ErrUnknownOption
	}

	g.selected = key
	g.revealed = true
	g.phase = PhaseRevealed

	correct := key == item.Answer
	if correct {
		g.score++
	}
	return correct, nil
}

// Advance moves past a revealed word. On the last word the game finishes
// and reports true; otherwise the cursor moves on and the selection is
// cleared.
func (g *Game) Advance() (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.phase {
	case PhaseRevealed:
	case PhaseInProgress:
		return false, domain.ErrNoSelection
	case PhaseFinished:
		return false, domain.ErrGameFinished
	default:
		return false, domain.ErrGameNotStarted
	}

	if g.index == len(g.items)-1 {
		g.finishLocked()
		return true, nil
	}

	g.index++
	g.selected = ""
	g.revealed = false
	g.phase = PhaseInProgress
	return false, nil
}

// FinishEarly ends the round from the middle. A word whose outcome was
// shown counts toward the attempted total; a word still waiting for an
// answer counts in neither numerator nor denominator.
func (g *Game) FinishEarly() (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.phase {
	case PhaseInProgress, PhaseRevealed:
		g.finishLocked()
	case PhaseFinished:
	default:
		return Result{}, domain.ErrGameNotStarted
	}
	return g.resultLocked(), nil
}

func (g *Game) finishLocked() {
	g.total = g.index
	if g.revealed {
		g.total++
	}
	g.phase = PhaseFinished
}

// Result is the locally computed outcome of a finished round. It is shown
// to the player regardless of whether persisting it succeeds.
type Result struct {
	Mode       domain.Mode `json:"mode"`
	Score      int         `json:"score"`
	Total      int         `json:"total"`
	Percentage float64     `json:"percentage"`
}

// Result returns the outcome; ok is false until the game has finished.
func (g *Game) Result() (Result, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseFinished {
		return Result{}, false
	}
	return g.resultLocked(), true
}

func (g *Game) resultLocked() Result {
	pct := 0.0
	if g.total > 0 {
		pct = float64(g.score) / float64(g.total) * 100
	}
	return Result{Mode: g.mode, Score: g.score, Total: g.total, Percentage: pct}
}

// Precision is the live hit rate over words whose outcome has been
// shown, rounded to whole percent. Zero before anything is revealed.
func (g *Game) Precision() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.precisionLocked()
}

func (g *Game) precisionLocked() int {
	var shown int
	switch {
	case g.phase == PhaseFinished:
		shown = g.total
	case g.revealed:
		shown = g.index + 1
	default:
		shown = g.index
	}
	if shown == 0 {
		return 0
	}
	return int(math.Round(float64(g.score) / float64(shown) * 100))
}

// State is a render-ready snapshot of the game. The correct answer is
// included only once the current word's outcome has been revealed.
type State struct {
	Phase     Phase             `json:"phase"`
	Mode      domain.Mode       `json:"mode,omitempty"`
	Index     int               `json:"index"`
	Count     int               `json:"count"`
	Score     int               `json:"score"`
	Precision int               `json:"precision"`
	Word      string            `json:"word,omitempty"`
	Options   map[string]string `json:"options,omitempty"`
	Year      domain.Year       `json:"year,omitempty"`
	Term      string            `json:"term,omitempty"`
	Selected  string            `json:"selected,omitempty"`
	Answer    string            `json:"answer,omitempty"`
}

// Snapshot returns the observable state for the rendering layer.
func (g *Game) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	state := State{
		Phase:     g.phase,
		Mode:      g.mode,
		Index:     g.index,
		Count:     len(g.items),
		Score:     g.score,
		Precision: g.precisionLocked(),
	}

	if g.phase == PhaseInProgress || g.phase == PhaseRevealed {
		item := g.items[g.index]
		state.Word = item.Word
		state.Options = item.Options
		state.Year = item.Year
		state.Term = item.Term
		state.Selected = g.selected
		if g.revealed {
			state.Answer = item.Answer
		}
	}
	return state
}

// GameService builds games over a shared question source.
type GameService struct {
	source QuestionSource
}

func NewGameService(source QuestionSource) *GameService {
	return &GameService{source: source}
}

// NewGame returns a fresh, unstarted game. Starting a new one discards
// the previous session entirely; nothing is shared between them.
func (s *GameService) NewGame() *Game {
	return NewGame(s.source)
}
