package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"ordprov-service/internal/app"
	"ordprov-service/internal/domain"
)

// GameHandler drives the session state machine over a websocket. The
// browser is a pure observer: it dispatches discrete actions and renders
// the state snapshots it gets back. One connection owns one game; actions
// are processed one at a time in connection order.
type GameHandler struct {
	games    *app.GameService
	scores   *app.ScoreService
	upgrader websocket.Upgrader
}

func NewGameHandler(games *app.GameService, scores *app.ScoreService) *GameHandler {
	return &GameHandler{
		games:  games,
		scores: scores,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Mode string `json:"mode"`
}

type selectPayload struct {
	Option string `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

type finishedPayload struct {
	app.Result
	Saved bool `json:"saved"`
}

// ServeWS upgrades the request and runs the action loop until the game
// finishes or the client goes away.
func (h *GameHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromRequest(r)
	guestName := r.URL.Query().Get("name")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	game := h.games.NewGame()
	h.sendState(conn, game)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		switch inbound.Type {
		case "start":
			h.handleStart(r.Context(), conn, game, inbound.Payload)
		case "select":
			h.handleSelect(conn, game, inbound.Payload)
		case "advance":
			if h.handleAdvance(r.Context(), conn, game, identity, guestName) {
				return
			}
		case "finish":
			h.handleFinish(r.Context(), conn, game, identity, guestName)
			return
		default:
			h.sendError(conn, "unsupported message type", false)
		}
	}
}

func (h *GameHandler) handleStart(ctx context.Context, conn *websocket.Conn, game *app.Game, payload json.RawMessage) {
	var start startPayload
	if err := json.Unmarshal(payload, &start); err != nil {
		h.sendError(conn, "invalid start payload", false)
		return
	}
	mode, err := domain.ParseMode(start.Mode)
	if err != nil {
		h.sendError(conn, err.Error(), false)
		return
	}

	if err := game.Start(ctx, mode); err != nil {
		// Both an empty bank and a failed generation leave the game in
		// NotStarted; the client shows "try again" either way, with a
		// generation-specific message for the AI path.
		h.sendError(conn, err.Error(), true)
		h.sendState(conn, game)
		return
	}
	h.sendState(conn, game)
}

func (h *GameHandler) handleSelect(conn *websocket.Conn, game *app.Game, payload json.RawMessage) {
	var sel selectPayload
	if err := json.Unmarshal(payload, &sel); err != nil {
		h.sendError(conn, "invalid select payload", false)
		return
	}
	if _, err := game.SelectOption(sel.Option); err != nil {
		h.sendError(conn, err.Error(), false)
		return
	}
	h.sendState(conn, game)
}

// handleAdvance reports true when the advance finished the round.
func (h *GameHandler) handleAdvance(ctx context.Context, conn *websocket.Conn, game *app.Game, identity domain.Identity, guestName string) bool {
	finished, err := game.Advance()
	if err != nil {
		h.sendError(conn, err.Error(), false)
		return false
	}
	if !finished {
		h.sendState(conn, game)
		return false
	}

	result, _ := game.Result()
	h.finishRound(ctx, conn, result, identity, guestName)
	return true
}

func (h *GameHandler) handleFinish(ctx context.Context, conn *websocket.Conn, game *app.Game, identity domain.Identity, guestName string) {
	result, err := game.FinishEarly()
	if err != nil {
		h.sendError(conn, err.Error(), false)
		return
	}
	h.finishRound(ctx, conn, result, identity, guestName)
}

// finishRound persists the outcome and sends it to the client. A failed
// write is a notice, not a blocker: the locally computed result is shown
// regardless.
func (h *GameHandler) finishRound(ctx context.Context, conn *websocket.Conn, result app.Result, identity domain.Identity, guestName string) {
	if result.Total == 0 {
		// Nothing was attempted; there is nothing to rank.
		h.send(conn, outboundMessage[finishedPayload]{
			Type:    "finished",
			Payload: finishedPayload{Result: result, Saved: false},
		})
		return
	}

	saved := true
	_, err := h.scores.Submit(ctx, app.Submission{
		Score:     result.Score,
		Total:     result.Total,
		GuestName: guestName,
		Mode:      result.Mode,
	}, identity)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidSubmission) {
			log.Printf("score submission failed: %v", err)
		}
		saved = false
	}

	h.send(conn, outboundMessage[finishedPayload]{
		Type:    "finished",
		Payload: finishedPayload{Result: result, Saved: saved},
	})
}

func (h *GameHandler) sendState(conn *websocket.Conn, game *app.Game) {
	h.send(conn, outboundMessage[app.State]{Type: "state", Payload: game.Snapshot()})
}

func (h *GameHandler) sendError(conn *websocket.Conn, message string, retryable bool) {
	h.send(conn, outboundMessage[errorPayload]{
		Type:    "error",
		Payload: errorPayload{Message: message, Retryable: retryable},
	})
}

func (h *GameHandler) send(conn *websocket.Conn, msg interface{}) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("ws write error: %v", err)
	}
}
