package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/talgya/boardgen/internal/mapgen"
)

const maxStreamConns = 8

// Envelope types on the generation stream.
const (
	TypeGenerate = "generate" // client → server, payload Params
	TypePhase    = "phase"    // server → client, payload PhaseEvent
	TypeDone     = "done"     // server → client, payload BoardSummary
	TypeError    = "error"    // server → client, payload ErrorBody
)

// Envelope frames every websocket message.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PhaseEvent reports one completed pipeline phase.
type PhaseEvent struct {
	Phase mapgen.Phase `json:"phase"`
	Index int          `json:"index"`
	Total int          `json:"total"`
}

// BoardSummary closes a generation on the stream. The full board is fetched
// from /api/v1/maps/{id} when it was saved.
type BoardSummary struct {
	ID       string       `json:"id,omitempty"`
	Seed     int64        `json:"seed"`
	Mode     mapgen.Mode  `json:"mode"`
	Template string       `json:"template,omitempty"`
	Shape    string       `json:"shape,omitempty"`
	Width    int          `json:"width"`
	Height   int          `json:"height"`
	Stats    mapgen.Stats `json:"statistics"`
}

// Summarize reduces a result to its stream summary.
func Summarize(id string, res *mapgen.Result) BoardSummary {
	return BoardSummary{
		ID:       id,
		Seed:     res.Seed,
		Mode:     res.Mode,
		Template: res.Template,
		Shape:    res.Shape,
		Width:    res.Width,
		Height:   res.Height,
		Stats:    res.Stats,
	}
}

// handleGenerateStream runs one generation per "generate" message and streams
// phase events back. ?save=1 stores each board.
func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	if s.streamConns.Add(1) > maxStreamConns {
		s.streamConns.Add(-1)
		writeError(w, http.StatusServiceUnavailable, "too many stream connections")
		return
	}
	defer s.streamConns.Add(-1)

	save := wantSave(r) && s.DB != nil
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	slog.Debug("stream client connected", "remote", conn.RemoteAddr())

	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("stream read ended", "error", err)
			}
			return
		}
		if env.Type != TypeGenerate {
			if !send(conn, TypeError, ErrorBody{Error: "unknown message type " + env.Type}) {
				return
			}
			continue
		}

		p := mapgen.DefaultParams()
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				if !send(conn, TypeError, ErrorBody{Error: "invalid params: " + err.Error()}) {
					return
				}
				continue
			}
		}

		if !s.streamOne(r, conn, p, save) {
			return
		}
	}
}

// streamOne generates a single board. It returns false once the connection
// is unusable.
func (s *Server) streamOne(r *http.Request, conn *websocket.Conn, p mapgen.Params, save bool) bool {
	ok := true
	index := 0
	progress := mapgen.WithProgress(func(ph mapgen.Phase) {
		index++
		if ok {
			ok = send(conn, TypePhase, PhaseEvent{Phase: ph, Index: index, Total: len(mapgen.Phases)})
		}
	})

	res, err := mapgen.Generate(r.Context(), p, progress)
	if !ok {
		return false
	}
	if err != nil {
		return send(conn, TypeError, ErrorBody{Error: err.Error()})
	}

	var id string
	if save {
		if id, err = s.DB.Save(r.Context(), res); err != nil {
			slog.Error("saving streamed map failed", "error", err)
			return send(conn, TypeError, ErrorBody{Error: "saving map failed"})
		}
	}
	return send(conn, TypeDone, Summarize(id, res))
}

func send(conn *websocket.Conn, typ string, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("encoding stream payload failed", "type", typ, "error", err)
		return false
	}
	if err := conn.WriteJSON(Envelope{Type: typ, Payload: data}); err != nil {
		slog.Debug("stream write failed", "error", err)
		return false
	}
	return true
}

