package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/sprite-ai/sigscan/internal/detect"
	"github.com/sprite-ai/sigscan/internal/router"
	"github.com/sprite-ai/sigscan/internal/signal"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 64,
	WriteBufferSize: 1024 * 64,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local dev; restrict in production
	},
}

// WebSocket message types from client.
const (
	wsMsgLoadCheck   = "load_check"
	wsMsgAnalyzeFile = "analyze"
	wsMsgAcknowledge = "acknowledge"
	wsMsgDismiss     = "dismiss"
	wsMsgUndo        = "undo"
	wsMsgFinish      = "finish"
)

// WebSocket message types to client.
const (
	wsMsgParsed  = "parsed"
	wsMsgSignals = "signals"
	wsMsgTriage  = "triage"
	wsMsgSummary = "summary"
	wsMsgError   = "error"
)

// wsMessage is the envelope for WebSocket messages in both directions.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsLoadCheck is the payload for "load_check" messages.
type wsLoadCheck struct {
	Diff         string            `json:"diff"`
	Files        map[string]string `json:"files"`
	Profile      string            `json:"profile,omitempty"`
	ContextLines int               `json:"context_lines,omitempty"`
}

// wsAnalyzeFile is the payload for "analyze" messages.
type wsAnalyzeFile struct {
	Content string `json:"content"`
	Path    string `json:"path"`
	Profile string `json:"profile,omitempty"`
}

// wsTriageMsg is the payload for acknowledge/dismiss/undo messages. A
// signal is addressed by its file path, rule id, and first matching line.
type wsTriageMsg struct {
	Path string `json:"path"`
	ID   string `json:"id"`
	Line int    `json:"line"`
}

// wsSignalsResponse carries detection results for one or more files.
type wsSignalsResponse struct {
	MaxSeverity string               `json:"max_severity"`
	Total       int                  `json:"total"`
	Files       []signal.FileSignals `json:"files"`
}

// wsTriageResponse confirms a triage decision.
type wsTriageResponse struct {
	Path  string `json:"path"`
	ID    string `json:"id"`
	Line  int    `json:"line"`
	State string `json:"state"`
}

// wsSummaryResponse is sent when the session is finished.
type wsSummaryResponse struct {
	Acknowledged int `json:"acknowledged"`
	Dismissed    int `json:"dismissed"`
	Pending      int `json:"pending"`
}

// signalSession holds the state for one WebSocket triage session.
type signalSession struct {
	files     []signal.FileSignals
	decisions map[string]string
}

func triageKey(path, id string, line int) string {
	return fmt.Sprintf("%s:%s:%d", path, id, line)
}

func (sess *signalSession) hasSignal(path, id string, line int) bool {
	for _, f := range sess.files {
		if f.Path != path {
			continue
		}
		for _, sig := range f.Signals {
			if sig.ID == id && len(sig.Lines) > 0 && sig.Lines[0] == line {
				return true
			}
		}
	}
	return false
}

func (sess *signalSession) total() int {
	n := 0
	for _, f := range sess.files {
		n += len(f.Signals)
	}
	return n
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	session := &signalSession{
		decisions: make(map[string]string),
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read: %v", err)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			sendWSError(conn, "invalid message format")
			continue
		}

		switch msg.Type {
		case wsMsgLoadCheck:
			handleWSLoadCheck(conn, session, msg.Data)
		case wsMsgAnalyzeFile:
			handleWSAnalyzeFile(conn, session, msg.Data)
		case wsMsgAcknowledge:
			handleWSTriage(conn, session, msg.Data, "acknowledged")
		case wsMsgDismiss:
			handleWSTriage(conn, session, msg.Data, "dismissed")
		case wsMsgUndo:
			handleWSUndo(conn, session, msg.Data)
		case wsMsgFinish:
			handleWSFinish(conn, session)
		default:
			sendWSError(conn, "unknown message type: "+msg.Type)
		}
	}
}

func handleWSLoadCheck(conn *websocket.Conn, session *signalSession, data json.RawMessage) {
	var req wsLoadCheck
	if err := json.Unmarshal(data, &req); err != nil {
		sendWSError(conn, "invalid load_check data")
		return
	}

	resp, err := runCheck(checkRequest{
		Diff:         req.Diff,
		Files:        req.Files,
		Profile:      req.Profile,
		ContextLines: req.ContextLines,
	})
	if err != nil {
		sendWSError(conn, "running check: "+err.Error())
		return
	}

	session.files = resp.Files
	session.decisions = make(map[string]string)

	sendWSMessage(conn, wsMsgParsed, parseFromCheck(resp))
	sendWSMessage(conn, wsMsgSignals, wsSignalsResponse{
		MaxSeverity: resp.MaxSeverity,
		Total:       resp.Total,
		Files:       resp.Files,
	})
}

// parseFromCheck reduces a check response to the parsed envelope so clients
// get diff shape before the (larger) signal payload.
func parseFromCheck(resp checkResponse) parseResponse {
	out := parseResponse{Stats: resp.Stats}
	for _, f := range resp.Files {
		out.Files = append(out.Files, fileJSON{Name: f.Path})
	}
	return out
}

func handleWSAnalyzeFile(conn *websocket.Conn, session *signalSession, data json.RawMessage) {
	var req wsAnalyzeFile
	if err := json.Unmarshal(data, &req); err != nil {
		sendWSError(conn, "invalid analyze data")
		return
	}

	if req.Content == "" || req.Path == "" {
		sendWSError(conn, "content and path are required")
		return
	}

	signals, err := router.Analyze(req.Content, req.Path, req.Profile, detect.Options{})
	if err != nil {
		sendWSError(conn, err.Error())
		return
	}

	fs := signal.FileSignals{
		Path:    req.Path,
		Signals: signals,
		Summary: signal.Summarize(signals),
	}
	session.files = append(session.files, fs)

	sendWSMessage(conn, wsMsgSignals, wsSignalsResponse{
		MaxSeverity: string(signal.MaxSeverity(signals)),
		Total:       len(signals),
		Files:       []signal.FileSignals{fs},
	})
}

func handleWSTriage(conn *websocket.Conn, session *signalSession, data json.RawMessage, state string) {
	if session.files == nil {
		sendWSError(conn, "no signals loaded")
		return
	}

	var req wsTriageMsg
	if err := json.Unmarshal(data, &req); err != nil {
		sendWSError(conn, "invalid triage data")
		return
	}

	if !session.hasSignal(req.Path, req.ID, req.Line) {
		sendWSError(conn, "no such signal")
		return
	}

	session.decisions[triageKey(req.Path, req.ID, req.Line)] = state

	sendWSMessage(conn, wsMsgTriage, wsTriageResponse{
		Path:  req.Path,
		ID:    req.ID,
		Line:  req.Line,
		State: state,
	})
}

func handleWSUndo(conn *websocket.Conn, session *signalSession, data json.RawMessage) {
	if session.files == nil {
		sendWSError(conn, "no signals loaded")
		return
	}

	var req wsTriageMsg
	if err := json.Unmarshal(data, &req); err != nil {
		sendWSError(conn, "invalid undo data")
		return
	}

	delete(session.decisions, triageKey(req.Path, req.ID, req.Line))

	sendWSMessage(conn, wsMsgTriage, wsTriageResponse{
		Path:  req.Path,
		ID:    req.ID,
		Line:  req.Line,
		State: "pending",
	})
}

func handleWSFinish(conn *websocket.Conn, session *signalSession) {
	if session.files == nil {
		sendWSError(conn, "no signals loaded")
		return
	}

	var acknowledged, dismissed int
	for _, state := range session.decisions {
		switch state {
		case "acknowledged":
			acknowledged++
		case "dismissed":
			dismissed++
		}
	}

	sendWSMessage(conn, wsMsgSummary, wsSummaryResponse{
		Acknowledged: acknowledged,
		Dismissed:    dismissed,
		Pending:      session.total() - acknowledged - dismissed,
	})
}

func sendWSMessage(conn *websocket.Conn, msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("ws marshal: %v", err)
		return
	}
	msg := wsMessage{Type: msgType, Data: raw}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("ws write: %v", err)
	}
}

func sendWSError(conn *websocket.Conn, errMsg string) {
	sendWSMessage(conn, wsMsgError, map[string]string{"message": errMsg})
}
