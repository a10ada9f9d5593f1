package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

const testDiff = `diff --git a/src/auth.ts b/src/auth.ts
new file mode 100644
--- /dev/null
+++ b/src/auth.ts
@@ -0,0 +1,4 @@
+export async function login() {
+  const apiKey = { api_key: "sk_live_abcdef123456" };
+  await fetch("/login");
+}
`

const testContent = `export async function login() {
  const apiKey = { api_key: "sk_live_abcdef123456" };
  await fetch("/login");
}
`

func newTestServer() *Server {
	return New(":0")
}

func postJSON(t *testing.T, srv *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %q", resp["status"])
	}
}

func TestProfilesEndpoint(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/profiles", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp map[string][]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	profiles := resp["profiles"]
	if len(profiles) == 0 || profiles[0] != "auto" {
		t.Errorf("expected auto first, got %v", profiles)
	}
	found := false
	for _, p := range profiles {
		if p == "generic" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected generic in %v", profiles)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	srv := newTestServer()

	w := postJSON(t, srv, "/api/analyze", analyzeRequest{
		Content: testContent,
		Path:    "src/auth.ts",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp analyzeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json decode: %v", err)
	}

	if resp.Path != "src/auth.ts" {
		t.Errorf("path = %q", resp.Path)
	}
	if resp.MaxSeverity != "blocker" {
		t.Errorf("expected blocker from hardcoded secret, got %q", resp.MaxSeverity)
	}
	found := false
	for _, sig := range resp.Signals {
		if sig.ID == "hardcoded-secret" {
			found = true
		}
	}
	if !found {
		t.Error("expected a hardcoded-secret signal")
	}
	if resp.Summary.Total != len(resp.Signals) {
		t.Errorf("summary total %d != %d signals", resp.Summary.Total, len(resp.Signals))
	}
}

func TestAnalyzeMissingContent(t *testing.T) {
	srv := newTestServer()

	w := postJSON(t, srv, "/api/analyze", analyzeRequest{Path: "a.ts"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAnalyzeUnknownProfile(t *testing.T) {
	srv := newTestServer()

	w := postJSON(t, srv, "/api/analyze", analyzeRequest{
		Content: "let x = 1;\n",
		Path:    "a.ts",
		Profile: "fortran",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCheckEndpoint(t *testing.T) {
	srv := newTestServer()

	w := postJSON(t, srv, "/api/check", checkRequest{
		Diff:  testDiff,
		Files: map[string]string{"src/auth.ts": testContent},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp checkResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json decode: %v", err)
	}

	if resp.Stats.Files != 1 || resp.Stats.Added != 4 {
		t.Errorf("stats = %+v", resp.Stats)
	}
	if len(resp.Files) != 1 || resp.Files[0].Path != "src/auth.ts" {
		t.Fatalf("files = %+v", resp.Files)
	}
	if resp.MaxSeverity != "blocker" {
		t.Errorf("expected blocker, got %q", resp.MaxSeverity)
	}
	if resp.Files[0].Summary.ChangedLineSignals == 0 {
		t.Error("expected signals on changed lines")
	}
}

func TestCheckSkipsFilesWithoutContent(t *testing.T) {
	srv := newTestServer()

	w := postJSON(t, srv, "/api/check", checkRequest{Diff: testDiff})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp checkResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if len(resp.Files) != 0 || resp.Total != 0 {
		t.Errorf("expected no analyzed files, got %+v", resp)
	}
	if resp.MaxSeverity != "info" {
		t.Errorf("expected info, got %q", resp.MaxSeverity)
	}
}

func TestCheckInvalidJSON(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/check", strings.NewReader("{bad json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestParseEndpoint(t *testing.T) {
	srv := newTestServer()

	w := postJSON(t, srv, "/api/parse", parseRequest{Diff: testDiff})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp parseResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json decode: %v", err)
	}

	if len(resp.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(resp.Files))
	}
	f := resp.Files[0]
	if f.Name != "src/auth.ts" || !f.IsNew {
		t.Errorf("file = %+v", f)
	}
	if len(f.Ranges) != 1 || f.Ranges[0].StartLine != 1 || f.Ranges[0].EndLine != 4 {
		t.Errorf("ranges = %+v", f.Ranges)
	}
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	return conn
}

func TestWebSocketTriageSession(t *testing.T) {
	srv := newTestServer()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialWS(t, ts)
	defer conn.Close()

	loadData, _ := json.Marshal(wsLoadCheck{
		Diff:  testDiff,
		Files: map[string]string{"src/auth.ts": testContent},
	})
	if err := conn.WriteJSON(wsMessage{Type: wsMsgLoadCheck, Data: loadData}); err != nil {
		t.Fatalf("ws write: %v", err)
	}

	var msg1 wsMessage
	if err := conn.ReadJSON(&msg1); err != nil {
		t.Fatalf("ws read parsed: %v", err)
	}
	if msg1.Type != wsMsgParsed {
		t.Errorf("expected parsed, got %q", msg1.Type)
	}

	var msg2 wsMessage
	if err := conn.ReadJSON(&msg2); err != nil {
		t.Fatalf("ws read signals: %v", err)
	}
	if msg2.Type != wsMsgSignals {
		t.Errorf("expected signals, got %q", msg2.Type)
	}

	var sigs wsSignalsResponse
	if err := json.Unmarshal(msg2.Data, &sigs); err != nil {
		t.Fatalf("unmarshal signals: %v", err)
	}
	if sigs.Total < 2 {
		t.Fatalf("expected at least 2 signals, got %d", sigs.Total)
	}
	if sigs.MaxSeverity != "blocker" {
		t.Errorf("expected blocker, got %q", sigs.MaxSeverity)
	}

	// Acknowledge the network call, dismiss the secret.
	ackData, _ := json.Marshal(wsTriageMsg{Path: "src/auth.ts", ID: "network-call", Line: 3})
	conn.WriteJSON(wsMessage{Type: wsMsgAcknowledge, Data: ackData})

	var msg3 wsMessage
	if err := conn.ReadJSON(&msg3); err != nil {
		t.Fatalf("ws read triage: %v", err)
	}
	if msg3.Type != wsMsgTriage {
		t.Fatalf("expected triage, got %q", msg3.Type)
	}
	var tr wsTriageResponse
	json.Unmarshal(msg3.Data, &tr)
	if tr.State != "acknowledged" {
		t.Errorf("expected acknowledged, got %q", tr.State)
	}

	disData, _ := json.Marshal(wsTriageMsg{Path: "src/auth.ts", ID: "hardcoded-secret", Line: 2})
	conn.WriteJSON(wsMessage{Type: wsMsgDismiss, Data: disData})
	var msg4 wsMessage
	if err := conn.ReadJSON(&msg4); err != nil {
		t.Fatalf("ws read dismiss: %v", err)
	}
	if msg4.Type != wsMsgTriage {
		t.Fatalf("expected triage, got %q", msg4.Type)
	}

	conn.WriteJSON(wsMessage{Type: wsMsgFinish})
	var msg5 wsMessage
	if err := conn.ReadJSON(&msg5); err != nil {
		t.Fatalf("ws read summary: %v", err)
	}
	if msg5.Type != wsMsgSummary {
		t.Fatalf("expected summary, got %q", msg5.Type)
	}

	var summary wsSummaryResponse
	if err := json.Unmarshal(msg5.Data, &summary); err != nil {
		t.Fatalf("unmarshal summary: %v", err)
	}
	if summary.Acknowledged != 1 || summary.Dismissed != 1 {
		t.Errorf("expected 1 acknowledged and 1 dismissed, got %d/%d", summary.Acknowledged, summary.Dismissed)
	}
	if summary.Pending != sigs.Total-2 {
		t.Errorf("expected %d pending, got %d", sigs.Total-2, summary.Pending)
	}
}

func TestWebSocketTriageUnknownSignal(t *testing.T) {
	srv := newTestServer()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialWS(t, ts)
	defer conn.Close()

	loadData, _ := json.Marshal(wsLoadCheck{
		Diff:  testDiff,
		Files: map[string]string{"src/auth.ts": testContent},
	})
	conn.WriteJSON(wsMessage{Type: wsMsgLoadCheck, Data: loadData})
	conn.ReadJSON(&wsMessage{})
	conn.ReadJSON(&wsMessage{})

	ackData, _ := json.Marshal(wsTriageMsg{Path: "src/auth.ts", ID: "no-such-rule", Line: 1})
	conn.WriteJSON(wsMessage{Type: wsMsgAcknowledge, Data: ackData})

	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ws read: %v", err)
	}
	if msg.Type != wsMsgError {
		t.Errorf("expected error, got %q", msg.Type)
	}
}

func TestWebSocketUndo(t *testing.T) {
	srv := newTestServer()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialWS(t, ts)
	defer conn.Close()

	loadData, _ := json.Marshal(wsLoadCheck{
		Diff:  testDiff,
		Files: map[string]string{"src/auth.ts": testContent},
	})
	conn.WriteJSON(wsMessage{Type: wsMsgLoadCheck, Data: loadData})
	conn.ReadJSON(&wsMessage{})
	conn.ReadJSON(&wsMessage{})

	ackData, _ := json.Marshal(wsTriageMsg{Path: "src/auth.ts", ID: "network-call", Line: 3})
	conn.WriteJSON(wsMessage{Type: wsMsgAcknowledge, Data: ackData})
	conn.ReadJSON(&wsMessage{})

	conn.WriteJSON(wsMessage{Type: wsMsgUndo, Data: ackData})

	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ws read undo: %v", err)
	}

	var tr wsTriageResponse
	json.Unmarshal(msg.Data, &tr)
	if tr.State != "pending" {
		t.Errorf("expected pending after undo, got %q", tr.State)
	}
}

func TestWebSocketUnknownMessage(t *testing.T) {
	srv := newTestServer()
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialWS(t, ts)
	defer conn.Close()

	conn.WriteJSON(wsMessage{Type: "bogus"})

	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ws read: %v", err)
	}
	if msg.Type != wsMsgError {
		t.Errorf("expected error, got %q", msg.Type)
	}
}
