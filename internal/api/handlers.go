package api

import (
	"net/http"

	"github.com/sprite-ai/sigscan/internal/detect"
	"github.com/sprite-ai/sigscan/internal/diff"
	"github.com/sprite-ai/sigscan/internal/router"
	"github.com/sprite-ai/sigscan/internal/signal"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Profiles ---

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"profiles": router.Profiles()})
}

// --- Analyze ---

type analyzeRequest struct {
	Content      string                `json:"content"`
	Path         string                `json:"path"`
	Profile      string                `json:"profile,omitempty"`
	Ranges       []signal.ChangedRange `json:"ranges,omitempty"`
	ContextLines int                   `json:"context_lines,omitempty"`
}

type analyzeResponse struct {
	Path        string               `json:"path"`
	MaxSeverity string               `json:"max_severity"`
	Summary     signal.SignalSummary `json:"summary"`
	Signals     []signal.Signal      `json:"signals"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	signals, err := router.Analyze(req.Content, req.Path, req.Profile, detect.Options{
		ChangedRanges: req.Ranges,
		ContextLines:  req.ContextLines,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Path:        req.Path,
		MaxSeverity: string(signal.MaxSeverity(signals)),
		Summary:     signal.Summarize(signals),
		Signals:     signals,
	})
}

// --- Check ---

type checkRequest struct {
	Diff         string            `json:"diff"`
	Files        map[string]string `json:"files"`
	Profile      string            `json:"profile,omitempty"`
	ContextLines int               `json:"context_lines,omitempty"`
}

type checkResponse struct {
	MaxSeverity string               `json:"max_severity"`
	Total       int                  `json:"total"`
	Stats       diffStatsJSON        `json:"stats"`
	Files       []signal.FileSignals `json:"files"`
}

type diffStatsJSON struct {
	Files   int `json:"files"`
	Added   int `json:"added"`
	Deleted int `json:"deleted"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if req.Diff == "" {
		writeError(w, http.StatusBadRequest, "diff is required")
		return
	}

	resp, err := runCheck(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// runCheck parses a diff, scopes detection to the changed ranges, and
// analyzes every file the caller supplied content for. Files in the diff
// without content are skipped rather than rejected so callers can send a
// partial worktree.
func runCheck(req checkRequest) (checkResponse, error) {
	ds, err := diff.Parse(req.Diff)
	if err != nil {
		return checkResponse{}, err
	}

	ranges := ds.ChangedRanges()
	nFiles, added, deleted := ds.Stats()

	resp := checkResponse{
		Stats: diffStatsJSON{Files: nFiles, Added: added, Deleted: deleted},
	}

	maxSev := signal.SeverityInfo
	for _, f := range ds.Files {
		if f.IsDeleted || f.IsBinary {
			continue
		}
		path := f.Path()
		content, ok := req.Files[path]
		if !ok {
			continue
		}
		signals, err := router.Analyze(content, path, req.Profile, detect.Options{
			ChangedRanges: ranges[path],
			ContextLines:  req.ContextLines,
		})
		if err != nil {
			return checkResponse{}, err
		}
		resp.Files = append(resp.Files, signal.FileSignals{
			Path:    path,
			Signals: signals,
			Summary: signal.Summarize(signals),
		})
		resp.Total += len(signals)
		if sev := signal.MaxSeverity(signals); sev.Rank() > maxSev.Rank() {
			maxSev = sev
		}
	}
	resp.MaxSeverity = string(maxSev)

	return resp, nil
}

// --- Parse ---

type parseRequest struct {
	Diff string `json:"diff"`
}

type parseResponse struct {
	Files []fileJSON    `json:"files"`
	Stats diffStatsJSON `json:"stats"`
}

type fileJSON struct {
	Name         string                `json:"name"`
	OldName      string                `json:"old_name,omitempty"`
	NewName      string                `json:"new_name,omitempty"`
	IsNew        bool                  `json:"is_new,omitempty"`
	IsDeleted    bool                  `json:"is_deleted,omitempty"`
	IsRenamed    bool                  `json:"is_renamed,omitempty"`
	AddedLines   int                   `json:"added_lines"`
	DeletedLines int                   `json:"deleted_lines"`
	Ranges       []signal.ChangedRange `json:"ranges,omitempty"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if req.Diff == "" {
		writeError(w, http.StatusBadRequest, "diff is required")
		return
	}

	ds, err := diff.Parse(req.Diff)
	if err != nil {
		writeError(w, http.StatusBadRequest, "parsing diff: "+err.Error())
		return
	}

	nFiles, added, deleted := ds.Stats()
	resp := parseResponse{
		Stats: diffStatsJSON{Files: nFiles, Added: added, Deleted: deleted},
	}

	for _, f := range ds.Files {
		resp.Files = append(resp.Files, fileJSON{
			Name:         f.Name(),
			OldName:      f.OldName,
			NewName:      f.NewName,
			IsNew:        f.IsNew,
			IsDeleted:    f.IsDeleted,
			IsRenamed:    f.IsRenamed,
			AddedLines:   f.AddedLines,
			DeletedLines: f.DeletedLines,
			Ranges:       f.Ranges(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
