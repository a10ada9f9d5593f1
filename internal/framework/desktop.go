package framework

import (
	"regexp"
	"strings"

	"github.com/sprite-ai/sigscan/internal/detect"
	"github.com/sprite-ai/sigscan/internal/signal"
)

var (
	electronMarker = regexp.MustCompile(`require\(['"]electron['"]\)|from\s+['"]electron['"]`)
	tauriMarker    = regexp.MustCompile(`from\s+['"]@tauri-apps/|__TAURI__`)

	nodeIntegration = regexp.MustCompile(`nodeIntegration\s*:\s*true`)
	ctxIsolationOff = regexp.MustCompile(`contextIsolation\s*:\s*false`)
	webSecurityOff  = regexp.MustCompile(`webSecurity\s*:\s*false`)
	shellOpenExt    = regexp.MustCompile(`shell\.openExternal\s*\(`)
	remoteModule    = regexp.MustCompile(`require\(['"]@electron/remote['"]\)|enableRemoteModule\s*:\s*true`)
	tauriInvoke     = regexp.MustCompile(`\binvoke\s*\(\s*['"]\w+['"]\s*,`)
	tauriDangerous  = regexp.MustCompile(`dangerousDisableAssetCspModification|\ball\s*:\s*true`)
)

// desktopVariant is the one-shot runtime classification. Electron markers
// take priority over Tauri markers.
func desktopVariant(content string) string {
	switch {
	case electronMarker.MatchString(content):
		return "electron"
	case tauriMarker.MatchString(content):
		return "tauri"
	default:
		return ""
	}
}

// Desktop is the layer for Electron and Tauri shell files.
func Desktop() Layer {
	return Layer{
		Name: "desktop",
		Applies: func(content, path string) bool {
			return desktopVariant(content) != ""
		},
		Probes: []detect.Probe{
			desktopProbe,
		},
	}
}

// desktopProbe classifies the runtime once and runs its probe subset.
func desktopProbe(f *detect.File) []signal.Signal {
	switch desktopVariant(f.Content) {
	case "electron":
		return append(detect.ScanRules(f, electronRules), shellOpenSignals(f)...)
	case "tauri":
		return detect.ScanRules(f, tauriRules)
	}
	return nil
}

var electronRules = []detect.Rule{
	{
		ID:       "desktop-security-node-integration",
		Title:    "nodeIntegration enabled",
		Category: "desktop",
		Pattern:  nodeIntegration,
		Weight:   0.8,
		Tags:     []string{"security"},
		Reason:   "renderer content gets full Node access; any XSS becomes code execution",
		Actions: []signal.ActionRecommendation{{
			Type: "fix", Text: "disable nodeIntegration and expose a preload bridge instead",
		}},
	},
	{
		ID:       "desktop-security-context-isolation",
		Title:    "contextIsolation disabled",
		Category: "desktop",
		Pattern:  ctxIsolationOff,
		Weight:   0.8,
		Tags:     []string{"security"},
		Reason:   "page scripts can reach into the preload realm when isolation is off",
		Actions: []signal.ActionRecommendation{{
			Type: "fix", Text: "keep contextIsolation on and move the bridge into a preload script",
		}},
	},
	{
		ID:       "desktop-web-security-disabled",
		Title:    "webSecurity disabled",
		Category: "desktop",
		Pattern:  webSecurityOff,
		Weight:   0.7,
		Tags:     []string{"security"},
		Reason:   "disables same-origin checks for every loaded page",
		Actions: []signal.ActionRecommendation{{
			Type: "fix", Text: "re-enable webSecurity and whitelist the specific origins needed",
		}},
	},
	{
		ID:       "desktop-remote-process-access",
		Title:    "Remote module usage",
		Category: "desktop",
		Pattern:  remoteModule,
		Weight:   0.5,
		Tags:     []string{"security", "ipc"},
		Reason:   "the remote module proxies main-process objects into the renderer",
	},
}

var tauriRules = []detect.Rule{
	{
		ID:       "desktop-tauri-broad-permissions",
		Title:    "Broad Tauri capability",
		Category: "desktop",
		Pattern:  tauriDangerous,
		Weight:   0.7,
		Tags:     []string{"security"},
		Reason:   "an all:true capability grants the webview every command",
		Actions: []signal.ActionRecommendation{{
			Type: "fix", Text: "enumerate the specific capabilities the webview actually needs",
		}},
	},
	{
		ID:         "desktop-tauri-dynamic-invoke",
		Title:      "invoke with request-shaped payload",
		Category:   "desktop",
		Pattern:    tauriInvoke,
		Weight:     0.3,
		Confidence: signal.ConfidenceLow,
		Tags:       []string{"ipc"},
		Reason:     "command payloads cross the trust boundary; validate on the Rust side",
	},
}

// shellOpenSignals flags openExternal calls fed anything but a literal URL.
func shellOpenSignals(f *detect.File) []signal.Signal {
	var out []signal.Signal
	for n := 1; n <= len(f.Lines); n++ {
		if !f.Focus.ShouldAnalyze(n) {
			continue
		}
		text := f.Line(n)
		if !shellOpenExt.MatchString(text) {
			continue
		}
		if strings.Contains(text, `openExternal('http`) || strings.Contains(text, `openExternal("http`) {
			continue
		}
		out = append(out, f.Emit(detect.Draft{
			ID:       "desktop-security-shell-open",
			Title:    "openExternal with a dynamic argument",
			Category: "desktop",
			Reason:   "a non-literal URL can launch arbitrary protocols on the host",
			Weight:   0.5,
			Lines:    []int{n},
			Evidence: signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "argument is not a literal http URL"},
			Tags:     []string{"security", "shell"},
		}))
	}
	return out
}
