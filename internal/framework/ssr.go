package framework

import (
	"regexp"
	"strings"

	"github.com/sprite-ai/sigscan/internal/detect"
	"github.com/sprite-ai/sigscan/internal/signal"
)

var (
	nextMarker      = regexp.MustCompile(`from\s+['"]next[/'"]|getServerSideProps|getStaticProps|['"]use server['"]`)
	nuxtMarker      = regexp.MustCompile(`from\s+['"]#app['"]|useAsyncData\s*\(|useFetch\s*\(|defineNuxtConfig\b`)
	svelteKitMarker = regexp.MustCompile(`from\s+['"]@sveltejs/kit|\+page\.|\+layout\.|\+server\.`)
	astroMarker     = regexp.MustCompile(`Astro\.(props|request|params)\b`)

	browserGlobal  = regexp.MustCompile(`\b(window|document|localStorage|sessionStorage)\.`)
	clientGuard    = regexp.MustCompile(`typeof\s+window|typeof\s+document|process\.browser|import\.meta\.client|\bbrowser\b\s*&&|onMount\s*\(`)
	useClientPrag  = regexp.MustCompile(`['"]use client['"]`)
	secretEnvNamed = regexp.MustCompile(`process\.env\.\w*(SECRET|KEY|TOKEN|PASSWORD)\w*`)
	publicEnvName  = regexp.MustCompile(`process\.env\.(NEXT_PUBLIC_|PUBLIC_|VITE_)`)
	runtimeConfig  = regexp.MustCompile(`useRuntimeConfig\s*\(\s*\)`)
	fetchInLoad    = regexp.MustCompile(`\bfetch\s*\(`)
	dynamicImport  = regexp.MustCompile(`import\s*\(`)
)

// ssrVariant is the one-shot variant classification for meta-framework
// files. Evaluation order is next, nuxt, sveltekit, astro; the first
// matching marker wins and later markers are not consulted.
func ssrVariant(content, path string) string {
	switch {
	case nextMarker.MatchString(content):
		return "next"
	case nuxtMarker.MatchString(content):
		return "nuxt"
	case svelteKitMarker.MatchString(content) || svelteKitMarker.MatchString(path):
		return "sveltekit"
	case astroMarker.MatchString(content) || hasExt(path, ".astro"):
		return "astro"
	default:
		return ""
	}
}

// SSR is the layer for server-side-rendering meta-framework files.
func SSR() Layer {
	return Layer{
		Name: "ssr",
		Applies: func(content, path string) bool {
			return ssrVariant(content, path) != ""
		},
		Probes: []detect.Probe{
			ssrProbe,
		},
	}
}

// ssrProbe classifies the variant once, then runs the shared probes plus
// the variant-specific subset.
func ssrProbe(f *detect.File) []signal.Signal {
	variant := ssrVariant(f.Content, f.Path)
	out := serverBrowserGlobalSignals(f)
	out = append(out, leakedServerSecretSignals(f, variant)...)
	switch variant {
	case "next":
		out = append(out, nextSpecificSignals(f)...)
	case "nuxt":
		out = append(out, nuxtSpecificSignals(f)...)
	case "sveltekit":
		out = append(out, svelteKitSpecificSignals(f)...)
	case "astro":
		out = append(out, astroSpecificSignals(f)...)
	}
	return out
}

// serverBrowserGlobalSignals flags browser globals in files with no client
// guard anywhere. Such a reference throws during server rendering.
func serverBrowserGlobalSignals(f *detect.File) []signal.Signal {
	if clientGuard.MatchString(f.Content) || useClientPrag.MatchString(f.Content) {
		return nil
	}
	var out []signal.Signal
	for n := 1; n <= len(f.Lines); n++ {
		if !f.Focus.ShouldAnalyze(n) || !browserGlobal.MatchString(f.Line(n)) {
			continue
		}
		out = append(out, f.Emit(detect.Draft{
			ID:       "ssr-browser-global-on-server",
			Title:    "Browser global in server-rendered code",
			Category: "ssr",
			Reason:   "window and document do not exist during server rendering",
			Weight:   0.6,
			Lines:    []int{n},
			Evidence: signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "no client guard anywhere in the file"},
			Tags:     []string{"hydration"},
		}))
	}
	return out
}

// leakedServerSecretSignals flags secret-shaped env reads in code the
// bundler ships to the client. Public-prefixed names are exempt.
func leakedServerSecretSignals(f *detect.File, variant string) []signal.Signal {
	// Server-only surfaces may read secrets freely.
	if strings.Contains(f.Path, "/api/") || strings.Contains(f.Path, "/server/") ||
		strings.Contains(f.Path, "+server.") {
		return nil
	}
	var out []signal.Signal
	for n := 1; n <= len(f.Lines); n++ {
		if !f.Focus.ShouldAnalyze(n) {
			continue
		}
		text := f.Line(n)
		if !secretEnvNamed.MatchString(text) || publicEnvName.MatchString(text) {
			continue
		}
		out = append(out, f.Emit(detect.Draft{
			ID:       "ssr-secret-env-in-shared-code",
			Title:    "Secret environment variable in shared code",
			Category: "ssr",
			Reason:   "this file can be bundled for the client; the secret ships with it",
			Weight:   0.7,
			Lines:    []int{n},
			Evidence: signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "variant=" + variant},
			Tags:     []string{"security", "secret"},
			Actions: []signal.ActionRecommendation{{
				Type: "fix", Text: "move the read into a server-only module or use a public-prefixed variable",
			}},
		}))
	}
	return out
}

func nextSpecificSignals(f *detect.File) []signal.Signal {
	var out []signal.Signal
	inServerProps := false
	for n := 1; n <= len(f.Lines); n++ {
		text := f.Line(n)
		if strings.Contains(text, "getServerSideProps") || strings.Contains(text, "getStaticProps") {
			inServerProps = true
		}
		if !f.Focus.ShouldAnalyze(n) {
			continue
		}
		if inServerProps && fetchInLoad.MatchString(text) && strings.Contains(text, "localhost") {
			out = append(out, f.Emit(detect.Draft{
				ID:       "ssr-next-localhost-network-call",
				Title:    "Localhost fetch in a data loader",
				Category: "ssr",
				Reason:   "hardcoded localhost breaks the loader everywhere but the dev machine",
				Weight:   0.5,
				Lines:    []int{n},
				Evidence: signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "fetch to localhost inside a props loader"},
				Tags:     []string{"network", "config"},
			}))
		}
	}
	return out
}

func nuxtSpecificSignals(f *detect.File) []signal.Signal {
	var out []signal.Signal
	for n := 1; n <= len(f.Lines); n++ {
		if !f.Focus.ShouldAnalyze(n) {
			continue
		}
		text := f.Line(n)
		if fetchInLoad.MatchString(text) && !runtimeConfig.MatchString(f.Content) &&
			strings.Contains(text, "await") && !strings.Contains(text, "useFetch") &&
			!strings.Contains(text, "useAsyncData") {
			out = append(out, f.Emit(detect.Draft{
				ID:         "ssr-nuxt-bare-network-fetch",
				Title:      "Bare fetch instead of useFetch",
				Category:   "ssr",
				Reason:     "bare fetch in a component double-fetches on hydration; useFetch dedupes",
				Weight:     0.4,
				Lines:      []int{n},
				Confidence: signal.ConfidenceLow,
				Evidence:   signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "awaited fetch outside the data composables"},
				Tags:       []string{"network", "hydration"},
			}))
		}
	}
	return out
}

func svelteKitSpecificSignals(f *detect.File) []signal.Signal {
	// Client-side dynamic import inside a universal load runs twice.
	if !strings.Contains(f.Path, "+page.") && !strings.Contains(f.Path, "+layout.") {
		return nil
	}
	var out []signal.Signal
	for n := 1; n <= len(f.Lines); n++ {
		if !f.Focus.ShouldAnalyze(n) || !dynamicImport.MatchString(f.Line(n)) {
			continue
		}
		out = append(out, f.Emit(detect.Draft{
			ID:         "ssr-sveltekit-dynamic-import-in-load",
			Title:      "Dynamic import in a load file",
			Category:   "ssr",
			Reason:     "universal load runs on server and client; the import resolves twice",
			Weight:     0.3,
			Lines:      []int{n},
			Confidence: signal.ConfidenceLow,
			Evidence:   signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "import() inside +page/+layout"},
			Tags:       []string{"hydration"},
		}))
	}
	return out
}

func astroSpecificSignals(f *detect.File) []signal.Signal {
	var out []signal.Signal
	for n := 1; n <= len(f.Lines); n++ {
		if !f.Focus.ShouldAnalyze(n) {
			continue
		}
		if strings.Contains(f.Line(n), "set:html") {
			out = append(out, f.Emit(detect.Draft{
				ID:       "ssr-astro-security-set-html",
				Title:    "set:html directive",
				Category: "ssr",
				Reason:   "set:html renders unescaped markup into the page",
				Weight:   0.6,
				Lines:    []int{n},
				Evidence: signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "raw html directive"},
				Tags:     []string{"security", "xss"},
				Actions: []signal.ActionRecommendation{{
					Type: "fix", Text: "sanitize the value before rendering it with set:html",
				}},
			}))
		}
	}
	return out
}
