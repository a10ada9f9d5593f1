package framework

import (
	"regexp"

	"github.com/sprite-ai/sigscan/internal/detect"
	"github.com/sprite-ai/sigscan/internal/signal"
)

var (
	nativeMarker   = regexp.MustCompile(`from\s+['"]react-native['"]|from\s+['"]expo[-/'"]|require\(['"]react-native['"]\)`)
	asyncStorage   = regexp.MustCompile(`AsyncStorage\.(setItem|mergeItem)\s*\(`)
	secretish      = regexp.MustCompile(`(?i)(token|password|secret|credential)`)
	inlineStyle    = regexp.MustCompile(`style\s*=\s*\{\{`)
	keyboardListen = regexp.MustCompile(`Keyboard\.addListener\s*\(`)
	listenerRemove = regexp.MustCompile(`\.remove\s*\(\s*\)|removeAllListeners\s*\(`)
	animatedValue  = regexp.MustCompile(`new\s+Animated\.Value\s*\(`)
	useNativeDrv   = regexp.MustCompile(`useNativeDriver\s*:\s*false`)
)

// Native is the layer for React Native and Expo files.
func Native() Layer {
	return Layer{
		Name: "native",
		Applies: func(content, path string) bool {
			return nativeMarker.MatchString(content)
		},
		Probes: []detect.Probe{
			ruleProbe(nativeRules),
			sensitiveAsyncStorageProbe,
			keyboardListenerProbe,
		},
	}
}

var nativeRules = []detect.Rule{
	{
		ID:         "native-inline-style-object",
		Title:      "Inline style object",
		Category:   "native",
		Pattern:    inlineStyle,
		Weight:     0.2,
		Confidence: signal.ConfidenceLow,
		Tags:       []string{"rendering", "performance"},
		Reason:     "a fresh style object every render defeats the style cache",
	},
	{
		ID:       "native-js-driven-animation",
		Title:    "Animation without the native driver",
		Category: "native",
		Pattern:  useNativeDrv,
		Weight:   0.3,
		Tags:     []string{"performance"},
		Reason:   "JS-driven animation frames stall whenever the bridge is busy",
	},
	{
		ID:         "native-animated-value-in-render",
		Title:      "Animated.Value constructed in render scope",
		Category:   "native",
		Pattern:    animatedValue,
		Weight:     0.3,
		Confidence: signal.ConfidenceLow,
		Tags:       []string{"state"},
		Reason:     "a value rebuilt each render resets the animation; keep it in a ref",
	},
}

// sensitiveAsyncStorageProbe flags secret-shaped values written to
// AsyncStorage, which is unencrypted on both platforms.
func sensitiveAsyncStorageProbe(f *detect.File) []signal.Signal {
	var out []signal.Signal
	for n := 1; n <= len(f.Lines); n++ {
		if !f.Focus.ShouldAnalyze(n) {
			continue
		}
		text := f.Line(n)
		if asyncStorage.MatchString(text) && secretish.MatchString(text) {
			out = append(out, f.Emit(detect.Draft{
				ID:       "native-secret-in-async-storage",
				Title:    "Secret stored in AsyncStorage",
				Category: "native",
				Reason:   "AsyncStorage is plaintext on disk; use the platform keychain",
				Weight:   0.7,
				Lines:    []int{n},
				Evidence: signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "secret-shaped key on a setItem line"},
				Tags:     []string{"security", "storage"},
				Actions: []signal.ActionRecommendation{{
					Type: "fix", Text: "store the value with expo-secure-store or react-native-keychain",
				}},
			}))
		}
	}
	return out
}

// keyboardListenerProbe flags keyboard listeners in files that never remove
// a listener. The subscription survives unmount and fires into dead state.
func keyboardListenerProbe(f *detect.File) []signal.Signal {
	if listenerRemove.MatchString(f.Content) {
		return nil
	}
	var out []signal.Signal
	for n := 1; n <= len(f.Lines); n++ {
		if !f.Focus.ShouldAnalyze(n) || !keyboardListen.MatchString(f.Line(n)) {
			continue
		}
		out = append(out, f.Emit(detect.Draft{
			ID:         "native-keyboard-event-listener-leak",
			Title:      "Keyboard listener without removal",
			Category:   "native",
			Reason:     "no listener removal anywhere in the file",
			Weight:     0.4,
			Lines:      []int{n},
			Confidence: signal.ConfidenceLow,
			Evidence:   signal.Evidence{Kind: signal.EvidenceHeuristic, Details: "addListener with no remove in the file"},
			Tags:       []string{"leak", "lifecycle"},
		}))
	}
	return out
}
