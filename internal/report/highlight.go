package report

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// renderSnippet returns a snippet line with chroma token colors applied.
// Without color, or when no lexer matches, the raw snippet comes back.
func renderSnippet(path, snippet string, color bool) string {
	if !color {
		return snippet
	}
	lexer := lexerFor(path)
	if lexer == nil {
		return snippet
	}
	iterator, err := lexer.Tokenise(nil, snippet)
	if err != nil {
		return snippet
	}

	style := styles.Get("dracula")
	if style == nil {
		style = styles.Fallback
	}

	var b strings.Builder
	for _, token := range iterator.Tokens() {
		text := strings.ReplaceAll(token.Value, "\n", " ")
		if c := tokenColor(style, token.Type); c != "" {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Render(text))
		} else {
			b.WriteString(text)
		}
	}
	return b.String()
}

func lexerFor(path string) chroma.Lexer {
	lexer := lexers.Match(path)
	if lexer == nil {
		ext := filepath.Ext(path)
		if ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer != nil {
		lexer = chroma.Coalesce(lexer)
	}
	return lexer
}

func tokenColor(style *chroma.Style, tt chroma.TokenType) string {
	entry := style.Get(tt)
	if entry.Colour.IsSet() {
		return entry.Colour.String()
	}
	return ""
}
