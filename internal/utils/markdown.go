// Package utils renders the small markdown subset chat models produce as
// styled terminal text.
package utils

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	codeStyle   = lipgloss.NewStyle().Background(lipgloss.Color("236")).Padding(0, 1)
	boldStyle   = lipgloss.NewStyle().Bold(true)
	italicStyle = lipgloss.NewStyle().Italic(true)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	listStyle   = lipgloss.NewStyle().MarginLeft(2)
	quoteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).MarginLeft(2)
)

var (
	orderedRe   = regexp.MustCompile(`^(\d+)\.\s+(.*)`)
	inlineCode  = regexp.MustCompile("`[^`]*`")
	boldRe      = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe    = regexp.MustCompile(`(^|[^*\w])[*_]([^*_]+)[*_]($|[^*\w])`)
	paragraphRe = regexp.MustCompile(`\n\s*\n`)
)

// RenderMarkdown renders headings, lists, quotes, fenced code, inline code,
// bold and italic. Lines inside a paragraph are joined.
func RenderMarkdown(text string) string {
	var out []string
	inCode := false
	for _, line := range joinParagraphs(text) {
		if strings.HasPrefix(line, "```") {
			inCode = !inCode
			continue
		}
		if inCode {
			out = append(out, codeStyle.Render(line))
			continue
		}
		out = append(out, renderLine(line))
	}
	return strings.Join(out, "\n")
}

func renderLine(line string) string {
	for _, prefix := range []string{"### ", "## ", "# "} {
		if title, ok := strings.CutPrefix(line, prefix); ok {
			return titleStyle.Render(inline(title))
		}
	}
	for _, prefix := range []string{"- ", "* "} {
		if item, ok := strings.CutPrefix(line, prefix); ok {
			return listStyle.Render("• " + inline(item))
		}
	}
	if m := orderedRe.FindStringSubmatch(line); m != nil {
		return listStyle.Render(m[1] + ". " + inline(m[2]))
	}
	if quote, ok := strings.CutPrefix(line, "> "); ok {
		return quoteStyle.Render("│ " + inline(quote))
	}
	return inline(line)
}

// inline styles code spans first so their content is left alone.
func inline(s string) string {
	var b strings.Builder
	last := 0
	for _, loc := range inlineCode.FindAllStringIndex(s, -1) {
		b.WriteString(emphasis(s[last:loc[0]]))
		b.WriteString(codeStyle.Render(strings.Trim(s[loc[0]:loc[1]], "`")))
		last = loc[1]
	}
	b.WriteString(emphasis(s[last:]))
	return b.String()
}

func emphasis(s string) string {
	s = boldRe.ReplaceAllStringFunc(s, func(m string) string {
		return boldStyle.Render(boldRe.FindStringSubmatch(m)[1])
	})
	return italicRe.ReplaceAllStringFunc(s, func(m string) string {
		p := italicRe.FindStringSubmatch(m)
		return p[1] + italicStyle.Render(p[2]) + p[3]
	})
}

// joinParagraphs keeps block lines (headings, list items, quotes, fences and
// code) on their own line and joins the rest of each paragraph with spaces.
func joinParagraphs(text string) []string {
	var out []string
	inCode := false
	for _, para := range paragraphRe.Split(strings.TrimSpace(text), -1) {
		joinable := false
		for _, line := range strings.Split(para, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				inCode = !inCode
				out = append(out, "```")
				joinable = false
				continue
			}
			if inCode {
				out = append(out, line)
				continue
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if isBlockLine(line) {
				out = append(out, line)
				joinable = false
				continue
			}
			if joinable {
				out[len(out)-1] += " " + line
				continue
			}
			out = append(out, line)
			joinable = true
		}
	}
	return out
}

func isBlockLine(line string) bool {
	return strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "- ") ||
		strings.HasPrefix(line, "* ") ||
		strings.HasPrefix(line, "> ") ||
		orderedRe.MatchString(line)
}
