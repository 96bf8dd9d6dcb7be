package scrape

import "strings"

const minSnippetLen = 40

// noisePrefixes mark lines that survive tag stripping but carry no
// evidence: cookie banners, auth links, boilerplate footers.
var noisePrefixes = []string{
	"cookie",
	"accept all",
	"©",
	"copyright",
	"all rights reserved",
	"sign in",
	"sign up",
	"log in",
	"subscribe",
	"menu",
	"skip to",
	"privacy policy",
	"terms of",
	"share this",
	"follow us",
}

// FilterSnippets keeps the first max candidate lines that look like real
// prose: long enough and not starting with a known noise prefix.
func FilterSnippets(lines []string, max int) []string {
	snippets := make([]string, 0, max)

	for _, line := range lines {
		if len(snippets) >= max {
			break
		}
		line = strings.TrimSpace(line)
		if len(line) < minSnippetLen {
			continue
		}
		if isNoise(line) {
			continue
		}
		snippets = append(snippets, line)
	}

	return snippets
}

func isNoise(line string) bool {
	lower := strings.ToLower(line)
	for _, prefix := range noisePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
