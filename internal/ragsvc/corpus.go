package ragsvc

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// sectionDelimiter separates scraped pages within one corpus file. Each
// section is expected to start with a small recognized header naming
// its source URL and title before the prose body.
const sectionDelimiter = "\n===\n"

// loadCorpus reads the corpus file at path and splits it into Sections,
// extracting the SOURCE:/TITLE: header from each.
func loadCorpus(path string) ([]Section, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	parts := strings.Split(string(raw), sectionDelimiter)
	sections := make([]Section, 0, len(parts))
	ordinal := 0
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sourceURL, title, body := parseSectionHeader(part)
		sections = append(sections, Section{
			SourceURL: sourceURL,
			Title:     title,
			Body:      body,
			Ordinal:   ordinal,
		})
		ordinal++
	}
	return sections, nil
}

// parseSectionHeader consumes leading SOURCE:/TITLE: lines from a
// section's raw text and returns the recovered values plus the
// remaining prose body.
func parseSectionHeader(raw string) (sourceURL, title, body string) {
	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var bodyLines []string
	inHeader := true
	for scanner.Scan() {
		line := scanner.Text()
		if inHeader {
			switch {
			case strings.HasPrefix(line, "SOURCE:"):
				sourceURL = strings.TrimSpace(strings.TrimPrefix(line, "SOURCE:"))
				continue
			case strings.HasPrefix(line, "TITLE:"):
				title = strings.TrimSpace(strings.TrimPrefix(line, "TITLE:"))
				continue
			case strings.TrimSpace(line) == "":
				continue
			default:
				inHeader = false
			}
		}
		bodyLines = append(bodyLines, line)
	}
	body = strings.Join(bodyLines, "\n")
	return sourceURL, title, body
}
