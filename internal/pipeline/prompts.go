package pipeline

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are a professional copywriter producing well-researched, original content."

func queryPrompt(topic, language string) string {
	return fmt.Sprintf(
		"Compose one concise web search query to find authoritative source material for a %s text about: %s. Reply with the query only.",
		language, topic)
}

func selectPrompt(topic, query string) string {
	return fmt.Sprintf(
		"For the topic %q and the search query %q, list up to 5 URLs of authoritative sources worth citing, one per line, most relevant first. Reply with URLs only.",
		topic, query)
}

func structurePrompt(topic, language string, length, sections int) string {
	return fmt.Sprintf(
		"Produce an outline with %d sections for a %s text of about %d characters on: %s. One section title per line.",
		sections, language, length, topic)
}

func writerPrompt(topic, language, textType, outline string, section, sections, sectionLength int, sources []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write section %d of %d of a %s (%s) about: %s. Target about %d characters. Output clean HTML paragraphs.",
		section, sections, textType, language, topic, sectionLength)
	if outline != "" {
		fmt.Fprintf(&b, "\nFollow this outline:\n%s", outline)
	}
	if len(sources) > 0 {
		b.WriteString("\nBase the section on this source material:\n")
		for _, src := range sources {
			excerpt := src
			if len(excerpt) > 2000 {
				excerpt = excerpt[:2000]
			}
			b.WriteString("---\n")
			b.WriteString(excerpt)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// parseSourceURLs pulls http(s) URLs out of a selection response, one per
// line, ignoring any commentary the model added around them.
func parseSourceURLs(response string, max int) []string {
	var urls []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*0123456789. "))
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			if i := strings.IndexAny(line, " \t"); i > 0 {
				line = line[:i]
			}
			urls = append(urls, line)
			if len(urls) == max {
				break
			}
		}
	}
	return urls
}

// renderContent joins writer passes in order into the final HTML document.
func renderContent(responses []string) string {
	parts := make([]string, 0, len(responses))
	for _, r := range responses {
		r = strings.TrimSpace(r)
		if r != "" {
			parts = append(parts, r)
		}
	}
	return strings.Join(parts, "\n")
}
