package knowledge

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"
)

//go:embed handbook.txt
var projectAlphaHandbook string

// Corpus is a sectioned reference document used to ground assistant answers.
// Retrieval is keyword overlap over sections; it is not a vector search.
type Corpus struct {
	title    string
	sections []string
}

// DefaultCorpus returns the Project Alpha safety handbook
func DefaultCorpus() *Corpus {
	return Parse(projectAlphaHandbook)
}

// Load reads a corpus from a text file. An empty path returns the default corpus.
func Load(path string) (*Corpus, error) {
	if path == "" {
		return DefaultCorpus(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge corpus: %w", err)
	}
	return Parse(string(data)), nil
}

// Parse splits text into sections on lines starting with "SECTION". Text before the first section is the title.
func Parse(text string) *Corpus {
	c := &Corpus{}
	var current []string
	inSection := false

	flush := func() {
		if s := strings.TrimSpace(strings.Join(current, "\n")); s != "" {
			c.sections = append(c.sections, s)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "SECTION") {
			if !inSection {
				c.title = strings.TrimSpace(strings.Join(current, "\n"))
				current = nil
				inSection = true
			} else {
				flush()
			}
		}
		current = append(current, line)
	}
	flush()

	return c
}

// Sections returns the number of sections
func (c *Corpus) Sections() int {
	return len(c.sections)
}

// Text returns the whole corpus
func (c *Corpus) Text() string {
	parts := append([]string{c.title}, c.sections...)
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

// Retrieve returns the title plus the sections sharing words with the question, best match first.
// When nothing matches the whole corpus is returned so the model can still decline.
func (c *Corpus) Retrieve(question string) string {
	terms := keywords(question)
	if len(terms) == 0 {
		return c.Text()
	}

	type scored struct {
		idx   int
		score int
	}
	var hits []scored
	for i, s := range c.sections {
		words := keywords(s)
		score := 0
		for t := range terms {
			if words[t] {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{idx: i, score: score})
		}
	}
	if len(hits) == 0 {
		return c.Text()
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	parts := []string{c.title}
	for _, h := range hits {
		parts = append(parts, c.sections[h.idx])
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n"))
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "what": true, "when": true,
	"how": true, "does": true, "need": true, "must": true, "with": true, "any": true,
	"all": true, "who": true, "which": true, "should": true, "than": true,
}

// keywords lowercases text and keeps words of at least three letters that are not stop words
func keywords(text string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(w) >= 3 && !stopWords[w] {
			out[w] = true
		}
	}
	return out
}
