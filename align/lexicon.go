// SPDX-License-Identifier: EPL-2.0

package align

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// Lexicon maps an upper-cased word to its pronunciations.
type Lexicon map[string][][]string

// ParseLexicon reads a pronunciation dictionary with one entry per line:
//
//	WORD  PH1 PH2 ...
//
// Lines starting with '#' or ";;" are comments. Alternate pronunciations
// may be written as WORD(2).
func ParseLexicon(r io.Reader) (Lexicon, error) {
	lex := make(Lexicon)
	sc := bufio.NewScanner(r)
	line := 0

	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, ";;") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: line %d: %q", ErrMalformedEntry, line, text)
		}

		word := normalizeWord(stripVariant(fields[0]))
		if word == "" {
			return nil, fmt.Errorf("%w: line %d: %q", ErrMalformedEntry, line, text)
		}
		lex[word] = append(lex[word], fields[1:])
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}

	return lex, nil
}

// LoadLexicon parses the lexicon file at path.
func LoadLexicon(path string) (Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lexicon: %w", err)
	}
	defer f.Close()

	return ParseLexicon(f)
}

// Entries returns the number of pronunciations.
func (l Lexicon) Entries() int {
	n := 0
	for _, p := range l {
		n += len(p)
	}
	return n
}

// Lookup returns the pronunciations of word.
func (l Lexicon) Lookup(word string) ([][]string, bool) {
	p, ok := l[normalizeWord(word)]
	return p, ok
}

// OOV returns the distinct tokens not present in the lexicon, in order of
// first appearance.
func (l Lexicon) OOV(tokens []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tokens {
		w := normalizeWord(t)
		if _, ok := l[w]; ok || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// Tokenize splits a transcript into upper-cased words. Apostrophes inside
// words are kept.
func Tokenize(transcript string) []string {
	fields := strings.FieldsFunc(transcript, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := normalizeWord(strings.Trim(f, "'")); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func normalizeWord(w string) string {
	return strings.ToUpper(strings.TrimSpace(w))
}

func stripVariant(w string) string {
	open := strings.LastIndexByte(w, '(')
	if open <= 0 || !strings.HasSuffix(w, ")") {
		return w
	}
	for _, r := range w[open+1 : len(w)-1] {
		if !unicode.IsDigit(r) {
			return w
		}
	}
	return w[:open]
}
