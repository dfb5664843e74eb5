package intent

import (
	"strings"
	"unicode"

	"github.com/royalrew/sintari-relations-sub003/internal/resolver"
)

// commonWords are capitalized often enough at the start of a sentence, or
// always, that they never count as a name.
var commonWords = toSet(
	// Swedish
	"jag", "du", "han", "hon", "hen", "vi", "ni", "de", "dem", "den", "det",
	"denna", "detta", "dessa", "min", "mitt", "mina", "din", "ditt", "dina",
	"hans", "hennes", "vår", "vårt", "våra", "er", "ert", "era", "deras",
	"sin", "sitt", "sina", "och", "men", "eller", "så", "om", "när", "då",
	"att", "som", "för", "med", "på", "i", "av", "till", "från", "efter",
	"innan", "under", "över", "hej", "hejsan", "tjena", "tack", "ja", "nej",
	"okej", "igår", "idag", "imorgon", "ikväll", "nu", "sen", "sedan",
	"varför", "vad", "vem", "vilken", "vilket", "hur", "var", "vart",
	"kanske", "alltså", "också", "bara", "inte", "aldrig", "alltid",
	"ibland", "förlåt", "snälla", "va", "jo", "nja",
	"är", "har", "hade", "kan", "kunde", "ska", "skulle", "vill", "ville",
	"måste", "får", "fick", "blir", "blev", "bli", "kommer", "kom",
	"tycker", "tyckte", "vet", "visste", "tror", "trodde", "träffade",
	"pratade", "såg", "ser", "sa", "sade", "säger", "gick", "går",
	"brukar", "borde", "hör", "hörde", "känner", "minns", "glöm",
	// English
	"i", "me", "my", "we", "you", "your", "he", "she", "it", "they", "them",
	"his", "her", "hers", "its", "our", "their", "the", "a", "an", "and",
	"but", "or", "so", "if", "when", "then", "that", "this", "these",
	"those", "what", "who", "why", "how", "where", "which", "hello", "hi",
	"hey", "thanks", "yes", "no", "ok", "okay", "today", "yesterday",
	"tomorrow", "tonight", "now", "maybe", "also", "just", "not", "never",
	"always", "sometimes", "please", "well", "oh", "sorry", "on", "in",
	"at", "to", "of", "for", "with", "from", "after", "before",
	"is", "are", "was", "were", "be", "been", "have", "has", "had", "do",
	"does", "did", "don't", "can", "could", "would", "should", "must",
	"met", "saw", "talked", "called", "said", "think", "know", "remember",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
	"sunday", "january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
)

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// ExtractMentions returns candidate name mentions in order of appearance.
//
// A candidate is a run of capitalized words separated only by whitespace.
// Common words (pronouns, articles, frequent verbs, greetings, time words)
// end a run and are never part of one. Candidates are deduplicated by
// resolver key. This is a deliberately naive heuristic, not language
// understanding.
func ExtractMentions(text string) []string {
	ms := extract(text)
	if len(ms) == 0 {
		return nil
	}
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.name
	}
	return out
}

// mention is one candidate. tail is the run without its first word when the
// run opens a sentence, where that word may just be capitalized by position.
type mention struct {
	name string
	tail string
}

// lookups lists the names to try for m, most specific first.
func (m mention) lookups() []string {
	if m.tail == "" {
		return []string{m.name}
	}
	return []string{m.name, m.tail}
}

func extract(text string) []mention {
	var (
		out           []mention
		seen          = map[string]bool{}
		run           []string
		runAtStart    bool
		sentenceStart = true
		word          strings.Builder
	)

	flushRun := func() {
		if len(run) == 0 {
			return
		}
		m := mention{name: strings.Join(run, " ")}
		if runAtStart && len(run) > 1 {
			m.tail = strings.Join(run[1:], " ")
		}
		run = run[:0]
		key := resolver.Normalize(m.name)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, m)
	}
	flushWord := func() {
		if word.Len() == 0 {
			return
		}
		w := trimWord(word.String())
		word.Reset()
		if w == "" {
			flushRun()
			return
		}
		atStart := sentenceStart
		sentenceStart = false
		if !isNameWord(w) {
			flushRun()
			return
		}
		if len(run) == 0 {
			runAtStart = atStart
		}
		run = append(run, w)
	}

	for _, r := range text {
		switch {
		case isWordRune(r):
			word.WriteRune(r)
		case unicode.IsSpace(r):
			flushWord()
		default:
			flushWord()
			flushRun()
			if r == '.' || r == '!' || r == '?' {
				sentenceStart = true
			}
		}
	}
	flushWord()
	flushRun()
	return out
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '\'' || r == '’'
}

func trimWord(w string) string {
	w = strings.Trim(w, "-'’")
	for _, suffix := range []string{"'s", "’s"} {
		w = strings.TrimSuffix(w, suffix)
	}
	return w
}

func isNameWord(w string) bool {
	if w == "" {
		return false
	}
	first := []rune(w)[0]
	if !unicode.IsUpper(first) {
		return false
	}
	_, common := commonWords[strings.ToLower(w)]
	return !common
}
