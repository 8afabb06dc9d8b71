// Package answertext provides pure text heuristics over candidate answers:
// depth classification, concept extraction, and gibberish detection. All
// functions are synchronous, deterministic, and free of I/O.
package answertext

import (
	"regexp"
	"strings"
)

// DepthLevel classifies how substantive an answer is.
type DepthLevel string

const (
	DepthShallow  DepthLevel = "shallow"
	DepthModerate DepthLevel = "moderate"
	DepthStrong   DepthLevel = "strong"
)

// Confidence expresses how much signal the heuristic had to work with.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// DepthAnalysis is the result of AnalyzeDepth.
type DepthAnalysis struct {
	Level      DepthLevel
	Confidence Confidence
}

// Scoring thresholds for AnalyzeDepth.
const (
	strongThreshold   = 7
	moderateThreshold = 4
)

var (
	exampleMarkers = regexp.MustCompile(`(?i)\b(for example|for instance|such as|e\.g\.|in my (last|previous|current) (role|job|project|team)|we built|i built|i implemented|i worked on)\b`)
	technicalTerms = regexp.MustCompile(`(?i)\b(api|database|sql|algorithm|framework|deploy(ment)?|test(ing)?|cach(e|ing)|queue|microservice|latency|throughput|scal(e|ing|ability)|architecture|index(es|ing)?|container|pipeline|refactor(ing)?|concurren(t|cy)|transaction|schema|endpoint|protocol)\b`)
	metricMentions = regexp.MustCompile(`\b\d+(\.\d+)?\s*(%|ms|s\b|x\b|k\b|m\b|users|requests|qps|rps|gb|mb)?`)
	reflectiveCues = regexp.MustCompile(`(?i)\b(i learned|i realized|in hindsight|looking back|i would (do|change|approach)|next time|the trade-?off|we decided|my takeaway)\b`)
)

// AnalyzeDepth scores an answer on fixed lexical signals and classifies it
// as shallow, moderate, or strong.
func AnalyzeDepth(answer string) DepthAnalysis {
	words := len(strings.Fields(answer))
	score := 0
	switch {
	case words > 100:
		score += 3
	case words > 50:
		score += 2
	case words > 30:
		score++
	}
	if exampleMarkers.MatchString(answer) {
		score += 2
	}
	if n := len(technicalTerms.FindAllString(answer, 3)); n > 0 {
		score += n
	}
	if metricMentions.MatchString(answer) {
		score++
	}
	if reflectiveCues.MatchString(answer) {
		score++
	}

	level := DepthShallow
	switch {
	case score >= strongThreshold:
		level = DepthStrong
	case score >= moderateThreshold:
		level = DepthModerate
	}

	conf := ConfidenceLow
	switch {
	case words > 80:
		conf = ConfidenceHigh
	case words > 40:
		conf = ConfidenceMedium
	}
	return DepthAnalysis{Level: level, Confidence: conf}
}

// maxConcepts bounds ExtractMentionedConcepts output.
const maxConcepts = 5

var (
	quotedPhrase     = regexp.MustCompile(`"([^"]{2,40})"`)
	capitalizedTerm  = regexp.MustCompile(`\b[A-Z][A-Za-z0-9+#.]{1,30}\b`)
	knownTechPattern = regexp.MustCompile(`(?i)\b(go|golang|python|java(script)?|typescript|react|vue|angular|node(js)?|docker|kubernetes|k8s|postgres(ql)?|mysql|mongodb|redis|kafka|rabbitmq|graphql|grpc|rest|aws|gcp|azure|terraform|ansible|jenkins|git|linux|nginx|elasticsearch|spark|pandas|django|flask|spring|rails)\b`)
)

// Words too common at sentence starts to count as concepts.
var conceptStopwords = map[string]struct{}{
	"i": {}, "the": {}, "a": {}, "an": {}, "my": {}, "we": {}, "in": {},
	"it": {}, "so": {}, "and": {}, "but": {}, "then": {}, "this": {},
	"that": {}, "when": {}, "also": {}, "for": {}, "at": {}, "on": {},
	"after": {}, "before": {}, "there": {}, "they": {}, "our": {},
	"yes": {}, "no": {}, "one": {}, "first": {}, "however": {},
}

// ExtractMentionedConcepts pulls up to five concrete concepts out of an
// answer: quoted phrases, known technology names, and capitalized terms.
// Order is first-seen; duplicates are folded case-insensitively.
func ExtractMentionedConcepts(answer string) []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(c string) {
		c = strings.TrimSpace(c)
		if c == "" || len(out) >= maxConcepts {
			return
		}
		key := strings.ToLower(c)
		if _, stop := conceptStopwords[key]; stop {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}

	for _, m := range quotedPhrase.FindAllStringSubmatch(answer, -1) {
		add(m[1])
	}
	for _, m := range knownTechPattern.FindAllString(answer, -1) {
		add(m)
	}
	for _, m := range capitalizedTerm.FindAllString(answer, -1) {
		add(m)
	}
	return out
}

// Gibberish detection constants.
const (
	minAnswerChars  = 15
	minAnswerTokens = 5
	minUniqueRatio  = 0.4
)

var (
	digitsOnly   = regexp.MustCompile(`^[\d\s.,]+$`)
	keyboardMash = regexp.MustCompile(`^[bcdfghjklmnpqrstvwxz]{8,}$`)
)

// repeatedRunLen is the shortest run of one character treated as mashing.
const repeatedRunLen = 10

func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
			if run >= n {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

// Filler tokens that carry no content when they make up an entire answer.
var fillerTokens = map[string]struct{}{
	"ok": {}, "okay": {}, "yes": {}, "yeah": {}, "yep": {}, "no": {},
	"nah": {}, "nope": {}, "idk": {}, "dunno": {}, "hmm": {}, "hmmm": {},
	"uh": {}, "uhh": {}, "um": {}, "umm": {}, "er": {}, "maybe": {},
	"nothing": {}, "none": {}, "sure": {}, "fine": {}, "good": {},
	"pass": {}, "skip": {}, "next": {}, "whatever": {},
}

// IsGibberish reports whether an answer is too short, too repetitive, or
// otherwise content-free to advance the interview. It is a pure predicate;
// the orchestrator decides what to do with a true result.
func IsGibberish(answer string) bool {
	trimmed := strings.TrimSpace(answer)
	if len(trimmed) < minAnswerChars {
		return true
	}
	tokens := strings.Fields(trimmed)
	if len(tokens) < minAnswerTokens {
		return true
	}

	unique := map[string]struct{}{}
	allFiller := true
	for _, tok := range tokens {
		norm := strings.ToLower(strings.Trim(tok, ".,!?;:"))
		unique[norm] = struct{}{}
		if _, filler := fillerTokens[norm]; !filler {
			allFiller = false
		}
	}
	if allFiller {
		return true
	}
	if float64(len(unique))/float64(len(tokens)) < minUniqueRatio {
		return true
	}

	if digitsOnly.MatchString(trimmed) {
		return true
	}
	if hasRepeatedRun(trimmed, repeatedRunLen) {
		return true
	}
	if keyboardMash.MatchString(strings.ToLower(strings.ReplaceAll(trimmed, " ", ""))) {
		return true
	}
	return false
}
