package speech

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

const (
	triplePenalty        = 0.05
	fillerDoublePenalty  = 0.02
	fragmentPenaltyUnit  = 0.03
	fragmentPenaltyLimit = 0.15
)

// FillerStats holds filler-word and disfluency metrics for a transcript.
type FillerStats struct {
	FillerCount       int      `json:"filler_count" yaml:"filler_count"`
	FillerRate        float64  `json:"filler_rate" yaml:"filler_rate"`
	FillerWords       []string `json:"filler_words" yaml:"filler_words"`
	TotalWords        int      `json:"total_words" yaml:"total_words"`
	RepetitionPenalty float64  `json:"repetition_penalty" yaml:"repetition_penalty"`
	FragmentPenalty   float64  `json:"fragment_penalty" yaml:"fragment_penalty"`
}

var tokenPattern = regexp.MustCompile(`[a-z'-]+`)

// fillerPatterns is applied in order to the space-joined tokens. Every match
// of every pattern counts, so overlapping variants (um/umm) are intentional.
var fillerPatterns = compileAll(
	`\bum+m+\b`,
	`\bum\b`,
	`\buh+h+\b`,
	`\buh\b`,
	`\ber+m+\b`,
	`\ber\b`,
	`\buhm+\b`,
	`\bah+h+\b`,
	`\bah\b`,
	`\beh+h+\b`,
	`\beh\b`,
	`\boh+h+\b`,
	`\boh\b`,
	`\bhm+m+\b`,
	`\bhm\b`,
	`\bmhm\b`,
	`\buh\s*huh\b`,
	`\buh\s*uh\b`,
	`\bah\s*ha\b`,
	`\btsk\b`,
	`\bahem\b`,
	`\blike\b`,
	`\byou\s+know\b`,
	`\bso+\b`,
	`\bwell+\b`,
	`\bactually\b`,
	`\bbasically\b`,
	`\bkind\s+of\b`,
	`\bsort\s+of\b`,
	`\bi\s+mean\b`,
	`\byou\s+see\b`,
	// right/okay/ok are counted regardless of context.
	`\bright\b`,
	`\bokay\b`,
	`\bok\b`,
)

// repeatableFillers are the tokens whose immediate doubling is penalized.
var repeatableFillers = map[string]bool{
	"like": true, "so": true, "well": true, "you": true, "know": true,
	"um": true, "uh": true, "ah": true, "eh": true, "oh": true,
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// ScoreFillers counts filler words, repetitions and word fragments in a
// transcript and combines them into a rate in [0, 1].
func ScoreFillers(transcript string) FillerStats {
	if strings.TrimSpace(transcript) == "" {
		return FillerStats{FillerWords: []string{}}
	}

	tokens := tokenPattern.FindAllString(strings.ToLower(transcript), -1)
	totalWords := 0
	fragments := 0
	for _, tok := range tokens {
		if !strings.HasSuffix(tok, "-") {
			totalWords++
		} else if len(tok) > 1 {
			fragments++
		}
	}

	text := strings.Join(tokens, " ")
	count := 0
	found := make(map[string]struct{})
	for _, re := range fillerPatterns {
		for _, m := range re.FindAllString(text, -1) {
			count++
			found[m] = struct{}{}
		}
	}
	words := make([]string, 0, len(found))
	for w := range found {
		words = append(words, w)
	}
	sort.Strings(words)

	repetition := repetitionPenalty(tokens)

	var fragment float64
	if totalWords > 0 {
		fragment = math.Min(float64(fragments)*fragmentPenaltyUnit, fragmentPenaltyLimit)
	}

	var base float64
	if totalWords > 0 {
		base = float64(count) / float64(totalWords)
	}

	return FillerStats{
		FillerCount:       count,
		FillerRate:        math.Min(base+repetition+fragment, 1),
		FillerWords:       words,
		TotalWords:        totalWords,
		RepetitionPenalty: repetition,
		FragmentPenalty:   fragment,
	}
}

// repetitionPenalty slides over every index without skipping past a match,
// so a run of four identical tokens scores two triples.
func repetitionPenalty(tokens []string) float64 {
	var penalty float64
	for i := 0; i+2 < len(tokens); i++ {
		w := tokens[i]
		switch {
		case w == tokens[i+1] && w == tokens[i+2]:
			penalty += triplePenalty
		case w == tokens[i+1] && repeatableFillers[w]:
			penalty += fillerDoublePenalty
		}
	}
	return penalty
}
