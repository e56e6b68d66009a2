package ragsvc

// stopWords is the fixed, case-insensitive closed set used by the
// keyword-scoring fallback (spec.md §4.2 Open Question: the source's
// stop list is only partially enumerated; this gateway fixes a short,
// deterministic set rather than pulling in a general NLP stop-word
// package).
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "your": {}, "with": {}, "that": {}, "this": {}, "can": {},
	"how": {}, "what": {}, "when": {}, "where": {}, "why": {}, "who": {},
	"have": {}, "has": {}, "was": {}, "were": {}, "will": {}, "would": {},
	"there": {}, "their": {}, "about": {}, "into": {}, "from": {}, "does": {},
	"do": {}, "did": {}, "a": {}, "an": {}, "is": {}, "it": {}, "of": {},
	"to": {}, "in": {}, "on": {}, "at": {}, "or": {}, "be": {}, "my": {},
	"me": {}, "i": {},
}

func isStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}
