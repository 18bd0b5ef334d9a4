package extract

// stopwords is a small function-word list spanning English and Portuguese
// (the ingestion pipeline's primary language, per spec.md §4.F) used to
// keep determiners, prepositions and conjunctions out of single-word and
// n-gram candidates. Not exhaustive by design — candidate extraction is a
// recall-oriented heuristic, not a linguistic parser.
var stopwords = buildStopwordSet(
	// English
	"the", "a", "an", "and", "or", "but", "if", "then", "else", "for",
	"with", "without", "from", "into", "onto", "about", "above", "below",
	"this", "that", "these", "those", "which", "what", "when", "where",
	"while", "because", "since", "although", "though", "through", "over",
	"under", "between", "among", "within", "before", "after", "during",
	"each", "every", "some", "any", "none", "such", "same", "other",
	"there", "here", "being", "have", "has", "had", "will", "would",
	"could", "should", "shall", "must", "might", "also", "than", "them",
	"their", "theirs", "they", "your", "yours",
	// Portuguese
	"que", "para", "com", "sem", "uma", "umas", "uns", "dos", "das",
	"pelo", "pela", "pelos", "pelas", "como", "mais", "mas", "pois",
	"isso", "essa", "esse", "esta", "este", "aquele", "aquela", "quando",
	"onde", "porque", "sobre", "entre", "cada", "todo", "toda", "todos",
	"todas", "outro", "outra", "algum", "alguma", "nenhum", "mesmo",
	"também", "seus", "suas", "seu", "sua", "foram", "sido", "estava",
)

func buildStopwordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func isStopword(norm string) bool {
	_, ok := stopwords[norm]
	return ok
}

// IsStopword reports whether norm (already lowercased/diacritic-folded) is
// in the curated domain-language stopword list. Exported for the ingestion
// pipeline's fragment-merge heuristic (spec.md §4.F), which needs the same
// stopword boundary the extractor uses for candidate labels.
func IsStopword(norm string) bool {
	return isStopword(norm)
}
