package model

// NLUOptions selects features and limits for a text-analysis request.
// A zero limit disables that feature.
type NLUOptions struct {
	Entities int
	Keywords int
	Concepts int
}

// NLUEntity is a typed entity reported by the text-analysis backend
type NLUEntity struct {
	Type       string  `json:"type"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Relevance  float64 `json:"relevance,omitempty"`
}

// NLUKeyword is a keyword with its relevance score
type NLUKeyword struct {
	Text      string  `json:"text"`
	Relevance float64 `json:"relevance"`
}

// NLUConcept is a high-level concept with its relevance score
type NLUConcept struct {
	Text      string  `json:"text"`
	Relevance float64 `json:"relevance"`
}

// NLUResult is the text-analysis backend response
type NLUResult struct {
	Entities []NLUEntity  `json:"entities"`
	Keywords []NLUKeyword `json:"keywords"`
	Concepts []NLUConcept `json:"concepts"`
}
