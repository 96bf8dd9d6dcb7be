package dto

// ClarificationTurnOutput is the JSON contract expected from the
// clarification controller prompt.
type ClarificationTurnOutput struct {
	UpdatedSchema      map[string]string `json:"updated_schema"`
	MirrorSummary      string            `json:"mirror_summary"`
	NextQuestion       string            `json:"next_question"`
	HardConstraints    []string          `json:"hard_constraints"`
	Hypotheses         []string          `json:"hypotheses"`
	KnowledgeGaps      []string          `json:"knowledge_gaps"`
	ResearchDirectives []string          `json:"research_directives"`
	UnknownDetected    bool              `json:"unknown_detected"`
	TurnFatigue        bool              `json:"turn_fatigue"`
}

// OutlineOutput keeps sections untyped so a single malformed entry does not
// fail the whole response; non-string entries are skipped during parsing.
type OutlineOutput struct {
	Sections []interface{} `json:"sections"`
}

type QueryGenOutput struct {
	Queries []string `json:"queries"`
}
