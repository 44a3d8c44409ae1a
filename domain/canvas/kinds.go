package canvas

import "strings"

// DefaultKind is assigned when no rule matches a node ID.
const DefaultKind = "custom"

// KindRule maps an ID tag to a node kind.
type KindRule struct {
	Tag  string
	Kind string
}

// kindRules is ordered: multi-word tags come first so that their single-word
// suffixes (analysis_, ...) cannot claim them. New kinds are added as rows.
var kindRules = []KindRule{
	{Tag: "citation_analysis_", Kind: "citationAnalysis"},
	{Tag: "writing_assistant_", Kind: "writingAssistant"},
	{Tag: "analysis_", Kind: "analysis"},
	{Tag: "law_", Kind: "law"},
	{Tag: "note_", Kind: "note"},
	{Tag: "dispute_", Kind: "dispute"},
	{Tag: "evidence_", Kind: "evidence"},
	{Tag: "claim_", Kind: "claim"},
	{Tag: "case_", Kind: "case"},
	{Tag: "judgement_", Kind: "judgement"},
	{Tag: "result_", Kind: "result"},
	{Tag: "reference_", Kind: "reference"},
	{Tag: "text_", Kind: "text"},
	{Tag: "insight_", Kind: "insight"},
}

// KindRules returns a copy of the inference table in match order.
func KindRules() []KindRule {
	out := make([]KindRule, len(kindRules))
	copy(out, kindRules)
	return out
}

// InferKind resolves a node kind from its ID: exact prefix first, then a
// substring match of the bare tag against the lower-cased ID, then DefaultKind.
func InferKind(id string) string {
	for _, rule := range kindRules {
		if strings.HasPrefix(id, rule.Tag) {
			return rule.Kind
		}
	}

	lower := strings.ToLower(id)
	for _, rule := range kindRules {
		if strings.Contains(lower, strings.TrimSuffix(rule.Tag, "_")) {
			return rule.Kind
		}
	}

	return DefaultKind
}
