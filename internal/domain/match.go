package domain

import (
	"encoding/json"
	"fmt"
)

// InventoryMatch is one ranked candidate for a product request
type InventoryMatch struct {
	ItemID            string   `json:"itemId"`
	Description       string   `json:"description"`
	Score             float64  `json:"score"`
	Rank              int      `json:"rank"`
	MatchedProperties []string `json:"matchedProperties"`
	MissingProperties []string `json:"missingProperties"`
	Reasoning         string   `json:"reasoning"`
}

// IssueType classifies why a match result needs human review
type IssueType int

const (
	IssueInsufficientData IssueType = iota + 1
	IssueLowConfidence
	IssueAmbiguousMatch
)

var issueTypeNames = map[IssueType]string{
	IssueInsufficientData: "INSUFFICIENT_DATA",
	IssueLowConfidence:    "LOW_CONFIDENCE",
	IssueAmbiguousMatch:   "AMBIGUOUS_MATCH",
}

// IssueTypes lists every issue type in declaration order
func IssueTypes() []IssueType {
	return []IssueType{IssueInsufficientData, IssueLowConfidence, IssueAmbiguousMatch}
}

func (t IssueType) String() string {
	if name, ok := issueTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("IssueType(%d)", int(t))
}

// MarshalText encodes the issue type as its wire name
func (t IssueType) MarshalText() ([]byte, error) {
	name, ok := issueTypeNames[t]
	if !ok {
		return nil, fmt.Errorf("unknown issue type %d", int(t))
	}
	return []byte(name), nil
}

// UnmarshalText decodes an issue type from its wire name
func (t *IssueType) UnmarshalText(text []byte) error {
	for k, v := range issueTypeNames {
		if v == string(text) {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown issue type %q", string(text))
}

// ReviewFlag signals that a request's result needs human attention
type ReviewFlag struct {
	IssueType     IssueType `json:"issueType"`
	MatchCount    int       `json:"matchCount"`
	TopConfidence *float64  `json:"topConfidence"`
	Reason        string    `json:"reason"`
	ActionNeeded  string    `json:"actionNeeded"`
}

// MatchResult is the complete outcome of matching one product request
type MatchResult struct {
	Matches      []InventoryMatch `json:"matches"`
	Flags        []ReviewFlag     `json:"flags"`
	AppliedDepth int              `json:"appliedDepth"`
}

// HasFlag reports whether the result carries a flag of the given type
func (r *MatchResult) HasFlag(t IssueType) bool {
	for _, f := range r.Flags {
		if f.IssueType == t {
			return true
		}
	}
	return false
}

// MarshalJSON keeps empty collections as [] rather than null
func (r MatchResult) MarshalJSON() ([]byte, error) {
	type alias MatchResult
	out := alias(r)
	if out.Matches == nil {
		out.Matches = []InventoryMatch{}
	}
	if out.Flags == nil {
		out.Flags = []ReviewFlag{}
	}
	return json.Marshal(out)
}
