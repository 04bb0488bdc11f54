package script

import (
	"encoding/json"
	"fmt"
)

// Purpose says what a script governs. The set is closed; anything else
// is rejected at construction time.
type Purpose string

const (
	PurposeMint     Purpose = "mint"
	PurposeMultisig Purpose = "multisig"
)

// ParsePurpose validates a purpose tag.
func ParsePurpose(s string) (Purpose, error) {
	switch Purpose(s) {
	case PurposeMint, PurposeMultisig:
		return Purpose(s), nil
	default:
		return "", fmt.Errorf("script purpose must be mint or multisig, got %q", s)
	}
}

// Type is the native script signature rule type.
type Type string

const (
	TypeSig     Type = "sig"
	TypeAll     Type = "all"
	TypeAny     Type = "any"
	TypeAtLeast Type = "atLeast"
)

// ParseType validates a script type tag.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeSig, TypeAll, TypeAny, TypeAtLeast:
		return Type(s), nil
	default:
		return "", fmt.Errorf("script type must be sig, all, any or atLeast, got %q", s)
	}
}

// Time comparators for validity rules.
const (
	TimeBefore = "before"
	TimeAfter  = "after"
)

// TimeRule is a slot-bound validity constraint embedded in a script.
type TimeRule struct {
	Type string `json:"type"` // before or after
	Slot uint64 `json:"slot"`
}

// Document is a native script document as consumed by the node client.
// It is a recursive composite: leaf "sig" rules, "before"/"after" time
// rules, and "all"/"any"/"atLeast" combinators over Scripts.
type Document struct {
	Type     string     `json:"type"`
	KeyHash  string     `json:"keyHash,omitempty"`
	Required int        `json:"required,omitempty"`
	Slot     uint64     `json:"slot,omitempty"`
	Scripts  []Document `json:"scripts,omitempty"`
}

// Encode renders the document as JSON.
func (d *Document) Encode() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// ParseDocument decodes a stored script content blob.
func ParseDocument(content []byte) (*Document, error) {
	doc := &Document{}
	if err := json.Unmarshal(content, doc); err != nil {
		return nil, fmt.Errorf("decoding script document: %w", err)
	}
	return doc, nil
}

// ExtractTimeRule returns the validity rule embedded in a script built
// by this package, or nil when the script carries none. A comparator
// other than before/after is an error rather than a silently dropped
// constraint.
func ExtractTimeRule(doc *Document) (*TimeRule, error) {
	for _, sub := range doc.Scripts {
		switch sub.Type {
		case TimeBefore, TimeAfter:
			return &TimeRule{Type: sub.Type, Slot: sub.Slot}, nil
		case string(TypeSig), string(TypeAll), string(TypeAny), string(TypeAtLeast):
			// signature rule, not a time bound
		default:
			return nil, fmt.Errorf("check validity interval fields: unrecognized comparator %q", sub.Type)
		}
	}
	return nil, nil
}
