package script

import (
	"context"
	"fmt"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("script")

// Params are the declarative inputs a script document is built from.
type Params struct {
	Name     string
	Type     Type
	Required int      // only meaningful for atLeast
	Hashes   []string // public key hashes
	TimeType string   // "", before or after
	Slot     uint64   // validity slot when TimeType is set
	Purpose  Purpose
}

// Validate rejects parameter combinations the node client would choke
// on, before anything touches disk or the external process.
func (p *Params) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("script name must not be empty")
	}
	if _, err := ParseType(string(p.Type)); err != nil {
		return err
	}
	if _, err := ParsePurpose(string(p.Purpose)); err != nil {
		return err
	}
	if len(p.Hashes) == 0 {
		return fmt.Errorf("at least one key hash is required")
	}
	if p.Type == TypeAtLeast {
		if p.Required <= 0 {
			return fmt.Errorf("required signers must be a positive integer for atLeast scripts")
		}
		if p.Required > len(p.Hashes) {
			return fmt.Errorf("required signers (%d) exceeds supplied key hashes (%d)", p.Required, len(p.Hashes))
		}
	}
	switch p.TimeType {
	case "":
		// no validity window
	case TimeBefore, TimeAfter:
		if p.Slot == 0 {
			return fmt.Errorf("slot must be a positive integer when a %s rule is set", p.TimeType)
		}
	default:
		return fmt.Errorf("time constraint must be before or after, got %q", p.TimeType)
	}
	return nil
}

// PolicyResolver materializes script documents and derives policy ids
// from them. The node client implements it.
type PolicyResolver interface {
	WriteScriptFile(purpose Purpose, name string, content []byte) (string, error)
	CreatePolicyID(ctx context.Context, purpose Purpose, name string) (string, error)
}

// Builder constructs native script documents and binds them to policy
// ids. It persists nothing; callers store the result.
type Builder struct {
	resolver PolicyResolver
}

func NewBuilder(resolver PolicyResolver) *Builder {
	return &Builder{resolver: resolver}
}

// Build assembles the script document from validated parameters: the
// signature rule plus, when present, the time rule under an "all"
// wrapper.
func Build(p Params) (*Document, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var sigRule Document
	if p.Type == TypeSig {
		sigRule = Document{Type: string(TypeSig), KeyHash: p.Hashes[0]}
	} else {
		subs := make([]Document, 0, len(p.Hashes))
		for _, h := range p.Hashes {
			subs = append(subs, Document{Type: string(TypeSig), KeyHash: h})
		}
		sigRule = Document{Type: string(p.Type), Scripts: subs}
		if p.Type == TypeAtLeast {
			sigRule.Required = p.Required
		}
	}

	if p.TimeType == "" {
		return &sigRule, nil
	}
	return &Document{
		Type: string(TypeAll),
		Scripts: []Document{
			{Type: p.TimeType, Slot: p.Slot},
			sigRule,
		},
	}, nil
}

// Create builds the document, materializes it under the purpose-specific
// folder and derives its policy id through the resolver.
func (b *Builder) Create(ctx context.Context, p Params) (*Document, string, error) {
	doc, err := Build(p)
	if err != nil {
		log.Warnf("Create: invalid script parameters for %q: %v", p.Name, err)
		return nil, "", err
	}

	content, err := doc.Encode()
	if err != nil {
		return nil, "", err
	}
	if _, err := b.resolver.WriteScriptFile(p.Purpose, p.Name, content); err != nil {
		log.Errorf("Create: failed to materialize script %q: %v", p.Name, err)
		return nil, "", err
	}

	policyID, err := b.resolver.CreatePolicyID(ctx, p.Purpose, p.Name)
	if err != nil {
		log.Errorf("Create: failed to derive policy id for %q: %v", p.Name, err)
		return nil, "", err
	}

	log.Infof("Create: script %q built, policy %s", p.Name, policyID)
	return doc, policyID, nil
}

// RecomputePolicyID re-derives the policy id for stored script content.
// Callers compare the result against the stored value as an integrity
// check before any use of the script.
func (b *Builder) RecomputePolicyID(ctx context.Context, purpose Purpose, name string, content []byte) (string, error) {
	if _, err := b.resolver.WriteScriptFile(purpose, name, content); err != nil {
		return "", err
	}
	return b.resolver.CreatePolicyID(ctx, purpose, name)
}
