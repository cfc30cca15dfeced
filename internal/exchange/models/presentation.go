package models

import (
	"bytes"
	"encoding/json"
)

// Presentation is a holder-assembled verifiable presentation.
//
// The exported fields are a read-only view of the parts the engine inspects.
// A decoded presentation also keeps the exact document the holder sent, and
// MarshalJSON re-emits that document so signed members the view does not
// model (cryptosuite, nonce, enveloped credentials) reach the proof verifier,
// the store and callbacks untouched. Presentations built in code have no
// document and marshal from the view.
type Presentation struct {
	Context []any    `json:"@context,omitempty"`
	ID      string   `json:"id,omitempty"`
	Type    []string `json:"type,omitempty"`
	Holder  string   `json:"holder,omitempty"`
	// VerifiableCredential is a single credential or a list; entries are
	// objects or enveloped (JWT) strings.
	VerifiableCredential   any                     `json:"verifiableCredential,omitempty"`
	PresentationSubmission *PresentationSubmission `json:"presentation_submission,omitempty"`
	Proof                  *Proof                  `json:"proof,omitempty"`

	raw json.RawMessage
}

type presentationView Presentation

// UnmarshalJSON decodes the view and retains the original document.
func (p *Presentation) UnmarshalJSON(data []byte) error {
	var view presentationView
	if err := json.Unmarshal(data, &view); err != nil {
		return err
	}
	*p = Presentation(view)
	if !bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		p.raw = append(json.RawMessage(nil), data...)
	}
	return nil
}

// MarshalJSON emits the original document when there is one.
func (p Presentation) MarshalJSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	return json.Marshal(presentationView(p))
}

// Proof is the holder's proof over the presentation. Members not listed here
// survive in the retained document.
type Proof struct {
	Type               string `json:"type,omitempty"`
	Created            string `json:"created,omitempty"`
	ProofPurpose       string `json:"proofPurpose,omitempty"`
	VerificationMethod string `json:"verificationMethod,omitempty"`
	Challenge          string `json:"challenge,omitempty"`
	Domain             string `json:"domain,omitempty"`
	JWS                string `json:"jws,omitempty"`
	ProofValue         string `json:"proofValue,omitempty"`
}

// Challenge returns the proof challenge, or "" when the presentation is unsigned.
func (p *Presentation) Challenge() string {
	if p == nil || p.Proof == nil {
		return ""
	}
	return p.Proof.Challenge
}

// VerificationMethod returns the proof verification method, or "" when unsigned.
func (p *Presentation) VerificationMethod() string {
	if p == nil || p.Proof == nil {
		return ""
	}
	return p.Proof.VerificationMethod
}

// PresentationSubmission maps input descriptors onto credentials inside the presentation.
type PresentationSubmission struct {
	ID            string              `json:"id"`
	DefinitionID  string              `json:"definition_id"`
	DescriptorMap []DescriptorMapping `json:"descriptor_map"`
}

// DescriptorMapping points one input descriptor at a JSONPath inside the presentation.
type DescriptorMapping struct {
	ID     string `json:"id"`
	Format string `json:"format,omitempty"`
	Path   string `json:"path"`
}

// PresentationDefinition is a DIF Presentation Exchange constraint set.
type PresentationDefinition struct {
	ID               string            `json:"id" validate:"required,notblank"`
	Name             string            `json:"name,omitempty"`
	Purpose          string            `json:"purpose,omitempty"`
	InputDescriptors []InputDescriptor `json:"input_descriptors" validate:"required,min=1,dive"`
}

// InputDescriptor describes one credential the holder must present.
type InputDescriptor struct {
	ID          string       `json:"id" validate:"required,notblank"`
	Name        string       `json:"name,omitempty"`
	Purpose     string       `json:"purpose,omitempty"`
	Constraints *Constraints `json:"constraints,omitempty"`
}

// Constraints restricts which credential satisfies an input descriptor.
type Constraints struct {
	LimitDisclosure string  `json:"limit_disclosure,omitempty"`
	Fields          []Field `json:"fields,omitempty" validate:"dive"`
}

// Field requires one of Path to resolve, optionally matching the JSON Schema Filter.
type Field struct {
	ID       string         `json:"id,omitempty"`
	Path     []string       `json:"path" validate:"required,min=1,dive,required"`
	Purpose  string         `json:"purpose,omitempty"`
	Filter   map[string]any `json:"filter,omitempty"`
	Optional bool           `json:"optional,omitempty"`
}

// EvaluationResult is the presentation-definition evaluator's verdict.
type EvaluationResult struct {
	Errors []EvaluationError `json:"errors"`
}

// EvaluationError is one unmet constraint.
type EvaluationError struct {
	Message string `json:"message,omitempty"`
}
