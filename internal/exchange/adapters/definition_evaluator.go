package adapters

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/PaesslerAG/jsonpath"
	"github.com/xeipuuv/gojsonschema"

	"vpexchange/internal/exchange/models"
)

// pathEval resolves a compiled JSONPath against a decoded JSON document.
type pathEval func(ctx context.Context, v any) (any, error)

type compiledField struct {
	paths    []string
	evals    []pathEval
	filter   *gojsonschema.Schema
	optional bool
}

type compiledDescriptor struct {
	id     string
	fields []compiledField
}

// DefinitionEvaluator matches presentations against DIF presentation definitions
// using JSONPath field paths and JSON Schema filters.
type DefinitionEvaluator struct{}

func NewDefinitionEvaluator() *DefinitionEvaluator {
	return &DefinitionEvaluator{}
}

// Evaluate implements ports.PresentationEvaluator. An input descriptor is
// satisfied when one candidate credential satisfies all of its required fields.
// Candidates come from the presentation_submission descriptor map when it names
// the descriptor, otherwise from every embedded credential.
func (e *DefinitionEvaluator) Evaluate(ctx context.Context, def models.PresentationDefinition, vp *models.Presentation) (*models.EvaluationResult, error) {
	descriptors, err := compile(def)
	if err != nil {
		return nil, err
	}

	doc, err := toDocument(vp)
	if err != nil {
		return nil, err
	}

	result := &models.EvaluationResult{Errors: []models.EvaluationError{}}
	for _, d := range descriptors {
		candidates, msg := e.candidates(d.id, vp, doc)
		if msg != "" {
			result.Errors = append(result.Errors, models.EvaluationError{Message: msg})
			continue
		}
		if !anySatisfies(ctx, candidates, d.fields) {
			result.Errors = append(result.Errors, models.EvaluationError{
				Message: fmt.Sprintf("input descriptor %s is not satisfied by any presented credential", d.id),
			})
		}
	}
	return result, nil
}

func compile(def models.PresentationDefinition) ([]compiledDescriptor, error) {
	if len(def.InputDescriptors) == 0 {
		return nil, fmt.Errorf("presentation definition %s has no input descriptors", def.ID)
	}

	out := make([]compiledDescriptor, 0, len(def.InputDescriptors))
	for _, desc := range def.InputDescriptors {
		cd := compiledDescriptor{id: desc.ID}
		if desc.Constraints != nil {
			for _, f := range desc.Constraints.Fields {
				cf, err := compileField(f)
				if err != nil {
					return nil, fmt.Errorf("input descriptor %s: %w", desc.ID, err)
				}
				cd.fields = append(cd.fields, cf)
			}
		}
		out = append(out, cd)
	}
	return out, nil
}

func compileField(f models.Field) (compiledField, error) {
	if len(f.Path) == 0 {
		return compiledField{}, fmt.Errorf("field has no path")
	}
	cf := compiledField{paths: f.Path, optional: f.Optional}
	for _, p := range f.Path {
		eval, err := jsonpath.New(p)
		if err != nil {
			return compiledField{}, fmt.Errorf("invalid field path %q: %w", p, err)
		}
		cf.evals = append(cf.evals, pathEval(eval))
	}
	if f.Filter != nil {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(f.Filter))
		if err != nil {
			return compiledField{}, fmt.Errorf("invalid filter for path %q: %w", f.Path[0], err)
		}
		cf.filter = schema
	}
	return cf, nil
}

// toDocument converts the presentation into the generic JSON form paths run against.
// A single credential is normalized into a one-element verifiableCredential list.
func toDocument(vp *models.Presentation) (map[string]any, error) {
	if vp == nil {
		return nil, fmt.Errorf("presentation is required")
	}
	raw, err := json.Marshal(vp)
	if err != nil {
		return nil, fmt.Errorf("encode presentation: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode presentation: %w", err)
	}
	switch creds := doc["verifiableCredential"].(type) {
	case nil, []any:
	default:
		doc["verifiableCredential"] = []any{creds}
	}
	return doc, nil
}

func (e *DefinitionEvaluator) candidates(descriptorID string, vp *models.Presentation, doc map[string]any) ([]any, string) {
	if vp.PresentationSubmission != nil {
		for _, m := range vp.PresentationSubmission.DescriptorMap {
			if m.ID != descriptorID {
				continue
			}
			v, err := jsonpath.Get(m.Path, doc)
			if err != nil {
				return nil, fmt.Sprintf("input descriptor %s: descriptor map path %s does not resolve", descriptorID, m.Path)
			}
			return []any{v}, ""
		}
	}

	creds, _ := doc["verifiableCredential"].([]any)
	if len(creds) == 0 {
		return nil, fmt.Sprintf("input descriptor %s: no credentials presented", descriptorID)
	}
	return creds, ""
}

func anySatisfies(ctx context.Context, candidates []any, fields []compiledField) bool {
	for _, c := range candidates {
		if satisfiesAll(ctx, c, fields) {
			return true
		}
	}
	return false
}

func satisfiesAll(ctx context.Context, candidate any, fields []compiledField) bool {
	for _, f := range fields {
		if f.optional {
			continue
		}
		if !f.matches(ctx, candidate) {
			return false
		}
	}
	return true
}

// matches reports whether any of the field's paths resolves to a value passing the filter.
func (f compiledField) matches(ctx context.Context, candidate any) bool {
	for _, eval := range f.evals {
		v, err := eval(ctx, candidate)
		if err != nil || v == nil {
			continue
		}
		if list, ok := v.([]any); ok && len(list) == 0 {
			continue
		}
		if f.filter == nil {
			return true
		}
		res, err := f.filter.Validate(gojsonschema.NewGoLoader(v))
		if err == nil && res.Valid() {
			return true
		}
	}
	return false
}
