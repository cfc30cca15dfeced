package adapters

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpexchange/internal/exchange/models"
)

func employmentCredential(employer string) map[string]any {
	return map[string]any{
		"type": []any{"VerifiableCredential", "EmploymentCredential"},
		"credentialSubject": map[string]any{
			"id":       "did:example:alice",
			"employer": employer,
		},
	}
}

func employmentDefinition(fields ...models.Field) models.PresentationDefinition {
	return models.PresentationDefinition{
		ID: "employment-pd",
		InputDescriptors: []models.InputDescriptor{{
			ID:          "employment",
			Constraints: &models.Constraints{Fields: fields},
		}},
	}
}

func TestDefinitionEvaluator(t *testing.T) {
	ctx := context.Background()
	eval := NewDefinitionEvaluator()

	employerIsACME := models.Field{
		Path:   []string{"$.credentialSubject.employer"},
		Filter: map[string]any{"type": "string", "const": "ACME"},
	}
	typeIsEmployment := models.Field{
		Path:   []string{"$.type"},
		Filter: map[string]any{"type": "array", "contains": map[string]any{"const": "EmploymentCredential"}},
	}

	t.Run("satisfied by a matching credential", func(t *testing.T) {
		vp := &models.Presentation{VerifiableCredential: []map[string]any{
			employmentCredential("Globex"),
			employmentCredential("ACME"),
		}}

		res, err := eval.Evaluate(ctx, employmentDefinition(employerIsACME, typeIsEmployment), vp)

		require.NoError(t, err)
		assert.Empty(t, res.Errors)
	})

	t.Run("filter mismatch is reported", func(t *testing.T) {
		vp := &models.Presentation{VerifiableCredential: []map[string]any{employmentCredential("Globex")}}

		res, err := eval.Evaluate(ctx, employmentDefinition(employerIsACME), vp)

		require.NoError(t, err)
		require.Len(t, res.Errors, 1)
		assert.Contains(t, res.Errors[0].Message, "input descriptor employment is not satisfied")
	})

	t.Run("missing field is reported", func(t *testing.T) {
		cred := employmentCredential("ACME")
		delete(cred["credentialSubject"].(map[string]any), "employer")
		vp := &models.Presentation{VerifiableCredential: []map[string]any{cred}}

		res, err := eval.Evaluate(ctx, employmentDefinition(models.Field{Path: []string{"$.credentialSubject.employer"}}), vp)

		require.NoError(t, err)
		assert.Len(t, res.Errors, 1)
	})

	t.Run("alternative paths", func(t *testing.T) {
		vp := &models.Presentation{VerifiableCredential: []map[string]any{employmentCredential("ACME")}}
		field := models.Field{Path: []string{"$.vc.credentialSubject.employer", "$.credentialSubject.employer"}}

		res, err := eval.Evaluate(ctx, employmentDefinition(field), vp)

		require.NoError(t, err)
		assert.Empty(t, res.Errors)
	})

	t.Run("optional fields are not required", func(t *testing.T) {
		vp := &models.Presentation{VerifiableCredential: []map[string]any{employmentCredential("ACME")}}
		field := models.Field{Path: []string{"$.credentialSubject.salary"}, Optional: true}

		res, err := eval.Evaluate(ctx, employmentDefinition(field), vp)

		require.NoError(t, err)
		assert.Empty(t, res.Errors)
	})

	t.Run("no credentials", func(t *testing.T) {
		res, err := eval.Evaluate(ctx, employmentDefinition(employerIsACME), &models.Presentation{})

		require.NoError(t, err)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "input descriptor employment: no credentials presented", res.Errors[0].Message)
	})

	t.Run("descriptor map narrows candidates", func(t *testing.T) {
		vp := &models.Presentation{
			VerifiableCredential: []map[string]any{employmentCredential("ACME"), employmentCredential("Globex")},
			PresentationSubmission: &models.PresentationSubmission{
				ID:           "sub-1",
				DefinitionID: "employment-pd",
				DescriptorMap: []models.DescriptorMapping{
					{ID: "employment", Format: "ldp_vc", Path: "$.verifiableCredential[1]"},
				},
			},
		}

		res, err := eval.Evaluate(ctx, employmentDefinition(employerIsACME), vp)

		require.NoError(t, err)
		assert.Len(t, res.Errors, 1, "the mapped credential is from Globex")
	})

	t.Run("single credential object is evaluated", func(t *testing.T) {
		var vp models.Presentation
		require.NoError(t, json.Unmarshal([]byte(`{"holder":"did:example:alice","verifiableCredential":`+
			`{"type":["VerifiableCredential","EmploymentCredential"],"credentialSubject":{"employer":"ACME"}}}`), &vp))

		res, err := eval.Evaluate(ctx, employmentDefinition(employerIsACME, typeIsEmployment), &vp)

		require.NoError(t, err)
		assert.Empty(t, res.Errors)
	})

	t.Run("enveloped credential does not satisfy object constraints", func(t *testing.T) {
		var vp models.Presentation
		require.NoError(t, json.Unmarshal([]byte(`{"verifiableCredential":["eyJhbGciOiJFZERTQSJ9.e30.sig"]}`), &vp))

		res, err := eval.Evaluate(ctx, employmentDefinition(employerIsACME), &vp)

		require.NoError(t, err)
		assert.Len(t, res.Errors, 1)
	})

	t.Run("malformed path fails evaluation", func(t *testing.T) {
		vp := &models.Presentation{VerifiableCredential: []map[string]any{employmentCredential("ACME")}}

		_, err := eval.Evaluate(ctx, employmentDefinition(models.Field{Path: []string{"$.credentialSubject["}}), vp)

		assert.ErrorContains(t, err, "invalid field path")
	})

	t.Run("malformed filter fails evaluation", func(t *testing.T) {
		vp := &models.Presentation{VerifiableCredential: []map[string]any{employmentCredential("ACME")}}
		field := models.Field{Path: []string{"$.credentialSubject.employer"}, Filter: map[string]any{"type": 42}}

		_, err := eval.Evaluate(ctx, employmentDefinition(field), vp)

		assert.ErrorContains(t, err, "invalid filter")
	})

	t.Run("definition without descriptors fails evaluation", func(t *testing.T) {
		_, err := eval.Evaluate(ctx, models.PresentationDefinition{ID: "empty"}, &models.Presentation{})
		assert.Error(t, err)
	})
}
