package testutil

import (
	"time"

	"vpexchange/internal/exchange/models"
)

// FixedTime is a deterministic clock value for tests.
var FixedTime = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

// TestBaseURL is the service base URL used when starting transactions in tests.
const TestBaseURL = "https://exchange.example.test"

// ExchangeBuilder provides a fluent interface for building exchange definitions.
type ExchangeBuilder struct {
	id        string
	interact  models.InteractType
	query     []models.Query
	oneTime   bool
	callbacks []models.CallbackTarget
	createdAt time.Time
}

// NewExchangeBuilder creates an unmediated DIDAuth exchange with the given id.
func NewExchangeBuilder(exchangeID string) *ExchangeBuilder {
	return &ExchangeBuilder{
		id:        exchangeID,
		interact:  models.InteractUnmediated,
		query:     []models.Query{{Type: models.QueryDIDAuth}},
		createdAt: FixedTime,
	}
}

func (b *ExchangeBuilder) Mediated() *ExchangeBuilder {
	b.interact = models.InteractMediated
	return b
}

func (b *ExchangeBuilder) OneTime() *ExchangeBuilder {
	b.oneTime = true
	return b
}

func (b *ExchangeBuilder) WithQuery(query ...models.Query) *ExchangeBuilder {
	b.query = query
	return b
}

func (b *ExchangeBuilder) WithCallbacks(urls ...string) *ExchangeBuilder {
	for _, u := range urls {
		b.callbacks = append(b.callbacks, models.CallbackTarget{URL: u})
	}
	return b
}

// Build panics on invalid input; builders are only used with literal test data.
func (b *ExchangeBuilder) Build() *models.ExchangeDefinition {
	def, err := models.NewExchangeDefinition(
		b.id,
		[]models.InteractDefinition{{Type: b.interact}},
		b.query,
		b.oneTime,
		b.callbacks,
		b.createdAt,
	)
	if err != nil {
		panic(err)
	}
	return def
}

// PresentationDefinitionQuery wraps a single input descriptor requiring path.
func PresentationDefinitionQuery(definitionID, descriptorID, path string) models.Query {
	return models.Query{
		Type: models.QueryPresentationDefinition,
		CredentialQuery: []models.CredentialQuery{{
			PresentationDefinition: models.PresentationDefinition{
				ID: definitionID,
				InputDescriptors: []models.InputDescriptor{{
					ID: descriptorID,
					Constraints: &models.Constraints{
						Fields: []models.Field{{Path: []string{path}}},
					},
				}},
			},
		}},
	}
}

// NewTestPresentation builds a presentation signed for authentication by holder.
func NewTestPresentation(holder, challenge string, credentials ...map[string]any) *models.Presentation {
	vp := &models.Presentation{
		Context: []any{"https://www.w3.org/2018/credentials/v1"},
		Type:    []string{"VerifiablePresentation"},
		Holder:  holder,
		Proof: &models.Proof{
			Type:               "Ed25519Signature2020",
			Created:            FixedTime.Format(time.RFC3339),
			ProofPurpose:       models.ProofPurposeAuthentication,
			VerificationMethod: holder + "#key-1",
			Challenge:          challenge,
			ProofValue:         "z3FXQjecWufY46",
		},
	}
	if len(credentials) > 0 {
		vp.VerifiableCredential = credentials
	}
	return vp
}
