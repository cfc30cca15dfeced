package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "vpexchange/pkg/domain-errors"
)

type callbackTarget struct {
	URL string `json:"url" validate:"required,url"`
}

type sampleRequest struct {
	ExchangeID string           `json:"exchangeId" validate:"required,notblank,max=16,urlsafe"`
	Kind       string           `json:"kind,omitempty" validate:"omitempty,oneof=a b"`
	Callback   []callbackTarget `json:"callback" validate:"dive"`
	Internal   string           `validate:"omitempty,max=2"`
}

func TestValidate(t *testing.T) {
	t.Run("accepts valid request", func(t *testing.T) {
		err := Validate(&sampleRequest{ExchangeID: "ex-1", Callback: []callbackTarget{{URL: "https://example.com/cb"}}})
		assert.NoError(t, err)
	})

	t.Run("reports missing field as validation error", func(t *testing.T) {
		err := Validate(&sampleRequest{})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Equal(t, "exchangeId is required", err.Error())
	})

	t.Run("rejects characters that are not URL safe", func(t *testing.T) {
		err := Validate(&sampleRequest{ExchangeID: "a/b"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "URL-safe")
	})

	t.Run("renders nested field path", func(t *testing.T) {
		err := Validate(&sampleRequest{ExchangeID: "ex-1", Callback: []callbackTarget{{URL: "not a url"}}})
		require.Error(t, err)
		assert.Equal(t, "callback[0].url must be a valid url", err.Error())
	})

	t.Run("renders oneof parameters", func(t *testing.T) {
		err := Validate(&sampleRequest{ExchangeID: "ex-1", Kind: "c"})
		require.Error(t, err)
		assert.Equal(t, "kind must be one of [a b]", err.Error())
	})

	t.Run("falls back to the Go field name without a json tag", func(t *testing.T) {
		err := Validate(&sampleRequest{ExchangeID: "ex-1", Internal: "abc"})
		require.Error(t, err)
		assert.Equal(t, "Internal must be at most 2", err.Error())
	})
}
