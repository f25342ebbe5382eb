package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenswap/greenswap/pkg/catalog"
	"github.com/greenswap/greenswap/pkg/llm"
)

type fakeStructured struct {
	payload   string
	err       error
	gotPrompt string
	gotSchema llm.Schema
}

func (f *fakeStructured) GenerateObject(ctx context.Context, prompt string, schema llm.Schema, out any) error {
	f.gotPrompt = prompt
	f.gotSchema = schema
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.payload), out)
}

func TestListSustainableOptions(t *testing.T) {
	model := &fakeStructured{payload: `[
		{"productId":"eco-bag-001","name":"Jute Tote","description":"Handwoven tote","material":"jute","priceInUSD":18.5,"sustainabilityImpact":"biodegradable"},
		{"productId":"eco-bag-002","name":"Canvas Carrier","description":"Organic cotton","material":"canvas","priceInUSD":24,"sustainabilityImpact":"reusable"}
	]`}
	svc := catalog.NewService(model)

	products, err := svc.ListSustainableOptions(context.Background(), "eco-friendly bags")
	require.NoError(t, err)
	require.Len(t, products, 2)
	for _, p := range products {
		assert.NotEmpty(t, p.ProductID)
		assert.NotEmpty(t, p.Name)
		assert.GreaterOrEqual(t, p.PriceInUSD, 0.0)
	}

	assert.Contains(t, model.gotPrompt, "eco-friendly bags")
	assert.True(t, model.gotSchema.Array)
}

func TestListPropagatesGenerationError(t *testing.T) {
	model := &fakeStructured{err: llm.ErrGeneration}
	svc := catalog.NewService(model)

	_, err := svc.ListSustainableOptions(context.Background(), "shoes")
	require.ErrorIs(t, err, llm.ErrGeneration)
}

func TestGetProductDetail(t *testing.T) {
	model := &fakeStructured{payload: `{
		"productId":"eco-bag-001","name":"Jute Tote","description":"Handwoven tote",
		"material":"jute","priceInUSD":18.5,"sustainabilityImpact":"biodegradable",
		"ecoCertification":"GOTS","manufacturingProcess":"solar-powered loom"
	}`}
	svc := catalog.NewService(model)

	detail, err := svc.GetProductDetail(context.Background(), "eco-bag-001")
	require.NoError(t, err)
	assert.Equal(t, "eco-bag-001", detail.ProductID)
	assert.Equal(t, "GOTS", detail.EcoCertification)
	assert.Equal(t, "solar-powered loom", detail.ManufacturingProcess)

	assert.Contains(t, model.gotPrompt, "eco-bag-001")
	assert.False(t, model.gotSchema.Array)
}

func TestQuotePrice(t *testing.T) {
	model := &fakeStructured{payload: `{"totalPriceInUSD":42.5}`}
	svc := catalog.NewService(model)

	quote, err := svc.QuotePrice(context.Background(), "eco-bag-001", []string{"recycled material", "biodegradable packaging"})
	require.NoError(t, err)
	assert.Equal(t, 42.5, quote.TotalPriceInUSD)

	assert.Contains(t, model.gotPrompt, "eco-bag-001")
	assert.Contains(t, model.gotPrompt, "recycled material, biodegradable packaging")
}

func TestQuotePriceNoFeatures(t *testing.T) {
	model := &fakeStructured{payload: `{"totalPriceInUSD":10}`}
	svc := catalog.NewService(model)

	quote, err := svc.QuotePrice(context.Background(), "eco-bag-001", nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, quote.TotalPriceInUSD, 0.0)
}

func TestQuotePricePropagatesError(t *testing.T) {
	model := &fakeStructured{err: errors.New("provider down")}
	svc := catalog.NewService(model)

	_, err := svc.QuotePrice(context.Background(), "x", nil)
	require.Error(t, err)
}
