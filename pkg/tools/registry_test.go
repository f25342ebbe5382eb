package tools_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenswap/greenswap/pkg/catalog"
	"github.com/greenswap/greenswap/pkg/tools"
)

func echoTool(name string) tools.Tool {
	return tools.Tool{
		Definition: tools.Definition{Name: name, Description: "echo"},
		Invoke: func(ctx context.Context, args json.RawMessage) (any, error) {
			return string(args), nil
		},
	}
}

func TestRegisterAndInvoke(t *testing.T) {
	r := tools.NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))

	got, err := r.Invoke(context.Background(), "echo", json.RawMessage(`{"x":1}`))
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, got)
}

func TestRegisterDuplicate(t *testing.T) {
	r := tools.NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))
	require.Error(t, r.Register(echoTool("echo")))
}

func TestInvokeUnknown(t *testing.T) {
	r := tools.NewRegistry()
	_, err := r.Invoke(context.Background(), "nope", nil)
	require.ErrorIs(t, err, tools.ErrUnknownTool)
}

func TestDefinitionsPreserveOrder(t *testing.T) {
	r := tools.NewRegistry()
	require.NoError(t, r.Register(echoTool("first")))
	require.NoError(t, r.Register(echoTool("second")))

	defs := r.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "first", defs[0].Name)
	assert.Equal(t, "second", defs[1].Name)
}

type stubCatalog struct {
	lastCategory string
	lastProduct  string
	lastFeatures []string
}

func (s *stubCatalog) ListSustainableOptions(ctx context.Context, category string) ([]catalog.Product, error) {
	s.lastCategory = category
	return []catalog.Product{{ProductID: "p1"}}, nil
}

func (s *stubCatalog) GetProductDetail(ctx context.Context, productID string) (catalog.ProductDetail, error) {
	s.lastProduct = productID
	return catalog.ProductDetail{Product: catalog.Product{ProductID: productID}}, nil
}

func (s *stubCatalog) QuotePrice(ctx context.Context, productID string, selectedFeatures []string) (catalog.PriceQuote, error) {
	s.lastProduct = productID
	s.lastFeatures = selectedFeatures
	return catalog.PriceQuote{TotalPriceInUSD: 12}, nil
}

func TestRegisterCatalog(t *testing.T) {
	r := tools.NewRegistry()
	stub := &stubCatalog{}
	require.NoError(t, tools.RegisterCatalog(r, stub))

	defs := r.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, "listSustainableOptions", defs[0].Name)
	assert.Equal(t, "getProductDetail", defs[1].Name)
	assert.Equal(t, "quotePrice", defs[2].Name)

	_, err := r.Invoke(context.Background(), "listSustainableOptions", json.RawMessage(`{"category":"shoes"}`))
	require.NoError(t, err)
	assert.Equal(t, "shoes", stub.lastCategory)

	got, err := r.Invoke(context.Background(), "quotePrice",
		json.RawMessage(`{"productId":"p1","selectedFeatures":["solar","organic"]}`))
	require.NoError(t, err)
	assert.Equal(t, catalog.PriceQuote{TotalPriceInUSD: 12}, got)
	assert.Equal(t, []string{"solar", "organic"}, stub.lastFeatures)
}

func TestRegisterCatalogBadArgs(t *testing.T) {
	r := tools.NewRegistry()
	require.NoError(t, tools.RegisterCatalog(r, &stubCatalog{}))

	_, err := r.Invoke(context.Background(), "getProductDetail", json.RawMessage(`not json`))
	require.Error(t, err)
}
