package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/greenswap/greenswap/pkg/llm"
)

// UseCase exposes the product catalog operations. Every call is a fresh,
// independent generation: no retries, no caching, no post-processing of the
// provider's output.
type UseCase interface {
	ListSustainableOptions(ctx context.Context, category string) ([]Product, error)
	GetProductDetail(ctx context.Context, productID string) (ProductDetail, error)
	QuotePrice(ctx context.Context, productID string, selectedFeatures []string) (PriceQuote, error)
}

var productFields = []llm.Field{
	{Name: "productId", Type: "string", Description: "Unique identifier for the product"},
	{Name: "name", Type: "string", Description: "Name of the sustainable product"},
	{Name: "description", Type: "string", Description: "Description of the product"},
	{Name: "material", Type: "string", Description: "Material used in the product"},
	{Name: "priceInUSD", Type: "number", Description: "Price of the product in USD"},
	{Name: "sustainabilityImpact", Type: "string", Description: "Sustainability impact of the product"},
}

var detailFields = append(append([]llm.Field{}, productFields...),
	llm.Field{Name: "ecoCertification", Type: "string", Description: "Eco-certifications the product holds"},
	llm.Field{Name: "manufacturingProcess", Type: "string", Description: "Sustainable manufacturing process used"},
)

var priceFields = []llm.Field{
	{Name: "totalPriceInUSD", Type: "number", Description: "Total price of the sustainable product in USD"},
}

type service struct {
	model llm.StructuredModel
}

// NewService returns the default catalog implementation on top of a
// structured generation model.
func NewService(model llm.StructuredModel) UseCase {
	return &service{model: model}
}

func (s *service) ListSustainableOptions(ctx context.Context, category string) ([]Product, error) {
	prompt := fmt.Sprintf("Generate a list of sustainable product options for the category: %s", category)
	var products []Product
	if err := s.model.GenerateObject(ctx, prompt, llm.ArrayOf(productFields...), &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *service) GetProductDetail(ctx context.Context, productID string) (ProductDetail, error) {
	prompt := fmt.Sprintf("Provide detailed information about the sustainable product with ID: %s", productID)
	var detail ProductDetail
	if err := s.model.GenerateObject(ctx, prompt, llm.Object(detailFields...), &detail); err != nil {
		return ProductDetail{}, err
	}
	return detail, nil
}

func (s *service) QuotePrice(ctx context.Context, productID string, selectedFeatures []string) (PriceQuote, error) {
	prompt := fmt.Sprintf(
		"Calculate the price for the sustainable product with ID: %s and the following selected features: %s",
		productID, strings.Join(selectedFeatures, ", "),
	)
	var quote PriceQuote
	if err := s.model.GenerateObject(ctx, prompt, llm.Object(priceFields...), &quote); err != nil {
		return PriceQuote{}, err
	}
	return quote, nil
}
