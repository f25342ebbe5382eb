package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/greenswap/greenswap/pkg/catalog"
	"github.com/greenswap/greenswap/pkg/llm"
)

// RegisterCatalog binds the product catalog operations to the registry so the
// chat layer can expose them as invocable tools.
func RegisterCatalog(r *Registry, uc catalog.UseCase) error {
	list := Tool{
		Definition: Definition{
			Name:        "listSustainableOptions",
			Description: "List sustainable product options within a category",
			Parameters: []llm.Field{
				{Name: "category", Type: "string", Description: "Product category, e.g. eco-friendly bags"},
			},
		},
		Invoke: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in struct {
				Category string `json:"category"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("parse arguments: %w", err)
			}
			return uc.ListSustainableOptions(ctx, in.Category)
		},
	}

	detail := Tool{
		Definition: Definition{
			Name:        "getProductDetail",
			Description: "Get full detail for a sustainable product",
			Parameters: []llm.Field{
				{Name: "productId", Type: "string", Description: "Unique identifier for the product"},
			},
		},
		Invoke: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in struct {
				ProductID string `json:"productId"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("parse arguments: %w", err)
			}
			return uc.GetProductDetail(ctx, in.ProductID)
		},
	}

	quote := Tool{
		Definition: Definition{
			Name:        "quotePrice",
			Description: "Price a product configured with selected features",
			Parameters: []llm.Field{
				{Name: "productId", Type: "string", Description: "Unique identifier for the product"},
				{Name: "selectedFeatures", Type: "string", Description: "Selected feature labels"},
			},
		},
		Invoke: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in struct {
				ProductID        string   `json:"productId"`
				SelectedFeatures []string `json:"selectedFeatures"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("parse arguments: %w", err)
			}
			return uc.QuotePrice(ctx, in.ProductID, in.SelectedFeatures)
		},
	}

	for _, t := range []Tool{list, detail, quote} {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}
