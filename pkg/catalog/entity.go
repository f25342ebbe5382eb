package catalog

// Product is a sustainable product option proposed by the model. Products are
// transient: they exist only for the lifetime of the response that carried
// them and are never persisted.
type Product struct {
	ProductID            string  `json:"productId"`
	Name                 string  `json:"name"`
	Description          string  `json:"description"`
	Material             string  `json:"material"`
	PriceInUSD           float64 `json:"priceInUSD"`
	SustainabilityImpact string  `json:"sustainabilityImpact"`
}

// ProductDetail extends Product with certification and manufacturing info.
type ProductDetail struct {
	Product
	EcoCertification     string `json:"ecoCertification"`
	ManufacturingProcess string `json:"manufacturingProcess"`
}

// PriceQuote is the total price for a product with a set of selected features.
type PriceQuote struct {
	TotalPriceInUSD float64 `json:"totalPriceInUSD"`
}
