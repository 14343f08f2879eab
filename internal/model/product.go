package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Product field constraints.
const (
	ProductNameMaxLength = 200
	PriceMaxDigits       = 10
	PriceDecimalPlaces   = 2
)

// Product represents an item in the catalogue.
type Product struct {
	ID          int64           `db:"id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price"`
	Stock       int             `db:"stock"`
}

// ProductResponse is the wire representation of a product.
type ProductResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Stock       int    `json:"stock"`
}

// NewProductResponse maps a product to its wire representation.
func NewProductResponse(p Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       FormatPrice(p.Price),
		Stock:       p.Stock,
	}
}

// NewProductResponses maps a slice of products, never returning nil.
func NewProductResponses(products []Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductResponse(p))
	}
	return out
}

// FormatPrice renders a price with exactly two decimal places.
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(PriceDecimalPlaces)
}

// ProductInput carries the writable product fields of a create or update request.
// Nil fields were absent from the request body.
type ProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
}

// DecodeProductInput decodes a JSON product body. Type errors are reported per
// field; surrounding whitespace is trimmed from text fields.
func DecodeProductInput(data []byte) (*ProductInput, error) {
	fields, err := decodeObject(data)
	if err != nil {
		return nil, err
	}

	in := &ProductInput{}
	verr := NewValidationError()

	if raw, ok := fields["name"]; ok {
		if s, msg := decodeString(raw); msg != "" {
			verr.Add("name", msg)
		} else {
			s = strings.TrimSpace(s)
			in.Name = &s
		}
	}

	if raw, ok := fields["description"]; ok {
		if s, msg := decodeString(raw); msg != "" {
			verr.Add("description", msg)
		} else {
			s = strings.TrimSpace(s)
			in.Description = &s
		}
	}

	if raw, ok := fields["price"]; ok {
		if d, msg := decodeDecimal(raw); msg != "" {
			verr.Add("price", msg)
		} else {
			in.Price = &d
		}
	}

	if raw, ok := fields["stock"]; ok {
		if n, msg := decodeInt(raw); msg != "" {
			verr.Add("stock", msg)
		} else if n < 0 {
			verr.Add("stock", "Ensure this value is greater than or equal to 0.")
		} else if n > math.MaxInt32 {
			verr.Add("stock", fmt.Sprintf("Ensure this value is less than or equal to %d.", math.MaxInt32))
		} else {
			stock := int(n)
			in.Stock = &stock
		}
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}
	return in, nil
}

// Validate checks field constraints. A partial input only validates the fields it carries.
func (in *ProductInput) Validate(partial bool) error {
	verr := NewValidationError()

	if in.Name == nil {
		if !partial {
			verr.Add("name", msgRequired)
		}
	} else if strings.TrimSpace(*in.Name) == "" {
		verr.Add("name", msgBlank)
	} else if runeLen(*in.Name) > ProductNameMaxLength {
		verr.Add("name", fmt.Sprintf("Ensure this field has no more than %d characters.", ProductNameMaxLength))
	}

	if in.Price == nil {
		if !partial {
			verr.Add("price", msgRequired)
		}
	} else {
		for _, msg := range validatePrice(*in.Price) {
			verr.Add("price", msg)
		}
	}

	if in.Stock == nil {
		if !partial {
			verr.Add("stock", msgRequired)
		}
	} else if *in.Stock < 0 {
		verr.Add("stock", "Ensure this value is greater than or equal to 0.")
	}

	return verr.Err()
}

// validatePrice enforces a non-negative decimal(10,2).
func validatePrice(price decimal.Decimal) []string {
	if price.IsNegative() {
		return []string{"Price must be greater than 0."}
	}

	digits := len(price.Coefficient().String())
	exp := int(price.Exponent())
	decimals := 0
	if exp < 0 {
		decimals = -exp
		if decimals > digits {
			digits = decimals
		}
	} else {
		digits += exp
	}
	whole := digits - decimals

	switch {
	case digits > PriceMaxDigits:
		return []string{fmt.Sprintf("Ensure that there are no more than %d digits in total.", PriceMaxDigits)}
	case decimals > PriceDecimalPlaces:
		return []string{fmt.Sprintf("Ensure that there are no more than %d decimal places.", PriceDecimalPlaces)}
	case whole > PriceMaxDigits-PriceDecimalPlaces:
		return []string{fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", PriceMaxDigits-PriceDecimalPlaces)}
	}
	return nil
}

// Apply copies the supplied fields onto p.
func (in *ProductInput) Apply(p *Product) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
}

// ProductInfo is the aggregate snapshot of the whole catalogue.
type ProductInfo struct {
	Products []ProductResponse `json:"products"`
	Count    int               `json:"count"`
	MaxPrice *float64          `json:"max_price"`
}

// NewProductInfo builds the snapshot. maxPrice is nil for an empty catalogue.
func NewProductInfo(products []Product, maxPrice *decimal.Decimal) *ProductInfo {
	info := &ProductInfo{
		Products: NewProductResponses(products),
		Count:    len(products),
	}
	if maxPrice != nil {
		f := maxPrice.InexactFloat64()
		info.MaxPrice = &f
	}
	return info
}
