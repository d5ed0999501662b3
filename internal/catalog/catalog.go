// Package catalog holds the compiled-in list of digital products.
package catalog

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. It is never mutated after start.
type Product struct {
	ID          string
	Title       string
	Description string
	Price       decimal.Decimal
	Image       string
}

type productJSON struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Image       string      `json:"image"`
}

// MarshalJSON renders the price as a bare number with one decimal place
// and leaves the '&' in image URLs unescaped.
func (p Product) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(productJSON{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       json.Number(p.Price.StringFixed(1)),
		Image:       p.Image,
	})
	return bytes.TrimRight(buf.Bytes(), "\n"), err
}

var products = []Product{
	{
		ID:          "preset-pack-1",
		Title:       "Cinematic LUT Pack",
		Description: "20 handcrafted LUTs for filmic color grading.",
		Price:       decimal.NewFromInt(19),
		Image:       "https://images.unsplash.com/photo-1518779578993-ec3579fee39f?w=1200&q=80&auto=format&fit=crop",
	},
	{
		ID:          "font-bundle-1",
		Title:       "Modern Font Bundle",
		Description: "8 sleek sans-serif fonts for brands & UI.",
		Price:       decimal.NewFromInt(24),
		Image:       "https://images.unsplash.com/photo-1554933753-49365efbcf56?w=1200&q=80&auto=format&fit=crop",
	},
	{
		ID:          "ui-kit-1",
		Title:       "Neo UI Kit",
		Description: "200+ responsive components for Figma.",
		Price:       decimal.NewFromInt(29),
		Image:       "https://images.unsplash.com/photo-1559028012-481c04fa702d?w=1200&q=80&auto=format&fit=crop",
	},
	{
		ID:          "sfx-pack-1",
		Title:       "SFX Starter Pack",
		Description: "120 whooshes, hits, and risers in WAV.",
		Price:       decimal.NewFromInt(15),
		Image:       "https://images.unsplash.com/photo-1510915228340-29c85a43dcfe?w=1200&q=80&auto=format&fit=crop",
	},
}

// List returns the catalog in its fixed order. The slice is a copy.
func List() []Product {
	out := make([]Product, len(products))
	copy(out, products)
	return out
}
