package main

import (
	"compress/gzip"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

type product struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Stock       int    `json:"stock"`
}

// generateSampleProducts writes the default fixture files read by cmd/seed.
// products_1 holds furniture, products_2 lighting and accessories. A few
// records are deliberately invalid or out of stock.
func main() {
	dir := flag.String("dir", ".", "output directory")
	flag.Parse()

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	fixtures := map[string][]product{
		"products_1.jsonl.gz": {
			{Name: "Oak Desk", Description: "Solid oak writing desk", Price: "250.00", Stock: 3},
			{Name: "Walnut Bookshelf", Description: "Five shelves, walnut veneer", Price: "189.90", Stock: 7},
			{Name: "Office Chair", Description: "Mesh back, adjustable height", Price: "129.00", Stock: 12},
			{Name: "Bar Stool", Description: "Powder-coated steel", Price: "45.50", Stock: 0},
			{Name: "Coffee Table", Description: "", Price: "99.99", Stock: 4},
			{Name: "Broken Record", Description: "Negative price is rejected", Price: "-5.00", Stock: 1},
		},
		"products_2.jsonl.gz": {
			{Name: "Desk Lamp", Description: "LED, warm white", Price: "35.50", Stock: 10},
			{Name: "Floor Lamp", Description: "Arc lamp with marble base", Price: "149.00", Stock: 2},
			{Name: "Wall Clock", Description: "Silent sweep movement", Price: "24.00", Stock: 15},
			{Name: "Throw Blanket", Description: "Wool blend", Price: "0.00", Stock: 5},
			{Name: "Picture Frame", Description: "A4, black", Price: "12.75", Stock: 0},
		},
	}

	for filename, products := range fixtures {
		filePath := filepath.Join(*dir, filename)

		if err := createFixtureFile(filePath, products); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d records\n", filePath, len(products))
	}
}

func createFixtureFile(filePath string, products []product) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	enc := json.NewEncoder(gzipWriter)
	for _, p := range products {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("failed to write product: %w", err)
		}
	}

	return nil
}
