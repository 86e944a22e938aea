// Package catalogseed loads the startup product catalog from YAML.
package catalogseed

import (
	"fmt"
	"os"
	"strings"

	dominv "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/inventory"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// File is the seed document:
//
//	products:
//	  - id: p-1
//	    name: Linen shirt
//	    price: "29.90"
//	    stock: 12
type File struct {
	Products []Entry `yaml:"products"`
}

type Entry struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Price string `yaml:"price"`
	Stock int    `yaml:"stock"`
}

func LoadFile(path string) ([]*dominv.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalogseed: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates every entry; one bad entry rejects the whole file.
func Parse(data []byte) ([]*dominv.Product, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalogseed: parse: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Products))
	out := make([]*dominv.Product, 0, len(f.Products))
	for i, e := range f.Products {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			return nil, fmt.Errorf("catalogseed: product %d: id is required", i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("catalogseed: product %q listed twice", id)
		}
		seen[id] = struct{}{}

		price, err := decimal.NewFromString(strings.TrimSpace(e.Price))
		if err != nil {
			return nil, fmt.Errorf("catalogseed: product %q: price %q: %w", id, e.Price, err)
		}
		p, err := dominv.NewProduct(id, e.Name, price, e.Stock)
		if err != nil {
			return nil, fmt.Errorf("catalogseed: product %q: %w", id, err)
		}
		out = append(out, p)
	}
	return out, nil
}
