package catalogseed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/errs"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
products:
  - id: p-1
    name: Linen shirt
    price: "29.90"
    stock: 12
  - id: p-2
    name: " Canvas tote "
    price: "5"
    stock: 0
`

func TestParse(t *testing.T) {
	products, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "p-1", products[0].ID)
	assert.True(t, decimal.RequireFromString("29.90").Equal(products[0].UnitPrice))
	assert.Equal(t, 12, products[0].Stock)
	assert.Equal(t, "Canvas tote", products[1].Name)
	assert.Equal(t, 0, products[1].Stock)
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"missing id":     "products:\n  - name: x\n    price: \"1\"\n    stock: 1\n",
		"duplicate id":   "products:\n  - {id: a, name: x, price: \"1\", stock: 1}\n  - {id: a, name: y, price: \"1\", stock: 1}\n",
		"bad price":      "products:\n  - {id: a, name: x, price: abc, stock: 1}\n",
		"negative stock": "products:\n  - {id: a, name: x, price: \"1\", stock: -1}\n",
		"negative price": "products:\n  - {id: a, name: x, price: \"-1\", stock: 1}\n",
		"empty name":     "products:\n  - {id: a, name: \"\", price: \"1\", stock: 1}\n",
		"not yaml":       "products: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
		})
	}

	_, err := Parse([]byte("products:\n  - {id: a, name: x, price: \"1\", stock: -1}\n"))
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	products, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, products, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
