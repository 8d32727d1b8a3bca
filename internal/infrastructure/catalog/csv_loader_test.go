package catalog_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/farmapos-api/internal/infrastructure/catalog"
)

func TestLoadCSV_PuntoYComaConComaDecimal(t *testing.T) {
	in := "sku;name;selling_price;tax_rate;min_stock_level;requires_prescription\n" +
		"AMX500;Amoxicilina 500mg;12,50;0;10;si\n" +
		"IBU400;Ibuprofeno 400mg;3.20;19;;no\n"

	products, err := catalog.LoadCSV(strings.NewReader(in), catalog.Options{OrganizationID: "org-1"})
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "AMX500", products[0].SKU)
	assert.True(t, products[0].SellingPrice.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, int64(10), products[0].MinStockLevel)
	assert.True(t, products[0].RequiresPrescription)
	assert.True(t, products[0].IsActive)
	assert.Equal(t, "org-1", products[0].OrganizationID)

	assert.True(t, products[1].TaxRate.Equal(decimal.NewFromInt(19)))
	assert.False(t, products[1].RequiresPrescription)
	assert.NotEqual(t, products[0].ID, products[1].ID)
}

func TestLoadCSV_CostoYNivelDeReorden(t *testing.T) {
	in := "sku;name;cost_price;selling_price;reorder_level\n" +
		"LOR10;Loratadina 10mg;1,2345;4,00;25\n" +
		"VITC;Vitamina C;;2.00;\n"

	products, err := catalog.LoadCSV(strings.NewReader(in), catalog.Options{OrganizationID: "org-1"})
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.True(t, products[0].CostPrice.Equal(decimal.RequireFromString("1.2345")))
	assert.Equal(t, int64(25), products[0].ReorderLevel)
	assert.True(t, products[1].CostPrice.IsZero())
	assert.Equal(t, int64(0), products[1].ReorderLevel)
}

func TestLoadCSV_Latin1(t *testing.T) {
	utf := "sku,name,selling_price\nACE,Acetaminofén jarabe,5\n"
	latin, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(utf))
	require.NoError(t, err)

	products, err := catalog.LoadCSV(bytes.NewReader(latin), catalog.Options{OrganizationID: "org-1", Latin1: true})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Acetaminofén jarabe", products[0].Name)
}

func TestLoadCSV_Errores(t *testing.T) {
	cases := map[string]string{
		"falta columna": "sku,name\nA,B\n",
		"sku repetido":  "sku,name,selling_price\nA,X,1\nA,Y,2\n",
		"precio":        "sku,name,selling_price\nA,X,abc\n",
		"negativo":      "sku,name,selling_price\nA,X,-1\n",
		"costo":         "sku,name,selling_price,cost_price\nA,X,1,-0.5\n",
		"reorden":       "sku,name,selling_price,reorder_level\nA,X,1,muchos\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := catalog.LoadCSV(strings.NewReader(in), catalog.Options{OrganizationID: "org-1"})
			assert.Error(t, err)
		})
	}

	_, err := catalog.LoadCSV(strings.NewReader("sku,name,selling_price\n"), catalog.Options{})
	assert.Error(t, err, "sin organización")
}
