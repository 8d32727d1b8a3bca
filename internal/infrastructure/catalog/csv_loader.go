// Package catalog importa el catálogo de productos desde el CSV exportado por el sistema anterior.
//
// Columnas esperadas (con encabezado):
//
//	sku;name;cost_price;selling_price;tax_rate;min_stock_level;reorder_level;requires_prescription
//
// Sólo sku, name y selling_price son obligatorias.
//
// Se acepta ',' o ';' como separador y UTF-8 o ISO-8859-1 (exportaciones de Excel).
package catalog

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/farmapos-api/internal/domain/entity"
)

var requiredColumns = []string{"sku", "name", "selling_price"}

// Options controla la lectura del CSV.
type Options struct {
	OrganizationID string
	Latin1         bool // decodificar ISO-8859-1
}

// LoadCSV lee productos activos del CSV. Los errores indican la fila (1 = encabezado).
func LoadCSV(r io.Reader, opts Options) ([]*entity.Product, error) {
	if opts.OrganizationID == "" {
		return nil, fmt.Errorf("catalog: organization_id requerido")
	}
	if opts.Latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	br := bufio.NewReader(r)
	head, _ := br.Peek(4096)

	cr := csv.NewReader(br)
	cr.Comma = detectSeparator(head)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("catalog: leer encabezado: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("catalog: falta columna %q", c)
		}
	}

	now := time.Now().UTC()
	seen := make(map[string]bool)
	var out []*entity.Product
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: fila %d: %w", line, err)
		}
		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		p := &entity.Product{
			ID:             uuid.NewString(),
			OrganizationID: opts.OrganizationID,
			SKU:            get("sku"),
			Name:           get("name"),
			IsActive:       true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if p.SKU == "" || p.Name == "" {
			return nil, fmt.Errorf("catalog: fila %d: sku y name requeridos", line)
		}
		if seen[p.SKU] {
			return nil, fmt.Errorf("catalog: fila %d: sku %s repetido", line, p.SKU)
		}
		seen[p.SKU] = true

		if p.SellingPrice, err = parseDecimal(get("selling_price")); err != nil || p.SellingPrice.IsNegative() {
			return nil, fmt.Errorf("catalog: fila %d: selling_price inválido", line)
		}
		if p.CostPrice, err = parseDecimal(get("cost_price")); err != nil || p.CostPrice.IsNegative() {
			return nil, fmt.Errorf("catalog: fila %d: cost_price inválido", line)
		}
		if p.TaxRate, err = parseDecimal(get("tax_rate")); err != nil {
			return nil, fmt.Errorf("catalog: fila %d: tax_rate inválido", line)
		}
		if v := get("min_stock_level"); v != "" {
			if p.MinStockLevel, err = strconv.ParseInt(v, 10, 64); err != nil || p.MinStockLevel < 0 {
				return nil, fmt.Errorf("catalog: fila %d: min_stock_level inválido", line)
			}
		}
		if v := get("reorder_level"); v != "" {
			if p.ReorderLevel, err = strconv.ParseInt(v, 10, 64); err != nil || p.ReorderLevel < 0 {
				return nil, fmt.Errorf("catalog: fila %d: reorder_level inválido", line)
			}
		}
		p.RequiresPrescription = parseBool(get("requires_prescription"))
		out = append(out, p)
	}
	return out, nil
}

func detectSeparator(head []byte) rune {
	first := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		first = head[:i]
	}
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		return ';'
	}
	return ','
}

// parseDecimal acepta coma decimal ("12,50"); vacío es cero.
func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "si", "sí", "s", "x", "yes":
		return true
	}
	return false
}
