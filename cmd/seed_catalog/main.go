// seed_catalog genera un script SQL para poblar una sucursal y su catálogo de productos
// a partir del CSV exportado por el sistema anterior.
//
// Uso: go run ./cmd/seed_catalog -org <uuid> -facility "Farmacia Centro" [-prefix FC] [-latin1] [-out seed.sql] productos.csv
// Sin -out escribe en stdout.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/farmapos-api/internal/domain/entity"
	"github.com/jhoicas/farmapos-api/internal/infrastructure/catalog"
)

func main() {
	org := flag.String("org", "", "organization_id (UUID)")
	facility := flag.String("facility", "Sucursal principal", "nombre de la sucursal")
	address := flag.String("address", "", "dirección de la sucursal")
	prefix := flag.String("prefix", "", "prefijo de recibos de la sucursal (vacío = global)")
	latin1 := flag.Bool("latin1", false, "el CSV está en ISO-8859-1")
	outPath := flag.String("out", "", "archivo SQL de salida (por defecto stdout)")
	flag.Parse()

	if flag.NArg() != 1 || *org == "" {
		fmt.Fprintln(os.Stderr, "uso: seed_catalog -org <uuid> [opciones] productos.csv")
		os.Exit(2)
	}
	if _, err := uuid.Parse(*org); err != nil {
		fmt.Fprintf(os.Stderr, "org inválido: %v\n", err)
		os.Exit(2)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	products, err := catalog.LoadCSV(f, catalog.Options{OrganizationID: *org, Latin1: *latin1})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if *outPath != "" {
		file, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Crear salida: %v\n", err)
			os.Exit(1)
		}
		defer file.Close()
		out = file
	}
	w := bufio.NewWriter(out)
	fac := entity.Facility{ID: uuid.NewString(), OrganizationID: *org, Name: *facility, Address: *address, ReceiptPrefix: *prefix}
	writeSQL(w, fac, products)
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "OK: sucursal %s y %d productos\n", fac.ID, len(products))
}

func writeSQL(w io.Writer, fac entity.Facility, products []*entity.Product) {
	fmt.Fprintln(w, "-- Generado por cmd/seed_catalog")
	fmt.Fprintln(w, "BEGIN;")
	fmt.Fprintf(w, "INSERT INTO facilities (id, organization_id, name, address, receipt_prefix) VALUES (%s, %s, %s, %s, %s);\n",
		quote(fac.ID), quote(fac.OrganizationID), quote(fac.Name), quote(fac.Address), quote(fac.ReceiptPrefix))
	for _, p := range products {
		fmt.Fprintf(w,
			"INSERT INTO products (id, organization_id, sku, name, cost_price, selling_price, tax_rate, "+
				"min_stock_level, reorder_level, requires_prescription, is_active) "+
				"VALUES (%s, %s, %s, %s, %s, %s, %s, %d, %d, %t, TRUE) ON CONFLICT (organization_id, sku) DO NOTHING;\n",
			quote(p.ID), quote(p.OrganizationID), quote(p.SKU), quote(p.Name),
			p.CostPrice.StringFixed(4), p.SellingPrice.StringFixed(2), p.TaxRate.StringFixed(2),
			p.MinStockLevel, p.ReorderLevel, p.RequiresPrescription)
	}
	fmt.Fprintln(w, "COMMIT;")
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
