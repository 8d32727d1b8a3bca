// Package pdf genera el recibo de venta POS en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Sucursal + Dirección  │  N° Recibo + Fecha          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Producto / Lotes | P.Unit | Dcto | IVA | Total│
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / Descuento / Impuestos / TOTAL           │
//	│  PAGOS: medio + valor, pagado y cambio                       │
//	│  FOOTER: QR con el número de recibo + leyenda                │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/jhoicas/farmapos-api/internal/application/sales"
	"github.com/jhoicas/farmapos-api/internal/domain/entity"
)

var _ sales.ReceiptGenerator = (*ReceiptGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 110, Blue: 90}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 180, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// ReceiptGenerator implementa sales.ReceiptGenerator usando Maroto v2.
type ReceiptGenerator struct {
	printer *message.Printer
}

// NewReceiptGenerator construye el generador; los importes se formatean con separadores en español.
func NewReceiptGenerator() *ReceiptGenerator {
	return &ReceiptGenerator{printer: message.NewPrinter(language.Spanish)}
}

// GenerateReceipt genera el PDF del recibo y devuelve sus bytes.
func (g *ReceiptGenerator) GenerateReceipt(sale *entity.Sale, facility *entity.Facility) ([]byte, error) {
	if sale == nil || facility == nil {
		return nil, fmt.Errorf("pdf: venta y sucursal requeridas")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Recibo "+sale.SaleNumber, true).
		WithAuthor(facility.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(sale, facility))
	if sale.Status == entity.SaleStatusVoided {
		m.AddRows(voidedRow(sale))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	m.AddRows(g.tableDetailRows(sale.Items)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(g.totalsRow(sale))
	m.AddRows(g.paymentRows(sale)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(sale))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar recibo: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: sucursal (izq) y N° recibo + fecha (der).
func (g *ReceiptGenerator) headerRow(sale *entity.Sale, facility *entity.Facility) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(facility.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(facility.Address, "-"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("RECIBO DE VENTA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(sale.SaleNumber, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+sale.SoldAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func voidedRow(sale *entity.Sale) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New("ANULADO: "+sale.VoidReason, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Center, Color: colorRed, Top: 1,
		}),
	))
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Producto / Lotes", 5, align.Left),
		h("P. Unit.", 2, align.Right),
		h("Dcto.", 1, align.Right),
		h("IVA%", 1, align.Center),
		h("Total", 2, align.Right),
	)
}

// tableDetailRows: una fila por línea más una fila con los lotes despachados.
func (g *ReceiptGenerator) tableDetailRows(items []entity.SaleItem) []core.Row {
	result := make([]core.Row, 0, len(items)*2)
	for _, it := range items {
		result = append(result, row.New(6).Add(
			col.New(1).Add(text.New(fmt.Sprintf("%d", it.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(5).Add(text.New(it.ProductName, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New(g.money(it.UnitPrice), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(g.money(it.DiscountAmount), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(it.TaxRate.StringFixed(0)+"%", props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(g.money(it.LineTotal), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
		if lots := lotsLabel(it.Allocations); lots != "" {
			result = append(result, row.New(4).Add(
				col.New(1),
				col.New(11).Add(text.New(lots, props.Text{Size: 6.5, Color: colorGray, Left: 1})),
			))
		}
	}
	return result
}

func (g *ReceiptGenerator) totalsRow(sale *entity.Sale) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	return row.New(26).Add(
		col.New(6),
		col.New(3).Add(
			label("Subtotal:"),
			label("Descuento:"),
			label("Impuestos:"),
			text.New("TOTAL:", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2}),
		),
		col.New(3).Add(
			value(g.money(sale.Subtotal)),
			value("-"+g.money(sale.DiscountAmount)),
			value(g.money(sale.TaxAmount)),
			text.New(g.money(sale.TotalAmount), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1}),
		),
	)
}

func (g *ReceiptGenerator) paymentRows(sale *entity.Sale) []core.Row {
	rows := make([]core.Row, 0, len(sale.Payments)+1)
	for _, p := range sale.Payments {
		rows = append(rows, row.New(5).Add(
			col.New(6),
			col.New(3).Add(text.New(paymentLabel(p.Method), props.Text{Size: 8, Align: align.Right, Right: 2, Color: colorGray})),
			col.New(3).Add(text.New(g.money(p.Amount), props.Text{Size: 8, Align: align.Right, Right: 1})),
		))
	}
	rows = append(rows, row.New(6).Add(
		col.New(6),
		col.New(3).Add(text.New("Cambio:", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Right: 2})),
		col.New(3).Add(text.New(g.money(sale.ChangeGiven), props.Text{Size: 8, Align: align.Right, Right: 1})),
	))
	return rows
}

// footerRow: QR con el número de recibo para consulta en caja.
func footerRow(sale *entity.Sale) core.Row {
	return row.New(35).Add(
		col.New(3).Add(code.NewQr(sale.SaleNumber, props.Rect{Percent: 90, Center: true})),
		col.New(9).Add(
			text.New("Conserve este recibo para devoluciones o anulaciones.", props.Text{
				Size: 8, Top: 6, Left: 3, Color: colorGray,
			}),
			text.New("Medicamentos de venta bajo fórmula médica sólo se despachan con prescripción.", props.Text{
				Size: 7, Top: 14, Left: 3, Color: colorGray,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// money formatea con separador de miles y dos decimales según el locale español.
func (g *ReceiptGenerator) money(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return "$" + g.printer.Sprint(number.Decimal(f, number.Scale(2)))
}

func lotsLabel(allocs []entity.BatchAllocation) string {
	s := ""
	for i, a := range allocs {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("Lote %s x%d (vence %s)", a.BatchNumber, a.Quantity, a.ExpiryDate.Format("01/2006"))
	}
	return s
}

func paymentLabel(method string) string {
	switch method {
	case entity.PaymentMethodCash:
		return "Efectivo:"
	case entity.PaymentMethodCard:
		return "Tarjeta:"
	case entity.PaymentMethodMobileMoney:
		return "Billetera móvil:"
	case entity.PaymentMethodInsurance:
		return "Aseguradora:"
	}
	return method + ":"
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
