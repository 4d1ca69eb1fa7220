// Package export genera los archivos descargables de los reportes: PDF del stock de bodega
// (con código de barras por producto) y hojas XLSX de stock e historial.
//
// Layout del PDF (A4):
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: título + fecha de generación                        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Producto | Medida | Código | Bodega | Dist. | Dev.   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: unidades en bodega / distribuidas / devueltas      │
//	└─────────────────────────────────────────────────────────────┘
package export

import (
	"fmt"
	"strconv"
	"time"

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

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// StockReport datos del reporte de stock de bodega.
type StockReport struct {
	Title             string
	GeneratedAt       time.Time
	LowStockThreshold int64 // filas por debajo se resaltan; 0 = sin resaltar
	Rows              []dto.WarehouseReportRow
}

// StockPDF genera el PDF y devuelve sus bytes.
func StockPDF(r StockReport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(r.Title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	for _, rw := range tableRows(r.Rows, r.LowStockThreshold) {
		m.AddRows(rw)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(r.Rows))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(r StockReport) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(r.Title, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%d productos", len(r.Rows)), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Generado: "+r.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Producto", 3, align.Left),
		h("Medida", 1, align.Center),
		h("Código", 3, align.Center),
		h("Bodega", 2, align.Right),
		h("Distribuido", 2, align.Right),
		h("Devuelto", 1, align.Right),
	)
}

// tableRows una fila por producto; el código de barras se dibuja si existe.
func tableRows(rows []dto.WarehouseReportRow, threshold int64) []core.Row {
	result := make([]core.Row, 0, len(rows))
	for _, d := range rows {
		stockProps := props.Text{Size: 8, Align: align.Right, Top: 3, Right: 1}
		if threshold > 0 && d.InWarehouse < threshold {
			stockProps.Style = fontstyle.Bold
			stockProps.Color = colorAlert
		}
		barcode := col.New(3)
		if d.Barcode != "" {
			barcode.Add(code.NewBar(d.Barcode, props.Barcode{Percent: 80, Center: true}))
		}
		result = append(result, row.New(12).Add(
			col.New(3).Add(text.New(d.ProductName, props.Text{Size: 8, Top: 3, Left: 1})),
			col.New(1).Add(text.New(nonEmpty(d.Size, "-"), props.Text{Size: 8, Align: align.Center, Top: 3})),
			barcode,
			col.New(2).Add(text.New(formatQty(d.InWarehouse), stockProps)),
			col.New(2).Add(text.New(formatQty(d.Distributed), props.Text{Size: 8, Align: align.Right, Top: 3, Right: 1})),
			col.New(1).Add(text.New(formatQty(d.Returned), props.Text{Size: 8, Align: align.Right, Top: 3, Right: 1})),
		))
	}
	return result
}

func totalsRow(rows []dto.WarehouseReportRow) core.Row {
	var stock, distributed, returned int64
	for _, d := range rows {
		stock += d.InWarehouse
		distributed += d.Distributed
		returned += d.Returned
	}
	bold := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2, Right: 1})
	}
	return row.New(10).Add(
		col.New(7).Add(text.New("TOTAL", props.Text{Style: fontstyle.Bold, Size: 9, Top: 2, Left: 1, Color: colorPrimary})),
		col.New(2).Add(bold(formatQty(stock))),
		col.New(2).Add(bold(formatQty(distributed))),
		col.New(1).Add(bold(formatQty(returned))),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatQty inserta puntos de miles. Ej: 25000 → "25.000", -1200 → "-1.200".
func formatQty(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	return sign + groupThousands(s)
}

func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return string(buf)
}
