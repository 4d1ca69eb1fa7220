package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// namespace de los ids deterministas: el mismo CSV genera siempre los mismos UUID.
var seedNamespace = uuid.MustParse("6f1c2a5e-3b7d-4c8e-9a1f-2d4b6e8f0a13")

// columnas aceptadas por campo; el exportador antiguo usa encabezados en español.
var headerAliases = map[string][]string{
	"name":           {"name", "nombre", "producto", "descripcion", "descripción"},
	"barcode":        {"barcode", "codigo", "código", "codigo_barras", "código de barras", "ean"},
	"size":           {"size", "medida", "tamaño", "tamano"},
	"category":       {"category", "categoria", "categoría", "linea", "línea"},
	"purchase_price": {"purchase_price", "costo", "precio_compra"},
	"selling_price":  {"selling_price", "precio", "precio_venta", "pvp"},
	"stock":          {"stock", "stock_qty", "cantidad", "existencia", "existencias"},
}

type catalogRow struct {
	Line          int
	Name          string
	Barcode       string
	Size          string
	Category      string
	PurchasePrice decimal.Decimal
	SellingPrice  decimal.Decimal
	Stock         int64
}

type readOptions struct {
	Latin1    bool // el exportador antiguo escribe ISO-8859-1
	Delimiter rune
}

// readCatalog lee el CSV con encabezado. Filas con código de barras repetido se descartan
// (gana la primera) y se reportan en skipped.
func readCatalog(r io.Reader, opts readOptions) (rows []catalogRow, skipped []string, err error) {
	if opts.Latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("leer encabezado: %w", err)
	}
	cols := mapHeader(header)
	for _, required := range []string{"name", "barcode"} {
		if _, ok := cols[required]; !ok {
			return nil, nil, fmt.Errorf("falta la columna %q", required)
		}
	}

	seen := map[string]bool{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("leer CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if blank(rec) {
			continue
		}
		row, err := parseRow(line, rec, cols)
		if err != nil {
			return nil, nil, err
		}
		if seen[row.Barcode] {
			skipped = append(skipped, fmt.Sprintf("línea %d: código %s repetido", line, row.Barcode))
			continue
		}
		seen[row.Barcode] = true
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

func mapHeader(header []string) map[string]int {
	cols := map[string]int{}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for field, aliases := range headerAliases {
			if _, done := cols[field]; !done && slices.Contains(aliases, h) {
				cols[field] = i
			}
		}
	}
	return cols
}

func parseRow(line int, rec []string, cols map[string]int) (catalogRow, error) {
	get := func(field string) string {
		i, ok := cols[field]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	row := catalogRow{
		Line:     line,
		Name:     get("name"),
		Barcode:  get("barcode"),
		Size:     get("size"),
		Category: get("category"),
	}
	if row.Name == "" || row.Barcode == "" {
		return row, fmt.Errorf("línea %d: nombre y código de barras son obligatorios", line)
	}
	var err error
	if row.PurchasePrice, err = parseMoney(get("purchase_price")); err != nil {
		return row, fmt.Errorf("línea %d: costo: %w", line, err)
	}
	if row.SellingPrice, err = parseMoney(get("selling_price")); err != nil {
		return row, fmt.Errorf("línea %d: precio: %w", line, err)
	}
	if s := get("stock"); s != "" {
		if row.Stock, err = strconv.ParseInt(s, 10, 64); err != nil || row.Stock < 0 {
			return row, fmt.Errorf("línea %d: stock inválido %q", line, s)
		}
	}
	return row, nil
}

// parseMoney acepta "1.234,50" (formato local) además de "1234.50".
func parseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("valor negativo %s", s)
	}
	return d, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// writeSeedSQL escribe el script. Es idempotente: volver a aplicarlo no duplica ni pisa
// productos existentes (el stock de bodega vivo nunca se sobrescribe).
func writeSeedSQL(w io.Writer, companyID string, rows []catalogRow) error {
	var b strings.Builder
	fmt.Fprintf(&b, "-- Catálogo inicial para la empresa %s (%d productos)\n", companyID, len(rows))
	b.WriteString("BEGIN;\n\n")

	var categories []string
	for _, r := range rows {
		if r.Category != "" && !slices.ContainsFunc(categories, func(c string) bool { return strings.EqualFold(c, r.Category) }) {
			categories = append(categories, r.Category)
		}
	}
	if len(categories) > 0 {
		b.WriteString("-- 1. Categorías\n")
		for _, c := range categories {
			id := seedID(companyID, "category", strings.ToLower(c))
			fmt.Fprintf(&b, "INSERT INTO categories (id, company_id, name) VALUES ('%s', '%s', '%s')\n", id, escapeSQL(companyID), escapeSQL(c))
			b.WriteString("ON CONFLICT DO NOTHING;\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("-- 2. Productos\n")
	for _, r := range rows {
		category := "NULL"
		if r.Category != "" {
			category = fmt.Sprintf("(SELECT id FROM categories WHERE company_id = '%s' AND lower(name) = lower('%s'))",
				escapeSQL(companyID), escapeSQL(r.Category))
		}
		fmt.Fprintf(&b, "INSERT INTO products (id, company_id, category_id, name, size, barcode, purchase_price, selling_price, warehouse_stock)\n")
		fmt.Fprintf(&b, "VALUES ('%s', '%s', %s, '%s', '%s', '%s', %s, %s, %d)\n",
			seedID(companyID, "product", r.Barcode), escapeSQL(companyID), category,
			escapeSQL(r.Name), escapeSQL(r.Size), escapeSQL(r.Barcode),
			r.PurchasePrice.StringFixed(2), r.SellingPrice.StringFixed(2), r.Stock)
		b.WriteString("ON CONFLICT (company_id, barcode) DO NOTHING;\n")
	}
	b.WriteString("\nCOMMIT;\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func seedID(companyID, kind, key string) uuid.UUID {
	return uuid.NewSHA1(seedNamespace, []byte(companyID+"/"+kind+"/"+key))
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
