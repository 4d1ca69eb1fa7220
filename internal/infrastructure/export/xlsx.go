package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
)

// ContentTypeXLSX tipo MIME de las hojas generadas.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StockXLSX hoja "Stock" con una fila por producto.
func StockXLSX(r StockReport) ([]byte, error) {
	headings := []string{"Producto", "Código", "Medida", "Bodega", "Distribuido", "Devuelto"}
	values := make([][]any, 0, len(r.Rows))
	for _, d := range r.Rows {
		values = append(values, []any{d.ProductName, d.Barcode, d.Size, d.InWarehouse, d.Distributed, d.Returned})
	}
	return writeSheet("Stock", headings, values, []float64{32, 18, 10, 12, 12, 12})
}

// HistoryXLSX hoja "Movimientos" con el historial tal como lo devuelve la API.
func HistoryXLSX(items []dto.MovementDTO) ([]byte, error) {
	headings := []string{"ID", "Operación", "Fecha", "Tipo", "Staff", "Producto", "Código", "Cantidad", "Cliente", "Nota"}
	values := make([][]any, 0, len(items))
	for _, m := range items {
		values = append(values, []any{
			m.ID, m.OperationID, m.CreatedAt.Format("2006-01-02 15:04:05"), m.Kind, m.StaffName,
			m.ProductName, m.Barcode, m.Quantity, m.CustomerName, m.Note,
		})
	}
	return writeSheet("Movimientos", headings, values, []float64{8, 38, 20, 22, 22, 32, 18, 10, 24, 30})
}

func writeSheet(sheet string, headings []string, values [][]any, widths []float64) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}

	for i, h := range headings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("xlsx: encabezado: %w", err)
		}
		if i < len(widths) {
			name, _ := excelize.ColumnNumberToName(i + 1)
			if err := f.SetColWidth(sheet, name, name, widths[i]); err != nil {
				return nil, err
			}
		}
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return nil, err
	}

	for r, row := range values {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("xlsx: celda %s: %w", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: escribir: %w", err)
	}
	return buf.Bytes(), nil
}
