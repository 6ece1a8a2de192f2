package ledger

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"cinematch/internal/matching"
)

var statusFill = map[matching.Status]string{
	matching.StatusAutoAccept: "#C6EFCE",
	matching.StatusReview:     "#FFEB9C",
	matching.StatusMultiple:   "#FCE4D6",
	matching.StatusNoMatch:    "#F2F2F2",
}

var numericColumns = map[string]bool{
	ColLocalID:     true,
	ColLocalYear:   true,
	ColLocalMovies: true,
	ColTMDBID:      true,
	ColTMDBYear:    true,
	ColScore:       true,
}

// ExportXLSX renders rows as a spreadsheet at path. Numeric columns are
// written as numbers and each row is tinted by status.
func ExportXLSX(path string, kind matching.Kind, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := KindLabel(kind)
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	rowStyles := make(map[matching.Status]int, len(statusFill))
	for status, color := range statusFill {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("create %s style: %w", status, err)
		}
		rowStyles[status] = style
	}

	columns := Columns(kind)
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	lastCol, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for r, row := range rows {
		row.Kind = kind
		record := row.Record()
		excelRow := r + 2
		for c, value := range record {
			cell, err := excelize.CoordinatesToCellName(c+1, excelRow)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, cellValue(columns[c], value)); err != nil {
				return fmt.Errorf("write row %d: %w", excelRow, err)
			}
		}
		if style, ok := rowStyles[row.Status]; ok {
			first := fmt.Sprintf("A%d", excelRow)
			last := fmt.Sprintf("%s%d", lastCol, excelRow)
			if err := f.SetCellStyle(sheet, first, last, style); err != nil {
				return fmt.Errorf("style row %d: %w", excelRow, err)
			}
		}
	}

	for i, col := range columns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		width := 15.0
		if col == ColReason {
			width = 60
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	if len(rows) > 0 {
		if err := f.AutoFilter(sheet, fmt.Sprintf("A1:%s%d", lastCol, len(rows)+1), nil); err != nil {
			return fmt.Errorf("set auto filter: %w", err)
		}
	}

	f.SetActiveSheet(index)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save spreadsheet: %w", err)
	}
	return nil
}

func cellValue(column, value string) any {
	if !numericColumns[column] || value == "" {
		return value
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	return value
}
