package reports

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const moneyFormat = "#,##0.00"

// WriteXLSX renders the sheet as a workbook: a bold header row, money
// columns formatted with two decimals and a frozen header.
func WriteXLSX(w io.Writer, sh *Sheet) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	name := sheetName(sh.Title)
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	format := moneyFormat
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return err
	}

	for col, h := range sh.Headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(name, cell, h); err != nil {
			return err
		}
	}
	if len(sh.Headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(sh.Headers), 1)
		if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
			return err
		}
	}

	for i, row := range sh.Rows {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if d, ok := v.(decimal.Decimal); ok {
				if err := f.SetCellFloat(name, cell, d.InexactFloat64(), 2, 64); err != nil {
					return err
				}
				if err := f.SetCellStyle(name, cell, cell, moneyStyle); err != nil {
					return err
				}
				continue
			}
			if err := f.SetCellValue(name, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.SetPanes(name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	for col := range sh.Headers {
		colName, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(name, colName, colName, 18); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// sheetName trims a title to Excel's 31 character limit and drops forbidden characters.
func sheetName(title string) string {
	out := make([]rune, 0, len(title))
	for _, r := range title {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return "Report"
	}
	if len(out) > 31 {
		out = out[:31]
	}
	return string(out)
}
