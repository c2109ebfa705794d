package results

import (
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/mkowal/ankieta/model"
)

const sheetName = "Responses"

// Column widths are sized to content, in character units, within sane bounds.
const (
	minColWidth = 10
	maxColWidth = 80
	colPadding  = 2
)

// ExportExcel renders the responses as an XLSX workbook with a single
// "Responses" sheet: bold header row, one data row per response, cell values
// identical to the CSV export, every column auto-sized to its content.
func ExportExcel(survey *model.Survey) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	headers := headerRow(survey.Questions)
	widths := make([]int, len(headers))

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, bold); err != nil {
			return nil, err
		}
		widths[col] = utf8.RuneCountInString(header)
	}

	for i, resp := range survey.Responses {
		row := responseRow(resp, survey.Questions)
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, err
			}
			if n := utf8.RuneCountInString(value); n > widths[col] {
				widths[col] = n
			}
		}
	}

	for col, width := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, name, name, colWidth(width)); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func colWidth(content int) float64 {
	w := content + colPadding
	if w < minColWidth {
		w = minColWidth
	}
	if w > maxColWidth {
		w = maxColWidth
	}
	return float64(w)
}
