package extract

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Excel renders every sheet as a name banner followed by pipe-delimited
// rows. Modern workbooks go through excelize, legacy BIFF files through xls.
type Excel struct{}

type sheet struct {
	name string
	rows [][]string
}

func (Excel) Extract(data []byte, name, mediaType string) (string, error) {
	format, _ := Detect(name, mediaType)
	if format != FormatXls && format != FormatXlsx {
		format = FormatXlsx
		if strings.EqualFold(filepath.Ext(name), ".xls") {
			format = FormatXls
		}
	}

	var (
		sheets []sheet
		err    error
	)
	switch {
	case format == FormatXlsx && isOLE(data):
		return "", fail(FormatXlsx, ReasonPasswordProtected, errors.New("encrypted OOXML container"))
	case isZip(data):
		sheets, err = readXlsx(data)
	case isOLE(data):
		sheets, err = readXls(data)
	default:
		err = errors.New("not a spreadsheet container")
	}
	if err != nil {
		return "", fail(format, ReasonCorrupted, err)
	}

	text := renderSheets(sheets)
	if text == "" {
		return "", fail(format, ReasonEmpty, nil)
	}
	return text, nil
}

func readXlsx(data []byte) ([]sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var sheets []sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		sheets = append(sheets, sheet{name: name, rows: rows})
	}
	return sheets, nil
}

func readXls(data []byte) (sheets []sheet, err error) {
	// The BIFF reader panics on some malformed input.
	defer func() {
		if r := recover(); r != nil {
			sheets, err = nil, fmt.Errorf("read xls: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		s := sheet{name: ws.Name}
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				continue
			}
			var cells []string
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			s.rows = append(s.rows, cells)
		}
		sheets = append(sheets, s)
	}
	return sheets, nil
}

// renderSheets writes only sheets that have at least one non-empty row.
func renderSheets(sheets []sheet) string {
	var sb strings.Builder
	for _, s := range sheets {
		var lines []string
		for _, row := range s.rows {
			if line := joinCells(row); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) == 0 {
			continue
		}
		sb.WriteString("Sheet: " + s.name + "\n")
		sb.WriteString(strings.Repeat("=", utf8.RuneCountInString(s.name)+7) + "\n\n")
		for _, line := range lines {
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String())
}

func joinCells(row []string) string {
	var cells []string
	for _, c := range row {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	return strings.Join(cells, " | ")
}
