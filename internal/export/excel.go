// Package export renders a report table into a styled single-sheet xlsx
// workbook. All formatting decisions arrive as declarative intent on the
// table's columns; this package only executes them.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/warehousekit/bindivider/internal/report"
)

const (
	// SheetName is the single sheet every export carries.
	SheetName = "Bin Box"

	// DefaultMaxColumnWidth caps fitted column widths unless configured otherwise.
	DefaultMaxColumnWidth = 40

	headerFillColor = "#D3D3D3"
	minColumnWidth  = 6
	widthPadding    = 2
)

var (
	// ErrNoGroups is returned when an export is requested with no groups defined.
	ErrNoGroups = errors.New("no groups defined, nothing to export")
	// ErrEmptyLibrary is returned when an export is requested with an empty bin library.
	ErrEmptyLibrary = errors.New("bin library is empty, nothing to export")
)

// Guard checks the export preconditions. An export with no groups or an empty
// library must be refused with a visible warning instead of producing a
// malformed workbook; this is the only surfaced failure in the core.
func Guard(groupCount, binCount int) error {
	if groupCount == 0 {
		return ErrNoGroups
	}
	if binCount == 0 {
		return ErrEmptyLibrary
	}
	return nil
}

// Workbook renders the table into xlsx bytes: bold gray frozen header, the
// group-identity block merged vertically per group, fixed numeric formats per
// column, and column widths fitted to the longest rendered value capped at
// maxColWidth.
func Workbook(table report.Table, maxColWidth float64) ([]byte, error) {
	if maxColWidth <= 0 {
		maxColWidth = DefaultMaxColumnWidth
	}

	f := excelize.NewFile()
	// No deferred Close: WriteTo below needs the file open, so errors close it
	// explicitly on each path.

	index, err := f.NewSheet(SheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	styles, err := newStyleSet(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := writeHeader(f, table.Columns, styles.header); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeRows(f, table, styles); err != nil {
		f.Close()
		return nil, err
	}
	if err := mergeGroupBlocks(f, table); err != nil {
		f.Close()
		return nil, err
	}
	if err := fitColumnWidths(f, table, maxColWidth); err != nil {
		f.Close()
		return nil, err
	}

	// Keep the header visible while scrolling.
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// styleSet holds the style handles shared across the sheet.
type styleSet struct {
	header     int
	mergedText int
	mergedInt  int
	integer    int
	decimal    int
}

func newStyleSet(f *excelize.File) (styleSet, error) {
	var s styleSet
	var err error

	s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{headerFillColor},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return s, fmt.Errorf("create header style: %w", err)
	}

	mergedAlignment := &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}

	s.mergedText, err = f.NewStyle(&excelize.Style{Alignment: mergedAlignment})
	if err != nil {
		return s, fmt.Errorf("create merged text style: %w", err)
	}

	s.mergedInt, err = f.NewStyle(&excelize.Style{Alignment: mergedAlignment, NumFmt: 1})
	if err != nil {
		return s, fmt.Errorf("create merged integer style: %w", err)
	}

	s.integer, err = f.NewStyle(&excelize.Style{NumFmt: 1})
	if err != nil {
		return s, fmt.Errorf("create integer style: %w", err)
	}

	threeDecimals := "0.000"
	s.decimal, err = f.NewStyle(&excelize.Style{CustomNumFmt: &threeDecimals})
	if err != nil {
		return s, fmt.Errorf("create decimal style: %w", err)
	}

	return s, nil
}

func writeHeader(f *excelize.File, columns []report.Column, style int) error {
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell name: %w", err)
		}
		if err := f.SetCellValue(SheetName, cell, col.Title); err != nil {
			return fmt.Errorf("set header %s: %w", col.Title, err)
		}
		if err := f.SetCellStyle(SheetName, cell, cell, style); err != nil {
			return fmt.Errorf("style header %s: %w", col.Title, err)
		}
	}
	return nil
}

func writeRows(f *excelize.File, table report.Table, styles styleSet) error {
	for rowIdx, row := range table.Rows {
		for colIdx, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	if len(table.Rows) == 0 {
		return nil
	}

	// Column-level styles over the whole data range.
	lastRow := len(table.Rows) + 1
	for colIdx, col := range table.Columns {
		style := dataStyle(col, styles)
		if style == 0 {
			continue
		}
		top, err := excelize.CoordinatesToCellName(colIdx+1, 2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		bottom, err := excelize.CoordinatesToCellName(colIdx+1, lastRow)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellStyle(SheetName, top, bottom, style); err != nil {
			return fmt.Errorf("style column %s: %w", col.Title, err)
		}
	}
	return nil
}

func dataStyle(col report.Column, styles styleSet) int {
	switch {
	case col.Merged && col.Format == report.FormatInteger:
		return styles.mergedInt
	case col.Merged:
		return styles.mergedText
	case col.Format == report.FormatInteger:
		return styles.integer
	case col.Format == report.FormatDecimal:
		return styles.decimal
	default:
		return 0
	}
}

// mergeGroupBlocks merges each merged column vertically across every group's
// contiguous row block. A block of one row merges to itself, which Excel
// renders as a plain cell.
func mergeGroupBlocks(f *excelize.File, table report.Table) error {
	currentRow := 2
	for _, count := range table.GroupRowCounts {
		if count <= 0 {
			continue
		}
		for colIdx, col := range table.Columns {
			if !col.Merged {
				continue
			}
			top, err := excelize.CoordinatesToCellName(colIdx+1, currentRow)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			bottom, err := excelize.CoordinatesToCellName(colIdx+1, currentRow+count-1)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.MergeCell(SheetName, top, bottom); err != nil {
				return fmt.Errorf("merge %s:%s: %w", top, bottom, err)
			}
		}
		currentRow += count
	}
	return nil
}

// fitColumnWidths sizes each column to its longest rendered value, header
// included, capped at maxColWidth.
func fitColumnWidths(f *excelize.File, table report.Table, maxColWidth float64) error {
	for colIdx, col := range table.Columns {
		longest := len(col.Title)
		for _, row := range table.Rows {
			if n := len(renderCell(row[colIdx], col.Format)); n > longest {
				longest = n
			}
		}

		width := float64(longest + widthPadding)
		if width < minColumnWidth {
			width = minColumnWidth
		}
		if width > maxColWidth {
			width = maxColWidth
		}

		name, err := excelize.ColumnNumberToName(colIdx + 1)
		if err != nil {
			return fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(SheetName, name, name, width); err != nil {
			return fmt.Errorf("set width %s: %w", name, err)
		}
	}
	return nil
}

// renderCell approximates the on-screen text of a cell for width fitting.
func renderCell(value any, format report.Format) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		if format == report.FormatDecimal {
			return strconv.FormatFloat(v, 'f', 3, 64)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
