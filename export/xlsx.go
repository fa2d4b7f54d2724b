// Package export writes collected records to the run's spreadsheet.
package export

import (
	"fmt"
	"path/filepath"

	"github.com/use-agent/cartprobe/models"
	"github.com/use-agent/cartprobe/pipeline"
	"github.com/xuri/excelize/v2"
)

const (
	// FileName is the spreadsheet written into the run directory.
	FileName = "carga_saida.xlsx"
	// SheetName holds one row per collected record.
	SheetName = "coleta"
)

// XLSXSink writes records to <dir>/carga_saida.xlsx.
type XLSXSink struct {
	dir string
}

var _ pipeline.Sink = (*XLSXSink)(nil)

// NewXLSXSink returns a sink writing into dir.
func NewXLSXSink(dir string) *XLSXSink {
	return &XLSXSink{dir: dir}
}

// Flush writes a header row followed by records in order, replacing any
// previous file. All cells are text.
func (s *XLSXSink) Flush(records []models.ExtractedRecord) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return "", fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return "", fmt.Errorf("open stream writer: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("create header style: %w", err)
	}
	if err := sw.SetPanes(&excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return "", fmt.Errorf("freeze header: %w", err)
	}

	header := make([]interface{}, len(models.Columns))
	for i, c := range models.Columns {
		header[i] = excelize.Cell{StyleID: bold, Value: c}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		cells := r.Row()
		row := make([]interface{}, len(cells))
		for j, c := range cells {
			row[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return "", fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return "", fmt.Errorf("flush sheet: %w", err)
	}

	path := filepath.Join(s.dir, FileName)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}
