// Package sheet reads questions from and writes answers back to xlsx
// workbooks. The contract is deliberately small: the first worksheet must
// carry a "Question" header column; "Response" and "Time Taken (seconds)"
// columns are reused when present and appended when not, so a workbook can
// be rerun without sprouting duplicate columns.
package sheet

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jjansen/chatpilot/internal/types"
)

const (
	questionHeader = "Question"
	responseHeader = "Response"
	timeHeader     = "Time Taken (seconds)"
)

// Workbook is an open xlsx file positioned on its first worksheet.
type Workbook struct {
	file        *excelize.File
	sheetName   string
	questionCol int
	responseCol int
	timeCol     int
	nrRows      int
}

// Load opens the workbook at path and locates the question column on the
// first worksheet. Header matching is case-insensitive and ignores
// surrounding whitespace.
func Load(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		f.Close()
		return nil, fmt.Errorf("workbook %s has no worksheets", path)
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read worksheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		f.Close()
		return nil, fmt.Errorf("worksheet %s is empty", sheetName)
	}

	w := &Workbook{
		file:      f,
		sheetName: sheetName,
		nrRows:    len(rows),
	}
	for i, cell := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case strings.ToLower(questionHeader):
			w.questionCol = i + 1
		case strings.ToLower(responseHeader):
			w.responseCol = i + 1
		case strings.ToLower(timeHeader):
			w.timeCol = i + 1
		}
	}
	if w.questionCol == 0 {
		f.Close()
		return nil, fmt.Errorf("worksheet %s has no %q column", sheetName, questionHeader)
	}

	nextCol := len(rows[0]) + 1
	if w.responseCol == 0 {
		w.responseCol = nextCol
		nextCol++
		if err := w.setHeader(w.responseCol, responseHeader); err != nil {
			f.Close()
			return nil, err
		}
	}
	if w.timeCol == 0 {
		w.timeCol = nextCol
		if err := w.setHeader(w.timeCol, timeHeader); err != nil {
			f.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Workbook) setHeader(col int, name string) error {
	cell, err := excelize.CoordinatesToCellName(col, 1)
	if err != nil {
		return err
	}
	if err := w.file.SetCellValue(w.sheetName, cell, name); err != nil {
		return fmt.Errorf("failed to write header %s: %w", name, err)
	}
	return nil
}

// Questions returns the question column, one entry per data row in row
// order. Blank cells are kept so answers line back up with their rows.
func (w *Workbook) Questions() ([]string, error) {
	questions := make([]string, 0, w.nrRows-1)
	for row := 2; row <= w.nrRows; row++ {
		cell, err := excelize.CoordinatesToCellName(w.questionCol, row)
		if err != nil {
			return nil, err
		}
		v, err := w.file.GetCellValue(w.sheetName, cell)
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", row, err)
		}
		questions = append(questions, v)
	}
	return questions, nil
}

// Apply writes one answer per data row, in order. Rows beyond the answers
// slice are left untouched, so a partially completed run still lands what
// it has.
func (w *Workbook) Apply(answers []types.Answer) error {
	for i, a := range answers {
		row := i + 2
		respCell, err := excelize.CoordinatesToCellName(w.responseCol, row)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.sheetName, respCell, a.Response); err != nil {
			return fmt.Errorf("failed to write response for row %d: %w", row, err)
		}
		timeCell, err := excelize.CoordinatesToCellName(w.timeCol, row)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.sheetName, timeCell, a.Seconds); err != nil {
			return fmt.Errorf("failed to write time for row %d: %w", row, err)
		}
	}
	return nil
}

// SaveAs writes the workbook to path.
func (w *Workbook) SaveAs(path string) error {
	if err := w.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// OutputName builds the default results file name for a service.
func OutputName(service string, now time.Time) string {
	return fmt.Sprintf("results_%s_%d.xlsx", service, now.Unix())
}
