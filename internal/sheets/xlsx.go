package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads worksheets from a local workbook. Each worksheet holds a
// header row followed by sensor rows. The workbook is re-opened per fetch so
// operator edits are picked up without a restart.
type XLSXSource struct {
	path string
}

// NewXLSXSource creates a source backed by the workbook at path.
func NewXLSXSource(path string) *XLSXSource {
	return &XLSXSource{path: path}
}

func (s *XLSXSource) Records(ctx context.Context, worksheet string) ([]Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", s.path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(worksheet)
	if err != nil {
		var sheetErr excelize.ErrSheetNotExist
		if errors.As(err, &sheetErr) {
			return nil, fmt.Errorf("%w: %s", ErrWorksheetNotFound, worksheet)
		}
		return nil, fmt.Errorf("read worksheet %s: %w", worksheet, err)
	}
	if len(rows) < 2 {
		return []Reading{}, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	readings := make([]Reading, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(cells) {
				row[col] = cells[i]
			}
		}
		readings = append(readings, readingFromRow(row))
	}
	sortByTimestamp(readings)
	return readings, nil
}
