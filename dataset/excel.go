package dataset

import (
	"io"

	"github.com/xuri/excelize/v2"

	finErrors "github.com/ezoic/finml/pkg/errors"
)

// ReadXLSX reads the first sheet of a workbook. The first row is the header;
// short rows are padded with missing cells and cells beyond the header are
// ignored.
func ReadXLSX(r io.Reader) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, finErrors.NewModelError("dataset.ReadXLSX", "workbook has no sheets", finErrors.ErrEmptyData)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, finErrors.NewModelError("dataset.ReadXLSX", "sheet "+sheets[0]+" is empty", finErrors.ErrEmptyData)
	}

	width := len(rows[0])
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		record := make([]string, width)
		copy(record, row)
		records = append(records, record)
	}
	return FromRecords(records)
}
