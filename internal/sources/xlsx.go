package sources

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/table"
)

func readWorkbook(path string, o *Options) (*table.Table, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = wb.Close() }()

	sheet := o.Sheet
	if sheet == "" {
		sheet = wb.GetSheetName(0)
	}
	if idx, err := wb.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, errors.NewResourceError("read", "sheet", sheet,
			fmt.Errorf("%w: workbook %s has sheets %v", errors.ErrNotFound, path, wb.GetSheetList()))
	}

	grid, err := wb.GetRows(sheet)
	if err != nil {
		return nil, errors.WrapParse("xlsx", path, err)
	}
	return fromGrid(grid, o)
}

// Sheets lists the sheet names of a workbook.
func Sheets(path string) ([]string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = wb.Close() }()
	return wb.GetSheetList(), nil
}
