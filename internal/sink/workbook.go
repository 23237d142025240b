package sink

import (
	"github.com/xuri/excelize/v2"

	"github.com/mc2-center/mc2-data-models/pkg/errors"
	"github.com/mc2-center/mc2-data-models/pkg/table"
)

const scratchSheet = "_cdsmap_scratch"

// workbook returns a workbook whose target sheet holds t. The caller
// closes it.
func workbook(t *table.Table, o *Options) (*excelize.File, error) {
	var wb *excelize.File
	if o.workbook != "" {
		var err error
		if wb, err = excelize.OpenFile(o.workbook); err != nil {
			return nil, errors.WrapIO("open", o.workbook, err)
		}
		if err := resetSheet(wb, o.sheet); err != nil {
			_ = wb.Close()
			return nil, errors.WrapResource("write", "sheet", o.sheet, err)
		}
	} else {
		wb = excelize.NewFile()
		if err := wb.SetSheetName(wb.GetSheetName(0), o.sheet); err != nil {
			_ = wb.Close()
			return nil, errors.WrapResource("write", "sheet", o.sheet, err)
		}
	}

	if err := fillSheet(wb, o.sheet, t); err != nil {
		_ = wb.Close()
		return nil, errors.WrapResource("write", "sheet", o.sheet, err)
	}
	return wb, nil
}

// resetSheet leaves sheet empty and active. An existing sheet is deleted
// and recreated; a workbook must always keep one sheet, so a scratch
// sheet holds its place meanwhile.
func resetSheet(wb *excelize.File, sheet string) error {
	idx, err := wb.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	if idx >= 0 {
		if _, err := wb.NewSheet(scratchSheet); err != nil {
			return err
		}
		if err := wb.DeleteSheet(sheet); err != nil {
			return err
		}
	}
	if idx, err = wb.NewSheet(sheet); err != nil {
		return err
	}
	if i, _ := wb.GetSheetIndex(scratchSheet); i >= 0 {
		if err := wb.DeleteSheet(scratchSheet); err != nil {
			return err
		}
		if idx, err = wb.GetSheetIndex(sheet); err != nil {
			return err
		}
	}
	wb.SetActiveSheet(idx)
	return nil
}

func fillSheet(wb *excelize.File, sheet string, t *table.Table) error {
	header := make([]any, t.Width())
	for i, c := range t.Columns() {
		header[i] = c
	}
	if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for r, values := range t.Records() {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		row := make([]any, len(values))
		for i, v := range values {
			if !table.IsNull(v) {
				row[i] = v
			}
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
