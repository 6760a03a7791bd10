package reports

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	sheetDaily     = "Daily"
	sheetFruits    = "Fruits"
	sheetCustomers = "Customers"
	sheetStatus    = "Status"
)

// Workbook renders r as one sheet per report section. The caller closes it.
func Workbook(r Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetDaily); err != nil {
		f.Close()
		return nil, err
	}

	rows := [][]interface{}{{"Date", "Revenue", "Collected", "Pending"}}
	for _, d := range r.Daily {
		rows = append(rows, []interface{}{d.Date, d.Revenue.InexactFloat64(), d.Collected.InexactFloat64(), d.Pending.InexactFloat64()})
	}
	if err := writeSheet(f, sheetDaily, rows); err != nil {
		f.Close()
		return nil, err
	}

	rows = [][]interface{}{{"Fruit", "Quantity", "Revenue"}}
	for _, fr := range r.Fruits {
		rows = append(rows, []interface{}{fr.Name, fr.Quantity.InexactFloat64(), fr.Revenue.InexactFloat64()})
	}
	if err := writeSheet(f, sheetFruits, rows); err != nil {
		f.Close()
		return nil, err
	}

	rows = [][]interface{}{{"Customer", "Transactions", "Revenue"}}
	for _, c := range r.TopCustomers {
		rows = append(rows, []interface{}{c.Name, c.TransactionCount, c.Revenue.InexactFloat64()})
	}
	if err := writeSheet(f, sheetCustomers, rows); err != nil {
		f.Close()
		return nil, err
	}

	rows = [][]interface{}{{"Status", "Count"}}
	for _, s := range r.Statuses {
		rows = append(rows, []interface{}{s.Label, s.Count})
	}
	if err := writeSheet(f, sheetStatus, rows); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]interface{}) error {
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
