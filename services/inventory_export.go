package services

import (
	"github.com/xuri/excelize/v2"
)

// ExportSheet имя листа выгрузки
const ExportSheet = "Inventaris"

var exportHeadings = []string{"Nama", "Kategori", "Jumlah", "Satuan", "Kedaluwarsa", "Sisa hari", "Keterangan"}

// ExportWorkbook строит XLSX со списком записей в текущем порядке
func ExportWorkbook(items []ItemView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return nil, err
	}

	for i, h := range exportHeadings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(ExportSheet, cell, h); err != nil {
			return nil, err
		}
	}

	for i, item := range items {
		row := []interface{}{
			item.Name,
			string(item.Category),
			item.Quantity.Float64(),
			string(item.Unit),
			"",
			"",
			item.Label,
		}
		if item.ExpiryDate != nil {
			row[4] = item.ExpiryDate.String()
		}
		if item.Days != nil {
			row[5] = *item.Days
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
