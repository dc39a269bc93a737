package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/hyperjump/omomi/internal/models"
	"github.com/xuri/excelize/v2"
)

func loadExcel(content []byte) ([]*models.DocumentInput, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	var out []*models.DocumentInput
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		if len(rows) < 2 {
			continue
		}
		header := make([]string, len(rows[0]))
		for i, h := range rows[0] {
			header[i] = strings.TrimSpace(h)
		}
		for _, row := range rows[1:] {
			in := &models.DocumentInput{Fields: make(map[string]string)}
			for i, cell := range row {
				if i >= len(header) || header[i] == "" {
					continue
				}
				cell = strings.TrimSpace(cell)
				if cell == "" {
					continue
				}
				if strings.EqualFold(header[i], "id") {
					in.ID = cell
					continue
				}
				in.Fields[header[i]] = cell
			}
			if len(in.Fields) == 0 {
				continue
			}
			out = append(out, in)
		}
	}
	return out, nil
}
