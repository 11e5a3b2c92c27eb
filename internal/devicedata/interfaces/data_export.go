package interfaces

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	devicedata "github.com/lekien2k2/viot/internal/devicedata/domain"
)

const exportTimeLayout = "2006-01-02 15:04:05"

// BuildDataXLSX renders queried device data as an XLSX workbook with a
// summary sheet and a data sheet.
func BuildDataXLSX(deviceID string, q *devicedata.TimeseriesQuery, series map[string][]devicedata.DataPoint) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	const summary = "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, fmt.Errorf("export xlsx: %w", err)
	}
	loc := q.Timezone.Location()

	_ = f.SetCellValue(summary, "A1", "Device Data Export")
	_ = f.SetCellValue(summary, "A3", "Device")
	_ = f.SetCellValue(summary, "B3", deviceID)
	_ = f.SetCellValue(summary, "A4", "Keys")
	_ = f.SetCellValue(summary, "B4", devicedata.CanonicalKeyList(q.Keys))
	_ = f.SetCellValue(summary, "A5", "From")
	_ = f.SetCellValue(summary, "B5", q.StartDate.In(loc).Format(exportTimeLayout))
	_ = f.SetCellValue(summary, "A6", "To")
	_ = f.SetCellValue(summary, "B6", q.EndDate.In(loc).Format(exportTimeLayout))
	_ = f.SetCellValue(summary, "A7", "Aggregation")
	_ = f.SetCellValue(summary, "B7", aggregationLabel(q))
	_ = f.SetCellValue(summary, "A8", "Timezone")
	_ = f.SetCellValue(summary, "B8", string(q.Timezone))

	const data = "Data"
	if _, err := f.NewSheet(data); err != nil {
		return nil, fmt.Errorf("export xlsx: %w", err)
	}
	_ = f.SetCellValue(data, "A1", "Key")
	_ = f.SetCellValue(data, "B1", "Timestamp")
	_ = f.SetCellValue(data, "C1", "Value")

	row := 2
	for _, key := range q.Keys {
		for _, p := range series[key] {
			_ = f.SetCellValue(data, fmt.Sprintf("A%d", row), key)
			_ = f.SetCellValue(data, fmt.Sprintf("B%d", row), p.TS.In(loc).Format(exportTimeLayout))
			_ = f.SetCellValue(data, fmt.Sprintf("C%d", row), cellValue(p.Value))
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildDataPDF renders queried device data as a PDF table.
func BuildDataPDF(deviceID string, q *devicedata.TimeseriesQuery, series map[string][]devicedata.DataPoint) ([]byte, error) {
	loc := q.Timezone.Location()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "Device Data Export", "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Device: %s", deviceID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Keys: %s", devicedata.CanonicalKeyList(q.Keys)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("From: %s  To: %s (%s)",
		q.StartDate.In(loc).Format(exportTimeLayout),
		q.EndDate.In(loc).Format(exportTimeLayout),
		string(q.Timezone)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Aggregation: %s", aggregationLabel(q)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 8, "Key", "1", 0, "L", false, 0, "")
	pdf.CellFormat(70, 8, "Timestamp", "1", 0, "L", false, 0, "")
	pdf.CellFormat(60, 8, "Value", "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, key := range q.Keys {
		for _, p := range series[key] {
			pdf.CellFormat(50, 7, key, "1", 0, "L", false, 0, "")
			pdf.CellFormat(70, 7, p.TS.In(loc).Format(exportTimeLayout), "1", 0, "L", false, 0, "")
			pdf.CellFormat(60, 7, valueString(p.Value), "1", 1, "R", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func aggregationLabel(q *devicedata.TimeseriesQuery) string {
	if !q.Aggregate {
		return "raw"
	}
	return fmt.Sprintf("%s per %d %s", q.Agg, q.Interval, q.IntervalType)
}

func cellValue(v devicedata.Value) any {
	switch v.Kind {
	case devicedata.KindInt:
		return v.Int
	case devicedata.KindFloat:
		return v.Float
	case devicedata.KindBool:
		return v.Bool
	case devicedata.KindObject:
		return valueString(v)
	default:
		return v.Str
	}
}

func valueString(v devicedata.Value) string {
	switch v.Kind {
	case devicedata.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case devicedata.KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case devicedata.KindBool:
		return strconv.FormatBool(v.Bool)
	case devicedata.KindObject:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(raw)
	default:
		return v.Str
	}
}
