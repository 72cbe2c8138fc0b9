package export

import (
	"fmt"
	"io"

	"cabinbook/internal/models"

	"github.com/xuri/excelize/v2"
)

// SheetBookings is the sheet name of the user bookings export.
const SheetBookings = "Bookings"

// ContentType is the MIME type of the produced workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var bookingColumns = []string{"ID", "Cabin", "Date", "Time", "Status", "Created (UTC)", "Updated (UTC)"}

// Workbook writes rows sheet by sheet.
type Workbook struct {
	file  *excelize.File
	sheet string
	row   int
}

func NewWorkbook() *Workbook {
	return &Workbook{file: excelize.NewFile()}
}

// AddSheet starts a new sheet. The first call renames the default sheet.
func (w *Workbook) AddSheet(name string) error {
	if len(name) > 31 {
		name = name[:31]
	}

	if w.sheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	w.sheet = name
	w.row = 1
	return nil
}

// WriteHeader writes a bold header row.
func (w *Workbook) WriteHeader(columns []string) error {
	if err := w.writeRow(toValues(columns)); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	start, _ := excelize.CoordinatesToCellName(1, w.row-1)
	end, _ := excelize.CoordinatesToCellName(len(columns), w.row-1)
	return w.file.SetCellStyle(w.sheet, start, end, style)
}

// WriteRow writes one data row.
func (w *Workbook) WriteRow(values ...any) error {
	return w.writeRow(values)
}

func (w *Workbook) writeRow(values []any) error {
	if w.sheet == "" {
		return fmt.Errorf("no active sheet")
	}
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(w.sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", w.row, err)
	}
	w.row++
	return nil
}

func (w *Workbook) Save(out io.Writer) error {
	return w.file.Write(out)
}

func (w *Workbook) Close() error {
	return w.file.Close()
}

// WriteUserBookings renders bookings as a single-sheet workbook.
func WriteUserBookings(out io.Writer, bookings []models.Booking) error {
	wb := NewWorkbook()
	defer wb.Close()

	if err := wb.AddSheet(SheetBookings); err != nil {
		return err
	}
	if err := wb.WriteHeader(bookingColumns); err != nil {
		return err
	}
	for _, b := range bookings {
		err := wb.WriteRow(
			b.ID,
			b.CabinID,
			b.Date,
			b.Time,
			string(b.Status),
			b.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			b.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
		)
		if err != nil {
			return err
		}
	}
	return wb.Save(out)
}

func toValues(columns []string) []any {
	values := make([]any, len(columns))
	for i, c := range columns {
		values[i] = c
	}
	return values
}
