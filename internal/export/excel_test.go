package export

import (
	"bytes"
	"testing"
	"time"

	"cabinbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteUserBookings(t *testing.T) {
	created := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	bookings := []models.Booking{
		{ID: "b-1", CabinID: "cabin-1", UserID: "u1", Date: "2024-01-08", Time: "09:15",
			Status: models.StatusConfirmed, CreatedAt: created, UpdatedAt: created},
		{ID: "b-2", CabinID: "cabin-2", UserID: "u1", Date: "2024-01-09", Time: "14:00",
			Status: models.StatusCancelled, CreatedAt: created, UpdatedAt: created.Add(time.Hour)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteUserBookings(&buf, bookings))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetBookings}, f.GetSheetList())

	rows, err := f.GetRows(SheetBookings)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, bookingColumns, rows[0])
	assert.Equal(t, []string{"b-1", "cabin-1", "2024-01-08", "09:15", "confirmed", "2024-01-05 10:00:00", "2024-01-05 10:00:00"}, rows[1])
	assert.Equal(t, "cancelled", rows[2][4])
	assert.Equal(t, "2024-01-05 11:00:00", rows[2][6])

	styleID, err := f.GetCellStyle(SheetBookings, "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
}

func TestWriteUserBookings_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteUserBookings(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetBookings)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWorkbook_RequiresSheet(t *testing.T) {
	wb := NewWorkbook()
	defer wb.Close()
	assert.Error(t, wb.WriteRow("x"))
}
