package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"cabinbook/internal/export"
	"cabinbook/internal/metrics"
	"cabinbook/internal/models"
	"cabinbook/internal/schedule"
	"cabinbook/internal/service"
	"cabinbook/internal/slots"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Gateway is the booking surface served over HTTP.
type Gateway interface {
	FetchAvailableTimeSlots(ctx context.Context, date string) ([]slots.TimeSlot, error)
	CheckCabinAvailability(ctx context.Context, cabinID, date string) (json.RawMessage, error)
	CreateBooking(ctx context.Context, req models.NewBookingRequest) (string, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	CancelBooking(ctx context.Context, id string) error
	ListBookingsForUser(ctx context.Context, userID string) ([]models.Booking, error)
	Calendar() schedule.Calendar
}

// SlotsResponse is the response for GET /api/slots.
type SlotsResponse struct {
	Date  string           `json:"date"`
	Slots []slots.TimeSlot `json:"slots"`
}

// handleSlots returns the slot grid of a date.
// GET /api/slots?date=YYYY-MM-DD&available=true
func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("slots")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	result, err := s.gateway.FetchAvailableTimeSlots(r.Context(), date)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	if r.URL.Query().Get("available") == "true" {
		result = slots.AvailableOnly(result)
	}

	writeJSON(w, http.StatusOK, SlotsResponse{Date: date, Slots: result})
}

// handleCabinAvailability relays the endpoint's availability answer.
// GET /api/cabins/{cabinID}/availability?date=YYYY-MM-DD
func (s *HTTPServer) handleCabinAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("cabin_availability")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw, err := s.gateway.CheckCabinAvailability(r.Context(), r.PathValue("cabinID"), r.URL.Query().Get("date"))
	if err != nil {
		writeGatewayError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	_, _ = w.Write(raw)
}

// handleCreateBooking stores a booking.
// POST /api/bookings
func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_booking")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req models.NewBookingRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := s.gateway.CreateBooking(r.Context(), req)
	if err != nil {
		writeGatewayError(w, err)
		return
	}

	s.log.Info().
		Str("booking_id", id).
		Str("cabin_id", req.CabinID).
		Msg("booking created via api")

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// GET /api/bookings/{id}
func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_booking")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	b, err := s.gateway.GetBooking(r.Context(), r.PathValue("id"))
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// handleCancelBooking cancels a booking and returns the updated record.
// POST /api/bookings/{id}/cancel
func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("cancel_booking")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	id := r.PathValue("id")
	if err := s.gateway.CancelBooking(r.Context(), id); err != nil {
		writeGatewayError(w, err)
		return
	}

	b, err := s.gateway.GetBooking(r.Context(), id)
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// GET /api/users/{userID}/bookings
func (s *HTTPServer) handleUserBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("user_bookings")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	list, err := s.gateway.ListBookingsForUser(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeGatewayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": list})
}

// handleUserBookingsExport streams the user's bookings as a workbook.
// GET /api/users/{userID}/bookings.xlsx
func (s *HTTPServer) handleUserBookingsExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("user_bookings_export")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID := r.PathValue("userID")
	list, err := s.gateway.ListBookingsForUser(r.Context(), userID)
	if err != nil {
		writeGatewayError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteUserBookings(&buf, list); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("failed to render bookings export")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleWorkingHours returns the effective weekly calendar.
// GET /api/working-hours
func (s *HTTPServer) handleWorkingHours(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("working_hours")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"working_hours": s.gateway.Calendar().Named()})
}

func writeGatewayError(w http.ResponseWriter, err error) {
	var gwErr *service.Error
	if !errors.As(err, &gwErr) {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch gwErr.Kind {
	case service.KindInvalid:
		writeError(w, http.StatusBadRequest, gwErr.Err.Error())
	case service.KindNotFound:
		writeError(w, http.StatusNotFound, "booking not found")
	case service.KindUpstreamUnavailable:
		writeError(w, http.StatusBadGateway, "booking endpoint unavailable")
	case service.KindNotification:
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":   "booking endpoint was not notified",
			"applied": gwErr.Applied,
			"id":      gwErr.BookingID,
		})
	default:
		writeError(w, http.StatusInternalServerError, "storage error")
	}
}
