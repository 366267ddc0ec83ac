package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/semanticallynull/scootershare/booking"
	"github.com/semanticallynull/scootershare/internal/middleware"
	"github.com/semanticallynull/scootershare/scooter"
)

type createBookingRequest struct {
	Email       string  `json:"email" binding:"required"`
	ScooterID   string  `json:"scooterID" binding:"required"`
	Start       string  `json:"startDateTime" binding:"required"`
	End         string  `json:"endDateTime" binding:"required"`
	Cost        float64 `json:"cost"`
	DepositCost float64 `json:"depositCost"`
}

func (a *API) getBookingHandler(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	b, err := a.bkr.GetByID(c, id)
	if err != nil {
		a.bookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b.ToDetails())
}

func (a *API) createBookingHandler(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid startDateTime format"})
		return
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid endDateTime format"})
		return
	}
	if !end.After(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endDateTime must be after startDateTime"})
		return
	}

	if _, err := a.sr.GetScooter(c, req.ScooterID); err != nil {
		if errors.Is(err, scooter.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "scooter not found"})
			return
		}
		a.internalError(c, "failed to get scooter", err)
		return
	}

	b := &booking.Booking{
		ID:          uuid.New(),
		Email:       req.Email,
		ScooterID:   req.ScooterID,
		StartTime:   start,
		EndTime:     end,
		Cost:        req.Cost,
		DepositCost: req.DepositCost,
	}

	if err := a.bkr.Create(c, b); err != nil {
		if errors.Is(err, booking.ErrOverlap) {
			c.JSON(http.StatusConflict, gin.H{"error": "booking overlaps with existing booking"})
			return
		}
		a.internalError(c, "failed to create booking", err)
		return
	}

	c.JSON(http.StatusCreated, b.ToDetails())
}

func (a *API) cancelBookingHandler(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	b, err := a.bkr.Cancel(c, id)
	if err != nil {
		a.bookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b.ToDetails())
}

type startBookingRequest struct {
	ActualStart string `json:"actualStartDateTime" binding:"required"`
}

func (a *API) startBookingHandler(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req startBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actualStart, err := time.Parse(time.RFC3339, req.ActualStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid actualStartDateTime format"})
		return
	}

	b, err := a.bkr.Start(c, id, actualStart)
	if err != nil {
		a.bookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b.ToDetails())
}

type completeBookingRequest struct {
	ActualEnd string  `json:"actualEndDateTime" binding:"required"`
	Cost      float64 `json:"cost"`
}

func (a *API) completeBookingHandler(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req completeBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actualEnd, err := time.Parse(time.RFC3339, req.ActualEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid actualEndDateTime format"})
		return
	}

	b, err := a.bkr.Complete(c, id, actualEnd, req.Cost)
	if err != nil {
		a.bookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b.ToDetails())
}

func (a *API) getCustomerBookingsHandler(c *gin.Context) {
	bookings, err := a.bkr.GetForCustomer(c, c.Param("email"))
	if err != nil {
		a.internalError(c, "failed to get customer bookings", err)
		return
	}
	c.JSON(http.StatusOK, toDetailsList(bookings))
}

func (a *API) getScooterBookingsHandler(c *gin.Context) {
	bookings, err := a.bkr.GetForScooter(c, c.Param("scooterId"))
	if err != nil {
		a.internalError(c, "failed to get scooter bookings", err)
		return
	}
	c.JSON(http.StatusOK, toDetailsList(bookings))
}

func (a *API) getActiveBookingsHandler(c *gin.Context) {
	bookings, err := a.bkr.GetActive(c)
	if err != nil {
		a.internalError(c, "failed to get active bookings", err)
		return
	}
	c.JSON(http.StatusOK, toDetailsList(bookings))
}

func (a *API) getBookedSlotsHandler(c *gin.Context) {
	slots, err := a.bkr.GetBookedSlots(c)
	if err != nil {
		a.internalError(c, "failed to get booked slots", err)
		return
	}
	if slots == nil {
		slots = []booking.TimeSlot{}
	}
	c.JSON(http.StatusOK, slots)
}

type setCalendarRequest struct {
	CalendarID string `json:"calendarID"`
}

func (a *API) setBookingCalendarHandler(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req setCalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := a.bkr.SetCalendarID(c, id, req.CalendarID)
	if err != nil {
		a.bookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b.ToDetails())
}

func bookingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bookingId"})
		return uuid.UUID{}, false
	}
	return id, true
}

func (a *API) bookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
	case errors.Is(err, booking.ErrNotActive):
		c.JSON(http.StatusConflict, gin.H{"error": "booking is not active"})
	default:
		a.internalError(c, "booking operation failed", err)
	}
}

func (a *API) internalError(c *gin.Context, msg string, err error) {
	middleware.GetLogger(c).ErrorContext(c, msg, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func toDetailsList(bookings []booking.Booking) []booking.Details {
	details := make([]booking.Details, 0, len(bookings))
	for _, b := range bookings {
		details = append(details, b.ToDetails())
	}
	return details
}
