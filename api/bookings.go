package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type bookFlightRequest struct {
	FlightID     string   `json:"flightId"`
	SeatCount    int      `json:"seatCount"`
	SeatNumbers  []string `json:"seatNumbers"`
	PassengerIDs []string `json:"passengerIds"`
	Email        string   `json:"email"`
	TotalAmount  float64  `json:"totalAmount"`
}

type updateSeatsRequest struct {
	SeatNumbers []string `json:"seatNumbers"`
}

type updatePassengersRequest struct {
	PassengerIDs []string `json:"passengerIds"`
}

type updateAmountRequest struct {
	TotalAmount float64 `json:"totalAmount"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/book", h.bookFlight)
	router.POST("/", h.create)
	router.GET("/", h.list)
	router.GET("/:pnr", h.getByPNR)
	router.DELETE("/:id", h.delete)
	router.PUT("/:id/seats", h.updateSeats)
	router.PUT("/:id/passengers", h.updatePassengers)
	router.PUT("/:id/amount", h.updateAmount)
}

func (h *BookingHandler) bookFlight(c *gin.Context) {
	var req bookFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.BookFlight(c.Request.Context(), booking.BookFlightInput{
		FlightID:     req.FlightID,
		SeatCount:    req.SeatCount,
		SeatNumbers:  req.SeatNumbers,
		PassengerIDs: req.PassengerIDs,
		Email:        req.Email,
		TotalAmount:  req.TotalAmount,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrClientRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrDependency):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Booking failed"})
		}
		return
	}

	// A degraded result is success-shaped on purpose: the caller tells the
	// two apart by the PNR prefix.
	c.JSON(http.StatusCreated, gin.H{"id": result.Booking.ID, "pnr": result.Booking.PNR})
}

func (h *BookingHandler) create(c *gin.Context) {
	var req bookFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.BookFlightInput{
		FlightID:     req.FlightID,
		SeatCount:    req.SeatCount,
		SeatNumbers:  req.SeatNumbers,
		PassengerIDs: req.PassengerIDs,
		Email:        req.Email,
		TotalAmount:  req.TotalAmount,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": created.ID})
}

func (h *BookingHandler) list(c *gin.Context) {
	bookings, err := h.service.GetAllBookings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *BookingHandler) getByPNR(c *gin.Context) {
	found, err := h.service.GetBookingByPNR(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, found)
}

func (h *BookingHandler) delete(c *gin.Context) {
	err := h.service.DeleteBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking deleted successfully!"})
}

func (h *BookingHandler) updateSeats(c *gin.Context) {
	var req updateSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.service.UpdateSeatNumbers(c.Request.Context(), c.Param("id"), req.SeatNumbers)
	h.respondUpdated(c, updated, err)
}

func (h *BookingHandler) updatePassengers(c *gin.Context) {
	var req updatePassengersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.service.UpdatePassengerIDs(c.Request.Context(), c.Param("id"), req.PassengerIDs)
	h.respondUpdated(c, updated, err)
}

func (h *BookingHandler) updateAmount(c *gin.Context) {
	var req updateAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.service.UpdateTotalAmount(c.Request.Context(), c.Param("id"), req.TotalAmount)
	h.respondUpdated(c, updated, err)
}

func (h *BookingHandler) respondUpdated(c *gin.Context, updated *domain.Booking, err error) {
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}
