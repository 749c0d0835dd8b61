package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tatutaller/backend/internal/domain"
	"tatutaller/backend/internal/service/bookings"
)

type bookingService interface {
	Create(ctx context.Context, actor bookings.Actor, in bookings.CreateInput) (bookings.CreateResult, error)
	Slots(ctx context.Context, offeringID uuid.UUID, date time.Time) ([]domain.TimeSlot, error)
	UpdateStatus(ctx context.Context, actor bookings.Actor, bookingID uuid.UUID, next domain.BookingStatus, reason string) (domain.Booking, error)
	Delete(ctx context.Context, actor bookings.Actor, bookingID uuid.UUID) error
	ListForCustomer(ctx context.Context, actor bookings.Actor) ([]domain.Booking, error)
	ListForInstructor(ctx context.Context, actor bookings.Actor) ([]domain.Booking, error)
}

type BookingsHandler struct {
	svc bookingService
	log *slog.Logger
}

func NewBookingsHandler(svc bookingService, log *slog.Logger) *BookingsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &BookingsHandler{
		svc: svc,
		log: log.With(slog.String("component", "http.bookings")),
	}
}

type createBookingRequest struct {
	OfferingID        uuid.UUID         `json:"classId" binding:"required"`
	Date              string            `json:"bookingDate" binding:"required"`
	StartTime         domain.TimeOfDay  `json:"startTime"`
	EndTime           domain.TimeOfDay  `json:"endTime"`
	BookingType       string            `json:"bookingType" binding:"required"`
	RecurrenceEndDate *string           `json:"recurrenceEndDate"`
	Notes             string            `json:"notes"`
}

type createBookingResponse struct {
	Booking   domain.Booking   `json:"booking"`
	Instances []domain.Booking `json:"instances,omitempty"`
}

func (h *BookingsHandler) Create(c *gin.Context) {
	log := h.log.With(slog.String("handler", "Create"))

	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorBody("UNAUTHORIZED", "authentication required"))
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid request body", slog.Any("err", err))
		c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", err.Error()))
		return
	}

	kind, err := domain.ParseBookingKind(req.BookingType)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", err.Error()))
		return
	}
	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", "bookingDate must be YYYY-MM-DD"))
		return
	}

	var recurrenceEnd *time.Time
	if req.RecurrenceEndDate != nil {
		end, err := time.Parse(time.DateOnly, *req.RecurrenceEndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", "recurrenceEndDate must be YYYY-MM-DD"))
			return
		}
		recurrenceEnd = &end
	}

	result, err := h.svc.Create(c.Request.Context(), actor, bookings.CreateInput{
		OfferingID:        req.OfferingID,
		Date:              date,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		Kind:              kind,
		RecurrenceEndDate: recurrenceEnd,
		Notes:             req.Notes,
	})
	if err != nil {
		h.writeError(c, log, err)
		return
	}

	log.Info("booking created",
		slog.String("booking_id", result.Booking.ID.String()),
		slog.String("customer_id", actor.ID),
		slog.String("offering_id", req.OfferingID.String()),
		slog.Int("instances", len(result.Series)))

	resp := createBookingResponse{Booking: result.Booking}
	if result.Recurred {
		resp.Instances = result.Series
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *BookingsHandler) Slots(c *gin.Context) {
	log := h.log.With(slog.String("handler", "Slots"))

	offeringID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", "class id must be a UUID"))
		return
	}
	date, err := time.Parse(time.DateOnly, c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", "date must be YYYY-MM-DD"))
		return
	}

	slots, err := h.svc.Slots(c.Request.Context(), offeringID, date)
	if err != nil {
		h.writeError(c, log, err)
		return
	}

	log.Debug("slots computed",
		slog.String("offering_id", offeringID.String()),
		slog.String("date", date.Format(time.DateOnly)),
		slog.Int("count", len(slots)))
	c.JSON(http.StatusOK, slots)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

func (h *BookingsHandler) UpdateStatus(c *gin.Context) {
	log := h.log.With(slog.String("handler", "UpdateStatus"))

	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorBody("UNAUTHORIZED", "authentication required"))
		return
	}
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", "booking id must be a UUID"))
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", err.Error()))
		return
	}
	status, err := domain.ParseBookingStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", err.Error()))
		return
	}

	updated, err := h.svc.UpdateStatus(c.Request.Context(), actor, bookingID, status, req.Reason)
	if err != nil {
		h.writeError(c, log, err)
		return
	}

	log.Info("booking status updated",
		slog.String("booking_id", bookingID.String()),
		slog.String("actor_id", actor.ID),
		slog.String("status", string(status)))
	c.JSON(http.StatusOK, updated)
}

func (h *BookingsHandler) Delete(c *gin.Context) {
	log := h.log.With(slog.String("handler", "Delete"))

	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorBody("UNAUTHORIZED", "authentication required"))
		return
	}
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", "booking id must be a UUID"))
		return
	}

	if err := h.svc.Delete(c.Request.Context(), actor, bookingID); err != nil {
		h.writeError(c, log, err)
		return
	}

	log.Info("booking deleted", slog.String("booking_id", bookingID.String()), slog.String("actor_id", actor.ID))
	c.Status(http.StatusNoContent)
}

func (h *BookingsHandler) MyBookings(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorBody("UNAUTHORIZED", "authentication required"))
		return
	}

	rows, err := h.svc.ListForCustomer(c.Request.Context(), actor)
	if err != nil {
		h.writeError(c, h.log.With(slog.String("handler", "MyBookings")), err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *BookingsHandler) InstructorBookings(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorBody("UNAUTHORIZED", "authentication required"))
		return
	}

	rows, err := h.svc.ListForInstructor(c.Request.Context(), actor)
	if err != nil {
		h.writeError(c, h.log.With(slog.String("handler", "InstructorBookings")), err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *BookingsHandler) writeError(c *gin.Context, log *slog.Logger, err error) {
	var rej *bookings.RejectionError
	if errors.As(err, &rej) {
		log.Info("request rejected", slog.String("code", string(rej.Code)), slog.String("message", rej.Message))
		c.JSON(rejectionStatus(rej.Code), errorBody(string(rej.Code), rej.Message))
		return
	}
	log.Error("request failed", slog.Any("err", err))
	c.JSON(http.StatusInternalServerError, errorBody("INTERNAL", "internal error"))
}

func rejectionStatus(code bookings.RejectionCode) int {
	switch code {
	case bookings.CodeInvalidRange, bookings.CodeOutsideOfferingWindow:
		return http.StatusBadRequest
	case bookings.CodeCapacityExceeded, bookings.CodeInvalidTransition:
		return http.StatusConflict
	case bookings.CodeOfferingNotFound, bookings.CodeCustomerNotFound, bookings.CodeBookingNotFound:
		return http.StatusNotFound
	case bookings.CodeForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func errorBody(code, message string) gin.H {
	return gin.H{"code": code, "message": message}
}
