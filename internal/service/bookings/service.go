package bookings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"tatutaller/backend/internal/domain"
	"tatutaller/backend/internal/notify"
	"tatutaller/backend/internal/store"
)

// Actor is the already-authenticated caller. Verifying identity is the
// gateway's job; the engine only decides what this actor may do.
type Actor struct {
	ID   string
	Role domain.Role
}

func (a Actor) admin() bool { return a.Role == domain.RoleAdmin }

// Config carries the scheduling knobs. SlotWidth and SlotStride shape the
// availability grid; RecurrenceMode and RecurrenceCount pick how a weekly
// series terminates (see domain.RecurrenceMode).
type Config struct {
	SlotWidth       time.Duration
	SlotStride      time.Duration
	RecurrenceMode  domain.RecurrenceMode
	RecurrenceCount int
}

type Service struct {
	bookings store.BookingRepository
	catalog  store.OfferingCatalog
	users    store.UserDirectory
	pub      notify.Publisher
	cfg      Config
	log      *slog.Logger
}

func NewService(bookings store.BookingRepository, catalog store.OfferingCatalog, users store.UserDirectory, pub notify.Publisher, cfg Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	if pub == nil {
		pub = notify.NewLogPublisher(log)
	}
	return &Service{
		bookings: bookings,
		catalog:  catalog,
		users:    users,
		pub:      pub,
		cfg:      cfg,
		log:      log.With(slog.String("component", "service.bookings")),
	}
}

type CreateInput struct {
	OfferingID        uuid.UUID
	Date              time.Time
	StartTime         domain.TimeOfDay
	EndTime           domain.TimeOfDay
	Kind              domain.BookingKind
	RecurrenceEndDate *time.Time
	Notes             string
}

// CreateResult carries every booking the request produced. Booking echoes
// the first instance, which is the whole result for punctual requests.
type CreateResult struct {
	Booking  domain.Booking
	Series   []domain.Booking
	Recurred bool
}

// Create validates and persists a booking request for the actor. A
// punctual request yields one row; a recurring request expands into its
// weekly instances and persists all of them or none. On success a
// BookingCreated intent is emitted toward the offering's instructor.
func (s *Service) Create(ctx context.Context, actor Actor, in CreateInput) (CreateResult, error) {
	off, err := s.catalog.Get(ctx, in.OfferingID)
	if err != nil {
		if errors.Is(err, store.ErrOfferingNotFound) {
			return CreateResult{}, reject(CodeOfferingNotFound, "class not found")
		}
		return CreateResult{}, err
	}
	if off.Status != domain.OfferingStatusActive {
		return CreateResult{}, reject(CodeOfferingNotFound, "class not found")
	}

	customer, err := s.users.Get(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return CreateResult{}, reject(CodeCustomerNotFound, "customer not found")
		}
		return CreateResult{}, err
	}

	base := domain.Booking{
		OfferingID: off.ID,
		CustomerID: customer.ID,
		Date:       domain.DateOnly(in.Date),
		StartTime:  in.StartTime,
		EndTime:    in.EndTime,
		Status:     domain.BookingStatusPending,
		Kind:       in.Kind,
		Notes:      strings.TrimSpace(in.Notes),
	}

	var result CreateResult
	switch in.Kind {
	case domain.BookingKindRecurring:
		series, err := s.createSeries(ctx, off, base, in.RecurrenceEndDate)
		if err != nil {
			return CreateResult{}, err
		}
		result = CreateResult{Booking: series[0], Series: series, Recurred: true}
	default:
		booking, err := s.bookings.CreatePunctual(ctx, off, base)
		if err != nil {
			return CreateResult{}, mapDomainRejection(err)
		}
		result = CreateResult{Booking: booking, Series: []domain.Booking{booking}}
	}

	s.emitCreated(ctx, off, customer, result)
	return result, nil
}

func (s *Service) createSeries(ctx context.Context, off domain.ClassOffering, base domain.Booking, endDate *time.Time) ([]domain.Booking, error) {
	rule := domain.RecurrenceRule{Mode: s.cfg.RecurrenceMode}
	switch rule.Mode {
	case domain.RecurrenceByCount:
		rule.Count = s.cfg.RecurrenceCount
	default:
		rule.Mode = domain.RecurrenceByEndDate
		if endDate == nil {
			return nil, reject(CodeInvalidRange, "recurrence end date is required for recurring bookings")
		}
		rule.EndDate = *endDate
	}

	dates, err := domain.ExpandWeekly(base.Date, rule)
	if err != nil {
		return nil, reject(CodeInvalidRange, err.Error())
	}

	// Each instance records the same effective end date, so a series
	// remains recognizable after individual instances are mutated.
	last := dates[len(dates)-1]
	instances := make([]domain.Booking, 0, len(dates))
	for _, d := range dates {
		b := base
		b.Date = d
		b.RecurrenceEndDate = &last
		instances = append(instances, b)
	}

	series, err := s.bookings.CreateSeries(ctx, off, instances)
	if err != nil {
		return nil, mapDomainRejection(err)
	}
	return series, nil
}

// Slots computes the availability grid for an offering on a date. Derived
// from current booking state on every call, never cached.
func (s *Service) Slots(ctx context.Context, offeringID uuid.UUID, date time.Time) ([]domain.TimeSlot, error) {
	off, err := s.catalog.Get(ctx, offeringID)
	if err != nil {
		if errors.Is(err, store.ErrOfferingNotFound) {
			return nil, reject(CodeOfferingNotFound, "class not found")
		}
		return nil, err
	}

	existing, err := s.bookings.ListForOfferingDate(ctx, off.ID, date)
	if err != nil {
		return nil, err
	}

	return domain.ComputeSlots(off, existing, s.cfg.SlotWidth, s.cfg.SlotStride), nil
}

// UpdateStatus moves a booking through its lifecycle. The offering's
// instructor and admins may apply any legal transition; the owning
// customer may only cancel. Confirmation and cancellation emit intents
// toward the customer.
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, bookingID uuid.UUID, next domain.BookingStatus, reason string) (domain.Booking, error) {
	booking, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Booking{}, reject(CodeBookingNotFound, "booking not found")
		}
		return domain.Booking{}, err
	}

	off, err := s.catalog.Get(ctx, booking.OfferingID)
	if err != nil {
		return domain.Booking{}, err
	}

	if !s.mayTransition(actor, booking, off, next) {
		return domain.Booking{}, reject(CodeForbidden, "you do not have permission to modify this booking")
	}
	if !booking.Status.CanTransitionTo(next) {
		return domain.Booking{}, reject(CodeInvalidTransition,
			fmt.Sprintf("cannot transition booking from %s to %s", booking.Status, next))
	}

	updated, err := s.bookings.UpdateStatus(ctx, bookingID, next)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Booking{}, reject(CodeBookingNotFound, "booking not found")
		}
		return domain.Booking{}, err
	}

	s.emitStatusChange(ctx, off, updated, reason)
	return updated, nil
}

func (s *Service) mayTransition(actor Actor, booking domain.Booking, off domain.ClassOffering, next domain.BookingStatus) bool {
	if actor.admin() || actor.ID == off.InstructorID {
		return true
	}
	// The owning customer may only cancel their own booking.
	return actor.ID == booking.CustomerID && next == domain.BookingStatusCancelled
}

// Delete removes a booking outright. This is not a lifecycle transition,
// so terminal states do not protect a row from removal; only the
// offering's instructor and admins may do it.
func (s *Service) Delete(ctx context.Context, actor Actor, bookingID uuid.UUID) error {
	booking, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return reject(CodeBookingNotFound, "booking not found")
		}
		return err
	}

	off, err := s.catalog.Get(ctx, booking.OfferingID)
	if err != nil {
		return err
	}
	if !actor.admin() && actor.ID != off.InstructorID {
		return reject(CodeForbidden, "you do not have permission to delete this booking")
	}

	if err := s.bookings.Delete(ctx, bookingID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return reject(CodeBookingNotFound, "booking not found")
		}
		return err
	}
	return nil
}

func (s *Service) ListForCustomer(ctx context.Context, actor Actor) ([]domain.Booking, error) {
	return s.bookings.ListForCustomer(ctx, actor.ID)
}

func (s *Service) ListForInstructor(ctx context.Context, actor Actor) ([]domain.Booking, error) {
	if actor.Role != domain.RoleInstructor && !actor.admin() {
		return nil, reject(CodeForbidden, "instructor role required")
	}
	return s.bookings.ListForInstructor(ctx, actor.ID)
}

// mapDomainRejection converts the validator's sentinel errors, surfaced
// through the repository transaction, into typed rejections.
func mapDomainRejection(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidRange):
		return reject(CodeInvalidRange, "start time must be before end time")
	case errors.Is(err, domain.ErrOutsideOfferingWindow):
		return reject(CodeOutsideOfferingWindow, "the requested time must be within the class schedule")
	case errors.Is(err, domain.ErrCapacityExceeded):
		return reject(CodeCapacityExceeded, "the class is fully booked for the requested time")
	}
	return err
}

func timeRange(b domain.Booking) string {
	return fmt.Sprintf("%s - %s", b.StartTime, b.EndTime)
}

// emitCreated hands the BookingCreated intent to the notifier. Intent
// publication is best-effort: a delivery failure is logged and swallowed,
// never propagated into the booking result.
func (s *Service) emitCreated(ctx context.Context, off domain.ClassOffering, customer domain.User, result CreateResult) {
	instructor, err := s.users.Get(ctx, off.InstructorID)
	if err != nil {
		s.log.Warn("instructor lookup for notification failed",
			slog.Any("err", err),
			slog.String("offering_id", off.ID.String()))
		return
	}

	intent := notify.BookingCreated{
		BookingID:       result.Booking.ID.String(),
		InstructorEmail: instructor.Email,
		InstructorName:  instructor.Name,
		CustomerName:    customer.Name,
		OfferingName:    off.Name,
		Date:            result.Booking.Date.Format(time.DateOnly),
		TimeRange:       timeRange(result.Booking),
		Instances:       len(result.Series),
	}
	if err := s.pub.Publish(ctx, intent); err != nil {
		s.log.Warn("notification intent publish failed",
			slog.Any("err", err),
			slog.String("routing_key", intent.RoutingKey()),
			slog.String("booking_id", intent.BookingID))
	}
}

func (s *Service) emitStatusChange(ctx context.Context, off domain.ClassOffering, booking domain.Booking, reason string) {
	var intent notify.Intent
	switch booking.Status {
	case domain.BookingStatusConfirmed:
		customer, err := s.users.Get(ctx, booking.CustomerID)
		if err != nil {
			s.log.Warn("customer lookup for notification failed", slog.Any("err", err), slog.String("booking_id", booking.ID.String()))
			return
		}
		instructorName := ""
		if instructor, err := s.users.Get(ctx, off.InstructorID); err == nil {
			instructorName = instructor.Name
		}
		intent = notify.BookingConfirmed{
			BookingID:      booking.ID.String(),
			CustomerEmail:  customer.Email,
			CustomerName:   customer.Name,
			OfferingName:   off.Name,
			InstructorName: instructorName,
			Date:           booking.Date.Format(time.DateOnly),
			TimeRange:      timeRange(booking),
		}
	case domain.BookingStatusCancelled:
		customer, err := s.users.Get(ctx, booking.CustomerID)
		if err != nil {
			s.log.Warn("customer lookup for notification failed", slog.Any("err", err), slog.String("booking_id", booking.ID.String()))
			return
		}
		intent = notify.BookingCancelled{
			BookingID:     booking.ID.String(),
			CustomerEmail: customer.Email,
			CustomerName:  customer.Name,
			OfferingName:  off.Name,
			Reason:        reason,
		}
	default:
		return
	}

	if err := s.pub.Publish(ctx, intent); err != nil {
		s.log.Warn("notification intent publish failed",
			slog.Any("err", err),
			slog.String("routing_key", intent.RoutingKey()),
			slog.String("booking_id", booking.ID.String()))
	}
}
