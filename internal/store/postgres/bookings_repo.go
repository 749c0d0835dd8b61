package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"tatutaller/backend/internal/domain"
	"tatutaller/backend/internal/store"
)

type BookingRepo struct {
	db *bun.DB
}

func NewBookingRepo(db *bun.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

type scheduleTx struct {
	tx bun.Tx
}

func (r *BookingRepo) CreatePunctual(ctx context.Context, off domain.ClassOffering, booking domain.Booking) (domain.Booking, error) {
	var out domain.Booking
	err := r.InOfferingTransaction(ctx, off.ID, func(ctx context.Context, tx store.ScheduleTx) error {
		existing, err := tx.ListActiveBookings(ctx, off.ID, booking.Date)
		if err != nil {
			return err
		}
		if err := domain.ValidateRequest(off, booking.StartTime, booking.EndTime, existing); err != nil {
			return err
		}
		b, err := tx.InsertBooking(ctx, booking)
		if err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return out, nil
}

// CreateSeries is two-phase: every instance is validated against the
// locked booking state before the first insert happens, so a rejected
// week leaves no partial series behind.
func (r *BookingRepo) CreateSeries(ctx context.Context, off domain.ClassOffering, bookings []domain.Booking) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.InOfferingTransaction(ctx, off.ID, func(ctx context.Context, tx store.ScheduleTx) error {
		if err := validateSeries(ctx, tx, off, bookings); err != nil {
			return err
		}
		out = make([]domain.Booking, 0, len(bookings))
		for _, b := range bookings {
			inserted, err := tx.InsertBooking(ctx, b)
			if err != nil {
				return err
			}
			out = append(out, inserted)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func validateSeries(ctx context.Context, tx store.ScheduleTx, off domain.ClassOffering, bookings []domain.Booking) error {
	for _, b := range bookings {
		existing, err := tx.ListActiveBookings(ctx, off.ID, b.Date)
		if err != nil {
			return err
		}
		if err := domain.ValidateRequest(off, b.StartTime, b.EndTime, existing); err != nil {
			return err
		}
	}
	return nil
}

func (r *BookingRepo) Get(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	var b domain.Booking
	err := r.db.NewSelect().
		Model(&b).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return domain.Booking{}, store.ErrNotFound
		}
		return domain.Booking{}, err
	}
	return b, nil
}

func (r *BookingRepo) ListForOfferingDate(ctx context.Context, offeringID uuid.UUID, date time.Time) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.db.NewSelect().
		Model(&rows).
		Where("offering_id = ?", offeringID).
		Where("date = ?", domain.DateOnly(date)).
		Where("status IN (?)", bun.In([]domain.BookingStatus{domain.BookingStatusPending, domain.BookingStatusConfirmed})).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BookingRepo) ListForCustomer(ctx context.Context, customerID string) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.db.NewSelect().
		Model(&rows).
		Where("customer_id = ?", customerID).
		OrderExpr("date ASC, start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BookingRepo) ListForInstructor(ctx context.Context, instructorID string) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.db.NewSelect().
		Model(&rows).
		Join("JOIN class_offerings AS o ON o.id = booking.offering_id").
		Where("o.instructor_id = ?", instructorID).
		OrderExpr("booking.date ASC, booking.start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *BookingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) (domain.Booking, error) {
	var b domain.Booking
	res, err := r.db.NewUpdate().
		Model(&b).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return domain.Booking{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Booking{}, err
	}
	if affected == 0 {
		return domain.Booking{}, store.ErrNotFound
	}
	return b, nil
}

func (r *BookingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.Booking)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// InOfferingTransaction serializes all booking mutations for one offering
// behind a Postgres advisory transaction lock. The lock key is the
// offering id, a strict superset of per-(offering,date) serialization: a
// recurring series spans many dates and must hold a single lock for its
// whole validate-then-insert pass.
func (r *BookingRepo) InOfferingTransaction(ctx context.Context, offeringID uuid.UUID, fn func(ctx context.Context, tx store.ScheduleTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockOfferingSchedule(ctx, tx, offeringID); err != nil {
			return err
		}
		return fn(ctx, scheduleTx{tx: tx})
	})
}

func lockOfferingSchedule(ctx context.Context, tx bun.Tx, offeringID uuid.UUID) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", offeringID.String()).Exec(ctx)
	return err
}

func (r scheduleTx) ListActiveBookings(ctx context.Context, offeringID uuid.UUID, date time.Time) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := r.tx.NewSelect().
		Model(&rows).
		Where("offering_id = ?", offeringID).
		Where("date = ?", domain.DateOnly(date)).
		Where("status IN (?)", bun.In([]domain.BookingStatus{domain.BookingStatusPending, domain.BookingStatusConfirmed})).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r scheduleTx) InsertBooking(ctx context.Context, booking domain.Booking) (domain.Booking, error) {
	m := booking
	_, err := r.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		return domain.Booking{}, err
	}
	return m, nil
}
