package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"tatutaller/backend/internal/domain"
	"tatutaller/backend/internal/notify"
	"tatutaller/backend/internal/store"
)

type fakeBookingRepo struct {
	createPunctualFn func(ctx context.Context, off domain.ClassOffering, booking domain.Booking) (domain.Booking, error)
	createSeriesFn   func(ctx context.Context, off domain.ClassOffering, bookings []domain.Booking) ([]domain.Booking, error)
	getFn            func(ctx context.Context, id uuid.UUID) (domain.Booking, error)
	updateStatusFn   func(ctx context.Context, id uuid.UUID, status domain.BookingStatus) (domain.Booking, error)
	deleteFn         func(ctx context.Context, id uuid.UUID) error
	listForDateFn    func(ctx context.Context, offeringID uuid.UUID, date time.Time) ([]domain.Booking, error)
}

func (f *fakeBookingRepo) CreatePunctual(ctx context.Context, off domain.ClassOffering, booking domain.Booking) (domain.Booking, error) {
	if f.createPunctualFn == nil {
		booking.ID = uuid.New()
		return booking, nil
	}
	return f.createPunctualFn(ctx, off, booking)
}

func (f *fakeBookingRepo) CreateSeries(ctx context.Context, off domain.ClassOffering, bookings []domain.Booking) ([]domain.Booking, error) {
	if f.createSeriesFn == nil {
		out := make([]domain.Booking, len(bookings))
		for i, b := range bookings {
			b.ID = uuid.New()
			out[i] = b
		}
		return out, nil
	}
	return f.createSeriesFn(ctx, off, bookings)
}

func (f *fakeBookingRepo) Get(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	if f.getFn == nil {
		return domain.Booking{}, store.ErrNotFound
	}
	return f.getFn(ctx, id)
}

func (f *fakeBookingRepo) ListForOfferingDate(ctx context.Context, offeringID uuid.UUID, date time.Time) ([]domain.Booking, error) {
	if f.listForDateFn == nil {
		return nil, nil
	}
	return f.listForDateFn(ctx, offeringID, date)
}

func (f *fakeBookingRepo) ListForCustomer(ctx context.Context, customerID string) ([]domain.Booking, error) {
	return nil, nil
}

func (f *fakeBookingRepo) ListForInstructor(ctx context.Context, instructorID string) ([]domain.Booking, error) {
	return nil, nil
}

func (f *fakeBookingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) (domain.Booking, error) {
	if f.updateStatusFn == nil {
		return domain.Booking{}, store.ErrNotFound
	}
	return f.updateStatusFn(ctx, id, status)
}

func (f *fakeBookingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, id)
}

type fakeCatalog struct {
	offerings map[uuid.UUID]domain.ClassOffering
}

func (f *fakeCatalog) Get(ctx context.Context, id uuid.UUID) (domain.ClassOffering, error) {
	off, ok := f.offerings[id]
	if !ok {
		return domain.ClassOffering{}, store.ErrOfferingNotFound
	}
	return off, nil
}

func (f *fakeCatalog) ListActive(ctx context.Context) ([]domain.ClassOffering, error) {
	var out []domain.ClassOffering
	for _, off := range f.offerings {
		if off.Status == domain.OfferingStatusActive {
			out = append(out, off)
		}
	}
	return out, nil
}

type fakeUsers struct {
	users map[string]domain.User
}

func (f *fakeUsers) Get(ctx context.Context, id string) (domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, store.ErrUserNotFound
	}
	return u, nil
}

type fakePublisher struct {
	published []notify.Intent
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, intent notify.Intent) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, intent)
	return nil
}

var (
	offeringID = uuid.MustParse("00000000-0000-0000-0000-000000000301")
	bookingID  = uuid.MustParse("00000000-0000-0000-0000-000000000401")
)

func fixtureOffering() domain.ClassOffering {
	return domain.ClassOffering{
		ID:           offeringID,
		Name:         "Torno I",
		Weekday:      time.Monday,
		StartTime:    domain.NewTimeOfDay(9, 0),
		EndTime:      domain.NewTimeOfDay(13, 0),
		Capacity:     1,
		Status:       domain.OfferingStatusActive,
		InstructorID: "u-teacher",
	}
}

func fixtureUsers() *fakeUsers {
	return &fakeUsers{users: map[string]domain.User{
		"u-customer": {ID: "u-customer", Name: "Ana", Email: "ana@example.com", Role: domain.RoleCustomer},
		"u-teacher":  {ID: "u-teacher", Name: "Marta", Email: "marta@example.com", Role: domain.RoleInstructor},
	}}
}

func newTestService(repo *fakeBookingRepo, pub notify.Publisher) *Service {
	return NewService(repo, &fakeCatalog{offerings: map[uuid.UUID]domain.ClassOffering{offeringID: fixtureOffering()}}, fixtureUsers(), pub, Config{
		SlotWidth:       2 * time.Hour,
		SlotStride:      30 * time.Minute,
		RecurrenceMode:  domain.RecurrenceByEndDate,
		RecurrenceCount: 4,
	}, nil)
}

func wantRejection(t *testing.T, err error, code RejectionCode) {
	t.Helper()
	var rej *RejectionError
	if !errors.As(err, &rej) {
		t.Fatalf("error = %v, want RejectionError %s", err, code)
	}
	if rej.Code != code {
		t.Fatalf("rejection code = %s, want %s", rej.Code, code)
	}
}

func TestCreate_Punctual(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(&fakeBookingRepo{}, pub)

	result, err := svc.Create(context.Background(), Actor{ID: "u-customer", Role: domain.RoleCustomer}, CreateInput{
		OfferingID: offeringID,
		Date:       time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime:  domain.NewTimeOfDay(9, 0),
		EndTime:    domain.NewTimeOfDay(11, 0),
		Kind:       domain.BookingKindPunctual,
	})
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}
	if result.Recurred {
		t.Fatal("punctual booking reported as recurring")
	}
	if result.Booking.Status != domain.BookingStatusPending {
		t.Fatalf("status = %s, want PENDING", result.Booking.Status)
	}

	if len(pub.published) != 1 {
		t.Fatalf("published %d intents, want 1", len(pub.published))
	}
	created, ok := pub.published[0].(notify.BookingCreated)
	if !ok {
		t.Fatalf("intent type = %T, want BookingCreated", pub.published[0])
	}
	if created.InstructorEmail != "marta@example.com" {
		t.Fatalf("intent instructor email = %q", created.InstructorEmail)
	}
	if created.TimeRange != "09:00 - 11:00" {
		t.Fatalf("intent time range = %q", created.TimeRange)
	}
}

func TestCreate_CapacityRejection(t *testing.T) {
	repo := &fakeBookingRepo{
		createPunctualFn: func(ctx context.Context, off domain.ClassOffering, booking domain.Booking) (domain.Booking, error) {
			return domain.Booking{}, domain.ErrCapacityExceeded
		},
	}
	pub := &fakePublisher{}
	svc := newTestService(repo, pub)

	_, err := svc.Create(context.Background(), Actor{ID: "u-customer", Role: domain.RoleCustomer}, CreateInput{
		OfferingID: offeringID,
		Date:       time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime:  domain.NewTimeOfDay(10, 0),
		EndTime:    domain.NewTimeOfDay(10, 30),
		Kind:       domain.BookingKindPunctual,
	})
	wantRejection(t, err, CodeCapacityExceeded)
	if len(pub.published) != 0 {
		t.Fatalf("published %d intents after rejection, want 0", len(pub.published))
	}
}

func TestCreate_UnknownOfferingAndCustomer(t *testing.T) {
	svc := newTestService(&fakeBookingRepo{}, &fakePublisher{})

	_, err := svc.Create(context.Background(), Actor{ID: "u-customer", Role: domain.RoleCustomer}, CreateInput{
		OfferingID: uuid.New(),
		Kind:       domain.BookingKindPunctual,
	})
	wantRejection(t, err, CodeOfferingNotFound)

	_, err = svc.Create(context.Background(), Actor{ID: "u-ghost", Role: domain.RoleCustomer}, CreateInput{
		OfferingID: offeringID,
		Kind:       domain.BookingKindPunctual,
	})
	wantRejection(t, err, CodeCustomerNotFound)
}

func TestCreate_InactiveOfferingHidden(t *testing.T) {
	off := fixtureOffering()
	off.Status = domain.OfferingStatusInactive
	svc := NewService(&fakeBookingRepo{}, &fakeCatalog{offerings: map[uuid.UUID]domain.ClassOffering{offeringID: off}}, fixtureUsers(), &fakePublisher{}, Config{
		RecurrenceMode: domain.RecurrenceByEndDate,
	}, nil)

	_, err := svc.Create(context.Background(), Actor{ID: "u-customer", Role: domain.RoleCustomer}, CreateInput{
		OfferingID: offeringID,
		Kind:       domain.BookingKindPunctual,
	})
	wantRejection(t, err, CodeOfferingNotFound)
}

func TestCreate_RecurringByEndDate(t *testing.T) {
	var captured []domain.Booking
	repo := &fakeBookingRepo{
		createSeriesFn: func(ctx context.Context, off domain.ClassOffering, bookings []domain.Booking) ([]domain.Booking, error) {
			captured = bookings
			return bookings, nil
		},
	}
	pub := &fakePublisher{}
	svc := newTestService(repo, pub)

	first := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := first.AddDate(0, 0, 28)
	result, err := svc.Create(context.Background(), Actor{ID: "u-customer", Role: domain.RoleCustomer}, CreateInput{
		OfferingID:        offeringID,
		Date:              first,
		StartTime:         domain.NewTimeOfDay(9, 0),
		EndTime:           domain.NewTimeOfDay(11, 0),
		Kind:              domain.BookingKindRecurring,
		RecurrenceEndDate: &end,
	})
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}
	if !result.Recurred {
		t.Fatal("recurring booking not reported as recurring")
	}
	if len(result.Series) != 5 {
		t.Fatalf("len(series) = %d, want 5", len(result.Series))
	}
	for i, b := range captured {
		want := first.AddDate(0, 0, 7*i)
		if !b.Date.Equal(want) {
			t.Fatalf("instance %d date = %s, want %s", i, b.Date, want)
		}
		if b.RecurrenceEndDate == nil || !b.RecurrenceEndDate.Equal(domain.DateOnly(end)) {
			t.Fatalf("instance %d recurrence end = %v, want %s", i, b.RecurrenceEndDate, end)
		}
	}

	if len(pub.published) != 1 {
		t.Fatalf("published %d intents, want 1", len(pub.published))
	}
	created := pub.published[0].(notify.BookingCreated)
	if created.Instances != 5 {
		t.Fatalf("intent instances = %d, want 5", created.Instances)
	}
}

func TestCreate_RecurringRequiresEndDate(t *testing.T) {
	svc := newTestService(&fakeBookingRepo{}, &fakePublisher{})

	_, err := svc.Create(context.Background(), Actor{ID: "u-customer", Role: domain.RoleCustomer}, CreateInput{
		OfferingID: offeringID,
		Date:       time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime:  domain.NewTimeOfDay(9, 0),
		EndTime:    domain.NewTimeOfDay(11, 0),
		Kind:       domain.BookingKindRecurring,
	})
	wantRejection(t, err, CodeInvalidRange)
}

func TestCreate_RecurringByCountIgnoresEndDate(t *testing.T) {
	var captured []domain.Booking
	repo := &fakeBookingRepo{
		createSeriesFn: func(ctx context.Context, off domain.ClassOffering, bookings []domain.Booking) ([]domain.Booking, error) {
			captured = bookings
			return bookings, nil
		},
	}
	svc := NewService(repo, &fakeCatalog{offerings: map[uuid.UUID]domain.ClassOffering{offeringID: fixtureOffering()}}, fixtureUsers(), &fakePublisher{}, Config{
		RecurrenceMode:  domain.RecurrenceByCount,
		RecurrenceCount: 4,
	}, nil)

	first := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := first.AddDate(0, 0, 70)
	result, err := svc.Create(context.Background(), Actor{ID: "u-customer", Role: domain.RoleCustomer}, CreateInput{
		OfferingID:        offeringID,
		Date:              first,
		StartTime:         domain.NewTimeOfDay(9, 0),
		EndTime:           domain.NewTimeOfDay(11, 0),
		Kind:              domain.BookingKindRecurring,
		RecurrenceEndDate: &end,
	})
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}
	if len(result.Series) != 4 || len(captured) != 4 {
		t.Fatalf("len(series) = %d, want the configured count of 4", len(result.Series))
	}
}

func TestCreate_SeriesConflictAborts(t *testing.T) {
	repo := &fakeBookingRepo{
		createSeriesFn: func(ctx context.Context, off domain.ClassOffering, bookings []domain.Booking) ([]domain.Booking, error) {
			return nil, domain.ErrCapacityExceeded
		},
	}
	pub := &fakePublisher{}
	svc := newTestService(repo, pub)

	first := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := first.AddDate(0, 0, 28)
	_, err := svc.Create(context.Background(), Actor{ID: "u-customer", Role: domain.RoleCustomer}, CreateInput{
		OfferingID:        offeringID,
		Date:              first,
		StartTime:         domain.NewTimeOfDay(9, 0),
		EndTime:           domain.NewTimeOfDay(11, 0),
		Kind:              domain.BookingKindRecurring,
		RecurrenceEndDate: &end,
	})
	wantRejection(t, err, CodeCapacityExceeded)
	if len(pub.published) != 0 {
		t.Fatalf("published %d intents after aborted series, want 0", len(pub.published))
	}
}

func TestCreate_PublishFailureSwallowed(t *testing.T) {
	svc := newTestService(&fakeBookingRepo{}, &fakePublisher{err: errors.New("broker down")})

	_, err := svc.Create(context.Background(), Actor{ID: "u-customer", Role: domain.RoleCustomer}, CreateInput{
		OfferingID: offeringID,
		Date:       time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime:  domain.NewTimeOfDay(9, 0),
		EndTime:    domain.NewTimeOfDay(11, 0),
		Kind:       domain.BookingKindPunctual,
	})
	if err != nil {
		t.Fatalf("Create error = %v, want nil despite publish failure", err)
	}
}

func lifecycleRepo(current *domain.Booking) *fakeBookingRepo {
	return &fakeBookingRepo{
		getFn: func(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
			if id != current.ID {
				return domain.Booking{}, store.ErrNotFound
			}
			return *current, nil
		},
		updateStatusFn: func(ctx context.Context, id uuid.UUID, status domain.BookingStatus) (domain.Booking, error) {
			current.Status = status
			return *current, nil
		},
	}
}

func pendingBooking() domain.Booking {
	return domain.Booking{
		ID:         bookingID,
		OfferingID: offeringID,
		CustomerID: "u-customer",
		Date:       time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime:  domain.NewTimeOfDay(9, 0),
		EndTime:    domain.NewTimeOfDay(11, 0),
		Status:     domain.BookingStatusPending,
		Kind:       domain.BookingKindPunctual,
	}
}

func TestUpdateStatus_Lifecycle(t *testing.T) {
	current := pendingBooking()
	pub := &fakePublisher{}
	svc := newTestService(lifecycleRepo(&current), pub)
	ctx := context.Background()

	instructor := Actor{ID: "u-teacher", Role: domain.RoleInstructor}

	updated, err := svc.UpdateStatus(ctx, instructor, bookingID, domain.BookingStatusConfirmed, "")
	if err != nil {
		t.Fatalf("confirm error = %v", err)
	}
	if updated.Status != domain.BookingStatusConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", updated.Status)
	}

	updated, err = svc.UpdateStatus(ctx, instructor, bookingID, domain.BookingStatusCompleted, "")
	if err != nil {
		t.Fatalf("complete error = %v", err)
	}
	if updated.Status != domain.BookingStatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", updated.Status)
	}

	// COMPLETED is terminal, even for an admin.
	_, err = svc.UpdateStatus(ctx, Actor{ID: "u-admin", Role: domain.RoleAdmin}, bookingID, domain.BookingStatusCancelled, "")
	wantRejection(t, err, CodeInvalidTransition)

	if len(pub.published) != 1 {
		t.Fatalf("published %d intents, want 1 (confirmation only)", len(pub.published))
	}
	confirmed, ok := pub.published[0].(notify.BookingConfirmed)
	if !ok {
		t.Fatalf("intent type = %T, want BookingConfirmed", pub.published[0])
	}
	if confirmed.CustomerEmail != "ana@example.com" {
		t.Fatalf("intent customer email = %q", confirmed.CustomerEmail)
	}
}

func TestUpdateStatus_CustomerAuthorization(t *testing.T) {
	ctx := context.Background()
	customer := Actor{ID: "u-customer", Role: domain.RoleCustomer}

	t.Run("customer cannot confirm", func(t *testing.T) {
		current := pendingBooking()
		svc := newTestService(lifecycleRepo(&current), &fakePublisher{})
		_, err := svc.UpdateStatus(ctx, customer, bookingID, domain.BookingStatusConfirmed, "")
		wantRejection(t, err, CodeForbidden)
	})

	t.Run("customer cancels own booking", func(t *testing.T) {
		current := pendingBooking()
		pub := &fakePublisher{}
		svc := newTestService(lifecycleRepo(&current), pub)
		updated, err := svc.UpdateStatus(ctx, customer, bookingID, domain.BookingStatusCancelled, "no puedo asistir")
		if err != nil {
			t.Fatalf("cancel error = %v", err)
		}
		if updated.Status != domain.BookingStatusCancelled {
			t.Fatalf("status = %s, want CANCELLED", updated.Status)
		}
		if len(pub.published) != 1 {
			t.Fatalf("published %d intents, want 1", len(pub.published))
		}
		cancelled := pub.published[0].(notify.BookingCancelled)
		if cancelled.Reason != "no puedo asistir" {
			t.Fatalf("intent reason = %q", cancelled.Reason)
		}
	})

	t.Run("stranger cannot cancel", func(t *testing.T) {
		current := pendingBooking()
		svc := newTestService(lifecycleRepo(&current), &fakePublisher{})
		_, err := svc.UpdateStatus(ctx, Actor{ID: "u-other", Role: domain.RoleCustomer}, bookingID, domain.BookingStatusCancelled, "")
		wantRejection(t, err, CodeForbidden)
	})

	t.Run("unknown booking", func(t *testing.T) {
		current := pendingBooking()
		svc := newTestService(lifecycleRepo(&current), &fakePublisher{})
		_, err := svc.UpdateStatus(ctx, customer, uuid.New(), domain.BookingStatusCancelled, "")
		wantRejection(t, err, CodeBookingNotFound)
	})
}

func TestDelete_Authorization(t *testing.T) {
	ctx := context.Background()

	t.Run("customer may not delete", func(t *testing.T) {
		current := pendingBooking()
		svc := newTestService(lifecycleRepo(&current), &fakePublisher{})
		err := svc.Delete(ctx, Actor{ID: "u-customer", Role: domain.RoleCustomer}, bookingID)
		wantRejection(t, err, CodeForbidden)
	})

	t.Run("instructor deletes", func(t *testing.T) {
		current := pendingBooking()
		repo := lifecycleRepo(&current)
		deleted := false
		repo.deleteFn = func(ctx context.Context, id uuid.UUID) error {
			deleted = true
			return nil
		}
		svc := newTestService(repo, &fakePublisher{})
		if err := svc.Delete(ctx, Actor{ID: "u-teacher", Role: domain.RoleInstructor}, bookingID); err != nil {
			t.Fatalf("Delete error = %v", err)
		}
		if !deleted {
			t.Fatal("repository delete never invoked")
		}
	})
}

func TestListForInstructor_RequiresRole(t *testing.T) {
	svc := newTestService(&fakeBookingRepo{}, &fakePublisher{})

	_, err := svc.ListForInstructor(context.Background(), Actor{ID: "u-customer", Role: domain.RoleCustomer})
	wantRejection(t, err, CodeForbidden)

	if _, err := svc.ListForInstructor(context.Background(), Actor{ID: "u-teacher", Role: domain.RoleInstructor}); err != nil {
		t.Fatalf("instructor list error = %v", err)
	}
}

func TestSlots(t *testing.T) {
	repo := &fakeBookingRepo{
		listForDateFn: func(ctx context.Context, id uuid.UUID, date time.Time) ([]domain.Booking, error) {
			return []domain.Booking{{
				StartTime: domain.NewTimeOfDay(10, 0),
				EndTime:   domain.NewTimeOfDay(10, 30),
				Status:    domain.BookingStatusConfirmed,
			}}, nil
		},
	}
	svc := newTestService(repo, &fakePublisher{})

	slots, err := svc.Slots(context.Background(), offeringID, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Slots error = %v", err)
	}
	if len(slots) != 5 {
		t.Fatalf("len(slots) = %d, want 5", len(slots))
	}
	if slots[0].Available {
		t.Fatal("slot overlapping the confirmed booking reported available")
	}
	if !slots[4].Available {
		t.Fatal("11:00-13:00 slot should be free")
	}

	_, err = svc.Slots(context.Background(), uuid.New(), time.Now())
	wantRejection(t, err, CodeOfferingNotFound)
}
