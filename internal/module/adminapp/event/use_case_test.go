package event

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Praitheesh/alf.io/internal/module/adminapp/category"
	"github.com/Praitheesh/alf.io/internal/module/adminapp/location"
	"github.com/Praitheesh/alf.io/internal/module/adminapp/ticket"
	"github.com/Praitheesh/alf.io/internal/module/adminapp/token"
	"github.com/Praitheesh/alf.io/internal/pkg/session"
	"github.com/Praitheesh/alf.io/pkg/errors"
)

type fakeEventRepository struct {
	events map[int64]Event

	savedEvent    Event
	updatedEvent  Event
	updatedHeader Event
	updatedPrices struct {
		called            bool
		regularPriceCents int64
		currency          string
		availableSeats    int
		vatIncluded       bool
		vat               float64
	}

	commits   int
	rollbacks int
}

func (f *fakeEventRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return nil, nil
}

func (f *fakeEventRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	f.commits++
	return nil
}

func (f *fakeEventRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	f.rollbacks++
	return nil
}

func (f *fakeEventRepository) Save(ctx context.Context, e Event, tx *sql.Tx) (int64, error) {
	f.savedEvent = e
	return 1, nil
}

func (f *fakeEventRepository) FindByID(ctx context.Context, ID int64, tx *sql.Tx) (Event, error) {
	e, ok := f.events[ID]
	if !ok {
		return Event{}, errors.New(http.StatusNotFound, "NOT_FOUND", "event is not found")
	}
	return e, nil
}

func (f *fakeEventRepository) FindManyByOrganizationIDs(ctx context.Context, organizationIDs []int64, tx *sql.Tx) ([]Event, error) {
	out := make([]Event, 0)
	for _, e := range f.events {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEventRepository) Update(ctx context.Context, e Event, tx *sql.Tx) error {
	f.updatedEvent = e
	return nil
}

func (f *fakeEventRepository) UpdateHeader(ctx context.Context, e Event, tx *sql.Tx) error {
	f.updatedHeader = e
	return nil
}

func (f *fakeEventRepository) UpdatePrices(ctx context.Context, ID int64, regularPriceCents int64, currency string, availableSeats int, vatIncluded bool, vat float64, tx *sql.Tx) error {
	f.updatedPrices.called = true
	f.updatedPrices.regularPriceCents = regularPriceCents
	f.updatedPrices.currency = currency
	f.updatedPrices.availableSeats = availableSeats
	f.updatedPrices.vatIncluded = vatIncluded
	f.updatedPrices.vat = vat
	return nil
}

type fakeCategoryRepository struct {
	nextID     int64
	categories []category.TicketCategory

	updated          []category.TicketCategory
	seatAvailability map[int64]int
	fixedDates       map[int64]time.Time
	deactivated      []int64

	commits   int
	rollbacks int
}

func newFakeCategoryRepository(categories ...category.TicketCategory) *fakeCategoryRepository {
	f := &fakeCategoryRepository{
		nextID:           int64(len(categories)) + 1,
		categories:       categories,
		seatAvailability: make(map[int64]int),
		fixedDates:       make(map[int64]time.Time),
	}
	return f
}

func (f *fakeCategoryRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return nil, nil
}

func (f *fakeCategoryRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	f.commits++
	return nil
}

func (f *fakeCategoryRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	f.rollbacks++
	return nil
}

func (f *fakeCategoryRepository) Save(ctx context.Context, tc category.TicketCategory, tx *sql.Tx) (int64, error) {
	tc.ID = f.nextID
	f.nextID++
	f.categories = append(f.categories, tc)
	return tc.ID, nil
}

func (f *fakeCategoryRepository) FindByID(ctx context.Context, ID, eventID int64, tx *sql.Tx) (category.TicketCategory, error) {
	for _, tc := range f.categories {
		if tc.ID == ID && tc.EventID == eventID {
			return tc, nil
		}
	}
	return category.TicketCategory{}, errors.New(http.StatusNotFound, "NOT_FOUND", "ticket category is not found")
}

func (f *fakeCategoryRepository) FindActiveByEventID(ctx context.Context, eventID int64, tx *sql.Tx) ([]category.TicketCategory, error) {
	out := make([]category.TicketCategory, 0)
	for _, tc := range f.categories {
		if tc.EventID == eventID && tc.Active {
			out = append(out, tc)
		}
	}
	return out, nil
}

func (f *fakeCategoryRepository) FindAllByEventID(ctx context.Context, eventID int64, tx *sql.Tx) ([]category.TicketCategory, error) {
	out := make([]category.TicketCategory, 0)
	for _, tc := range f.categories {
		if tc.EventID == eventID {
			out = append(out, tc)
		}
	}
	return out, nil
}

func (f *fakeCategoryRepository) Update(ctx context.Context, tc category.TicketCategory, tx *sql.Tx) error {
	f.updated = append(f.updated, tc)
	for i := range f.categories {
		if f.categories[i].ID == tc.ID {
			tc.EventID = f.categories[i].EventID
			tc.Active = f.categories[i].Active
			f.categories[i] = tc
		}
	}
	return nil
}

func (f *fakeCategoryRepository) UpdateSeatsAvailability(ctx context.Context, ID int64, maxTickets int, tx *sql.Tx) error {
	f.seatAvailability[ID] = maxTickets
	for i := range f.categories {
		if f.categories[i].ID == ID {
			f.categories[i].MaxTickets = maxTickets
		}
	}
	return nil
}

func (f *fakeCategoryRepository) FixDates(ctx context.Context, ID int64, inception, expiration time.Time, tx *sql.Tx) error {
	f.fixedDates[ID] = expiration
	for i := range f.categories {
		if f.categories[i].ID == ID {
			f.categories[i].Inception = inception
			f.categories[i].Expiration = expiration
		}
	}
	return nil
}

func (f *fakeCategoryRepository) Deactivate(ctx context.Context, ID int64, tx *sql.Tx) error {
	f.deactivated = append(f.deactivated, ID)
	for i := range f.categories {
		if f.categories[i].ID == ID {
			f.categories[i].Active = false
		}
	}
	return nil
}

type fakeTicketRepository struct {
	inserted    [][]ticket.Ticket
	freeIDs     []int64
	invalidated [][]int64
	repriced    struct {
		ids            []int64
		paidPriceCents int64
	}
	soldByCategory      map[int64]int
	checkedInByCategory map[int64]int
	invalidatedAll      int64
}

func (f *fakeTicketRepository) BulkInsert(ctx context.Context, tickets []ticket.Ticket, tx *sql.Tx) error {
	f.inserted = append(f.inserted, tickets)
	return nil
}

func (f *fakeTicketRepository) SelectFreeForUpdate(ctx context.Context, eventID, categoryID int64, limit int, tx *sql.Tx) ([]int64, error) {
	if limit > len(f.freeIDs) {
		return f.freeIDs, nil
	}
	return f.freeIDs[:limit], nil
}

func (f *fakeTicketRepository) InvalidateByIDs(ctx context.Context, ids []int64, tx *sql.Tx) error {
	f.invalidated = append(f.invalidated, ids)
	return nil
}

func (f *fakeTicketRepository) UpdatePriceByIDs(ctx context.Context, ids []int64, paidPriceCents int64, tx *sql.Tx) error {
	f.repriced.ids = ids
	f.repriced.paidPriceCents = paidPriceCents
	return nil
}

func (f *fakeTicketRepository) CountSold(ctx context.Context, eventID, categoryID int64, tx *sql.Tx) (int, error) {
	return f.soldByCategory[categoryID], nil
}

func (f *fakeTicketRepository) CountCheckedIn(ctx context.Context, eventID, categoryID int64, tx *sql.Tx) (int, error) {
	return f.checkedInByCategory[categoryID], nil
}

func (f *fakeTicketRepository) InvalidateAllByEventID(ctx context.Context, eventID int64, tx *sql.Tx) (int64, error) {
	return f.invalidatedAll, nil
}

type fakeSpecialPriceRepository struct {
	inserted       [][]token.SpecialPrice
	cancelAllCount int64
	lockedIDs      []int64
	cancelledIDs   [][]int64
	expiredCount   int64
	expiredCalls   []int64
}

func (f *fakeSpecialPriceRepository) BulkInsert(ctx context.Context, tokens []token.SpecialPrice, tx *sql.Tx) error {
	f.inserted = append(f.inserted, tokens)
	return nil
}

func (f *fakeSpecialPriceRepository) CancelAll(ctx context.Context, categoryID int64, tx *sql.Tx) (int64, error) {
	return f.cancelAllCount, nil
}

func (f *fakeSpecialPriceRepository) LockWaiting(ctx context.Context, categoryID int64, limit int, tx *sql.Tx) ([]int64, error) {
	if limit > len(f.lockedIDs) {
		return f.lockedIDs, nil
	}
	return f.lockedIDs[:limit], nil
}

func (f *fakeSpecialPriceRepository) CancelByIDs(ctx context.Context, ids []int64, tx *sql.Tx) error {
	f.cancelledIDs = append(f.cancelledIDs, ids)
	return nil
}

func (f *fakeSpecialPriceRepository) CancelExpired(ctx context.Context, categoryID int64, tx *sql.Tx) (int64, error) {
	f.expiredCalls = append(f.expiredCalls, categoryID)
	return f.expiredCount, nil
}

type fakeMembershipRepository struct {
	member          bool
	organizationIDs []int64
}

func (f *fakeMembershipRepository) IsMember(ctx context.Context, organizationID, accountID int64, tx *sql.Tx) (bool, error) {
	return f.member, nil
}

func (f *fakeMembershipRepository) FindOrganizationIDs(ctx context.Context, accountID int64, tx *sql.Tx) ([]int64, error) {
	return f.organizationIDs, nil
}

type fakeGeocodeRepository struct {
	geolocation location.Geolocation
}

func (f *fakeGeocodeRepository) Resolve(ctx context.Context, address string) (location.Geolocation, error) {
	return f.geolocation, nil
}

func adminContext() context.Context {
	return session.SetAccountToCtx(context.Background(), session.Account{ID: 7, Name: "admin", Email: "admin@example.org"})
}

func testEvent() Event {
	return Event{
		ID:                1,
		ShortName:         "gophercon",
		Description:       "a conference",
		Location:          "Jakarta",
		BeginsAt:          time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
		EndsAt:            time.Date(2026, 10, 3, 18, 0, 0, 0, time.UTC),
		TimeZone:          "UTC",
		RegularPriceCents: 10000,
		Currency:          "USD",
		AvailableSeats:    100,
		VATIncluded:       false,
		VAT:               10,
		OrganizationID:    3,
		CreatedAt:         time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestEventUseCase_CreateEvent_RemainderGoesToLatestExpiringCategory(t *testing.T) {
	eventRepo := &fakeEventRepository{events: map[int64]Event{}}
	categoryRepo := newFakeCategoryRepository()
	ticketRepo := &fakeTicketRepository{soldByCategory: map[int64]int{}}
	tokenRepo := &fakeSpecialPriceRepository{}
	membershipRepo := &fakeMembershipRepository{member: true}
	geocodeRepo := &fakeGeocodeRepository{geolocation: location.Geolocation{TimeZone: "UTC"}}

	usecase := NewEventUseCase(EventUseCaseProperty{
		Logger:                 logrus.New(),
		Timeout:                5 * time.Second,
		EventRepository:        eventRepo,
		CategoryRepository:     categoryRepo,
		TicketRepository:       ticketRepo,
		SpecialPriceRepository: tokenRepo,
		MembershipRepository:   membershipRepo,
		GeocodeRepository:      geocodeRepo,
	})

	req := CreateEventRequest{
		ShortName:      "gophercon",
		Description:    "a conference",
		Location:       "Jakarta",
		Begin:          "2026-10-01 09:00:00",
		End:            "2026-10-03 18:00:00",
		PriceCents:     10000,
		Currency:       "USD",
		AvailableSeats: 100,
		VAT:            10,
		OrganizationID: 3,
		TicketCategories: []TicketCategoryRequest{
			{
				Name:       "early bird",
				MaxTickets: 40,
				PriceCents: 8000,
				Inception:  "2026-01-01 00:00:00",
				Expiration: "2026-06-30 23:59:00",
			},
			{
				Name:       "regular",
				MaxTickets: 40,
				PriceCents: 10000,
				Inception:  "2026-07-01 00:00:00",
				Expiration: "2026-10-03 18:00:00",
			},
		},
	}

	resp, err := usecase.CreateEvent(adminContext(), req)
	require.NoError(t, err)
	require.Len(t, resp.TicketCategories, 2)

	assert.Equal(t, 40, categoryRepo.categories[0].MaxTickets)
	assert.Equal(t, 60, categoryRepo.categories[1].MaxTickets)
	assert.Equal(t, 1, categoryRepo.commits)

	require.Len(t, ticketRepo.inserted, 2)
	assert.Len(t, ticketRepo.inserted[0], 40)
	assert.Len(t, ticketRepo.inserted[1], 60)
}

func TestEventUseCase_CreateEvent_OverAllocationIsRejected(t *testing.T) {
	eventRepo := &fakeEventRepository{events: map[int64]Event{}}
	categoryRepo := newFakeCategoryRepository()
	ticketRepo := &fakeTicketRepository{soldByCategory: map[int64]int{}}
	membershipRepo := &fakeMembershipRepository{member: true}
	geocodeRepo := &fakeGeocodeRepository{geolocation: location.Geolocation{TimeZone: "UTC"}}

	usecase := NewEventUseCase(EventUseCaseProperty{
		Logger:                 logrus.New(),
		Timeout:                5 * time.Second,
		EventRepository:        eventRepo,
		CategoryRepository:     categoryRepo,
		TicketRepository:       ticketRepo,
		SpecialPriceRepository: &fakeSpecialPriceRepository{},
		MembershipRepository:   membershipRepo,
		GeocodeRepository:      geocodeRepo,
	})

	req := CreateEventRequest{
		ShortName:      "gophercon",
		Description:    "a conference",
		Location:       "Jakarta",
		Begin:          "2026-10-01 09:00:00",
		End:            "2026-10-03 18:00:00",
		Currency:       "USD",
		AvailableSeats: 50,
		OrganizationID: 3,
		TicketCategories: []TicketCategoryRequest{
			{
				Name:       "early bird",
				MaxTickets: 80,
				PriceCents: 8000,
				Inception:  "2026-01-01 00:00:00",
				Expiration: "2026-06-30 23:59:00",
			},
			{
				Name:       "regular",
				MaxTickets: 40,
				PriceCents: 10000,
				Inception:  "2026-07-01 00:00:00",
				Expiration: "2026-10-03 18:00:00",
			},
		},
	}

	_, err := usecase.CreateEvent(adminContext(), req)
	require.Error(t, err)

	ae := errors.Destruct(err)
	assert.Equal(t, http.StatusBadRequest, ae.HTTPStatusCode)
	assert.Equal(t, 1, categoryRepo.rollbacks+eventRepo.rollbacks)
	assert.Zero(t, categoryRepo.commits)
	assert.Zero(t, eventRepo.commits)
}

func TestEventUseCase_CreateEvent_RestrictedCategoryGetsTokens(t *testing.T) {
	eventRepo := &fakeEventRepository{events: map[int64]Event{}}
	categoryRepo := newFakeCategoryRepository()
	ticketRepo := &fakeTicketRepository{soldByCategory: map[int64]int{}}
	tokenRepo := &fakeSpecialPriceRepository{}
	geocodeRepo := &fakeGeocodeRepository{geolocation: location.Geolocation{TimeZone: "UTC"}}

	usecase := NewEventUseCase(EventUseCaseProperty{
		Logger:                 logrus.New(),
		Timeout:                5 * time.Second,
		EventRepository:        eventRepo,
		CategoryRepository:     categoryRepo,
		TicketRepository:       ticketRepo,
		SpecialPriceRepository: tokenRepo,
		MembershipRepository:   &fakeMembershipRepository{member: true},
		GeocodeRepository:      geocodeRepo,
	})

	req := CreateEventRequest{
		ShortName:      "gophercon",
		Description:    "a conference",
		Location:       "Jakarta",
		Begin:          "2026-10-01 09:00:00",
		End:            "2026-10-03 18:00:00",
		PriceCents:     11000,
		Currency:       "USD",
		AvailableSeats: 30,
		VATIncluded:    true,
		VAT:            10,
		OrganizationID: 3,
		TicketCategories: []TicketCategoryRequest{
			{
				Name:                     "vip",
				MaxTickets:               30,
				PriceCents:               22000,
				Inception:                "2026-01-01 00:00:00",
				Expiration:               "2026-10-03 18:00:00",
				TokenGenerationRequested: true,
			},
		},
	}

	_, err := usecase.CreateEvent(adminContext(), req)
	require.NoError(t, err)

	require.Len(t, tokenRepo.inserted, 1)
	assert.Len(t, tokenRepo.inserted[0], 30)
	// 22000 VAT-inclusive at 10% strips down to 20000.
	assert.Equal(t, int64(20000), tokenRepo.inserted[0][0].PriceCents)
}

func TestEventUseCase_CreateEvent_NotAMemberIsForbidden(t *testing.T) {
	eventRepo := &fakeEventRepository{events: map[int64]Event{}}

	usecase := NewEventUseCase(EventUseCaseProperty{
		Logger:                 logrus.New(),
		Timeout:                5 * time.Second,
		EventRepository:        eventRepo,
		CategoryRepository:     newFakeCategoryRepository(),
		TicketRepository:       &fakeTicketRepository{},
		SpecialPriceRepository: &fakeSpecialPriceRepository{},
		MembershipRepository:   &fakeMembershipRepository{member: false},
		GeocodeRepository:      &fakeGeocodeRepository{geolocation: location.Geolocation{TimeZone: "UTC"}},
	})

	req := CreateEventRequest{
		ShortName:      "gophercon",
		Location:       "Jakarta",
		Begin:          "2026-10-01 09:00:00",
		End:            "2026-10-03 18:00:00",
		Currency:       "USD",
		AvailableSeats: 10,
		OrganizationID: 3,
	}

	_, err := usecase.CreateEvent(adminContext(), req)
	require.Error(t, err)

	ae := errors.Destruct(err)
	assert.Equal(t, http.StatusForbidden, ae.HTTPStatusCode)
}

func TestEventUseCase_UpdateEvent_RejectedWhenTicketsSold(t *testing.T) {
	e := testEvent()
	eventRepo := &fakeEventRepository{events: map[int64]Event{e.ID: e}}
	categoryRepo := newFakeCategoryRepository(category.TicketCategory{
		ID:         1,
		EventID:    e.ID,
		Name:       "regular",
		MaxTickets: 100,
		Inception:  e.BeginsAt.AddDate(0, -6, 0),
		Expiration: e.EndsAt,
		Active:     true,
	})
	ticketRepo := &fakeTicketRepository{soldByCategory: map[int64]int{1: 5}}

	usecase := NewEventUseCase(EventUseCaseProperty{
		Logger:                 logrus.New(),
		Timeout:                5 * time.Second,
		EventRepository:        eventRepo,
		CategoryRepository:     categoryRepo,
		TicketRepository:       ticketRepo,
		SpecialPriceRepository: &fakeSpecialPriceRepository{},
		MembershipRepository:   &fakeMembershipRepository{member: true},
		GeocodeRepository:      &fakeGeocodeRepository{geolocation: location.Geolocation{TimeZone: "UTC"}},
	})

	req := UpdateEventRequest{EventID: e.ID}
	req.ShortName = e.ShortName
	req.Location = e.Location
	req.Begin = "2026-10-01 09:00:00"
	req.End = "2026-10-03 18:00:00"
	req.Currency = e.Currency
	req.AvailableSeats = 100
	req.OrganizationID = e.OrganizationID

	err := usecase.UpdateEvent(adminContext(), req)
	require.Error(t, err)

	ae := errors.Destruct(err)
	assert.Equal(t, http.StatusUnprocessableEntity, ae.HTTPStatusCode)
	assert.Empty(t, categoryRepo.deactivated)
	assert.Zero(t, eventRepo.commits)
}

func TestEventUseCase_UpdateEvent_RetiresAndRebuildsInventory(t *testing.T) {
	e := testEvent()
	eventRepo := &fakeEventRepository{events: map[int64]Event{e.ID: e}}
	categoryRepo := newFakeCategoryRepository(category.TicketCategory{
		ID:         1,
		EventID:    e.ID,
		Name:       "regular",
		MaxTickets: 100,
		Inception:  e.BeginsAt.AddDate(0, -6, 0),
		Expiration: e.EndsAt,
		Active:     true,
	})
	ticketRepo := &fakeTicketRepository{
		soldByCategory: map[int64]int{},
		invalidatedAll: 100,
	}

	usecase := NewEventUseCase(EventUseCaseProperty{
		Logger:                 logrus.New(),
		Timeout:                5 * time.Second,
		EventRepository:        eventRepo,
		CategoryRepository:     categoryRepo,
		TicketRepository:       ticketRepo,
		SpecialPriceRepository: &fakeSpecialPriceRepository{},
		MembershipRepository:   &fakeMembershipRepository{member: true},
		GeocodeRepository:      &fakeGeocodeRepository{geolocation: location.Geolocation{TimeZone: "UTC"}},
	})

	req := UpdateEventRequest{EventID: e.ID}
	req.ShortName = e.ShortName
	req.Description = e.Description
	req.Location = e.Location
	req.Begin = "2026-10-01 09:00:00"
	req.End = "2026-10-03 18:00:00"
	req.Currency = e.Currency
	req.AvailableSeats = 80
	req.OrganizationID = e.OrganizationID
	req.TicketCategories = []TicketCategoryRequest{
		{
			Name:       "standard",
			MaxTickets: 80,
			PriceCents: 9000,
			Inception:  "2026-01-01 00:00:00",
			Expiration: "2026-10-03 18:00:00",
		},
	}

	err := usecase.UpdateEvent(adminContext(), req)
	require.NoError(t, err)

	assert.Equal(t, []int64{1}, categoryRepo.deactivated)
	assert.Equal(t, int64(1), eventRepo.updatedEvent.ID)
	assert.Equal(t, 1, eventRepo.commits)

	require.Len(t, ticketRepo.inserted, 1)
	assert.Len(t, ticketRepo.inserted[0], 80)
}

func TestEventUseCase_UpdateEventHeader_ClampsOutOfRangeCategories(t *testing.T) {
	e := testEvent()
	eventRepo := &fakeEventRepository{events: map[int64]Event{e.ID: e}}
	categoryRepo := newFakeCategoryRepository(category.TicketCategory{
		ID:         1,
		EventID:    e.ID,
		Name:       "late",
		MaxTickets: 100,
		Inception:  time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		Expiration: time.Date(2026, 10, 3, 18, 0, 0, 0, time.UTC),
		Active:     true,
	})

	usecase := NewEventUseCase(EventUseCaseProperty{
		Logger:                 logrus.New(),
		Timeout:                5 * time.Second,
		EventRepository:        eventRepo,
		CategoryRepository:     categoryRepo,
		TicketRepository:       &fakeTicketRepository{soldByCategory: map[int64]int{}},
		SpecialPriceRepository: &fakeSpecialPriceRepository{},
		MembershipRepository:   &fakeMembershipRepository{member: true},
		GeocodeRepository:      &fakeGeocodeRepository{geolocation: location.Geolocation{TimeZone: "UTC"}},
	})

	req := UpdateEventHeaderRequest{
		EventID:     e.ID,
		ShortName:   e.ShortName,
		Description: e.Description,
		Location:    e.Location,
		Begin:       "2026-10-01 09:00:00",
		End:         "2026-10-02 18:00:00",
	}

	err := usecase.UpdateEventHeader(adminContext(), req)
	require.NoError(t, err)

	newEnd := time.Date(2026, 10, 2, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, newEnd, categoryRepo.fixedDates[1])
	assert.Equal(t, 1, eventRepo.commits)
}

func TestEventUseCase_UpdateEventHeader_UnclampableCategoryBlocksChange(t *testing.T) {
	e := testEvent()
	eventRepo := &fakeEventRepository{events: map[int64]Event{e.ID: e}}
	categoryRepo := newFakeCategoryRepository(category.TicketCategory{
		ID:         1,
		EventID:    e.ID,
		Name:       "late",
		MaxTickets: 100,
		Inception:  time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
		Expiration: time.Date(2026, 10, 3, 18, 0, 0, 0, time.UTC),
		Active:     true,
	})

	usecase := NewEventUseCase(EventUseCaseProperty{
		Logger:                 logrus.New(),
		Timeout:                5 * time.Second,
		EventRepository:        eventRepo,
		CategoryRepository:     categoryRepo,
		TicketRepository:       &fakeTicketRepository{soldByCategory: map[int64]int{}},
		SpecialPriceRepository: &fakeSpecialPriceRepository{},
		MembershipRepository:   &fakeMembershipRepository{member: true},
		GeocodeRepository:      &fakeGeocodeRepository{geolocation: location.Geolocation{TimeZone: "UTC"}},
	})

	req := UpdateEventHeaderRequest{
		EventID:     e.ID,
		ShortName:   e.ShortName,
		Description: e.Description,
		Location:    e.Location,
		Begin:       "2026-10-01 09:00:00",
		End:         "2026-10-01 18:00:00",
	}

	err := usecase.UpdateEventHeader(adminContext(), req)
	require.Error(t, err)

	ae := errors.Destruct(err)
	assert.Equal(t, http.StatusBadRequest, ae.HTTPStatusCode)
	assert.Empty(t, categoryRepo.fixedDates)
	assert.Zero(t, eventRepo.commits)
}

func TestEventUseCase_UpdateEventPrices_CannotShrinkBelowAllocation(t *testing.T) {
	e := testEvent()
	eventRepo := &fakeEventRepository{events: map[int64]Event{e.ID: e}}
	categoryRepo := newFakeCategoryRepository(category.TicketCategory{
		ID:         1,
		EventID:    e.ID,
		MaxTickets: 80,
		Active:     true,
	})

	usecase := NewEventUseCase(EventUseCaseProperty{
		Logger:                 logrus.New(),
		Timeout:                5 * time.Second,
		EventRepository:        eventRepo,
		CategoryRepository:     categoryRepo,
		TicketRepository:       &fakeTicketRepository{soldByCategory: map[int64]int{}},
		SpecialPriceRepository: &fakeSpecialPriceRepository{},
		MembershipRepository:   &fakeMembershipRepository{member: true},
		GeocodeRepository:      &fakeGeocodeRepository{geolocation: location.Geolocation{TimeZone: "UTC"}},
	})

	req := UpdateEventPricesRequest{
		EventID:        e.ID,
		PriceCents:     10000,
		Currency:       "USD",
		AvailableSeats: 50,
		VAT:            10,
	}

	err := usecase.UpdateEventPrices(adminContext(), req)
	require.Error(t, err)

	ae := errors.Destruct(err)
	assert.Equal(t, http.StatusBadRequest, ae.HTTPStatusCode)
	assert.False(t, eventRepo.updatedPrices.called)
}

func TestEventUseCase_UpdateEventPrices_FreeOfChargeZeroesVAT(t *testing.T) {
	e := testEvent()
	eventRepo := &fakeEventRepository{events: map[int64]Event{e.ID: e}}

	usecase := NewEventUseCase(EventUseCaseProperty{
		Logger:                 logrus.New(),
		Timeout:                5 * time.Second,
		EventRepository:        eventRepo,
		CategoryRepository:     newFakeCategoryRepository(),
		TicketRepository:       &fakeTicketRepository{soldByCategory: map[int64]int{}},
		SpecialPriceRepository: &fakeSpecialPriceRepository{},
		MembershipRepository:   &fakeMembershipRepository{member: true},
		GeocodeRepository:      &fakeGeocodeRepository{geolocation: location.Geolocation{TimeZone: "UTC"}},
	})

	req := UpdateEventPricesRequest{
		EventID:        e.ID,
		PriceCents:     10000,
		Currency:       "USD",
		AvailableSeats: 120,
		VAT:            10,
		FreeOfCharge:   true,
	}

	err := usecase.UpdateEventPrices(adminContext(), req)
	require.NoError(t, err)

	assert.True(t, eventRepo.updatedPrices.called)
	assert.Zero(t, eventRepo.updatedPrices.regularPriceCents)
	assert.Zero(t, eventRepo.updatedPrices.vat)
	assert.Equal(t, 120, eventRepo.updatedPrices.availableSeats)
}

func TestEventUseCase_GetEvent_AggregatesStatistics(t *testing.T) {
	e := testEvent()
	eventRepo := &fakeEventRepository{events: map[int64]Event{e.ID: e}}
	categoryRepo := newFakeCategoryRepository(category.TicketCategory{
		ID:         1,
		EventID:    e.ID,
		Name:       "regular",
		MaxTickets: 100,
		Active:     true,
	})
	ticketRepo := &fakeTicketRepository{
		soldByCategory:      map[int64]int{1: 30},
		checkedInByCategory: map[int64]int{1: 12},
	}

	usecase := NewEventUseCase(EventUseCaseProperty{
		Logger:                 logrus.New(),
		Timeout:                5 * time.Second,
		EventRepository:        eventRepo,
		CategoryRepository:     categoryRepo,
		TicketRepository:       ticketRepo,
		SpecialPriceRepository: &fakeSpecialPriceRepository{},
		MembershipRepository:   &fakeMembershipRepository{member: true},
		GeocodeRepository:      &fakeGeocodeRepository{geolocation: location.Geolocation{TimeZone: "UTC"}},
	})

	resp, err := usecase.GetEvent(adminContext(), e.ID)
	require.NoError(t, err)

	require.Len(t, resp.TicketCategories, 1)
	assert.Equal(t, 30, resp.TicketCategories[0].SoldTickets)
	assert.Equal(t, 12, resp.TicketCategories[0].CheckedInTickets)
	assert.Equal(t, 70, resp.TicketCategories[0].NotSoldTickets)
}
