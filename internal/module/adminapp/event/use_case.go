package event

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/sirupsen/logrus"

	"github.com/Praitheesh/alf.io/internal/module/adminapp/category"
	"github.com/Praitheesh/alf.io/internal/module/adminapp/location"
	"github.com/Praitheesh/alf.io/internal/module/adminapp/organization"
	"github.com/Praitheesh/alf.io/internal/module/adminapp/ticket"
	"github.com/Praitheesh/alf.io/internal/module/adminapp/token"
	"github.com/Praitheesh/alf.io/internal/pkg/money"
	"github.com/Praitheesh/alf.io/internal/pkg/session"
	"github.com/Praitheesh/alf.io/pkg/errors"
	"github.com/Praitheesh/alf.io/pkg/gctasks"
	"github.com/Praitheesh/alf.io/pkg/pubsub"
	"github.com/Praitheesh/alf.io/pkg/status"
)

type EventUseCase interface {
	CreateEvent(ctx context.Context, req CreateEventRequest) (CreateEventResponse, error)
	UpdateEvent(ctx context.Context, req UpdateEventRequest) error
	UpdateEventHeader(ctx context.Context, req UpdateEventHeaderRequest) error
	UpdateEventPrices(ctx context.Context, req UpdateEventPricesRequest) error
	GetEvent(ctx context.Context, eventID int64) (EventResponse, error)
	GetManyEvent(ctx context.Context) (GetManyEventResponse, error)
}

type eventUseCase struct {
	logger                 *logrus.Logger
	timeout                time.Duration
	baseURL                string
	inventoryTopic         string
	eventRepository        EventRepository
	categoryRepository     category.CategoryRepository
	ticketRepository       ticket.TicketRepository
	specialPriceRepository token.SpecialPriceRepository
	membershipRepository   organization.MembershipRepository
	geocodeRepository      location.GeocodeRepository
	publisher              pubsub.Publisher
	cloudTask              gctasks.Client
}

type EventUseCaseProperty struct {
	Logger                 *logrus.Logger
	Timeout                time.Duration
	BaseURL                string
	InventoryTopic         string
	EventRepository        EventRepository
	CategoryRepository     category.CategoryRepository
	TicketRepository       ticket.TicketRepository
	SpecialPriceRepository token.SpecialPriceRepository
	MembershipRepository   organization.MembershipRepository
	GeocodeRepository      location.GeocodeRepository
	Publisher              pubsub.Publisher
	CloudTask              gctasks.Client
}

func NewEventUseCase(props EventUseCaseProperty) EventUseCase {
	return &eventUseCase{
		logger:                 props.Logger,
		timeout:                props.Timeout,
		baseURL:                props.BaseURL,
		inventoryTopic:         props.InventoryTopic,
		eventRepository:        props.EventRepository,
		categoryRepository:     props.CategoryRepository,
		ticketRepository:       props.TicketRepository,
		specialPriceRepository: props.SpecialPriceRepository,
		membershipRepository:   props.MembershipRepository,
		geocodeRepository:      props.GeocodeRepository,
		publisher:              props.Publisher,
		cloudTask:              props.CloudTask,
	}
}

// checkOwnership verifies the acting admin belongs to the event's
// organization. Shared by both use cases in this package.
func checkOwnership(ctx context.Context, membership organization.MembershipRepository, organizationID int64, tx *sql.Tx) error {
	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return err
	}

	ok, err := membership.IsMember(ctx, organizationID, acc.ID, tx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(http.StatusForbidden, status.FORBIDDEN, "the account does not belong to the event's organization")
	}

	return nil
}

func validateCategoryWindow(tc category.TicketCategory, eventEnd time.Time) error {
	if !tc.Inception.Before(tc.Expiration) {
		return errors.New(http.StatusBadRequest, status.BAD_REQUEST, fmt.Sprintf("category '%s' inception must be before its expiration", tc.Name))
	}
	if tc.Expiration.After(eventEnd) {
		return errors.New(http.StatusBadRequest, status.BAD_REQUEST, fmt.Sprintf("category '%s' expiration must not be after the end of the event", tc.Name))
	}

	return nil
}

// distributeSeats carves the event's seat count into the requested
// categories. Any remainder, positive or negative, lands on the
// category with the latest expiration; exact ties go to the smallest
// category id so the outcome is deterministic for the same input.
func (u *eventUseCase) distributeSeats(ctx context.Context, e Event, requests []TicketCategoryRequest, loc *time.Location, tx *sql.Tx) ([]category.TicketCategory, error) {
	for _, rc := range requests {
		chargedPrice := money.EvaluatePrice(rc.PriceCents, e.VAT, e.VATIncluded, e.FreeOfCharge)
		tc := rc.ToEntity(e.ID, loc, chargedPrice)

		if err := validateCategoryWindow(tc, e.EndsAt); err != nil {
			return nil, err
		}

		id, err := u.categoryRepository.Save(ctx, tc, tx)
		if err != nil {
			return nil, err
		}

		if tc.AccessRestricted {
			if err := u.specialPriceRepository.BulkInsert(ctx, token.GenerateBatch(id, chargedPrice, tc.MaxTickets), tx); err != nil {
				return nil, err
			}
		}
	}

	categories, err := u.categoryRepository.FindActiveByEventID(ctx, e.ID, tx)
	if err != nil {
		return nil, err
	}

	allocated := 0
	for _, tc := range categories {
		allocated += tc.MaxTickets
	}

	remainder := e.AvailableSeats - allocated
	if remainder == 0 {
		return categories, nil
	}

	last := 0
	for i := 1; i < len(categories); i++ {
		if categories[i].Expiration.After(categories[last].Expiration) {
			last = i
		}
	}

	adjusted := categories[last].MaxTickets + remainder
	if adjusted < 0 {
		return nil, errors.New(http.StatusBadRequest, status.BAD_REQUEST, fmt.Sprintf("cannot allocate %d seats across the requested categories, only %d are available", allocated, e.AvailableSeats))
	}

	if err := u.categoryRepository.UpdateSeatsAvailability(ctx, categories[last].ID, adjusted, tx); err != nil {
		return nil, err
	}
	categories[last].MaxTickets = adjusted

	return categories, nil
}

// createAllTickets materializes the FREE ticket pool of every active
// category in one batch per category.
func (u *eventUseCase) createAllTickets(ctx context.Context, e Event, categories []category.TicketCategory, now time.Time, tx *sql.Tx) error {
	for _, tc := range categories {
		batch := ticket.GenerateBatch(e.ID, tc.ID, tc.MaxTickets, now, e.RegularPriceCents, tc.PriceCents)
		if err := u.ticketRepository.BulkInsert(ctx, batch, tx); err != nil {
			return err
		}
	}

	return nil
}

// fixOutOfRangeCategories clamps every category whose expiration falls
// after the event's new end. A category whose inception would no
// longer precede its expiration blocks the whole schedule change; the
// admin has to fix that category first.
func (u *eventUseCase) fixOutOfRangeCategories(ctx context.Context, e Event, newEnd time.Time, tx *sql.Tx) ([]category.TicketCategory, error) {
	categories, err := u.categoryRepository.FindActiveByEventID(ctx, e.ID, tx)
	if err != nil {
		return nil, err
	}

	clamped := make([]category.TicketCategory, 0)
	for _, tc := range categories {
		if !tc.Expiration.After(newEnd) {
			continue
		}

		if !tc.Inception.Before(newEnd) {
			return nil, errors.New(http.StatusBadRequest, status.BAD_REQUEST, fmt.Sprintf("cannot fix dates for category '%s' (id: %d), try updating that category first", tc.Name, tc.ID))
		}

		if err := u.categoryRepository.FixDates(ctx, tc.ID, tc.Inception, newEnd, tx); err != nil {
			return nil, err
		}

		tc.Expiration = newEnd
		clamped = append(clamped, tc)
	}

	return clamped, nil
}

func publishInventoryChange(ctx context.Context, publisher pubsub.Publisher, topic, action string, eventID, categoryID int64) {
	if publisher == nil {
		return
	}

	buff, _ := json.Marshal(InventoryMessage{
		Action:     action,
		EventID:    eventID,
		CategoryID: categoryID,
	})
	publisher.Publish(ctx, topic, strconv.FormatInt(eventID, 10), nil, buff)
}

// scheduleExpirationSweeps defers one task per restricted category,
// firing at its expiration, to cancel access tokens left waiting.
func scheduleExpirationSweeps(cloudTask gctasks.Client, baseURL string, eventID int64, categories []category.TicketCategory) {
	if cloudTask == nil {
		return
	}

	for _, tc := range categories {
		if !tc.AccessRestricted {
			continue
		}

		buff, _ := json.Marshal(CategoryExpireMessage{
			EventID:    eventID,
			CategoryID: tc.ID,
		})
		cloudTask.DeferCreateTaskInTime("category-expire", gctasks.Request{
			URL:    fmt.Sprintf("%s/alfio/v1/adminapp/categories/on-expire", baseURL),
			Method: cloudtaskspb.HttpMethod_POST,
			Body:   buff,
		}, tc.Expiration)
	}
}

// CreateEvent implements EventUseCase.
func (u *eventUseCase) CreateEvent(ctx context.Context, req CreateEventRequest) (CreateEventResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	geo, err := u.geocodeRepository.Resolve(ctx, req.Location)
	if err != nil {
		return CreateEventResponse{}, err
	}

	loc, err := time.LoadLocation(geo.TimeZone)
	if err != nil {
		return CreateEventResponse{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, fmt.Sprintf("unknown time zone '%s' for location '%s'", geo.TimeZone, req.Location))
	}

	now := time.Now()
	e := req.ToEntity(geo, loc, now)

	tx, err := u.eventRepository.BeginTx(ctx)
	if err != nil {
		return CreateEventResponse{}, err
	}

	if err := checkOwnership(ctx, u.membershipRepository, e.OrganizationID, tx); err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return CreateEventResponse{}, err
	}

	id, err := u.eventRepository.Save(ctx, e, tx)
	if err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return CreateEventResponse{}, err
	}
	e.ID = id

	categories, err := u.distributeSeats(ctx, e, req.TicketCategories, loc, tx)
	if err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return CreateEventResponse{}, err
	}

	if err := u.createAllTickets(ctx, e, categories, now, tx); err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return CreateEventResponse{}, err
	}

	if err := u.eventRepository.CommitTx(ctx, tx); err != nil {
		return CreateEventResponse{}, err
	}

	publishInventoryChange(ctx, u.publisher, u.inventoryTopic, ActionEventCreated, e.ID, 0)
	scheduleExpirationSweeps(u.cloudTask, u.baseURL, e.ID, categories)

	withStats := make([]category.TicketCategoryWithStatistics, len(categories))
	for i, tc := range categories {
		withStats[i] = category.TicketCategoryWithStatistics{
			TicketCategory: tc,
			Statistics:     ticket.Statistics{NotSoldTickets: tc.MaxTickets},
		}
	}

	resp := CreateEventResponse{}
	resp.PopulateFromEntity(e, withStats)

	return resp, nil
}

// UpdateEvent implements EventUseCase. A full update rebuilds the seat
// distribution from scratch and is only allowed while nothing has been
// sold; the whole existing ticket pool is retired first.
func (u *eventUseCase) UpdateEvent(ctx context.Context, req UpdateEventRequest) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	tx, err := u.eventRepository.BeginTx(ctx)
	if err != nil {
		return err
	}

	original, err := u.eventRepository.FindByID(ctx, req.EventID, tx)
	if err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return err
	}

	if err := checkOwnership(ctx, u.membershipRepository, original.OrganizationID, tx); err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return err
	}

	categories, err := u.categoryRepository.FindActiveByEventID(ctx, original.ID, tx)
	if err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return err
	}

	existingTickets := 0
	soldTickets := 0
	for _, tc := range categories {
		sold, err := u.ticketRepository.CountSold(ctx, original.ID, tc.ID, tx)
		if err != nil {
			u.eventRepository.Rollback(ctx, tx)
			return err
		}
		soldTickets += sold
		existingTickets += tc.MaxTickets
	}

	if soldTickets > 0 {
		u.eventRepository.Rollback(ctx, tx)
		return errors.New(http.StatusUnprocessableEntity, status.UNPROCESSABLE_ENTITY, "cannot update the event, some tickets have been already reserved or confirmed")
	}

	invalidated, err := u.ticketRepository.InvalidateAllByEventID(ctx, original.ID, tx)
	if err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return err
	}
	if invalidated != int64(existingTickets) {
		u.eventRepository.Rollback(ctx, tx)
		return errors.New(http.StatusUnprocessableEntity, status.UNPROCESSABLE_ENTITY, "cannot update the event, some tickets have been already reserved or confirmed")
	}

	allCategories, err := u.categoryRepository.FindAllByEventID(ctx, original.ID, tx)
	if err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return err
	}
	for _, tc := range allCategories {
		if err := u.categoryRepository.Deactivate(ctx, tc.ID, tx); err != nil {
			u.eventRepository.Rollback(ctx, tx)
			return err
		}
	}

	geo, err := u.geocodeRepository.Resolve(ctx, req.Location)
	if err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return err
	}

	loc, err := time.LoadLocation(geo.TimeZone)
	if err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return errors.New(http.StatusBadRequest, status.BAD_REQUEST, fmt.Sprintf("unknown time zone '%s' for location '%s'", geo.TimeZone, req.Location))
	}

	now := time.Now()
	updated := req.ToEntity(geo, loc, now)
	updated.ID = original.ID
	updated.PrivateKey = original.PrivateKey
	updated.CreatedAt = original.CreatedAt

	if err := u.eventRepository.Update(ctx, updated, tx); err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return err
	}

	newCategories, err := u.distributeSeats(ctx, updated, req.TicketCategories, loc, tx)
	if err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return err
	}

	if err := u.createAllTickets(ctx, updated, newCategories, now, tx); err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return err
	}

	if err := u.eventRepository.CommitTx(ctx, tx); err != nil {
		return err
	}

	publishInventoryChange(ctx, u.publisher, u.inventoryTopic, ActionEventUpdated, updated.ID, 0)
	scheduleExpirationSweeps(u.cloudTask, u.baseURL, updated.ID, newCategories)

	return nil
}

// UpdateEventHeader implements EventUseCase. Shrinking the schedule
// clamps out-of-range categories to the new end.
func (u *eventUseCase) UpdateEventHeader(ctx context.Context, req UpdateEventHeaderRequest) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	tx, err := u.eventRepository.BeginTx(ctx)
	if err != nil {
		return err
	}

	original, err := u.eventRepository.FindByID(ctx, req.EventID, tx)
	if err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return err
	}

	if err := checkOwnership(ctx, u.membershipRepository, original.OrganizationID, tx); err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return err
	}

	geo, err := u.geocodeRepository.Resolve(ctx, req.Location)
	if err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return err
	}

	loc, err := time.LoadLocation(geo.TimeZone)
	if err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return errors.New(http.StatusBadRequest, status.BAD_REQUEST, fmt.Sprintf("unknown time zone '%s' for location '%s'", geo.TimeZone, req.Location))
	}

	begin, _ := time.ParseInLocation(time.DateTime, req.Begin, loc)
	end, _ := time.ParseInLocation(time.DateTime, req.End, loc)

	updated := original
	updated.ShortName = req.ShortName
	updated.Description = req.Description
	updated.WebsiteURL = req.WebsiteURL
	updated.TermsURL = req.TermsURL
	updated.ImageURL = req.ImageURL
	updated.Location = req.Location
	updated.Latitude = geo.Latitude
	updated.Longitude = geo.Longitude
	updated.BeginsAt = begin
	updated.EndsAt = end
	updated.TimeZone = geo.TimeZone
	updated.UpdatedAt = time.Now()

	if err := u.eventRepository.UpdateHeader(ctx, updated, tx); err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return err
	}

	var clamped []category.TicketCategory
	if !original.BeginsAt.Equal(begin) || !original.EndsAt.Equal(end) {
		clamped, err = u.fixOutOfRangeCategories(ctx, updated, end, tx)
		if err != nil {
			u.eventRepository.Rollback(ctx, tx)
			return err
		}
	}

	if err := u.eventRepository.CommitTx(ctx, tx); err != nil {
		return err
	}

	publishInventoryChange(ctx, u.publisher, u.inventoryTopic, ActionEventUpdated, updated.ID, 0)
	scheduleExpirationSweeps(u.cloudTask, u.baseURL, updated.ID, clamped)

	return nil
}

// UpdateEventPrices implements EventUseCase. The available seat count
// can never drop below what categories have already allocated.
func (u *eventUseCase) UpdateEventPrices(ctx context.Context, req UpdateEventPricesRequest) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	tx, err := u.eventRepository.BeginTx(ctx)
	if err != nil {
		return err
	}

	original, err := u.eventRepository.FindByID(ctx, req.EventID, tx)
	if err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return err
	}

	if err := checkOwnership(ctx, u.membershipRepository, original.OrganizationID, tx); err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return err
	}

	if req.AvailableSeats < original.AvailableSeats {
		categories, err := u.categoryRepository.FindActiveByEventID(ctx, original.ID, tx)
		if err != nil {
			u.eventRepository.Rollback(ctx, tx)
			return err
		}

		allocated := 0
		for _, tc := range categories {
			allocated += tc.MaxTickets
		}

		if req.AvailableSeats < allocated {
			u.eventRepository.Rollback(ctx, tx)
			return errors.New(http.StatusBadRequest, status.BAD_REQUEST, fmt.Sprintf("cannot reduce available seats to %d, there are already %d seats allocated, try updating categories first", req.AvailableSeats, allocated))
		}
	}

	actualPrice := money.EvaluatePrice(req.PriceCents, req.VAT, req.VATIncluded, req.FreeOfCharge)
	vat := req.VAT
	if req.FreeOfCharge {
		vat = 0
	}

	if err := u.eventRepository.UpdatePrices(ctx, original.ID, actualPrice, req.Currency, req.AvailableSeats, req.VATIncluded, vat, tx); err != nil {
		u.eventRepository.Rollback(ctx, tx)
		return err
	}

	if err := u.eventRepository.CommitTx(ctx, tx); err != nil {
		return err
	}

	return nil
}

func (u *eventUseCase) loadCategoriesWithStatistics(ctx context.Context, eventID int64, tx *sql.Tx) ([]category.TicketCategoryWithStatistics, error) {
	categories, err := u.categoryRepository.FindActiveByEventID(ctx, eventID, tx)
	if err != nil {
		return nil, err
	}

	withStats := make([]category.TicketCategoryWithStatistics, len(categories))
	for i, tc := range categories {
		sold, err := u.ticketRepository.CountSold(ctx, eventID, tc.ID, tx)
		if err != nil {
			return nil, err
		}

		checkedIn, err := u.ticketRepository.CountCheckedIn(ctx, eventID, tc.ID, tx)
		if err != nil {
			return nil, err
		}

		withStats[i] = category.TicketCategoryWithStatistics{
			TicketCategory: tc,
			Statistics: ticket.Statistics{
				SoldTickets:      sold,
				CheckedInTickets: checkedIn,
				NotSoldTickets:   tc.MaxTickets - sold,
			},
		}
	}

	return withStats, nil
}

// GetEvent implements EventUseCase.
func (u *eventUseCase) GetEvent(ctx context.Context, eventID int64) (EventResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	e, err := u.eventRepository.FindByID(ctx, eventID, nil)
	if err != nil {
		return EventResponse{}, err
	}

	if err := checkOwnership(ctx, u.membershipRepository, e.OrganizationID, nil); err != nil {
		return EventResponse{}, err
	}

	withStats, err := u.loadCategoriesWithStatistics(ctx, e.ID, nil)
	if err != nil {
		return EventResponse{}, err
	}

	resp := EventResponse{}
	resp.PopulateFromEntity(e, withStats)

	return resp, nil
}

// GetManyEvent implements EventUseCase.
func (u *eventUseCase) GetManyEvent(ctx context.Context) (GetManyEventResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return GetManyEventResponse{}, err
	}

	organizationIDs, err := u.membershipRepository.FindOrganizationIDs(ctx, acc.ID, nil)
	if err != nil {
		return GetManyEventResponse{}, err
	}

	events, err := u.eventRepository.FindManyByOrganizationIDs(ctx, organizationIDs, nil)
	if err != nil {
		return GetManyEventResponse{}, err
	}

	resp := GetManyEventResponse{Events: make([]EventResponse, len(events))}
	for i, e := range events {
		resp.Events[i].PopulateFromEntity(e, nil)
	}

	return resp, nil
}
