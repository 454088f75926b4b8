package event

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Praitheesh/alf.io/internal/module/adminapp/category"
	"github.com/Praitheesh/alf.io/internal/module/adminapp/organization"
	"github.com/Praitheesh/alf.io/internal/module/adminapp/ticket"
	"github.com/Praitheesh/alf.io/internal/module/adminapp/token"
	"github.com/Praitheesh/alf.io/internal/pkg/money"
	"github.com/Praitheesh/alf.io/pkg/errors"
	"github.com/Praitheesh/alf.io/pkg/gctasks"
	"github.com/Praitheesh/alf.io/pkg/pubsub"
	"github.com/Praitheesh/alf.io/pkg/status"
)

type CategoryUseCase interface {
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (CreateCategoryResponse, error)
	UpdateCategory(ctx context.Context, req UpdateCategoryRequest) error
	Reallocate(ctx context.Context, req ReallocateCategoryRequest) error
	OnCategoryExpire(ctx context.Context, msg CategoryExpireMessage) error
}

type categoryUseCase struct {
	logger                 *logrus.Logger
	timeout                time.Duration
	baseURL                string
	inventoryTopic         string
	eventRepository        EventRepository
	categoryRepository     category.CategoryRepository
	ticketRepository       ticket.TicketRepository
	specialPriceRepository token.SpecialPriceRepository
	membershipRepository   organization.MembershipRepository
	publisher              pubsub.Publisher
	cloudTask              gctasks.Client
}

type CategoryUseCaseProperty struct {
	Logger                 *logrus.Logger
	Timeout                time.Duration
	BaseURL                string
	InventoryTopic         string
	EventRepository        EventRepository
	CategoryRepository     category.CategoryRepository
	TicketRepository       ticket.TicketRepository
	SpecialPriceRepository token.SpecialPriceRepository
	MembershipRepository   organization.MembershipRepository
	Publisher              pubsub.Publisher
	CloudTask              gctasks.Client
}

func NewCategoryUseCase(props CategoryUseCaseProperty) CategoryUseCase {
	return &categoryUseCase{
		logger:                 props.Logger,
		timeout:                props.Timeout,
		baseURL:                props.BaseURL,
		inventoryTopic:         props.InventoryTopic,
		eventRepository:        props.EventRepository,
		categoryRepository:     props.CategoryRepository,
		ticketRepository:       props.TicketRepository,
		specialPriceRepository: props.SpecialPriceRepository,
		membershipRepository:   props.MembershipRepository,
		publisher:              props.Publisher,
		cloudTask:              props.CloudTask,
	}
}

// CreateCategory implements CategoryUseCase. The new category must fit
// inside the seats the event still has unallocated; its ticket pool is
// materialized right away.
func (u *categoryUseCase) CreateCategory(ctx context.Context, req CreateCategoryRequest) (CreateCategoryResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	tx, err := u.categoryRepository.BeginTx(ctx)
	if err != nil {
		return CreateCategoryResponse{}, err
	}

	e, err := u.eventRepository.FindByID(ctx, req.EventID, tx)
	if err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return CreateCategoryResponse{}, err
	}

	if err := checkOwnership(ctx, u.membershipRepository, e.OrganizationID, tx); err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return CreateCategoryResponse{}, err
	}

	categories, err := u.categoryRepository.FindActiveByEventID(ctx, e.ID, tx)
	if err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return CreateCategoryResponse{}, err
	}

	allocated := 0
	for _, tc := range categories {
		allocated += tc.MaxTickets
	}
	if allocated+req.MaxTickets > e.AvailableSeats {
		u.categoryRepository.Rollback(ctx, tx)
		return CreateCategoryResponse{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, "not enough seats left to create the category")
	}

	loc, err := time.LoadLocation(e.TimeZone)
	if err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return CreateCategoryResponse{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while loading the event's time zone")
	}

	chargedPrice := money.EvaluatePrice(req.PriceCents, e.VAT, e.VATIncluded, e.FreeOfCharge)
	tc := req.ToEntity(e.ID, loc, chargedPrice)

	if err := validateCategoryWindow(tc, e.EndsAt); err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return CreateCategoryResponse{}, err
	}

	id, err := u.categoryRepository.Save(ctx, tc, tx)
	if err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return CreateCategoryResponse{}, err
	}
	tc.ID = id

	if tc.AccessRestricted {
		if err := u.specialPriceRepository.BulkInsert(ctx, token.GenerateBatch(id, chargedPrice, tc.MaxTickets), tx); err != nil {
			u.categoryRepository.Rollback(ctx, tx)
			return CreateCategoryResponse{}, err
		}
	}

	batch := ticket.GenerateBatch(e.ID, tc.ID, tc.MaxTickets, time.Now(), e.RegularPriceCents, tc.PriceCents)
	if err := u.ticketRepository.BulkInsert(ctx, batch, tx); err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return CreateCategoryResponse{}, err
	}

	if err := u.categoryRepository.CommitTx(ctx, tx); err != nil {
		return CreateCategoryResponse{}, err
	}

	publishInventoryChange(ctx, u.publisher, u.inventoryTopic, ActionCategoryCreated, e.ID, tc.ID)
	scheduleExpirationSweeps(u.cloudTask, u.baseURL, e.ID, []category.TicketCategory{tc})

	resp := CreateCategoryResponse{}
	resp.PopulateFromEntity(category.TicketCategoryWithStatistics{
		TicketCategory: tc,
		Statistics:     ticket.Statistics{NotSoldTickets: tc.MaxTickets},
	})

	return resp, nil
}

// handleTicketNumberModification grows or shrinks the category's FREE
// ticket pool to match the new capacity. Shrinking only retires FREE
// tickets; a shortfall means concurrent sales won the race.
func (u *categoryUseCase) handleTicketNumberModification(ctx context.Context, e Event, updated category.TicketCategory, capacityDelta int, tx *sql.Tx) error {
	if capacityDelta == 0 {
		return nil
	}

	if capacityDelta > 0 {
		batch := ticket.GenerateBatch(e.ID, updated.ID, capacityDelta, time.Now(), e.RegularPriceCents, updated.PriceCents)
		return u.ticketRepository.BulkInsert(ctx, batch, tx)
	}

	ids, err := u.ticketRepository.SelectFreeForUpdate(ctx, e.ID, updated.ID, -capacityDelta, tx)
	if err != nil {
		return err
	}
	if len(ids) != -capacityDelta {
		return errors.New(http.StatusConflict, status.CONFLICT, "cannot update the category, there are tickets already sold")
	}

	return u.ticketRepository.InvalidateByIDs(ctx, ids, tx)
}

// handlePriceChange reprices the whole FREE pool at the new charged
// price. Tickets already sold keep the price they were sold at.
func (u *categoryUseCase) handlePriceChange(ctx context.Context, e Event, existing, updated category.TicketCategory, tx *sql.Tx) error {
	if updated.PriceCents == existing.PriceCents {
		return nil
	}

	ids, err := u.ticketRepository.SelectFreeForUpdate(ctx, e.ID, updated.ID, updated.MaxTickets, tx)
	if err != nil {
		return err
	}
	if len(ids) < updated.MaxTickets {
		return errors.New(http.StatusConflict, status.CONFLICT, "not enough tickets")
	}

	return u.ticketRepository.UpdatePriceByIDs(ctx, ids, updated.PriceCents, tx)
}

// handleTokenModification reconciles the access token pool with the
// category's restriction flag and capacity. Turning restriction off
// must cancel exactly the original capacity or the pool was already
// inconsistent.
func (u *categoryUseCase) handleTokenModification(ctx context.Context, existing, updated category.TicketCategory, capacityDelta int, tx *sql.Tx) error {
	switch {
	case updated.AccessRestricted && !existing.AccessRestricted:
		return u.specialPriceRepository.BulkInsert(ctx, token.GenerateBatch(updated.ID, updated.PriceCents, updated.MaxTickets), tx)

	case !updated.AccessRestricted && existing.AccessRestricted:
		cancelled, err := u.specialPriceRepository.CancelAll(ctx, updated.ID, tx)
		if err != nil {
			return err
		}
		if cancelled != int64(existing.MaxTickets) {
			return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "the access token pool of the category is inconsistent with its capacity")
		}
		return nil

	case updated.AccessRestricted && capacityDelta > 0:
		return u.specialPriceRepository.BulkInsert(ctx, token.GenerateBatch(updated.ID, updated.PriceCents, capacityDelta), tx)

	case updated.AccessRestricted && capacityDelta < 0:
		ids, err := u.specialPriceRepository.LockWaiting(ctx, updated.ID, -capacityDelta, tx)
		if err != nil {
			return err
		}
		if len(ids) != -capacityDelta {
			return errors.New(http.StatusConflict, status.CONFLICT, "not enough waiting access tokens to remove")
		}
		return u.specialPriceRepository.CancelByIDs(ctx, ids, tx)
	}

	return nil
}

// UpdateCategory implements CategoryUseCase. Persisting first keeps
// the row current; the ticket and token pools are then reconciled in a
// fixed order inside the same transaction.
func (u *categoryUseCase) UpdateCategory(ctx context.Context, req UpdateCategoryRequest) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	tx, err := u.categoryRepository.BeginTx(ctx)
	if err != nil {
		return err
	}

	e, err := u.eventRepository.FindByID(ctx, req.EventID, tx)
	if err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return err
	}

	if err := checkOwnership(ctx, u.membershipRepository, e.OrganizationID, tx); err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return err
	}

	existing, err := u.categoryRepository.FindByID(ctx, req.CategoryID, req.EventID, tx)
	if err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return err
	}

	sold, err := u.ticketRepository.CountSold(ctx, e.ID, existing.ID, tx)
	if err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return err
	}

	if req.MaxTickets < sold {
		u.categoryRepository.Rollback(ctx, tx)
		return errors.New(http.StatusBadRequest, status.BAD_REQUEST, "cannot shrink the category below the number of tickets already sold")
	}

	if req.TokenGenerationRequested != existing.AccessRestricted && sold > 0 {
		u.categoryRepository.Rollback(ctx, tx)
		return errors.New(http.StatusUnprocessableEntity, status.UNPROCESSABLE_ENTITY, "cannot change the access restriction of a category with sold tickets")
	}

	categories, err := u.categoryRepository.FindActiveByEventID(ctx, e.ID, tx)
	if err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return err
	}

	allocated := 0
	for _, tc := range categories {
		if tc.ID == existing.ID {
			continue
		}
		allocated += tc.MaxTickets
	}
	if allocated+req.MaxTickets > e.AvailableSeats {
		u.categoryRepository.Rollback(ctx, tx)
		return errors.New(http.StatusBadRequest, status.BAD_REQUEST, "not enough seats left to resize the category")
	}

	loc, err := time.LoadLocation(e.TimeZone)
	if err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while loading the event's time zone")
	}

	chargedPrice := money.EvaluatePrice(req.PriceCents, e.VAT, e.VATIncluded, e.FreeOfCharge)
	updated := req.ToEntity(e.ID, loc, chargedPrice)
	updated.ID = existing.ID

	if err := validateCategoryWindow(updated, e.EndsAt); err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return err
	}

	if err := u.categoryRepository.Update(ctx, updated, tx); err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return err
	}

	capacityDelta := updated.MaxTickets - existing.MaxTickets

	if err := u.handleTicketNumberModification(ctx, e, updated, capacityDelta, tx); err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return err
	}

	if err := u.handlePriceChange(ctx, e, existing, updated, tx); err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return err
	}

	if err := u.handleTokenModification(ctx, existing, updated, capacityDelta, tx); err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return err
	}

	if err := u.categoryRepository.CommitTx(ctx, tx); err != nil {
		return err
	}

	publishInventoryChange(ctx, u.publisher, u.inventoryTopic, ActionCategoryResized, e.ID, updated.ID)
	if updated.AccessRestricted {
		scheduleExpirationSweeps(u.cloudTask, u.baseURL, e.ID, []category.TicketCategory{updated})
	}

	return nil
}

// Reallocate implements CategoryUseCase. The source keeps only its
// sold tickets; everything unsold moves to the target's capacity.
// Expired waiting tokens on the source are cancelled in the same
// transaction so they cannot be claimed afterwards.
func (u *categoryUseCase) Reallocate(ctx context.Context, req ReallocateCategoryRequest) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	tx, err := u.categoryRepository.BeginTx(ctx)
	if err != nil {
		return err
	}

	e, err := u.eventRepository.FindByID(ctx, req.EventID, tx)
	if err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return err
	}

	if err := checkOwnership(ctx, u.membershipRepository, e.OrganizationID, tx); err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return err
	}

	src, err := u.categoryRepository.FindByID(ctx, req.SourceCategoryID, req.EventID, tx)
	if err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return err
	}

	tgt, err := u.categoryRepository.FindByID(ctx, req.TargetCategoryID, req.EventID, tx)
	if err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return err
	}

	sold, err := u.ticketRepository.CountSold(ctx, e.ID, src.ID, tx)
	if err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return err
	}

	notSold := src.MaxTickets - sold
	if notSold <= 0 {
		u.categoryRepository.Rollback(ctx, tx)
		return errors.New(http.StatusUnprocessableEntity, status.UNPROCESSABLE_ENTITY, "the source category has no unsold tickets to reallocate")
	}

	if err := u.categoryRepository.UpdateSeatsAvailability(ctx, src.ID, sold, tx); err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return err
	}

	if err := u.categoryRepository.UpdateSeatsAvailability(ctx, tgt.ID, tgt.MaxTickets+notSold, tx); err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return err
	}

	if src.AccessRestricted {
		if _, err := u.specialPriceRepository.CancelExpired(ctx, src.ID, tx); err != nil {
			u.categoryRepository.Rollback(ctx, tx)
			return err
		}
	}

	if err := u.categoryRepository.CommitTx(ctx, tx); err != nil {
		return err
	}

	publishInventoryChange(ctx, u.publisher, u.inventoryTopic, ActionSeatsReallocated, e.ID, tgt.ID)

	return nil
}

// OnCategoryExpire implements CategoryUseCase. Invoked by the deferred
// task scheduled at category creation; cancels access tokens still
// waiting once the sale window has closed. Reschedules are harmless
// since an already swept category yields zero cancellations.
func (u *categoryUseCase) OnCategoryExpire(ctx context.Context, msg CategoryExpireMessage) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	tx, err := u.categoryRepository.BeginTx(ctx)
	if err != nil {
		return err
	}

	tc, err := u.categoryRepository.FindByID(ctx, msg.CategoryID, msg.EventID, tx)
	if err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return err
	}

	if !tc.AccessRestricted || tc.Expiration.After(time.Now()) {
		u.categoryRepository.Rollback(ctx, tx)
		return nil
	}

	cancelled, err := u.specialPriceRepository.CancelExpired(ctx, tc.ID, tx)
	if err != nil {
		u.categoryRepository.Rollback(ctx, tx)
		return err
	}

	if err := u.categoryRepository.CommitTx(ctx, tx); err != nil {
		return err
	}

	u.logger.WithContext(ctx).
		WithField("category_id", tc.ID).
		WithField("cancelled", cancelled).
		Info("expired access tokens swept")

	return nil
}
