package event

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/Praitheesh/alf.io/internal/pkg/middleware"
	"github.com/Praitheesh/alf.io/pkg/errors"
	publicMiddleware "github.com/Praitheesh/alf.io/pkg/middleware"
	"github.com/Praitheesh/alf.io/pkg/response"
	"github.com/Praitheesh/alf.io/pkg/status"
)

type HTTPHandler struct {
	SessionMiddleware *middleware.AdminSession
	Validate          *validator.Validate
	EventUseCase      EventUseCase
}

func InitHTTPHandler(router *mux.Router, adminSession *middleware.AdminSession, validate *validator.Validate, eventUsecase EventUseCase) {
	handler := &HTTPHandler{
		Validate:     validate,
		EventUseCase: eventUsecase,
	}

	router.HandleFunc("/alfio/v1/adminapp/events", publicMiddleware.SetRouteChain(handler.CreateEvent, adminSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/alfio/v1/adminapp/events", publicMiddleware.SetRouteChain(handler.GetManyEvent, adminSession.Verify)).Methods(http.MethodGet)
	router.HandleFunc("/alfio/v1/adminapp/events/{eventID}", publicMiddleware.SetRouteChain(handler.GetEvent, adminSession.Verify)).Methods(http.MethodGet)
	router.HandleFunc("/alfio/v1/adminapp/events/{eventID}", publicMiddleware.SetRouteChain(handler.UpdateEvent, adminSession.Verify)).Methods(http.MethodPut)
	router.HandleFunc("/alfio/v1/adminapp/events/{eventID}/header", publicMiddleware.SetRouteChain(handler.UpdateEventHeader, adminSession.Verify)).Methods(http.MethodPut)
	router.HandleFunc("/alfio/v1/adminapp/events/{eventID}/prices", publicMiddleware.SetRouteChain(handler.UpdateEventPrices, adminSession.Verify)).Methods(http.MethodPut)
}

func (handler HTTPHandler) validate(ctx context.Context, payload interface{}) error {
	err := handler.Validate.StructCtx(ctx, payload)
	if err == nil {
		return nil
	}

	errorFields := err.(validator.ValidationErrors)

	errMessages := make([]string, len(errorFields))

	for k, errorField := range errorFields {
		errMessages[k] = fmt.Sprintf("invalid '%s' with value '%v'", errorField.Field(), errorField.Value())
	}

	errorMessage := strings.Join(errMessages, ", ")

	return fmt.Errorf(errorMessage)

}

func (handler HTTPHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := CreateEventRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.EventUseCase.CreateEvent(ctx, req)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}
	response.JSON(w, http.StatusCreated, response.RESTEnvelope{
		Status:  status.CREATED,
		Message: "event has been successfully created",
		Data:    resp,
		Meta:    nil,
	})

}

func (handler HTTPHandler) GetManyEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := handler.EventUseCase.GetManyEvent(ctx)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "list of events",
		Data:    resp,
		Meta:    nil,
	})
}

func (handler HTTPHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := strconv.ParseInt(mux.Vars(r)["eventID"], 10, 64)
	if err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: "invalid event id",
		})

		return
	}

	resp, err := handler.EventUseCase.GetEvent(ctx, eventID)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "event's detail",
		Data:    resp,
		Meta:    nil,
	})
}

func (handler HTTPHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := strconv.ParseInt(mux.Vars(r)["eventID"], 10, 64)
	if err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: "invalid event id",
		})

		return
	}

	req := UpdateEventRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}
	req.EventID = eventID

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	if err := handler.EventUseCase.UpdateEvent(ctx, req); err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "event has been successfully updated",
		Meta:    nil,
	})
}

func (handler HTTPHandler) UpdateEventHeader(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := strconv.ParseInt(mux.Vars(r)["eventID"], 10, 64)
	if err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: "invalid event id",
		})

		return
	}

	req := UpdateEventHeaderRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}
	req.EventID = eventID

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	if err := handler.EventUseCase.UpdateEventHeader(ctx, req); err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "event's header has been successfully updated",
		Meta:    nil,
	})
}

func (handler HTTPHandler) UpdateEventPrices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := strconv.ParseInt(mux.Vars(r)["eventID"], 10, 64)
	if err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: "invalid event id",
		})

		return
	}

	req := UpdateEventPricesRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}
	req.EventID = eventID

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	if err := handler.EventUseCase.UpdateEventPrices(ctx, req); err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "event's prices have been successfully updated",
		Meta:    nil,
	})
}
