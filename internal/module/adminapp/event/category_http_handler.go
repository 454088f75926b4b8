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

type CategoryHTTPHandler struct {
	SessionMiddleware *middleware.AdminSession
	Validate          *validator.Validate
	CategoryUseCase   CategoryUseCase
}

// InitCategoryHTTPHandler registers the category routes. The on-expire
// route is invoked by the task queue, not by admins, so it skips the
// session middleware.
func InitCategoryHTTPHandler(router *mux.Router, adminSession *middleware.AdminSession, validate *validator.Validate, categoryUsecase CategoryUseCase) {
	handler := &CategoryHTTPHandler{
		Validate:        validate,
		CategoryUseCase: categoryUsecase,
	}

	router.HandleFunc("/alfio/v1/adminapp/events/{eventID}/categories", publicMiddleware.SetRouteChain(handler.CreateCategory, adminSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/alfio/v1/adminapp/events/{eventID}/categories/{categoryID}", publicMiddleware.SetRouteChain(handler.UpdateCategory, adminSession.Verify)).Methods(http.MethodPut)
	router.HandleFunc("/alfio/v1/adminapp/events/{eventID}/categories/reallocate", publicMiddleware.SetRouteChain(handler.Reallocate, adminSession.Verify)).Methods(http.MethodPost)
	router.HandleFunc("/alfio/v1/adminapp/categories/on-expire", publicMiddleware.SetRouteChain(handler.OnCategoryExpire)).Methods(http.MethodPost)
}

func (handler CategoryHTTPHandler) validate(ctx context.Context, payload interface{}) error {
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

func (handler CategoryHTTPHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := strconv.ParseInt(mux.Vars(r)["eventID"], 10, 64)
	if err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: "invalid event id",
		})

		return
	}

	req := CreateCategoryRequest{}
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

	resp, err := handler.CategoryUseCase.CreateCategory(ctx, req)
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
		Message: "category has been successfully created",
		Data:    resp,
		Meta:    nil,
	})
}

func (handler CategoryHTTPHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	vars := mux.Vars(r)
	eventID, err := strconv.ParseInt(vars["eventID"], 10, 64)
	if err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: "invalid event id",
		})

		return
	}

	categoryID, err := strconv.ParseInt(vars["categoryID"], 10, 64)
	if err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: "invalid category id",
		})

		return
	}

	req := UpdateCategoryRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}
	req.EventID = eventID
	req.CategoryID = categoryID

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	if err := handler.CategoryUseCase.UpdateCategory(ctx, req); err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "category has been successfully updated",
		Meta:    nil,
	})
}

func (handler CategoryHTTPHandler) Reallocate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := strconv.ParseInt(mux.Vars(r)["eventID"], 10, 64)
	if err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: "invalid event id",
		})

		return
	}

	req := ReallocateCategoryRequest{}
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

	if err := handler.CategoryUseCase.Reallocate(ctx, req); err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "unsold seats have been successfully reallocated",
		Meta:    nil,
	})
}

func (handler CategoryHTTPHandler) OnCategoryExpire(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	msg := CategoryExpireMessage{}
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if err := handler.CategoryUseCase.OnCategoryExpire(ctx, msg); err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "category's expired access tokens have been swept",
		Meta:    nil,
	})
}
