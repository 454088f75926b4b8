package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/Praitheesh/alf.io/pkg/errors"
	"github.com/Praitheesh/alf.io/pkg/status"
)

// Geolocation is what the geocoding collaborator resolves for a free
// form event address.
type Geolocation struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	TimeZone  string `json:"time_zone"`
}

type GeocodeRepository interface {
	Resolve(ctx context.Context, address string) (Geolocation, error)
}

type geocodeRepository struct {
	baseURL string
	apiKey  string
	logger  *logrus.Logger
	hc      *http.Client
}

func NewGeocodeRepository(baseURL string, apiKey string, logger *logrus.Logger, hc *http.Client) GeocodeRepository {
	return &geocodeRepository{
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  logger,
		hc:      hc,
	}
}

// Resolve implements GeocodeRepository.
func (r *geocodeRepository) Resolve(ctx context.Context, address string) (Geolocation, error) {
	endpoint := fmt.Sprintf("%s/geocode?address=%s&key=%s", r.baseURL, url.QueryEscape(address), r.apiKey)

	hr, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Geolocation{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while resolving event's location")
	}

	hr.Header.Add("Accept", "application/json")

	hresp, err := r.hc.Do(hr)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Geolocation{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while resolving event's location")
	}

	defer hresp.Body.Close()

	respBody, err := io.ReadAll(hresp.Body)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Geolocation{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while resolving event's location")
	}

	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		err := fmt.Errorf("geocoding responded with status %d: %s", hresp.StatusCode, string(respBody))
		r.logger.WithContext(ctx).WithError(err).Error()
		return Geolocation{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, fmt.Sprintf("location '%s' could not be resolved", address))
	}

	var resp Geolocation
	if err := json.Unmarshal(respBody, &resp); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error()
		return Geolocation{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while resolving event's location")
	}

	return resp, nil
}
