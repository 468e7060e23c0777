package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gradient-spp/noisemap/internal/resilience"
)

// DefaultBaseURL is the 2GIS geocode endpoint.
const DefaultBaseURL = "https://catalog.api.2gis.com/3.0/items/geocode"

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 4 << 20

type dgisResponse struct {
	Meta struct {
		Code  int `json:"code"`
		Error *struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error,omitempty"`
	} `json:"meta"`
	Result *struct {
		Items []json.RawMessage `json:"items"`
		Total int               `json:"total"`
	} `json:"result"`
}

type dgisItem struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Point    *struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	} `json:"point"`
}

// Option configures the 2GIS client.
type Option func(*DGIS)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(d *DGIS) {
		if u != "" {
			d.baseURL = u
		}
	}
}

// WithHTTPClient sets the HTTP client used for every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(d *DGIS) {
		d.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(d *DGIS) {
		if timeout > 0 {
			d.httpClient.Timeout = timeout
		}
	}
}

// WithRateLimit sets the requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(d *DGIS) {
		if rps > 0 {
			d.limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
		}
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(d *DGIS) {
		d.retry = cfg
	}
}

// WithCircuitBreaker guards every request with cb.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(d *DGIS) {
		d.breaker = cb
	}
}

// DGIS is a Client backed by the 2GIS catalog API.
type DGIS struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
	breaker    *resilience.CircuitBreaker
}

var _ Client = (*DGIS)(nil)

// NewDGIS creates a 2GIS client. The HTTP session it owns is released by
// Close.
func NewDGIS(apiKey string, opts ...Option) *DGIS {
	d := &DGIS{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		limiter:    rate.NewLimiter(10, 10),
		retry:      resilience.DefaultRetryConfig(),
		breaker:    resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.retry.OnRetry = resilience.RetryLogger("2gis", "geocode")
	return d
}

// Geocode implements Client.
func (d *DGIS) Geocode(ctx context.Context, address string, opts Options) (*Result, error) {
	if strings.TrimSpace(address) == "" {
		return &Result{Matched: false}, nil
	}

	params := url.Values{
		"q":         {address},
		"fields":    {"items.point"},
		"page_size": {strconv.Itoa(max(1, opts.Limit))},
	}
	if opts.CityID != "" {
		params.Set("city_id", opts.CityID)
	}
	if opts.Near != nil {
		if opts.Radius > 0 {
			params.Set("point", lonLat(opts.Near.X(), opts.Near.Y()))
			params.Set("radius", strconv.Itoa(opts.Radius))
		} else {
			params.Set("location", lonLat(opts.Near.X(), opts.Near.Y()))
			params.Set("sort", "distance")
		}
	}
	if opts.BBox != nil && !opts.BBox.IsEmpty() {
		// 2GIS wants the north-west corner first, then the south-east one.
		params.Set("point1", lonLat(opts.BBox.Min(0), opts.BBox.Max(1)))
		params.Set("point2", lonLat(opts.BBox.Max(0), opts.BBox.Min(1)))
	}

	resp, err := d.do(ctx, params)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: lookup %q", address)
	}

	for _, raw := range resp.items() {
		var item dgisItem
		if err := json.Unmarshal(raw, &item); err != nil {
			zap.L().Debug("geocode: skipping undecodable item", zap.Error(err))
			continue
		}
		if item.Point == nil || item.Point.Lat == nil || item.Point.Lon == nil {
			continue
		}
		return &Result{
			Latitude:  *item.Point.Lat,
			Longitude: *item.Point.Lon,
			Matched:   true,
			ID:        item.ID,
			FullName:  item.FullName,
			Raw:       raw,
		}, nil
	}

	return &Result{Matched: false}, nil
}

// ResolveCityID implements Client. The city id is the part of the first
// matching administrative division id before the underscore.
func (d *DGIS) ResolveCityID(ctx context.Context, cityName string) (string, error) {
	if strings.TrimSpace(cityName) == "" {
		return "", eris.New("geocode: city name is required")
	}

	params := url.Values{
		"q":    {cityName},
		"type": {"adm_div.city"},
	}
	resp, err := d.do(ctx, params)
	if err != nil {
		return "", eris.Wrapf(err, "geocode: resolve city %q", cityName)
	}

	items := resp.items()
	if len(items) == 0 {
		return "", nil
	}
	var item dgisItem
	if err := json.Unmarshal(items[0], &item); err != nil {
		return "", eris.Wrap(err, "geocode: decode city item")
	}
	id, _, _ := strings.Cut(item.ID, "_")
	return id, nil
}

// Close implements Client.
func (d *DGIS) Close() {
	d.httpClient.CloseIdleConnections()
}

func (d *DGIS) do(ctx context.Context, params url.Values) (*dgisResponse, error) {
	params.Set("key", d.apiKey)
	reqURL := d.baseURL + "?" + params.Encode()

	return resilience.ExecuteVal(ctx, d.breaker, func(ctx context.Context) (*dgisResponse, error) {
		return resilience.DoVal(ctx, d.retry, func(ctx context.Context) (*dgisResponse, error) {
			return d.get(ctx, reqURL)
		})
	})
}

func (d *DGIS) get(ctx context.Context, reqURL string) (*dgisResponse, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := eris.Errorf("geocode: 2gis returned status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}

	var out dgisResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}

	// 2GIS reports "nothing found" as meta.code 404 inside a 200 response.
	switch code := out.Meta.Code; {
	case code == 0, code == http.StatusOK, code == http.StatusNotFound:
		return &out, nil
	default:
		msg := ""
		if out.Meta.Error != nil {
			msg = out.Meta.Error.Message
		}
		metaErr := eris.Errorf("geocode: 2gis meta code %d: %s", code, msg)
		if resilience.IsTransientHTTPStatus(code) {
			return nil, resilience.NewTransientError(metaErr, code)
		}
		return nil, metaErr
	}
}

func (r *dgisResponse) items() []json.RawMessage {
	if r == nil || r.Result == nil {
		return nil
	}
	return r.Result.Items
}

func lonLat(lon, lat float64) string {
	return strconv.FormatFloat(lon, 'f', -1, 64) + "," + strconv.FormatFloat(lat, 'f', -1, 64)
}
