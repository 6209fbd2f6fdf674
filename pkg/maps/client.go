// Package maps is a client for the Google Maps Directions API, used only for
// waypoint-order optimization. Itinerary links are plain URLs and never need
// an API call.
package maps

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/resilience"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api"

// Client requests optimized directions between an origin and a destination.
type Client interface {
	Directions(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error)
}

// DirectionsRequest describes one directions query.
type DirectionsRequest struct {
	Origin      string
	Destination string
	// Waypoints are the intermediate stops, in requested order.
	Waypoints []string
	// Mode is walking, transit, or driving.
	Mode string
	// Optimize asks the provider to reorder the waypoints.
	Optimize bool
}

// DirectionsResponse is the subset of the provider response the planner uses.
type DirectionsResponse struct {
	// WaypointOrder maps optimized position to requested waypoint index.
	WaypointOrder []int
	// Legs has one entry per hop, including origin to first stop and last
	// stop to destination.
	Legs []Leg
	// Status is the provider status string, "OK" on success.
	Status string
}

// Leg is one hop of the returned route.
type Leg struct {
	DistanceMeters  int
	DurationSeconds int
}

// apiResponse mirrors the provider wire format.
type apiResponse struct {
	Status string `json:"status"`
	Routes []struct {
		WaypointOrder []int `json:"waypoint_order"`
		Legs          []struct {
			Distance struct {
				Value int `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value int `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
	ErrorMessage string `json:"error_message"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetry overrides the default retry configuration.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates a directions client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Directions(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error) {
	q := url.Values{}
	q.Set("origin", req.Origin)
	q.Set("destination", req.Destination)
	q.Set("mode", req.Mode)
	q.Set("key", c.apiKey)
	if len(req.Waypoints) > 0 {
		waypoints := strings.Join(req.Waypoints, "|")
		if req.Optimize {
			waypoints = "optimize:true|" + waypoints
		}
		q.Set("waypoints", waypoints)
	}

	endpoint := c.baseURL + "/directions/json?" + q.Encode()

	body, err := resilience.Retry(ctx, c.retry, "maps.directions", func(ctx context.Context) ([]byte, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, eris.Wrap(err, "maps: create request")
		}

		resp, err := c.http.Do(httpReq)
		if err != nil {
			return nil, eris.Wrap(err, "maps: send request")
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "maps: read response")
		}

		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("maps: unexpected status %d: %s", resp.StatusCode, string(respBody))
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(err, resp.StatusCode)
			}
			return nil, err
		}
		return respBody, nil
	})
	if err != nil {
		return nil, err
	}

	var api apiResponse
	if err := json.Unmarshal(body, &api); err != nil {
		return nil, eris.Wrap(err, "maps: unmarshal response")
	}

	if api.Status != "OK" {
		return nil, eris.Errorf("maps: directions status %s: %s", api.Status, api.ErrorMessage)
	}
	if len(api.Routes) == 0 {
		return nil, eris.New("maps: no routes returned")
	}

	route := api.Routes[0]
	out := &DirectionsResponse{
		Status:        api.Status,
		WaypointOrder: route.WaypointOrder,
		Legs:          make([]Leg, 0, len(route.Legs)),
	}
	for _, leg := range route.Legs {
		out.Legs = append(out.Legs, Leg{
			DistanceMeters:  leg.Distance.Value,
			DurationSeconds: leg.Duration.Value,
		})
	}
	return out, nil
}
