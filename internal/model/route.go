package model

// TravelMode is a supported routing travel mode.
type TravelMode string

const (
	TravelModeWalking TravelMode = "walking"
	TravelModeTransit TravelMode = "transit"
	TravelModeDriving TravelMode = "driving"
)

// OptimizationMethod tags how a route's stop order was produced.
type OptimizationMethod string

const (
	// MethodSingleDestination is a direct origin-to-destination route.
	MethodSingleDestination OptimizationMethod = "single-destination"
	// MethodBasicFallback keeps the original stop order.
	MethodBasicFallback OptimizationMethod = "basic-fallback"
	// MethodExternalOptimized adopted a permutation from the optimization provider.
	MethodExternalOptimized OptimizationMethod = "external-optimized"
)

// RouteStop is one stop on a multi-stop route.
type RouteStop struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Route is a constructed multi-stop route with a shareable map URL.
type Route struct {
	Origin     string             `json:"origin"`
	OriginName string             `json:"origin_name,omitempty"`
	Stops      []RouteStop        `json:"stops"`
	Mode       TravelMode         `json:"mode"`
	URL        string             `json:"url"`
	Method     OptimizationMethod `json:"optimization_method"`

	// Optional metrics from the optimization provider.
	DistanceMeters  int `json:"distance_meters,omitempty"`
	DurationSeconds int `json:"duration_seconds,omitempty"`

	MatchedStops   int  `json:"matched_stops"`
	RequestedStops int  `json:"requested_stops"`
	Truncated      bool `json:"truncated,omitempty"`
}
