// Package route turns matched venues into shareable route links with
// realistic visit times.
package route

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/match"
	"github.com/lambdabypi/miniquest-adventure-planner/internal/model"
)

const mapsDirBase = "https://www.google.com/maps/dir/?api=1"

// Config holds waypoint ceilings per travel mode and itinerary timing.
type Config struct {
	// Waypoint ceilings come from the link format, not from preference:
	// walking and transit links break past 9 intermediate stops, driving
	// past 23. The final destination never counts against the ceiling.
	WalkingMaxWaypoints int
	TransitMaxWaypoints int
	DrivingMaxWaypoints int

	// BaseHour is the itinerary start hour (24h clock). Default: 9.
	BaseHour int
	// HoursPerStop spaces the step time labels. Default: 2.
	HoursPerStop int
}

func (c Config) withDefaults() Config {
	if c.WalkingMaxWaypoints <= 0 {
		c.WalkingMaxWaypoints = 9
	}
	if c.TransitMaxWaypoints <= 0 {
		c.TransitMaxWaypoints = 9
	}
	if c.DrivingMaxWaypoints <= 0 {
		c.DrivingMaxWaypoints = 23
	}
	if c.BaseHour <= 0 {
		c.BaseHour = 9
	}
	if c.HoursPerStop <= 0 {
		c.HoursPerStop = 2
	}
	return c
}

func (c Config) maxWaypoints(mode model.TravelMode) int {
	switch mode {
	case model.TravelModeDriving:
		return c.DrivingMaxWaypoints
	case model.TravelModeTransit:
		return c.TransitMaxWaypoints
	default:
		return c.WalkingMaxWaypoints
	}
}

// Synthesizer builds routes for composed adventures. The optimizer is
// optional; without one, routes keep the composer's stop order.
type Synthesizer struct {
	matcher   *match.Matcher
	optimizer Optimizer
	cfg       Config
}

// New creates a Synthesizer. Pass a nil optimizer to disable external
// waypoint ordering.
func New(matcher *match.Matcher, optimizer Optimizer, cfg Config) *Synthesizer {
	return &Synthesizer{matcher: matcher, optimizer: optimizer, cfg: cfg.withDefaults()}
}

// Enhance fills in map links, routing metadata, step times, and the
// venues-used list for every adventure. Adventures whose steps match no
// known venue get RoutingInfo.Available=false and are otherwise untouched.
func (s *Synthesizer) Enhance(ctx context.Context, adventures []model.Adventure, locations []model.EnhancedLocation, userAddress, city string, mode model.TravelMode) []model.Adventure {
	out := make([]model.Adventure, len(adventures))
	for i, adv := range adventures {
		out[i] = s.enhanceOne(ctx, adv, locations, userAddress, city, mode)
	}
	return out
}

func (s *Synthesizer) enhanceOne(ctx context.Context, adv model.Adventure, locations []model.EnhancedLocation, userAddress, city string, mode model.TravelMode) model.Adventure {
	mentions := stepMentions(adv.Steps)
	report := s.matcher.Match(mentions, locations)

	adv.VenuesUsed = nil
	for _, loc := range report.Matched {
		adv.VenuesUsed = append(adv.VenuesUsed, loc.Name)
	}

	info := &model.RoutingInfo{
		Mode:           string(mode),
		MatchedStops:   len(report.Matched),
		RequestedStops: len(mentions),
	}
	if len(mentions) > 0 {
		info.MatchedRatio = float64(len(report.Matched)) / float64(len(mentions))
	}

	if len(report.Matched) == 0 {
		zap.L().Warn("route: no venue mentions matched, skipping map link",
			zap.String("adventure", adv.Title),
			zap.Int("mentions", len(mentions)),
		)
		adv.RoutingInfo = info
		return adv
	}

	route := s.synthesize(ctx, report.Matched, userAddress, city, mode)

	info.Available = true
	info.Method = string(route.Method)
	info.TotalStops = len(route.Stops) + 1 // origin-side stop or user origin
	adv.RoutingInfo = info
	adv.MapURL = route.URL
	adv.Steps = s.labelStepTimes(adv.Steps)
	return adv
}

// synthesize builds the route for an ordered list of matched venues.
func (s *Synthesizer) synthesize(ctx context.Context, matched []model.EnhancedLocation, userAddress, city string, mode model.TravelMode) model.Route {
	stops := make([]model.RouteStop, 0, len(matched))
	for _, loc := range matched {
		stops = append(stops, model.RouteStop{Name: loc.Name, Address: resolveAddress(loc, city)})
	}

	route := model.Route{Mode: mode}
	if ValidAddress(userAddress) {
		route.Origin = userAddress
		route.OriginName = "Your location"
	} else {
		route.Origin = stops[0].Address
		route.OriginName = stops[0].Name
		stops = stops[1:]
	}
	route.Stops = stops

	if len(stops) == 0 {
		// The only matched venue became the origin. Link straight to it
		// and let the map app supply the viewer's position, rather than
		// routing the venue to itself.
		route.Method = model.MethodSingleDestination
		route.URL = buildDestinationURL(route.Origin, mode)
		return route
	}

	destination := stops[len(stops)-1]
	waypoints := stops[:len(stops)-1]

	if limit := s.cfg.maxWaypoints(mode); len(waypoints) > limit {
		zap.L().Warn("route: waypoint ceiling exceeded, truncating",
			zap.Int("waypoints", len(waypoints)),
			zap.Int("limit", limit),
			zap.String("mode", string(mode)),
		)
		waypoints = waypoints[:limit]
		route.Truncated = true
		route.Stops = append(append([]model.RouteStop{}, waypoints...), destination)
	}

	route.Method = model.MethodBasicFallback
	if len(waypoints) == 0 {
		route.Method = model.MethodSingleDestination
	} else if s.optimizer != nil && len(waypoints) >= 2 {
		if optimized := s.tryOptimize(ctx, route.Origin, destination, waypoints, mode); optimized != nil {
			waypoints = optimized.stops
			route.Method = model.MethodExternalOptimized
			route.DistanceMeters = optimized.distanceMeters
			route.DurationSeconds = optimized.durationSeconds
			route.Stops = append(append([]model.RouteStop{}, waypoints...), destination)
		}
	}

	waypointAddrs := make([]string, 0, len(waypoints))
	for _, wp := range waypoints {
		waypointAddrs = append(waypointAddrs, wp.Address)
	}
	route.URL = buildDirectionsURL(route.Origin, destination.Address, waypointAddrs, mode)
	return route
}

type optimizedStops struct {
	stops           []model.RouteStop
	distanceMeters  int
	durationSeconds int
}

// tryOptimize asks the external optimizer for a better waypoint order. Any
// failure, including a non-bijective order, falls back to the original order.
func (s *Synthesizer) tryOptimize(ctx context.Context, origin string, destination model.RouteStop, waypoints []model.RouteStop, mode model.TravelMode) *optimizedStops {
	addrs := make([]string, 0, len(waypoints))
	for _, wp := range waypoints {
		addrs = append(addrs, wp.Address)
	}

	result, err := s.optimizer.Optimize(ctx, origin, destination.Address, addrs, mode)
	if err != nil {
		zap.L().Warn("route: optimizer failed, keeping requested order", zap.Error(err))
		return nil
	}

	reordered := make([]model.RouteStop, len(waypoints))
	for pos, idx := range result.Order {
		reordered[pos] = waypoints[idx]
	}
	return &optimizedStops{
		stops:           reordered,
		distanceMeters:  result.DistanceMeters,
		durationSeconds: result.DurationSeconds,
	}
}

// stepMentions collects the venue referenced by each step, explicit venue
// fields first, then prose extraction. Duplicates keep their first position.
func stepMentions(steps []model.Step) []string {
	seen := make(map[string]bool)
	var mentions []string
	for _, step := range steps {
		mention := strings.TrimSpace(step.Venue)
		if mention == "" {
			mention = ExtractMention(step.Activity)
		}
		if mention == "" {
			continue
		}
		key := strings.ToLower(mention)
		if !seen[key] {
			seen[key] = true
			mentions = append(mentions, mention)
		}
	}
	return mentions
}

// resolveAddress picks a routable address for a venue, falling back to
// "Name, City" when the stored address would not resolve.
func resolveAddress(loc model.EnhancedLocation, city string) string {
	if ValidAddress(loc.Address) {
		return loc.Address
	}
	if city != "" {
		return loc.Name + ", " + city
	}
	return loc.Name
}

// buildDestinationURL is a directions link with no explicit origin.
func buildDestinationURL(destination string, mode model.TravelMode) string {
	return mapsDirBase +
		"&destination=" + url.QueryEscape(destination) +
		"&travelmode=" + url.QueryEscape(string(mode))
}

func buildDirectionsURL(origin, destination string, waypoints []string, mode model.TravelMode) string {
	var b strings.Builder
	b.WriteString(mapsDirBase)
	b.WriteString("&origin=" + url.QueryEscape(origin))
	b.WriteString("&destination=" + url.QueryEscape(destination))
	if len(waypoints) > 0 {
		b.WriteString("&waypoints=" + url.QueryEscape(strings.Join(waypoints, "|")))
	}
	b.WriteString("&travelmode=" + url.QueryEscape(string(mode)))
	return b.String()
}

// labelStepTimes stamps each step with its visit time, spaced from the base
// hour by the configured stride.
func (s *Synthesizer) labelStepTimes(steps []model.Step) []model.Step {
	out := make([]model.Step, len(steps))
	for i, step := range steps {
		step.Time = timeLabel(s.cfg.BaseHour + i*s.cfg.HoursPerStop)
		out[i] = step
	}
	return out
}

func timeLabel(hour int) string {
	hour = hour % 24
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:00 %s", display, suffix)
}
