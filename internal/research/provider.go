package research

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/model"
	"github.com/lambdabypi/miniquest-adventure-planner/pkg/tavily"
)

// Provider researches one venue and returns its enriched profile.
type Provider interface {
	Research(ctx context.Context, venue model.Venue, location string) (model.ResearchedVenue, error)
}

// ProviderConfig tunes the Tavily-backed provider.
type ProviderConfig struct {
	// MaxResults caps search results per query. Default: 6.
	MaxResults int
	// ExtractTop caps how many source pages get full-content extraction.
	// Default: 1.
	ExtractTop int
}

func (c ProviderConfig) withDefaults() ProviderConfig {
	if c.MaxResults <= 0 {
		c.MaxResults = 6
	}
	if c.ExtractTop <= 0 {
		c.ExtractTop = 1
	}
	return c
}

// TavilyProvider researches venues through web search plus page extraction.
type TavilyProvider struct {
	client tavily.Client
	cfg    ProviderConfig
}

// NewTavilyProvider creates a provider backed by the given search client.
func NewTavilyProvider(client tavily.Client, cfg ProviderConfig) *TavilyProvider {
	return &TavilyProvider{client: client, cfg: cfg.withDefaults()}
}

// Research runs a comprehensive search for the venue, extracts the best
// source page, and distills the findings into a profile.
func (p *TavilyProvider) Research(ctx context.Context, venue model.Venue, location string) (model.ResearchedVenue, error) {
	query := fmt.Sprintf("%q %s official hours admission information menu", venue.Name, location)

	resp, err := p.client.Search(ctx, tavily.SearchRequest{
		Query:         query,
		MaxResults:    p.cfg.MaxResults,
		IncludeAnswer: true,
	})
	if err != nil {
		return model.ResearchedVenue{}, eris.Wrap(err, "research: search")
	}
	if len(resp.Results) == 0 {
		return model.ResearchedVenue{}, eris.Errorf("research: no results for %s", venue.Name)
	}

	ranked := rankResults(resp.Results)
	extracted := p.extractTop(ctx, ranked)

	return buildProfile(venue, resp.Answer, ranked, extracted), nil
}

// rankResults orders search hits with official sites first, then by provider
// relevance score.
func rankResults(results []tavily.SearchResult) []tavily.SearchResult {
	ranked := make([]tavily.SearchResult, len(results))
	copy(ranked, results)

	official := ranked[:0:0]
	rest := ranked[:0:0]
	for _, r := range ranked {
		if isOfficialSource(r.URL, r.Title) {
			official = append(official, r)
		} else {
			rest = append(rest, r)
		}
	}
	return append(official, rest...)
}

// isOfficialSource flags URLs likely to be the venue's own site.
func isOfficialSource(rawURL, title string) bool {
	u := strings.ToLower(rawURL)
	for _, tld := range []string{".org", ".edu", ".gov", ".museum"} {
		if strings.Contains(u, tld+"/") || strings.HasSuffix(u, tld) {
			return true
		}
	}
	return strings.Contains(u, "official") || strings.Contains(strings.ToLower(title), "official")
}

// extractTop pulls full page content for the best-ranked sources. Extraction
// failures degrade to snippet-only research, never to an error.
func (p *TavilyProvider) extractTop(ctx context.Context, ranked []tavily.SearchResult) string {
	urls := make([]string, 0, p.cfg.ExtractTop)
	for _, r := range ranked {
		if len(urls) >= p.cfg.ExtractTop {
			break
		}
		urls = append(urls, r.URL)
	}
	if len(urls) == 0 {
		return ""
	}

	resp, err := p.client.Extract(ctx, tavily.ExtractRequest{URLs: urls})
	if err != nil {
		zap.L().Debug("research: extract failed, using snippets only", zap.Error(err))
		return ""
	}

	var parts []string
	for _, r := range resp.Results {
		if content := strings.TrimSpace(r.RawContent); content != "" {
			parts = append(parts, content)
		}
	}
	return strings.Join(parts, "\n\n")
}

var (
	hoursPattern = regexp.MustCompile(`(?i)(open|hours|closed|daily|[0-9]{1,2}\s*(am|pm)|[0-9]{1,2}:[0-9]{2})`)
	tipsPattern  = regexp.MustCompile(`(?i)(tip|admission|ticket|free|reservation|book (ahead|in advance)|best time)`)
)

// buildProfile distills search output into a researched venue. Confidence
// reflects source depth: full page extraction beats snippets beats nothing.
func buildProfile(venue model.Venue, answer string, ranked []tavily.SearchResult, extracted string) model.ResearchedVenue {
	snippets := make([]string, 0, len(ranked))
	for _, r := range ranked {
		if s := strings.TrimSpace(r.Content); s != "" {
			snippets = append(snippets, s)
		}
	}

	text := extracted
	if text == "" {
		text = strings.Join(snippets, "\n")
	}

	confidence := 0.5
	switch {
	case extracted != "":
		confidence = 1.0
	case len(snippets) > 0:
		confidence = 0.9
	}

	summary := strings.TrimSpace(answer)
	if summary == "" && len(snippets) > 0 {
		summary = truncate(snippets[0], 280)
	}

	hoursInfo := firstMatchingSentence(text, hoursPattern)
	tip := firstMatchingSentence(text, tipsPattern)
	var tips []string
	if tip != "" {
		tips = []string{tip}
	}

	insights := 0
	for _, present := range []bool{hoursInfo != "", tip != "", summary != "", extracted != ""} {
		if present {
			insights++
		}
	}
	if len(ranked) > 0 && isOfficialSource(ranked[0].URL, ranked[0].Title) {
		insights++
	}

	topURL := ""
	if len(ranked) > 0 {
		topURL = ranked[0].URL
	}

	return model.ResearchedVenue{
		Venue:        venue,
		Status:       statusFor(confidence),
		Researched:   confidence,
		Text:         text,
		HoursInfo:    hoursInfo,
		Summary:      summary,
		VisitorTips:  tips,
		TopSourceURL: topURL,
		InsightCount: insights,
	}
}

func statusFor(confidence float64) model.ResearchStatus {
	switch {
	case confidence > 0.85:
		return model.ResearchStatusExcellent
	case confidence > 0.6:
		return model.ResearchStatusGood
	default:
		return model.ResearchStatusPartial
	}
}

// firstMatchingSentence returns the first sentence of text matching the
// pattern, trimmed to a displayable length.
func firstMatchingSentence(text string, pattern *regexp.Regexp) string {
	for _, line := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '.' || r == '!' || r == '?'
	}) {
		line = strings.TrimSpace(line)
		if line != "" && pattern.MatchString(line) {
			return truncate(line, 200)
		}
	}
	return ""
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}
