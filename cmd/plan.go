package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lambdabypi/miniquest-adventure-planner/internal/cache"
	"github.com/lambdabypi/miniquest-adventure-planner/internal/match"
	"github.com/lambdabypi/miniquest-adventure-planner/internal/model"
	"github.com/lambdabypi/miniquest-adventure-planner/internal/progress"
	"github.com/lambdabypi/miniquest-adventure-planner/internal/research"
	"github.com/lambdabypi/miniquest-adventure-planner/internal/route"
	"github.com/lambdabypi/miniquest-adventure-planner/internal/workflow"
	anthropicpkg "github.com/lambdabypi/miniquest-adventure-planner/pkg/anthropic"
	"github.com/lambdabypi/miniquest-adventure-planner/pkg/maps"
	"github.com/lambdabypi/miniquest-adventure-planner/pkg/tavily"
)

var (
	planAddress string
	planUserID  string
	planMode    string
	planQuiet   bool
)

var planCmd = &cobra.Command{
	Use:   "plan <query>",
	Short: "Plan adventures from a free-text request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		// Init clients
		anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
		tavilyClient := tavily.NewClient(cfg.Tavily.Key,
			tavily.WithBaseURL(cfg.Tavily.BaseURL),
			tavily.WithRateLimit(cfg.Tavily.RatePerSec, cfg.Tavily.RateBurst),
		)

		// Route optimization is optional; without a key the synthesizer
		// keeps the composer's stop order.
		var optimizer route.Optimizer
		if cfg.Maps.Key != "" {
			optimizer = route.NewMapsOptimizer(maps.NewClient(cfg.Maps.Key, maps.WithBaseURL(cfg.Maps.BaseURL)))
		} else {
			zap.L().Info("no maps key configured, route optimization disabled")
		}

		researchCache := cache.New(cache.Config{
			TTL:        cfg.Cache.TTL(),
			MaxEntries: cfg.Cache.MaxEntries,
			HitCost:    cfg.Cache.HitCost(),
		})
		provider := research.NewTavilyProvider(tavilyClient, research.ProviderConfig{
			MaxResults: cfg.Tavily.MaxResults,
			ExtractTop: cfg.Tavily.ExtractTop,
		})
		researcher := research.New(provider, researchCache, research.Config{
			MaxVenues:       cfg.Research.MaxVenues,
			PerVenueTimeout: cfg.Research.PerVenueTimeout(),
		})

		matcher := match.New(match.Config{
			Floor:          cfg.Matching.Floor,
			SubstringScore: cfg.Matching.SubstringScore,
			TypoThreshold:  cfg.Matching.TypoThreshold,
			TypoMaxLenDiff: cfg.Matching.TypoMaxLenDiff,
			TokenThreshold: cfg.Matching.TokenThreshold,
		})
		synthesizer := route.New(matcher, optimizer, route.Config{
			WalkingMaxWaypoints: cfg.Routing.WalkingMaxWaypoints,
			TransitMaxWaypoints: cfg.Routing.TransitMaxWaypoints,
			DrivingMaxWaypoints: cfg.Routing.DrivingMaxWaypoints,
			BaseHour:            cfg.Routing.BaseHour,
			HoursPerStop:        cfg.Routing.HoursPerStop,
		})

		agentCfg := workflow.AgentConfig{
			Model:     cfg.Anthropic.Model,
			MaxTokens: cfg.Anthropic.MaxTokens,
		}

		emitter := progress.NewChannel(cfg.Workflow.ProgressBuffer)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for ev := range emitter.Events() {
				if planQuiet {
					continue
				}
				line := fmt.Sprintf("[%3.0f%%] %s %s", ev.Progress*100, ev.Stage, ev.Status)
				if ev.Message != "" {
					line += ": " + ev.Message
				}
				fmt.Fprintln(os.Stderr, line)
			}
		}()

		engine := workflow.New(workflow.Deps{
			Location: workflow.NewLocationAgent(anthropicClient, agentCfg),
			Intent:   workflow.NewIntentAgent(anthropicClient, agentCfg),
			Scout:    workflow.NewScoutAgent(anthropicClient, agentCfg, cfg.Research.MaxVenues),
			Enricher: researcher,
			Composer: workflow.NewComposerAgent(anthropicClient, agentCfg),
			Routes:   synthesizer,
			Store:    st,
			Cache:    researchCache,
			Emitter:  emitter,
		}, workflow.Config{
			DefaultLocation: cfg.Workflow.DefaultLocation,
			StageTimeout:    cfg.Workflow.StageTimeout(),
			MaxAdventures:   cfg.Workflow.MaxAdventures,
			PersistResults:  cfg.Workflow.PersistResults,
		})

		result, err := engine.Run(ctx, model.Request{
			Query:       args[0],
			UserAddress: planAddress,
			UserID:      planUserID,
			Mode:        planMode,
		})
		emitter.Close()
		<-done
		// The plan is saved in the background; wait before the deferred
		// store close can race the write.
		engine.Wait()
		if err != nil {
			return eris.Wrap(err, "plan")
		}

		zap.L().Info("plan finished",
			zap.String("status", string(result.Status)),
			zap.Int("adventures", len(result.Adventures)),
			zap.Int64("total_ms", result.Metadata.TotalMS),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	planCmd.Flags().StringVar(&planAddress, "address", "", "your street address, used as the route origin")
	planCmd.Flags().StringVar(&planUserID, "user", "", "user ID for personalization and plan history")
	planCmd.Flags().StringVar(&planMode, "mode", "", "travel mode (walking, transit, driving)")
	planCmd.Flags().BoolVar(&planQuiet, "quiet", false, "suppress stage progress output")
	rootCmd.AddCommand(planCmd)
}
