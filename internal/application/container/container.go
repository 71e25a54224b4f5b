// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/canvasthink/resonance-go/internal/application/services"
	"github.com/canvasthink/resonance-go/internal/domain/entities/behavior"
	domainservices "github.com/canvasthink/resonance-go/internal/domain/services"
	"github.com/canvasthink/resonance-go/internal/infrastructure/observability/logging"
	"github.com/canvasthink/resonance-go/internal/infrastructure/observability/performance"
	"github.com/canvasthink/resonance-go/internal/infrastructure/userstate"
	"github.com/canvasthink/resonance-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Domain Engine (pure, stateless singletons)
	Scorer    *domainservices.BehavioralScorer
	Matcher   *domainservices.PatternMatcher
	Resolver  *domainservices.StateResolver
	Predictor *domainservices.TransitionPredictor
	Insights  *domainservices.InsightGenerator

	// Application Services
	AnalysisService  *services.AnalysisService
	SessionService   *services.SessionService
	ReportingService *services.ReportingService

	// Infrastructure Dependencies
	Library     *behavior.Library
	UserStore   *userstate.Store
	Logger      *logging.ChanneledLogger
	PerfTracker *performance.Tracker
}

// NewContainer creates and wires all singleton services
func NewContainer(lib *behavior.Library, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *Container {
	userStore := userstate.NewStore(userstate.Limits{
		MaxEvents:       config.EventWindowMaxEvents,
		MaxEventAge:     config.EventWindowMaxAge,
		ProfileHistory:  config.ProfileHistoryLimit,
		SessionHistory:  config.SessionHistoryLimit,
		UserTTL:         config.UserStateTTL,
		CleanupInterval: config.UserCleanupInterval,
		MaxUsers:        config.MaxTrackedUsers,
	}, logger)

	scorer := domainservices.NewBehavioralScorer(lib)
	matcher := domainservices.NewPatternMatcher(lib)
	resolver := domainservices.NewStateResolver(lib)
	predictor := domainservices.NewTransitionPredictor(lib)
	insights := domainservices.NewInsightGenerator(lib)

	aggregator := domainservices.NewSessionAggregator()
	sessionService := services.NewSessionService(userStore, aggregator, config.SessionIdleThreshold, logger, perfTracker)
	reportingService := services.NewReportingService(config.OutcomeBufferLimit, logger, perfTracker)
	analysisService := services.NewAnalysisService(
		userStore, sessionService, reportingService,
		scorer, matcher, resolver, predictor, insights,
		logger, perfTracker,
	)

	return &Container{
		Scorer:    scorer,
		Matcher:   matcher,
		Resolver:  resolver,
		Predictor: predictor,
		Insights:  insights,

		AnalysisService:  analysisService,
		SessionService:   sessionService,
		ReportingService: reportingService,

		Library:     lib,
		UserStore:   userStore,
		Logger:      logger,
		PerfTracker: perfTracker,
	}
}

// Close releases the container's background resources.
func (c *Container) Close() {
	c.UserStore.Close()
}
