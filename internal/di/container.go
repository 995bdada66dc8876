// Package di provides dependency injection configuration for the Brain Vault server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/brainvault/brainvault-server/internal/classify"
	"github.com/brainvault/brainvault-server/internal/config"
	"github.com/brainvault/brainvault-server/internal/di/providers"
	"github.com/brainvault/brainvault-server/internal/logger"
	"github.com/brainvault/brainvault-server/internal/metrics"
	"github.com/brainvault/brainvault-server/internal/service"
	"github.com/brainvault/brainvault-server/internal/transform"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideMetrics)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Cloud and messaging
	do.Provide(injector, providers.ProvideAWSConfig)
	do.Provide(injector, providers.ProvideS3Client)
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideEventEmitter)

	// AI layer
	do.Provide(injector, providers.ProvideLLMClients)
	do.Provide(injector, providers.ProvideClassifier)
	do.Provide(injector, providers.ProvideTransformStrategy)
	do.Provide(injector, providers.ProvideTranscriber)
	do.Provide(injector, providers.ProvideArchiver)

	// Auth layer
	do.Provide(injector, providers.ProvideAuth)

	// Business services
	do.Provide(injector, providers.ProvideIdeaService)
	do.Provide(injector, providers.ProvideStatsService)
	do.Provide(injector, providers.ProvideTransformService)
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideVoiceService)

	// Server
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	steps := []func() error{
		invoke[*config.Config](injector),
		invoke[*logger.Logger](injector),
		invoke[*metrics.Metrics](injector),
		invoke[*providers.StoreHandle](injector),
		invoke[*providers.SearchIndexHandle](injector),
		invoke[*service.SearchService](injector),
		invoke[*providers.EmitterHandle](injector),
		invoke[classify.Classifier](injector),
		invoke[transform.Strategy](injector),
		invoke[*providers.AuthHandle](injector),

		// Business services
		invoke[*service.IdeaService](injector),
		invoke[*service.StatsService](injector),
		invoke[*service.TransformService](injector),
		invoke[*service.UserService](injector),
		invoke[*service.VoiceService](injector),
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	// A fresh index is rebuilt from the store in the background
	providers.TriggerSearchReindexIfNeeded(injector)

	// Server
	_, err := do.Invoke[*providers.HTTPServerHandle](injector)
	return err
}

func invoke[T any](injector do.Injector) func() error {
	return func() error {
		_, err := do.Invoke[T](injector)
		return err
	}
}
