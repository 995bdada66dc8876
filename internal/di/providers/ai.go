package providers

import (
	"errors"

	"github.com/samber/do/v2"

	"github.com/brainvault/brainvault-server/internal/classify"
	"github.com/brainvault/brainvault-server/internal/config"
	"github.com/brainvault/brainvault-server/internal/llm"
	"github.com/brainvault/brainvault-server/internal/logger"
	"github.com/brainvault/brainvault-server/internal/metrics"
	"github.com/brainvault/brainvault-server/internal/transform"
)

// LLMClients holds the configured chat providers in preference order.
// Unconfigured providers are absent.
type LLMClients struct {
	Providers []*llm.Client
}

// ProvideLLMClients builds the xAI and OpenAI clients that have API keys.
func ProvideLLMClients(i do.Injector) (*LLMClients, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	candidates := []llm.Options{
		{Name: "xai", BaseURL: cfg.AI.XAIAPIURL, APIKey: cfg.AI.XAIAPIKey, Model: cfg.AI.XAIModel},
		{Name: "openai", BaseURL: cfg.AI.OpenAIAPIURL, APIKey: cfg.AI.OpenAIAPIKey, Model: cfg.AI.OpenAIModel},
	}

	clients := &LLMClients{}
	for _, opts := range candidates {
		opts.MaxTokens = cfg.AI.MaxTokens
		opts.Temperature = cfg.AI.Temperature
		opts.Timeout = cfg.AI.Timeout
		opts.Logger = log.Logger
		opts.Metrics = m

		client, err := llm.New(opts)
		if errors.Is(err, llm.ErrNotConfigured) {
			log.Info("LLM provider not configured", "provider", opts.Name)
			continue
		}
		if err != nil {
			return nil, err
		}
		log.Info("LLM provider configured", "provider", opts.Name, "model", opts.Model)
		clients.Providers = append(clients.Providers, client)
	}
	return clients, nil
}

// ProvideTransformStrategy provides the transformation strategy: configured
// chat providers first, templates when none can answer.
func ProvideTransformStrategy(i do.Injector) (transform.Strategy, error) {
	clients := do.MustInvoke[*LLMClients](i)

	strategy := transform.Strategy{Fallback: transform.TemplateGenerator{}}
	if len(clients.Providers) > 0 {
		completers := make([]transform.NamedCompleter, len(clients.Providers))
		for idx, c := range clients.Providers {
			completers[idx] = c
		}
		strategy.Primary = transform.NewLLMGenerator(completers...)
	}
	return strategy, nil
}

// ProvideClassifier provides the idea classifier. The keyword tables always
// run last so classification never depends on the network.
func ProvideClassifier(i do.Injector) (classify.Classifier, error) {
	cfg := do.MustInvoke[*config.Config](i)
	clients := do.MustInvoke[*LLMClients](i)
	log := do.MustInvoke[*logger.Logger](i)

	var chain classify.Chain
	if cfg.AI.ClassifyWithLLM {
		for _, c := range clients.Providers {
			chain = append(chain, classify.WithTimeout(classify.NewLLMClassifier(c), cfg.AI.ClassifierTimeout))
		}
	}
	chain = append(chain, classify.NewKeywordClassifier())

	log.Info("Classifier configured", "llm_stages", len(chain)-1)
	return chain, nil
}
