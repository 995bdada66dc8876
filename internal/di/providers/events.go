package providers

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/samber/do/v2"

	"github.com/brainvault/brainvault-server/internal/config"
	"github.com/brainvault/brainvault-server/internal/events"
	"github.com/brainvault/brainvault-server/internal/logger"
	"github.com/brainvault/brainvault-server/internal/metrics"
)

// EmitterHandle wraps the event emitter with shutdown capability.
type EmitterHandle struct {
	*events.Emitter
}

// Shutdown implements do.Shutdownable.
func (h *EmitterHandle) Shutdown() error {
	return h.Close()
}

// ProvideEventEmitter provides the domain event emitter for the configured driver.
func ProvideEventEmitter(i do.Injector) (*EmitterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	var publisher events.Publisher
	switch cfg.Events.Driver {
	case "nats":
		p, err := events.ConnectNATS(cfg.Events.NATSURL, cfg.Events.SubjectPrefix, log.Logger)
		if err != nil {
			return nil, err
		}
		publisher = p
	case "eventbridge":
		awsCfg := do.MustInvoke[aws.Config](i)
		publisher = events.NewEventBridgePublisher(eventbridge.NewFromConfig(awsCfg), cfg.Events.EventBusName, cfg.Events.Source)
	default:
		publisher = events.NoopPublisher{}
	}

	live := do.MustInvoke[*SSEManagerHandle](i)

	log.Info("Event publishing configured", "driver", cfg.Events.Driver)
	fanout := events.Fanout{publisher, live.Manager}
	return &EmitterHandle{Emitter: events.NewEmitter(fanout, log.Logger, m)}, nil
}
