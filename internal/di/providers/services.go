package providers

import (
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/samber/do/v2"

	"github.com/brainvault/brainvault-server/internal/classify"
	"github.com/brainvault/brainvault-server/internal/config"
	"github.com/brainvault/brainvault-server/internal/logger"
	"github.com/brainvault/brainvault-server/internal/metrics"
	"github.com/brainvault/brainvault-server/internal/service"
	"github.com/brainvault/brainvault-server/internal/transform"
	"github.com/brainvault/brainvault-server/internal/voice"
)

// ProvideIdeaService provides the idea service.
func ProvideIdeaService(i do.Injector) (*service.IdeaService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	classifier := do.MustInvoke[classify.Classifier](i)
	emitter := do.MustInvoke[*EmitterHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewIdeaService(storeHandle.Store, searchService, classifier, emitter.Emitter, m, log.Logger), nil
}

// ProvideStatsService provides the stats service.
func ProvideStatsService(i do.Injector) (*service.StatsService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewStatsService(storeHandle.Store, cfg.Stats.Location(), cfg.Stats.RecentCount, log.Logger), nil
}

// ProvideTransformService provides the transform service.
func ProvideTransformService(i do.Injector) (*service.TransformService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	strategy := do.MustInvoke[transform.Strategy](i)
	emitter := do.MustInvoke[*EmitterHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTransformService(storeHandle.Store, strategy, emitter.Emitter, m, log.Logger), nil
}

// ProvideUserService provides the user service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	emitter := do.MustInvoke[*EmitterHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(storeHandle.Store, emitter.Emitter, log.Logger), nil
}

// ProvideTranscriber provides the Whisper client. The OpenAI key is reused
// when no dedicated transcription key is set.
func ProvideTranscriber(i do.Injector) (voice.Transcriber, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	apiKey := cfg.Voice.WhisperAPIKey
	if apiKey == "" {
		apiKey = cfg.AI.OpenAIAPIKey
	}

	client := voice.NewWhisperClient(voice.WhisperOptions{
		BaseURL: cfg.Voice.WhisperURL,
		APIKey:  apiKey,
		Model:   cfg.Voice.WhisperModel,
		Timeout: cfg.Voice.Timeout,
		Logger:  log.Logger,
		Metrics: m,
	})
	if !client.Configured() {
		log.Warn("Transcription not configured, voice uploads will fail with 502")
	}
	return client, nil
}

// ProvideArchiver provides the audio archiver. Uploads are discarded unless
// archiving is enabled.
func ProvideArchiver(i do.Injector) (voice.Archiver, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.AWS.ArchiveAudio {
		return voice.NoopArchiver{}, nil
	}

	client := do.MustInvoke[*s3.Client](i)
	log.Info("Audio archiving enabled", "bucket", cfg.AWS.Bucket)
	return voice.NewS3Archiver(client, cfg.AWS.Bucket, cfg.AWS.Region, cfg.AWS.Endpoint), nil
}

// ProvideVoiceService provides the voice service.
func ProvideVoiceService(i do.Injector) (*service.VoiceService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	transcriber := do.MustInvoke[voice.Transcriber](i)
	archiver := do.MustInvoke[voice.Archiver](i)
	ideas := do.MustInvoke[*service.IdeaService](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewVoiceService(transcriber, archiver, ideas, cfg.Voice.MaxUploadBytes, m, log.Logger), nil
}
