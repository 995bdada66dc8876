package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/brainvault/brainvault-server/internal/domain"
	domainerrors "github.com/brainvault/brainvault-server/internal/errors"
	"github.com/brainvault/brainvault-server/internal/metrics"
	"github.com/brainvault/brainvault-server/internal/voice"
)

// TranscribeRequest is one uploaded recording.
type TranscribeRequest struct {
	Upload voice.Upload
	// CreateIdea stores the transcript as a new idea with source voice.
	CreateIdea bool
}

// TranscribeResult is the transcript and anything created from it.
type TranscribeResult struct {
	Transcript string       `json:"transcript"`
	Language   string       `json:"language,omitempty"`
	Duration   float64      `json:"duration,omitempty"`
	Format     voice.Format `json:"format"`
	AudioURL   string       `json:"audio_url,omitempty"`
	Idea       *domain.Idea `json:"idea,omitempty"`
}

// ExtractResult is a transcript split into candidate ideas.
type ExtractResult struct {
	Transcript string   `json:"transcript"`
	Ideas      []string `json:"ideas"`
}

// VoiceService turns recordings into transcripts and ideas.
type VoiceService struct {
	transcriber voice.Transcriber
	archiver    voice.Archiver
	ideas       *IdeaService
	maxBytes    int64
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewVoiceService creates a voice service. A nil archiver keeps no copy of
// the audio.
func NewVoiceService(
	transcriber voice.Transcriber,
	archiver voice.Archiver,
	ideas *IdeaService,
	maxBytes int64,
	m *metrics.Metrics,
	logger *slog.Logger,
) *VoiceService {
	if archiver == nil {
		archiver = voice.NoopArchiver{}
	}
	if maxBytes <= 0 {
		maxBytes = voice.DefaultMaxBytes
	}
	return &VoiceService{
		transcriber: transcriber,
		archiver:    archiver,
		ideas:       ideas,
		maxBytes:    maxBytes,
		metrics:     m,
		logger:      logger,
	}
}

// MaxBytes is the upload size cap.
func (s *VoiceService) MaxBytes() int64 {
	return s.maxBytes
}

// Transcribe validates the upload, transcribes it, archives the audio, and
// optionally creates an idea from the transcript.
//
// A rejected upload or a failed transcription leaves nothing behind: no idea
// is created and nothing is archived. Archive failures are logged only.
func (s *VoiceService) Transcribe(ctx context.Context, ownerID string, req TranscribeRequest) (*TranscribeResult, error) {
	format, transcript, err := s.validateAndTranscribe(ctx, ownerID, req.Upload)
	if err != nil {
		return nil, err
	}

	result := &TranscribeResult{
		Transcript: transcript.Text,
		Language:   transcript.Language,
		Duration:   transcript.Duration,
		Format:     format,
	}

	url, err := s.archiver.Archive(ctx, ownerID, req.Upload.Data, format)
	if err != nil {
		s.logger.Warn("failed to archive audio", "user_id", ownerID, "format", format, "error", err)
	}
	result.AudioURL = url

	if req.CreateIdea {
		idea, err := s.ideas.CreateIdea(ctx, ownerID, CreateIdeaRequest{
			Content: truncateRunes(transcript.Text, domain.MaxContentLength),
			Source:  domain.SourceVoice,
		})
		if err != nil {
			return nil, err
		}
		result.Idea = idea
	}

	return result, nil
}

// ExtractIdeas transcribes the upload and splits it into candidate ideas
// without storing anything.
func (s *VoiceService) ExtractIdeas(ctx context.Context, ownerID string, upload voice.Upload) (*ExtractResult, error) {
	_, transcript, err := s.validateAndTranscribe(ctx, ownerID, upload)
	if err != nil {
		return nil, err
	}
	return &ExtractResult{
		Transcript: transcript.Text,
		Ideas:      voice.ExtractIdeas(transcript.Text),
	}, nil
}

func (s *VoiceService) validateAndTranscribe(ctx context.Context, ownerID string, upload voice.Upload) (voice.Format, *voice.Transcript, error) {
	format, err := voice.Validate(upload, s.maxBytes)
	if err != nil {
		return "", nil, mapVoiceError(err, s.maxBytes)
	}
	s.metrics.RecordVoiceUpload(len(upload.Data))

	if s.transcriber == nil {
		return "", nil, domainerrors.Upstream("transcription service unavailable", voice.ErrTranscriberNotConfigured)
	}

	transcript, err := s.transcriber.Transcribe(ctx, upload.Data, format)
	if err != nil {
		s.logger.Error("transcription failed", "user_id", ownerID, "format", format, "error", err)
		return "", nil, domainerrors.Upstream("transcription service unavailable", err)
	}
	transcript.Text = strings.TrimSpace(transcript.Text)
	if transcript.Text == "" {
		return "", nil, domainerrors.Upstream("transcription returned no text", nil)
	}
	return format, transcript, nil
}

func mapVoiceError(err error, maxBytes int64) error {
	if errors.Is(err, voice.ErrTooLarge) {
		return domainerrors.PayloadTooLarge("audio file too large").WithDetails(map[string]any{
			"max_bytes": maxBytes,
		})
	}

	msg := err.Error()
	if errors.Is(err, voice.ErrUnsupportedFormat) {
		msg = "unsupported audio format, allowed: " + allowedFormats()
	}
	return domainerrors.ValidationWithDetails("invalid audio upload", map[string]string{
		"file": msg,
	})
}

func allowedFormats() string {
	names := make([]string, len(voice.Formats))
	for i, f := range voice.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
