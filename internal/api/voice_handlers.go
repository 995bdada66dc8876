package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	domainerrors "github.com/brainvault/brainvault-server/internal/errors"
	"github.com/brainvault/brainvault-server/internal/http/response"
	"github.com/brainvault/brainvault-server/internal/service"
	"github.com/brainvault/brainvault-server/internal/voice"
)

// multipartOverhead allows for form boundaries and extra fields on top of the
// audio size cap.
const multipartOverhead = 64 << 10

// Accepted multipart field names for the audio file.
var audioFields = []string{"file", "audio_file"}

// registerVoiceRoutes mounts the multipart upload endpoints directly on chi;
// huma's body handling is JSON oriented.
func (s *Server) registerVoiceRoutes() {
	s.router.Post("/api/v1/voice/transcribe", s.handleTranscribe)
	s.router.Post("/api/v1/voice/extract-ideas", s.handleExtractIdeas)
}

// handleTranscribe transcribes an uploaded recording. By default the
// transcript is stored as a new idea; send create_idea=false to skip that.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := GetUser(ctx)
	if err != nil {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	upload, err := s.readUpload(w, r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	createIdea := true
	if v := r.FormValue("create_idea"); v != "" {
		createIdea, err = strconv.ParseBool(v)
		if err != nil {
			response.HandleError(w, domainerrors.ValidationWithDetails("validation failed", map[string]string{
				"create_idea": "must be true or false",
			}), s.logger)
			return
		}
	}

	result, err := s.services.Voice.Transcribe(ctx, user.ID, service.TranscribeRequest{
		Upload:     upload,
		CreateIdea: createIdea,
	})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	resp := TranscribeResponse{
		Transcript: result.Transcript,
		Language:   result.Language,
		Duration:   result.Duration,
		Format:     string(result.Format),
		AudioURL:   result.AudioURL,
	}
	if result.Idea != nil {
		idea := toIdeaResponse(result.Idea)
		resp.Idea = &idea
	}
	response.Success(w, resp, s.logger)
}

// handleExtractIdeas transcribes a recording and splits it into candidate
// ideas without storing anything.
func (s *Server) handleExtractIdeas(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := GetUser(ctx)
	if err != nil {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	upload, err := s.readUpload(w, r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	result, err := s.services.Voice.ExtractIdeas(ctx, user.ID, upload)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, ExtractIdeasResponse{
		Transcript: result.Transcript,
		Ideas:      result.Ideas,
	}, s.logger)
}

// TranscribeResponse contains a transcript and the idea created from it.
type TranscribeResponse struct {
	Transcript string        `json:"transcript"`
	Language   string        `json:"language,omitempty"`
	Duration   float64       `json:"duration,omitempty"`
	Format     string        `json:"format"`
	AudioURL   string        `json:"audio_url,omitempty"`
	Idea       *IdeaResponse `json:"idea,omitempty"`
}

// ExtractIdeasResponse contains candidate ideas found in a recording.
type ExtractIdeasResponse struct {
	Transcript string   `json:"transcript"`
	Ideas      []string `json:"ideas"`
}

// readUpload parses the multipart form and reads the audio part. Bodies over
// the size cap are rejected without being read in full.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (voice.Upload, error) {
	maxBytes := s.services.Voice.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

	if err := r.ParseMultipartForm(maxBytes + multipartOverhead); err != nil {
		return voice.Upload{}, uploadError(err, maxBytes)
	}

	for _, field := range audioFields {
		file, header, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return voice.Upload{}, uploadError(err, maxBytes)
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
		if err != nil {
			return voice.Upload{}, uploadError(err, maxBytes)
		}
		return voice.Upload{
			Data:     data,
			Filename: header.Filename,
			Declared: r.FormValue("format"),
		}, nil
	}

	return voice.Upload{}, domainerrors.ValidationWithDetails("validation failed", map[string]string{
		"file": "audio file is required",
	})
}

func uploadError(err error, maxBytes int64) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
		return domainerrors.PayloadTooLarge("audio file too large").WithDetails(map[string]any{
			"max_bytes": maxBytes,
		})
	}
	return domainerrors.ValidationWithDetails("invalid multipart upload", map[string]string{
		"file": err.Error(),
	})
}
