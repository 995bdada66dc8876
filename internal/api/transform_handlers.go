package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/brainvault/brainvault-server/internal/service"
	"github.com/brainvault/brainvault-server/internal/transform"
)

func (s *Server) registerTransformRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "transformIdea",
		Method:      http.MethodPost,
		Path:        "/api/v1/transform",
		Summary:     "Transform idea",
		Description: "Generates a blog post, IP summary, or task list from an idea and stores it on the idea",
		Tags:        []string{"Transform"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleTransformIdea)
}

// TransformRequest is the request body for a transformation.
type TransformRequest struct {
	IdeaID     string `json:"idea_id" doc:"Idea to transform"`
	OutputKind string `json:"output_kind" doc:"One of content, ip, tasks"`
}

// TransformInput wraps the transform request for Huma.
type TransformInput struct {
	Body TransformRequest
}

// TransformResponse contains the generated text.
type TransformResponse struct {
	IdeaID             string `json:"idea_id" doc:"Transformed idea"`
	OutputKind         string `json:"output_kind" doc:"Kind of output generated"`
	TransformedContent string `json:"transformed_content" doc:"Generated text"`
	Generator          string `json:"generator" doc:"Generator that produced the text"`
}

// TransformOutput wraps the transform response for Huma.
type TransformOutput struct {
	Body TransformResponse
}

func (s *Server) handleTransformIdea(ctx context.Context, input *TransformInput) (*TransformOutput, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Transform.Transform(ctx, user.ID, service.TransformRequest{
		IdeaID:     input.Body.IdeaID,
		OutputKind: transform.Kind(input.Body.OutputKind),
	})
	if err != nil {
		return nil, err
	}

	return &TransformOutput{
		Body: TransformResponse{
			IdeaID:             result.IdeaID,
			OutputKind:         string(result.OutputKind),
			TransformedContent: result.TransformedContent,
			Generator:          result.Generator,
		},
	}, nil
}
