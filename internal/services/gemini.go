package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GeminiCompleter calls Gemini directly through the Go SDK.
type GeminiCompleter struct {
	client    *genai.Client
	modelName string
}

func NewGeminiCompleter(ctx context.Context, apiKey, modelName string) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiCompleter{client: client, modelName: modelName}, nil
}

func (g *GeminiCompleter) Close() {
	g.client.Close()
}

func (g *GeminiCompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(p.System)}}
	if p.Temperature > 0 {
		model.SetTemperature(p.Temperature)
	}
	if p.JSON {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(p.User))
	if err != nil {
		return "", geminiError(err)
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return "", errEmptyReply
	}
	return text, nil
}

// geminiError maps REST and gRPC failures onto UpstreamError so the
// analyzer sees the same status codes whatever the provider.
func geminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &UpstreamError{StatusCode: apiErr.Code, Body: apiErr.Message}
	}

	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unavailable:
		return &UpstreamError{StatusCode: http.StatusServiceUnavailable, Body: st.Message()}
	case codes.ResourceExhausted:
		return &UpstreamError{StatusCode: http.StatusTooManyRequests, Body: st.Message()}
	case codes.PermissionDenied, codes.Unauthenticated:
		return &UpstreamError{StatusCode: http.StatusForbidden, Body: st.Message()}
	case codes.InvalidArgument:
		return &UpstreamError{StatusCode: http.StatusBadRequest, Body: st.Message()}
	}
	return err
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
