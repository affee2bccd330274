package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/recruit-dashboard/internal/logger"
)

const (
	defaultGeminiModel      = "gemini-2.5-flash"
	defaultGeminiEmbedModel = "text-embedding-004"
	fileActivePollInterval  = time.Second
	fileActiveMaxPolls      = 30
)

// maxEmbedRunes is roughly the embedding model's input limit.
const maxEmbedRunes = 40000

// DocumentModel is the part of the language-model service the extractor uses:
// a transient remote file that prompts can refer to.
//
// UploadFile may return a document together with an error when the upload
// went through but the file never became usable. The caller still owns that
// document and must delete it.
type DocumentModel interface {
	UploadFile(ctx context.Context, path, mimeType, displayName string) (*RemoteDocument, error)
	GenerateFromFile(ctx context.Context, doc *RemoteDocument, prompt string) (string, error)
	DeleteFile(ctx context.Context, name string) error
}

type GeminiService interface {
	DocumentModel
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type GeminiConfig struct {
	APIKey     string
	Model      string
	EmbedModel string
	MaxRetries int
}

type geminiService struct {
	client     *genai.Client
	modelName  string
	embedModel string
	maxRetries int
	log        *zap.Logger
}

func NewGeminiService(ctx context.Context, cfg GeminiConfig, log *zap.Logger) (GeminiService, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultGeminiModel
	}
	embedModel := strings.TrimSpace(cfg.EmbedModel)
	if embedModel == "" {
		embedModel = defaultGeminiEmbedModel
	}
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}

	return &geminiService{
		client:     client,
		modelName:  model,
		embedModel: embedModel,
		maxRetries: retries,
		log:        logger.OrNop(log).Named("gemini"),
	}, nil
}

// UploadFile implements DocumentModel. It waits until the service has
// finished processing the file so that it can be used in prompts.
func (g *geminiService) UploadFile(ctx context.Context, path, mimeType, displayName string) (*RemoteDocument, error) {
	file, err := g.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: displayName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	// From here on the remote file exists and is handed back on every path.
	uploaded := &RemoteDocument{Name: file.Name, FileName: displayName}

	for polls := 0; file.State == genai.FileStateProcessing && polls < fileActiveMaxPolls; polls++ {
		select {
		case <-ctx.Done():
			return uploaded, fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-time.After(fileActivePollInterval):
		}

		polled, err := g.client.Files.Get(ctx, file.Name, nil)
		if err != nil {
			return uploaded, fmt.Errorf("failed to check file state: %w", err)
		}
		file = polled
	}
	if file.State == genai.FileStateFailed {
		return uploaded, fmt.Errorf("file processing failed for %s", file.Name)
	}

	g.log.Debug("file uploaded",
		zap.String("remote_name", file.Name),
		zap.String(logger.FieldFileName, displayName),
		zap.String("mime_type", file.MIMEType))

	return &RemoteDocument{
		Name:     file.Name,
		URI:      file.URI,
		MIMEType: file.MIMEType,
		FileName: displayName,
	}, nil
}

// GenerateFromFile implements DocumentModel. Transient failures are retried
// up to the configured number of attempts.
func (g *geminiService) GenerateFromFile(ctx context.Context, doc *RemoteDocument, prompt string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		result, err := g.generate(ctx, doc, prompt)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if attempt < g.maxRetries {
			g.log.Warn("generation attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.Error(err))

			select {
			case <-ctx.Done():
				return "", fmt.Errorf("context cancelled: %w", ctx.Err())
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}
	}

	return "", fmt.Errorf("failed after %d attempts: %w", g.maxRetries, lastErr)
}

func (g *geminiService) generate(ctx context.Context, doc *RemoteDocument, prompt string) (string, error) {
	temperature := float32(0.1)
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  4096,
		ResponseMIMEType: "application/json",
	}

	parts := []*genai.Part{
		genai.NewPartFromURI(doc.URI, doc.MIMEType),
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}
	if resp == nil {
		return "", errors.New("no response generated (nil response)")
	}

	// An empty answer is not a transport failure; the extractor treats it as
	// an empty extraction.
	text := resp.Text()
	if text == "" {
		g.log.Warn("model returned no text", zap.String("remote_name", doc.Name))
	}

	return text, nil
}

// DeleteFile implements DocumentModel.
func (g *geminiService) DeleteFile(ctx context.Context, name string) error {
	if _, err := g.client.Files.Delete(ctx, name, nil); err != nil {
		return fmt.Errorf("failed to delete remote file %s: %w", name, err)
	}
	return nil
}

// GenerateEmbedding implements GeminiService.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	text = truncateRunes(text, maxEmbedRunes)

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, errors.New("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

// truncateRunes cuts s to at most n runes without splitting a character.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
