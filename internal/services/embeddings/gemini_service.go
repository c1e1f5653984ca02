package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/interfaces"
)

// GeminiService implements the EmbeddingService interface using the
// Gemini embedding API. All vectors are generated at the configured
// output dimensionality; the dimension is fixed for the life of an
// index, so a mismatch is a hard error rather than a degradation.
type GeminiService struct {
	config  *common.EmbeddingConfig
	logger  arbor.ILogger
	client  *genai.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// NewGeminiService creates an embedding service backed by the Gemini
// API. RateLimit throttles outbound calls; zero means unlimited.
func NewGeminiService(ctx context.Context, cfg *common.EmbeddingConfig, timeout time.Duration, logger arbor.ILogger) (*GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or embedding.api_key in config)")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-embedding-001"
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive (got %d)", cfg.Dimension)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	service := &GeminiService{
		config:  cfg,
		logger:  logger,
		client:  client,
		limiter: limiter,
		timeout: timeout,
	}

	logger.Info().
		Str("model", cfg.Model).
		Int("dimension", cfg.Dimension).
		Float64("rate_limit", cfg.RateLimit).
		Dur("timeout", timeout).
		Msg("Gemini embedding service initialized successfully")

	return service, nil
}

var _ interfaces.EmbeddingService = (*GeminiService)(nil)

// Embed generates an embedding vector for the given text at the
// configured output dimensionality.
func (s *GeminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, common.NewError(common.CodeEmbeddingFailure, "text cannot be empty for embedding generation")
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, common.WrapError(common.CodeEmbeddingFailure, "rate limiter wait aborted", err)
		}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()

	outputDim := int32(s.config.Dimension)
	embeddingConfig := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	}

	result, err := s.client.Models.EmbedContent(timeoutCtx, s.config.Model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, embeddingConfig)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("text_length", len(text)).
			Msg("Embedding generation failed")
		return nil, common.WrapError(common.CodeEmbeddingFailure, "embedding generation failed", err)
	}

	var embedding []float32
	if result != nil && len(result.Embeddings) > 0 {
		embedding = result.Embeddings[0].Values
	}
	if embedding == nil {
		return nil, common.NewError(common.CodeEmbeddingFailure, "no embedding returned from API")
	}
	if len(embedding) != s.config.Dimension {
		return nil, common.NewError(common.CodeEmbeddingFailure,
			fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", s.config.Dimension, len(embedding)))
	}

	s.logger.Debug().
		Int("text_length", len(text)).
		Int("embedding_dim", len(embedding)).
		Dur("duration", time.Since(startTime)).
		Msg("Embedding generated")

	return embedding, nil
}

// Dimension returns the configured embedding dimension.
func (s *GeminiService) Dimension() int {
	return s.config.Dimension
}
