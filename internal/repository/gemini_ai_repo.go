package repository

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"chart-annotator/config"
	"chart-annotator/internal/dto"
	"chart-annotator/pkg/httpclient"
	"chart-annotator/pkg/logger"
	"chart-annotator/pkg/ratelimit"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// AIRepository is the collaborator boundary that produces raw analysis JSON
// from a chart screenshot. The annotation core never constructs or holds this
// client; it only consumes the bytes this boundary returns.
type AIRepository interface {
	AnalyzeChart(ctx context.Context, symbol, interval string, chartImage []byte) ([]byte, error)
}

// geminiAIRepository implements AIRepository against the Google Gemini API.
type geminiAIRepository struct {
	httpClient     httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

// NewGeminiAIRepository creates a new instance of geminiAIRepository.
func NewGeminiAIRepository(cfg *config.Config, log *logger.Logger) (AIRepository, error) {
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	tokenLimiter := ratelimit.NewTokenLimiter(cfg.Gemini.MaxTokenPerMinute)
	genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.Gemini.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiAIRepository{
		httpClient:     httpclient.New(cfg.Gemini.BaseURL, cfg.Gemini.Timeout, ""),
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		tokenLimiter:   tokenLimiter,
		genAiClient:    genAiClient,
	}, nil
}

// AnalyzeChart sends the chart screenshot plus the analysis prompt and returns
// the model's raw JSON payload. The content is untrusted; validation happens
// downstream.
func (r *geminiAIRepository) AnalyzeChart(ctx context.Context, symbol, interval string, chartImage []byte) ([]byte, error) {
	if len(chartImage) == 0 {
		r.logger.ErrorContext(ctx, "no chart image to analyze", logger.StringField("symbol", symbol))
		return nil, fmt.Errorf("no chart image to analyze for %s", symbol)
	}

	prompt := r.promptAnalyzeChart(symbol, interval)

	geminiAPIResponse, err := r.sendRequest(ctx, prompt, chartImage)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to send request to gemini", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to send request to gemini: %w", err)
	}

	raw, err := extractResponseJSON(geminiAPIResponse)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to extract response from gemini", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to extract response from gemini: %w", err)
	}

	return raw, nil
}

func (r *geminiAIRepository) sendRequest(ctx context.Context, prompt string, chartImage []byte) (*dto.GeminiAPIResponse, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}
	geminiTokenResp, err := r.genAiClient.Models.CountTokens(ctx, r.cfg.Gemini.BaseModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count tokens: %w", err)
	}

	r.logger.Debug("Gemini token count",
		logger.IntField("total_tokens", int(geminiTokenResp.TotalTokens)),
		logger.IntField("remaining", r.tokenLimiter.GetRemaining()),
	)
	if err := r.tokenLimiter.Wait(ctx, int(geminiTokenResp.TotalTokens)); err != nil {
		return nil, fmt.Errorf("failed to wait for token gemini limit: %w", err)
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request gemini limit: %w", err)
	}

	payload := dto.GeminiAPIRequest{
		Contents: []dto.Content{{Parts: []dto.Part{
			{Text: prompt},
			{InlineData: &dto.InlineData{
				MimeType: "image/png",
				Data:     base64.StdEncoding.EncodeToString(chartImage),
			}},
		}}},
	}

	geminiAPIResponse := dto.GeminiAPIResponse{}

	apiURL := fmt.Sprintf("/%s:generateContent?key=%s", r.cfg.Gemini.BaseModel, r.cfg.Gemini.APIKey)

	geminiResp, err := r.httpClient.Post(ctx, apiURL, payload, nil, &geminiAPIResponse)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to gemini: %w", err)
	}

	if geminiResp.StatusCode != http.StatusOK {
		r.logger.ErrorContext(ctx, "failed to get data from gemini", logger.IntField("status_code", geminiResp.StatusCode))
		return nil, fmt.Errorf("failed to get data: %v", string(geminiResp.Body))
	}

	return &geminiAPIResponse, nil
}

// extractResponseJSON pulls the first candidate's text and strips the markdown
// code fences the model tends to wrap JSON in.
func extractResponseJSON(response *dto.GeminiAPIResponse) ([]byte, error) {
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("invalid response from Gemini API: no content found")
	}

	jsonString := response.Candidates[0].Content.Parts[0].Text
	jsonString = strings.Trim(jsonString, "`json\n`")

	return []byte(jsonString), nil
}
