package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-chatbridge/core"
	"github.com/goliatone/go-chatbridge/ratelimit"
)

// FallbackMessage is the user-visible reply when translation fails.
const FallbackMessage = "發生錯誤，無法翻譯此訊息。 (An error has occurred; this message cannot be translated.)"

const promptChineseToEnglish = "You are a professional translator. Translate the provided text from " +
	"Traditional Chinese into natural, fluent English. Preserve names and " +
	"technical terms. Return only the translation without additional commentary. " +
	"IMPORTANT: Do NOT translate or modify URLs, hyperlinks, or web addresses. " +
	"Keep all URLs exactly as they are in the original text."

const promptEnglishToChinese = "You are a professional translator. Translate the provided text from " +
	"English into natural, fluent Traditional Chinese. Preserve names and " +
	"technical terms. Return only the translation without additional commentary. " +
	"IMPORTANT: Do NOT translate or modify URLs, hyperlinks, or web addresses. " +
	"Keep all URLs exactly as they are in the original text."

const completionsPath = "/v1/chat/completions"

const defaultTranslateTimeout = 15 * time.Second

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// OpenAITranslator calls the chat completions endpoint with a direction
// specific system prompt and temperature 0.
type OpenAITranslator struct {
	adapter core.TransportAdapter
	apiKey  string
	model   string
	baseURL string
	timeout time.Duration
	logger  core.Logger

	// Throttle, when set, skips the API while a rate-limit window is open and
	// degrades to the fallback message instead. Optional.
	Throttle *ratelimit.AdaptivePolicy
}

func NewOpenAITranslator(adapter core.TransportAdapter, cfg core.TranslatorConfig, logger core.Logger) (*OpenAITranslator, error) {
	if adapter == nil {
		return nil, translateInternal("translate: transport adapter is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, translateBadInput("translate: api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o"
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTranslateTimeout
	}
	return &OpenAITranslator{
		adapter: adapter,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   model,
		baseURL: baseURL,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Translate renders the text along the requested direction. Any downstream
// trouble degrades to FallbackMessage with a nil error so dispatch can still
// spend the reply token on something readable.
func (t *OpenAITranslator) Translate(ctx context.Context, text string, direction core.Direction) (string, error) {
	if t == nil || t.adapter == nil {
		return "", translateInternal("translate: translator is not configured")
	}

	prompt := promptEnglishToChinese
	if direction == core.DirectionChineseToEnglish {
		prompt = promptChineseToEnglish
	}
	payload, err := json.Marshal(chatCompletionRequest{
		Model: t.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt},
			{Role: "user", Content: text},
		},
		Temperature: 0,
	})
	if err != nil {
		core.LogError(ctx, t.logger, "translate: encode completion request", map[string]any{"error": err.Error()})
		return FallbackMessage, nil
	}

	key := ratelimit.Key{Service: "openai", Bucket: "completions"}
	if err := t.Throttle.BeforeCall(ctx, key); err != nil {
		core.LogWarn(ctx, t.logger, "translate: completion call throttled", map[string]any{"error": err.Error()})
		return FallbackMessage, nil
	}

	res, err := t.adapter.Do(ctx, core.TransportRequest{
		Method: http.MethodPost,
		URL:    t.baseURL + completionsPath,
		Headers: map[string]string{
			"Authorization": "Bearer " + t.apiKey,
			"Content-Type":  "application/json",
		},
		Body:    payload,
		Timeout: t.timeout,
	})
	if err != nil {
		core.LogError(ctx, t.logger, "translate: completion call failed", map[string]any{"error": err.Error()})
		return FallbackMessage, nil
	}
	if err := t.Throttle.AfterCall(ctx, key, ratelimit.ResponseMeta{
		StatusCode: res.StatusCode,
		Headers:    res.Headers,
	}); err != nil {
		core.LogWarn(ctx, t.logger, "translate: throttle state update failed", map[string]any{"error": err.Error()})
	}
	if res.StatusCode != http.StatusOK {
		core.LogError(ctx, t.logger, "translate: completion call returned non-200", map[string]any{
			"status_code": res.StatusCode,
			"body":        truncateForLog(res.Body),
		})
		return FallbackMessage, nil
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(res.Body, &completion); err != nil {
		core.LogError(ctx, t.logger, "translate: decode completion response", map[string]any{"error": err.Error()})
		return FallbackMessage, nil
	}
	if completion.Error != nil {
		core.LogError(ctx, t.logger, "translate: completion error", map[string]any{"error": completion.Error.Message})
		return FallbackMessage, nil
	}
	if len(completion.Choices) == 0 {
		core.LogError(ctx, t.logger, "translate: completion returned no choices", nil)
		return FallbackMessage, nil
	}
	translated := strings.TrimSpace(completion.Choices[0].Message.Content)
	if translated == "" {
		core.LogError(ctx, t.logger, "translate: completion returned empty content", nil)
		return FallbackMessage, nil
	}
	return translated, nil
}

func truncateForLog(body []byte) string {
	const limit = 512
	if len(body) <= limit {
		return string(body)
	}
	return fmt.Sprintf("%s... (%d bytes)", body[:limit], len(body))
}

var _ core.Translator = (*OpenAITranslator)(nil)
