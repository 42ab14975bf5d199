package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Oliverpt-1/Thymos/internal/analytics"
	"github.com/Oliverpt-1/Thymos/internal/models"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com"
	defaultOpenAIModel   = "gpt-4o-mini"

	// minSentenceLength filters fragments when falling back to sentence
	// splitting of an unparseable completion
	minSentenceLength = 20

	// maxDegradedInsights caps how many insights are manufactured from raw text
	maxDegradedInsights = 3
)

const systemPrompt = "You are an expert trading coach. Provide specific, actionable insights in a conversational tone. " +
	"Always respond with valid JSON only, no additional text."

// OpenAIConfig holds remote text-generation settings
type OpenAIConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	TimeoutSeconds    int
	RequestsPerMinute int
}

// OpenAIGenerator requests insights from the OpenAI chat completions API.
// A single attempt per call: retry-on-failure is the caller's concern and is
// answered by falling back to the rule-based generator, not by re-requesting.
type OpenAIGenerator struct {
	client  *http.Client
	limiter *rate.Limiter
	apiKey  string
	baseURL string
	model   string
	logger  *logrus.Logger
}

// NewOpenAIGenerator creates a remote generator from configuration
func NewOpenAIGenerator(cfg OpenAIConfig, logger *logrus.Logger) *OpenAIGenerator {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	return &OpenAIGenerator{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		logger:  logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// rawInsight is the loosely-typed shape expected back from the model
type rawInsight struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Severity string `json:"severity"`
}

// Generate requests a structured insight batch from the remote service
func (g *OpenAIGenerator) Generate(ctx context.Context, data *analytics.TradingData) ([]models.Insight, error) {
	if g.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqBody := chatCompletionRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(data)},
		},
		Temperature: 0.7,
		MaxTokens:   1200,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("completion request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyCompletion
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	batch := parseCompletion(content)

	g.logger.WithFields(logrus.Fields{
		"model":    g.model,
		"insights": len(batch),
		"duration": time.Since(start),
	}).Debug("Remote insight generation completed")

	return batch, nil
}

// parseCompletion normalizes the model output into insight objects. Missing
// fields are defaulted; completions that are not valid JSON degrade to
// sentence-split recommendations rather than failing the call.
func parseCompletion(content string) []models.Insight {
	var raw []rawInsight
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		var single rawInsight
		if err := json.Unmarshal([]byte(content), &single); err != nil {
			return insightsFromText(content)
		}
		raw = []rawInsight{single}
	}

	batch := make([]models.Insight, 0, len(raw))
	for i, r := range raw {
		insight := models.Insight{
			Type:     models.InsightType(r.Type),
			Title:    r.Title,
			Content:  r.Content,
			Severity: models.Severity(r.Severity),
		}
		if !models.ValidType(insight.Type) {
			insight.Type = models.InsightTypeRecommendation
		}
		if insight.Title == "" {
			insight.Title = fmt.Sprintf("Trading Insight #%d", i+1)
		}
		if insight.Content == "" {
			insight.Content = "No content available"
		}
		if !models.ValidSeverity(insight.Severity) {
			insight.Severity = models.SeverityInfo
		}
		batch = append(batch, insight)
	}
	return batch
}

// insightsFromText manufactures up to three insights from free-form prose by
// keeping sentences long enough to carry meaning
func insightsFromText(content string) []models.Insight {
	sentences := strings.FieldsFunc(content, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	var batch []models.Insight
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) <= minSentenceLength {
			continue
		}
		batch = append(batch, models.Insight{
			Type:     models.InsightTypeRecommendation,
			Title:    fmt.Sprintf("AI Trading Insight #%d", len(batch)+1),
			Content:  sentence + ".",
			Severity: models.SeverityInfo,
		})
		if len(batch) == maxDegradedInsights {
			break
		}
	}
	return batch
}

// buildPrompt renders the aggregate statistics into the coaching prompt.
// Category lines are emitted in sorted key order so identical statistics
// produce an identical prompt.
func buildPrompt(data *analytics.TradingData) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert trading coach analyzing a trader's performance. "+
		"Based on the data below, provide 3-5 specific, actionable insights in a conversational, encouraging tone.\n\n")

	fmt.Fprintf(&b, "Trading Performance Summary:\n")
	fmt.Fprintf(&b, "- Total Trades: %d (%d closed)\n", data.TotalTrades, data.ClosedTrades)
	fmt.Fprintf(&b, "- Win Rate: %s%%\n", fmtNum(data.WinRate))
	fmt.Fprintf(&b, "- Total P/L: $%s\n", fmtNum(data.TotalPL))
	fmt.Fprintf(&b, "- Average Position Size: %s shares\n", fmtNum(data.AvgTradeSize))

	fmt.Fprintf(&b, "\nSetup Performance:\n")
	writeCategoryLines(&b, data.SetupStats)

	fmt.Fprintf(&b, "\nEmotional State Performance:\n")
	writeCategoryLines(&b, data.EmotionStats)

	fmt.Fprintf(&b, "\nConfidence Level Performance:\n")
	levels := make([]int, 0, len(data.ConfidenceStats))
	for level := range data.ConfidenceStats {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	for _, level := range levels {
		s := data.ConfidenceStats[level]
		fmt.Fprintf(&b, "- Level %d: %d trades, %s%% win rate, $%s P/L\n",
			level, s.Count, fmtNum(s.WinRate), fmtNum(s.TotalPL))
	}

	fmt.Fprintf(&b, `
Write insights that:
1. Highlight their strongest performing setups/emotions with specific numbers
2. Identify areas for improvement with actionable advice
3. Analyze confidence calibration
4. Provide specific recommendations based on their data
5. Use an encouraging, coach-like tone

Format each insight as a clear paragraph with a strong opening statement followed by supporting data and actionable advice. Make it feel personal and specific to their trading data.

Respond with ONLY a JSON array in this exact format:
[
  {
    "type": "performance|pattern|risk|recommendation",
    "title": "Clear, engaging title (max 60 chars)",
    "content": "Detailed insight with specific data and actionable advice (2-3 sentences)",
    "severity": "info|warning|success"
  }
]`)

	return b.String()
}

func writeCategoryLines(b *strings.Builder, stats map[string]analytics.CategoryStats) {
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		s := stats[key]
		fmt.Fprintf(b, "- %s: %d trades, %s%% win rate, $%s P/L\n",
			key, s.Count, fmtNum(s.WinRate), fmtNum(s.TotalPL))
	}
}
