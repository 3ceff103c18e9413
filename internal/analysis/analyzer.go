package analysis

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"nexus-terminal/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LLMClient abstracts the OpenAI chat completions API for testability.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// Analyzer produces strategy verdicts and portfolio reviews. Without an
// LLM client, or whenever the LLM fails, it degrades to a deterministic
// simulation derived from the coin's indicators. Callers always get an
// analysis back; there is no error path.
type Analyzer struct {
	tracer trace.Tracer
	llm    LLMClient
	model  string

	mu  sync.Mutex
	rng *rand.Rand
}

func NewAnalyzer(tracer trace.Tracer, llm LLMClient, model string) *Analyzer {
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	return &Analyzer{
		tracer: tracer,
		llm:    llm,
		model:  model,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// AnalyzeStrategy returns the multi-timeframe verdict for one coin.
func (a *Analyzer) AnalyzeStrategy(ctx context.Context, coin domain.CoinData) *StrategyAnalysis {
	ctx, span := a.tracer.Start(ctx, "analyzer.analyze-strategy")
	defer span.End()
	span.SetAttributes(attribute.String("coin.symbol", coin.Symbol))

	if a.llm == nil {
		return SimulateStrategy(coin)
	}

	prompt := BuildStrategyPrompt(coin, a.rsi4h(coin))
	reply, err := a.callLLM(ctx, prompt)
	if err != nil {
		log.Printf("strategy analysis LLM call failed, using simulation: %v", err)
		return SimulateStrategy(coin)
	}

	var result StrategyAnalysis
	if err := json.Unmarshal([]byte(extractJSON(reply)), &result); err != nil {
		log.Printf("strategy analysis parse failed, using simulation: %v", err)
		return SimulateStrategy(coin)
	}
	if result.Verdict != VerdictBuy && result.Verdict != VerdictSell && result.Verdict != VerdictWait {
		return SimulateStrategy(coin)
	}
	return &result
}

// AnalyzePortfolio returns a free-text audit of the holdings.
func (a *Analyzer) AnalyzePortfolio(ctx context.Context, positions []domain.PortfolioPosition) *PortfolioReview {
	ctx, span := a.tracer.Start(ctx, "analyzer.analyze-portfolio")
	defer span.End()
	span.SetAttributes(attribute.Int("portfolio.positions", len(positions)))

	if a.llm == nil {
		return SimulatePortfolioReview(positions)
	}

	reply, err := a.callLLM(ctx, BuildPortfolioPrompt(positions))
	if err != nil {
		log.Printf("portfolio analysis LLM call failed, using simulation: %v", err)
		return SimulatePortfolioReview(positions)
	}
	return &PortfolioReview{Review: strings.TrimSpace(reply)}
}

func (a *Analyzer) callLLM(ctx context.Context, prompt string) (string, error) {
	ctx, span := a.tracer.Start(ctx, "analyzer.llm-call")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", a.model))

	completion, err := a.llm.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: a.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(analystPersona),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", errNoChoices
	}

	reply := completion.Choices[0].Message.Content
	span.SetAttributes(attribute.Int("llm.reply_length", len(reply)))
	return reply, nil
}

// rsi4h simulates a 4h RSI reading skewed by the 24h direction, fed to
// the prompt as short-term context.
func (a *Analyzer) rsi4h(coin domain.CoinData) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if coin.Change24hPct > 0 {
		return 45 + a.rng.Float64()*30
	}
	return 35 + a.rng.Float64()*30
}

// extractJSON strips markdown fences some models wrap around JSON.
func extractJSON(reply string) string {
	reply = strings.TrimSpace(reply)
	if start := strings.Index(reply, "{"); start >= 0 {
		if end := strings.LastIndex(reply, "}"); end > start {
			return reply[start : end+1]
		}
	}
	return reply
}

// openaiClient wraps the official SDK's chat completions service.
type openaiClient struct {
	client openai.Client
}

func NewOpenAIClient(apiKey string) LLMClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openaiClient{client: client}
}

func (c *openaiClient) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
