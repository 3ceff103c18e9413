package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"nexus-terminal/internal/domain"

	"github.com/openai/openai-go"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type stubLLMClient struct {
	reply string
	err   error
	calls int
}

func (s *stubLLMClient) CreateChatCompletion(_ context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.reply}},
		},
	}, nil
}

func bullishCoin() domain.CoinData {
	return domain.CoinData{
		ID: "bitcoin", Symbol: "btc", Name: "Bitcoin",
		Price: 96420.50, SMA8w: 92100, S2FRatio: 0.95, Change24hPct: 1.2,
	}
}

func TestSimulateStrategyBullish(t *testing.T) {
	t.Parallel()

	result := SimulateStrategy(bullishCoin())
	if result.Verdict != VerdictBuy {
		t.Fatalf("price above SMA must yield BUY, got %s", result.Verdict)
	}
	if result.ConfidenceScore != 88 {
		t.Fatalf("bullish confidence must be 88, got %d", result.ConfidenceScore)
	}
	if result.Timeframes.W1.Status != StatusBullish {
		t.Fatalf("S2F below 1.0 must mark the weekly bullish, got %s", result.Timeframes.W1.Status)
	}
	if !result.Simulated {
		t.Fatal("simulation must be flagged")
	}
	if len(result.Levels.Targets) != 2 || result.Levels.StopLoss == "" {
		t.Fatalf("levels incomplete: %+v", result.Levels)
	}
}

func TestSimulateStrategyBearish(t *testing.T) {
	t.Parallel()

	coin := bullishCoin()
	coin.SMA8w = coin.Price * 1.05
	coin.S2FRatio = 1.1

	result := SimulateStrategy(coin)
	if result.Verdict != VerdictWait {
		t.Fatalf("price below SMA must yield WAIT, got %s", result.Verdict)
	}
	if result.ConfidenceScore != 42 {
		t.Fatalf("bearish confidence must be 42, got %d", result.ConfidenceScore)
	}
	if result.Timeframes.W1.Status != StatusNeutral {
		t.Fatalf("S2F above 1.0 keeps the weekly neutral, got %s", result.Timeframes.W1.Status)
	}
}

func TestAnalyzeStrategyWithLLM(t *testing.T) {
	t.Parallel()

	llm := &stubLLMClient{reply: `{
		"verdict": "SELL",
		"confidence_score": 77,
		"timeframe_analysis": {
			"h4": {"status": "BEARISH", "signal": "distribution", "key_level": "$95000"},
			"d1": {"status": "BEARISH", "signal": "lower highs", "key_level": "$92100"},
			"w1": {"status": "NEUTRAL", "signal": "range", "key_level": "$88000"}
		},
		"levels": {"entry_zone": "$96000 - $96500", "targets": ["$90000"], "stop_loss": "$98500"},
		"executive_summary": "Distribution into strength.",
		"detailed_reasoning": "Liquidity above the highs has been absorbed.",
		"risk_factor": "Short squeeze."
	}`}
	a := NewAnalyzer(testTracer, llm, "test-model")

	result := a.AnalyzeStrategy(context.Background(), bullishCoin())
	if result.Verdict != VerdictSell || result.ConfidenceScore != 77 {
		t.Fatalf("LLM verdict not used: %+v", result)
	}
	if result.Simulated {
		t.Fatal("LLM result must not be flagged simulated")
	}
	if llm.calls != 1 {
		t.Fatalf("expected one LLM call, got %d", llm.calls)
	}
}

func TestAnalyzeStrategyFallsBackOnLLMError(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(testTracer, &stubLLMClient{err: errors.New("quota exceeded")}, "test-model")

	result := a.AnalyzeStrategy(context.Background(), bullishCoin())
	if !result.Simulated || result.Verdict != VerdictBuy {
		t.Fatalf("LLM failure must fall back to simulation: %+v", result)
	}
}

func TestAnalyzeStrategyFallsBackOnGarbageReply(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(testTracer, &stubLLMClient{reply: "the market is complicated"}, "test-model")

	result := a.AnalyzeStrategy(context.Background(), bullishCoin())
	if !result.Simulated {
		t.Fatal("unparseable reply must fall back to simulation")
	}
}

func TestAnalyzeStrategyWithoutLLM(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(testTracer, nil, "")
	result := a.AnalyzeStrategy(context.Background(), bullishCoin())
	if !result.Simulated {
		t.Fatal("nil client must run in simulation mode")
	}
}

func TestExtractJSONStripsFences(t *testing.T) {
	t.Parallel()

	wrapped := "```json\n{\"verdict\": \"WAIT\"}\n```"
	got := extractJSON(wrapped)
	if got != `{"verdict": "WAIT"}` {
		t.Fatalf("unexpected extraction: %q", got)
	}
}

func TestAnalyzePortfolio(t *testing.T) {
	t.Parallel()

	positions := []domain.PortfolioPosition{
		{Name: "Bitcoin", Symbol: "btc", ValueUSD: 5000, AllocationPct: 80, PnlPct: 12.5},
		{Name: "Ethereum", Symbol: "eth", ValueUSD: 1250, AllocationPct: 20, PnlPct: -4.2},
	}

	llm := &stubLLMClient{reply: "  Overweight BTC; trim into strength.  "}
	a := NewAnalyzer(testTracer, llm, "test-model")
	review := a.AnalyzePortfolio(context.Background(), positions)
	if review.Review != "Overweight BTC; trim into strength." {
		t.Fatalf("unexpected review: %q", review.Review)
	}
	if review.Simulated {
		t.Fatal("LLM review must not be flagged simulated")
	}

	offline := NewAnalyzer(testTracer, nil, "")
	sim := offline.AnalyzePortfolio(context.Background(), positions)
	if !sim.Simulated || sim.Review == "" {
		t.Fatalf("offline review must be simulated and non-empty: %+v", sim)
	}
}

func TestBuildStrategyPromptIncludesNumbers(t *testing.T) {
	t.Parallel()

	prompt := BuildStrategyPrompt(bullishCoin(), 62.3)
	for _, want := range []string{"96420.50", "92100.00", "0.95", "62.3", "BTC"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}
