package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"portfolioSim/internal/finance"
	"portfolioSim/internal/pipeline"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const commentaryModel = "gpt-4"

const commentarySystemPrompt = `You are a portfolio analyst reviewing the output of a Monte Carlo allocation study. Random long/short weight vectors were scored by annualized Sharpe ratio on a training window, and the median of the best portfolios was then measured on a later, held-out window.

Your response must follow this exact structure:

**Allocation:**
[What the best and the median allocations are long or short, and how concentrated they are]

**In-sample vs out-of-sample:**
[Compare the figures and say whether the edge held up]

**Caveats:**
[Overfitting, short test windows, leverage from negative weights, annualization differences]

Guidelines:
- Use only the numbers given, never invent data
- Keep it under 200 words
- Text only, no tables or links`

type Commentator struct {
	cli oa.Client
}

func NewCommentator(apiKey string, opts ...option.RequestOption) *Commentator {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := oa.NewClient(opts...)
	return &Commentator{cli: client}
}

// Comment asks the model for a short narrative of a run
func (c *Commentator) Comment(ctx context.Context, res *pipeline.Result) (string, error) {
	resp, err := c.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: commentaryModel,
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(commentarySystemPrompt),
			oa.UserMessage(buildCommentaryPrompt(res)),
		},
		MaxTokens: oa.Int(600), // Limit response length for telegram
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildCommentaryPrompt(res *pipeline.Result) string {
	rk := res.Ranking
	oos := res.OutOfSample
	var b strings.Builder
	fmt.Fprintf(&b, "Assets: %s\n", strings.Join(res.Assets, ", "))
	fmt.Fprintf(&b, "Data frequency: %s, %d random portfolios, top %d kept\n",
		res.Params.Frequency, res.Simulation.Len(), len(rk.TopIndices))
	fmt.Fprintf(&b, "Training window: %s to %s (%d periods), annual risk-free %.2f%%\n",
		res.Train.Start.Format(time.DateOnly), res.Train.End.Format(time.DateOnly), res.Train.Periods, res.RiskFreeRate*100)
	fmt.Fprintf(&b, "Test window: %s to %s (%d periods)\n",
		res.Test.Start.Format(time.DateOnly), res.Test.End.Format(time.DateOnly), res.Test.Periods)
	fmt.Fprintf(&b, "Best portfolio: %s; Sharpe %.2f, annual return %.2f%%, annual volatility %.2f%%\n",
		finance.FormatAllocation(res.Assets, rk.BestWeights), rk.BestSharpe, rk.BestReturn*100, rk.BestVolatility*100)
	fmt.Fprintf(&b, "Best portfolio over full history: total return %.2f%%, max drawdown %.2f%%\n",
		res.BestCurve.Stats.TotalReturn*100, res.BestCurve.Stats.MaxDrawdown*100)
	fmt.Fprintf(&b, "Median of top portfolios: %s\n", finance.FormatAllocation(res.Assets, rk.MedianWeights))
	fmt.Fprintf(&b, "Median out-of-sample: Sharpe %.2f, annual return %.2f%%, annual volatility %.2f%%, max drawdown %.2f%%\n",
		oos.SharpeRatio, oos.AnnualReturn*100, oos.AnnualVolatility*100, oos.MaxDrawdown*100)
	if res.ScaleMismatch {
		fmt.Fprintf(&b, "Note: out-of-sample figures are annualized with factor %g although the data is %s.\n",
			res.Params.OOSScale, res.Params.Frequency)
	}
	return b.String()
}
