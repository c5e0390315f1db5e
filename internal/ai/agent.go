package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"hortifruti-pdv/internal/session"
)

const (
	defaultModel = "gemini-2.0-flash-001"
	// maxToolRounds bounds the call/response ping-pong of one question.
	maxToolRounds = 5
)

var ErrNoAnswer = errors.New("assistant returned no answer")

type Agent struct {
	apiKey string
	model  string
	tools  *Toolbox
	log    *zap.Logger
}

func NewAgent(apiKey string, tools *Toolbox, log *zap.Logger) *Agent {
	return &Agent{apiKey: apiKey, model: defaultModel, tools: tools, log: log}
}

func systemPrompt(today, userMessage string) string {
	return fmt.Sprintf(`SYSTEM: Today is %s. You are the assistant of a produce shop (hortifruti) point of sale.
Prices are in BRL; most products are sold by kg.

RULES:
1. UPDATE: If a user asks to update a product by NAME (e.g. "Update Banana price"), you must NOT ask them for the ID. Instead:
   - Call 'check_inventory' to find the ID.
   - Call 'update_product_price' using that ID.

2. READ: If a user asks for PRICE, COST, STOCK, or DETAILS of a product:
   - You MUST call 'check_inventory' to get the full list.
   - Then read the JSON to find the specific item and answer the user.

3. SALES: If the user asks for sales/revenue, use 'get_sales_report'.

4. FIADO: If the user asks who owes money or about late payments, use 'get_overdue_summary'.

USER: %s`, today, userMessage)
}

// Ask answers one question, running any tools the model asks for.
func (a *Agent) Ask(ctx context.Context, sess session.Session, message string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.Tools = Declarations()
	chat := model.StartChat()

	resp, err := chat.SendMessage(ctx, genai.Text(systemPrompt(time.Now().Format(time.DateOnly), message)))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return answer(resp)
		}

		replies := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			out, err := a.tools.Call(ctx, sess, call.Name, call.Args)
			if err != nil {
				a.log.Warn("assistant tool failed", zap.String("tool", call.Name), zap.Error(err))
				out = map[string]any{"status": "error", "message": err.Error()}
			}
			replies = append(replies, genai.FunctionResponse{Name: call.Name, Response: out})
		}
		if resp, err = chat.SendMessage(ctx, replies...); err != nil {
			return "", err
		}
	}
	return answer(resp)
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var calls []genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if call, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, call)
		}
	}
	return calls
}

func answer(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoAnswer
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt), nil
		}
	}
	return "I completed the action.", nil
}
