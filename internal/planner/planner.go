package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/engine"
)

// ErrDisabled — планировщик не сконфигурирован (нет API-ключа).
var ErrDisabled = errors.New("ai planner is not configured")

// SheetSchema — схема входного датасета для промпта: имя source-узла
// и его колонки.
type SheetSchema struct {
	Source  string   `json:"source"`
	Columns []string `json:"columns"`
}

// Planner строит workflow-граф из текстового описания задачи.
//
// Модель получает каталог видов узлов, схемы входных датасетов и
// интент пользователя, а возвращает JSON графа. Ответ парсится,
// проходит структурную валидацию и только после этого отдаётся
// наружу — невалидный граф от модели не покидает пакет.
type Planner struct {
	client *openai.Client
	model  string
}

// New создаёт Planner с готовым клиентом.
func New(client *openai.Client, model string) *Planner {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Planner{client: client, model: model}
}

// NewFromEnv создаёт Planner из переменных окружения:
// OPENAI_API_KEY (обязательна), OPENAI_BASE_URL, OPENAI_MODEL.
// Без ключа возвращает nil — API отвечает ErrDisabled.
func NewFromEnv() *Planner {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil
	}

	cfg := openai.DefaultConfig(key)
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		cfg.BaseURL = base
	}
	return New(openai.NewClientWithConfig(cfg), os.Getenv("OPENAI_MODEL"))
}

// Plan строит граф по интенту пользователя и схемам датасетов.
func (p *Planner) Plan(ctx context.Context, intent string, schemas []SheetSchema) (*domain.Graph, error) {
	if p == nil || p.client == nil {
		return nil, ErrDisabled
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: planSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPlanPrompt(intent, schemas)},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("model returned no choices")
	}

	raw, err := extractJSON(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	var graph domain.Graph
	if err := json.Unmarshal(raw, &graph); err != nil {
		return nil, fmt.Errorf("model returned invalid graph: %w", err)
	}
	if err := engine.ValidateStructure(&graph); err != nil {
		return nil, fmt.Errorf("model returned structurally invalid graph: %w", err)
	}
	return &graph, nil
}

// Explain описывает существующий граф человеческим языком.
func (p *Planner) Explain(ctx context.Context, graph *domain.Graph) (string, error) {
	if p == nil || p.client == nil {
		return "", ErrDisabled
	}

	encoded, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return "", err
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: explainSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(encoded)},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
