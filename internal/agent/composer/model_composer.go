package composer

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/invoice-ai-manager/server/internal/agent/model"
	logx "github.com/invoice-ai-manager/server/pkg/logger"
)

// Generator is the part of an eino chat model the drafter needs.
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error)
}

// ModelComposer asks a chat model to reword the template draft. The subject
// always comes from the template, and any model failure falls back to the
// template body.
type ModelComposer struct {
	fallback  *TemplateComposer
	generator Generator
	modelName string
	system    string
}

// NewModelComposer wraps fallback with an LLM drafter.
func NewModelComposer(fallback *TemplateComposer, gen Generator, modelName string) (*ModelComposer, error) {
	if fallback == nil || gen == nil {
		return nil, fmt.Errorf("model composer needs a fallback and a generator")
	}
	b, err := templates.ReadFile("template/draft_prompt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("load draft prompt: %w", err)
	}
	return &ModelComposer{fallback: fallback, generator: gen, modelName: modelName, system: string(b)}, nil
}

// Compose drafts the body with the model and reports its cost.
func (c *ModelComposer) Compose(ctx context.Context, inv model.Invoice, tone model.Tone) (Email, error) {
	draft, err := c.fallback.Compose(ctx, inv, tone)
	if err != nil {
		return Email{}, err
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(c.system),
		schema.MessagesPlaceholder("reference", false),
	)
	vars := c.fallback.vars(inv, tone)
	vars["reference"] = []*schema.Message{schema.UserMessage(draft.Body)}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return Email{}, fmt.Errorf("draft prompt render: %w", err)
	}

	out, err := c.generator.Generate(ctx, msgs)
	if err != nil {
		logx.Warn().Err(err).Str("invoice", inv.InvoiceNumber).Msg("draft model failed, using template")
		return draft, nil
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		logx.Warn().Str("invoice", inv.InvoiceNumber).Msg("draft model returned empty body, using template")
		return draft, nil
	}

	email := Email{Subject: draft.Subject, Body: strings.TrimSpace(out.Content)}
	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		_, _, email.CostUSD = model.ComputeCost(out.ResponseMeta.Usage, model.ResolvePricing(c.modelName))
		logx.Debug().
			Str("model", c.modelName).
			Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
			Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
			Float64("cost_usd", email.CostUSD).
			Msg("draft usage")
	}
	return email, nil
}

// NewGeminiGenerator builds the Gemini chat model used for drafting.
func NewGeminiGenerator(ctx context.Context, cfg model.DraftModelConfig) (*gemini.ChatModel, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating draft model")
		return nil, fmt.Errorf("error creating draft model: %w", err)
	}
	return chatModel, nil
}

// New picks the model drafter when cfg enables it, else the template composer.
func New(ctx context.Context, cfg model.DraftModelConfig) (Composer, error) {
	tc, err := NewTemplateComposer()
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		return tc, nil
	}
	gen, err := NewGeminiGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewModelComposer(tc, gen, cfg.Model)
}

var _ Composer = (*ModelComposer)(nil)
