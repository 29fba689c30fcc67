package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
)

// chatParams resolves the model alias of req and layers request overrides
// over the alias defaults.
func chatParams(cfg *Config, req *ChatRequest) (openai.ChatCompletionNewParams, string, error) {
	var params openai.ChatCompletionNewParams
	if len(req.Messages) == 0 {
		return params, "", errors.New("llm: request requires at least one message")
	}
	format, err := responseFormatParam(req.ResponseFormat)
	if err != nil {
		return params, "", err
	}

	modelID, defaults := cfg.ResolveModel(req.Model)
	params.Model = openai.ChatModel(modelID)
	params.Messages = messageParams(req.Messages)
	if format != nil {
		params.ResponseFormat = *format
	}
	if t := firstSet(req.Temperature, defaults.Temperature); t != nil {
		params.Temperature = openai.Float(*t)
	}
	if n := firstSet(req.MaxTokens, defaults.MaxTokens); n != nil {
		params.MaxTokens = openai.Int(int64(*n))
	}
	if p := firstSet(req.TopP, defaults.TopP); p != nil {
		params.TopP = openai.Float(*p)
	}
	return params, modelID, nil
}

func firstSet[T any](vals ...*T) *T {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// messageParams maps roles onto SDK unions; unknown roles are sent as user.
func messageParams(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		var p openai.ChatCompletionMessageParamUnion
		switch normalizeRole(m.Role) {
		case RoleSystem:
			p = openai.SystemMessage(m.Content)
			if m.Name != "" {
				p.OfSystem.Name = openai.String(m.Name)
			}
		case RoleAssistant:
			p = openai.ChatCompletionMessageParamOfAssistant(m.Content)
		default:
			p = openai.UserMessage(m.Content)
			if m.Name != "" {
				p.OfUser.Name = openai.String(m.Name)
			}
		}
		out = append(out, p)
	}
	return out
}

func normalizeRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return RoleUser
	}
	return role
}

func summarizeMessages(msgs []Message) string {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteString(" | ")
		}
		fmt.Fprintf(&b, "[%d] role=%s chars=%d", i, normalizeRole(m.Role), len(m.Content))
	}
	return b.String()
}

// responseFormatParam returns nil for plain text.
func responseFormatParam(format *ResponseFormat) (*openai.ChatCompletionNewParamsResponseFormatUnion, error) {
	if format == nil {
		return nil, nil
	}
	switch strings.ToLower(strings.TrimSpace(format.Type)) {
	case "", "text":
		return nil, nil
	case "json_object":
		obj := shared.NewResponseFormatJSONObjectParam()
		return &openai.ChatCompletionNewParamsResponseFormatUnion{OfJSONObject: &obj}, nil
	case "json_schema":
		if len(format.Schema) == 0 {
			return nil, errors.New("llm: json_schema requires a schema")
		}
		schema := shared.ResponseFormatJSONSchemaJSONSchemaParam{
			Name:   format.Name,
			Schema: format.Schema,
		}
		if schema.Name == "" {
			schema.Name = "structured_output"
		}
		if format.Strict != nil {
			schema.Strict = openai.Bool(*format.Strict)
		}
		if desc := strings.TrimSpace(format.Description); desc != "" {
			schema.Description = openai.String(desc)
		}
		param := shared.ResponseFormatJSONSchemaParam{JSONSchema: schema}
		param.Type = param.Type.Default()
		return &openai.ChatCompletionNewParamsResponseFormatUnion{OfJSONSchema: &param}, nil
	default:
		return nil, fmt.Errorf("llm: unsupported response format %q", format.Type)
	}
}
