// Package llm wraps the Anthropic API for plain-language schema
// descriptions and validation explanations.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ocsf-tools/ocsf-json-schema/internal/validate"
	"github.com/ocsf-tools/ocsf-json-schema/ocsfschema"
)

// Client wraps the Anthropic API for schema description.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// buildDescribePrompt constructs the system and user prompts for describing
// a generated JSON Schema document.
func buildDescribePrompt(kind, name string, doc *ocsfschema.Document) (system string, user string, err error) {
	system = `You explain OCSF (Open Cybersecurity Schema Framework) schemas to security engineers. Given a JSON Schema for an OCSF event class or object, write a concise plain-language summary in markdown:

- Open with one sentence saying what kind of events or entities this schema describes
- List the required fields with a short note on what each carries
- Mention notable optional fields, enums, and embedded objects, but do not enumerate every property
- Call out deprecated fields, if any, and what to use instead when the schema says so
- Keep the whole summary under 300 words

Rules:
- Return markdown only, no JSON and no code fencing around the whole answer
- Do not invent fields that are not in the schema
- Use the field names exactly as they appear in the schema`

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal schema document: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Describe this OCSF ")
	sb.WriteString(kind)
	sb.WriteString(" schema")
	if name != "" {
		sb.WriteString(" (")
		sb.WriteString(name)
		sb.WriteString(")")
	}
	sb.WriteString(":\n\n")
	sb.Write(raw)
	user = sb.String()
	return system, user, nil
}

// DescribeSchema sends a generated schema document to the LLM and returns a
// plain-language markdown summary. kind is "class" or "object".
func (c *Client) DescribeSchema(ctx context.Context, kind, name string, doc *ocsfschema.Document) (string, error) {
	systemPrompt, userPrompt, err := buildDescribePrompt(kind, name, doc)
	if err != nil {
		return "", err
	}
	return c.complete(ctx, systemPrompt, userPrompt, 1024)
}

// buildExplainPrompt constructs the system and user prompts for explaining
// validation violations against a class schema.
func buildExplainPrompt(className string, result *validate.Result, event []byte) (system string, user string, err error) {
	system = `You help security engineers fix OCSF events that failed JSON Schema validation. Given the event, the class it was validated against, and the list of violations, explain in markdown:

- For each violation, what is wrong in the event and the concrete change that fixes it
- Group related violations together instead of repeating yourself
- Keep the whole answer under 250 words

Rules:
- Return markdown only, no code fencing around the whole answer
- Refer to event fields by their JSON pointer location from the violation list
- Do not speculate about fields that have no violation`

	raw, err := json.Marshal(result)
	if err != nil {
		return "", "", fmt.Errorf("marshal validation result: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Class: ")
	sb.WriteString(className)
	sb.WriteString("\n\nEvent:\n")
	sb.Write(event)
	sb.WriteString("\n\nViolations:\n")
	sb.Write(raw)
	user = sb.String()
	return system, user, nil
}

// ExplainViolations sends a failed validation result to the LLM and returns
// a markdown explanation of how to fix the event.
func (c *Client) ExplainViolations(ctx context.Context, className string, result *validate.Result, event []byte) (string, error) {
	if result.Valid {
		return "", fmt.Errorf("event is valid, nothing to explain")
	}
	systemPrompt, userPrompt, err := buildExplainPrompt(className, result, event)
	if err != nil {
		return "", err
	}
	return c.complete(ctx, systemPrompt, userPrompt, 1024)
}

// complete runs one request/response round trip and returns the text content.
func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int64) (string, error) {
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	if text == "" {
		return "", fmt.Errorf("no text content in API response")
	}

	return stripFencing(text), nil
}

// stripFencing removes a markdown code fence wrapping the whole response,
// which some models add despite instructions.
func stripFencing(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.SplitN(text, "\n", 2)
	if len(lines) > 1 {
		text = lines[1]
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
