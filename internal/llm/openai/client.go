package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/pergola-quoter/internal/common"
	"github.com/joseph-ayodele/pergola-quoter/internal/llm"
)

// Extract implements llm.Extractor using text-only chat/completions.
// The answer is validated strictly first; unless the client is strict, a failing answer is
// sanitized (legacy keys, formulas, nulls) and validated again.
func (c *Client) Extract(ctx context.Context, req llm.ExtractRequest) (llm.Extraction, []byte, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"products", len(req.Products),
	)

	schema := llm.BuildExtractionJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt(req)},
			{"role": "user", "content": llm.BuildUserPrompt(req) + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, httpErr := llm.PostJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if httpErr != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, fmt.Errorf("openai: %w", httpErr)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, raw, fmt.Errorf("no choices in openai response")
	}
	content := []byte(stripFence(cc.Choices[0].Message.Content))

	content, err := c.validate(rid, content)
	if err != nil {
		c.logger.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err, "content", string(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, content, err
	}

	out, err := llm.ToExtraction(content)
	if err != nil {
		c.logger.Error("llm.extract.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, content, err
	}

	switch x := out.(type) {
	case llm.Recognized:
		c.logger.Info("llm.extract.ok",
			"req_id", rid, "items", len(x.Items),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	case llm.Unrecognized:
		c.logger.Info("llm.extract.not_found",
			"req_id", rid, "message", x.Message,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
	return out, content, nil
}

func (c *Client) validate(rid string, content []byte) ([]byte, error) {
	strictErr := llm.ValidateExtraction(content)
	if strictErr == nil {
		return content, nil
	}
	if c.cfg.Strict {
		return content, fmt.Errorf("schema validation failed: %w", strictErr)
	}

	cleaned, changes, err := llm.NormalizeAndSanitizeJSON(content, c.logger)
	if err != nil {
		return content, fmt.Errorf("sanitize failed: %w (strict: %v)", err, strictErr)
	}
	if err := llm.ValidateExtraction(cleaned); err != nil {
		return cleaned, fmt.Errorf("schema validation failed: %w", err)
	}
	c.logger.Warn("llm.extract.lenient_sanitize_applied", "req_id", rid, "changes", changes)
	return cleaned, nil
}

// stripFence removes a ```json fence some models add despite json_object mode.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
