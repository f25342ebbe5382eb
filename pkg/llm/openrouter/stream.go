package openrouter

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/greenswap/greenswap/pkg/llm"
)

const (
	sseDataPrefix = "data: "
	sseDone       = "[DONE]"
)

// Stream requests a streaming completion and forwards provider chunks on the
// returned channel. The producer goroutine exits and closes the channel when
// the provider finishes, errors, or ctx is cancelled; the response body is
// closed in all cases.
func (c *Client) Stream(ctx context.Context, systemPrompt string, messages []llm.Message) (<-chan llm.StreamChunk, error) {
	wire := make([]message, 0, len(messages)+1)
	if systemPrompt != "" {
		wire = append(wire, message{Role: "system", Content: systemPrompt})
	}
	wire = append(wire, toWire(messages)...)

	reqBody := chatCompletionsRequest{
		Messages: wire,
		Stream:   true,
	}
	httpReq, err := c.newRequest(ctx, reqBody)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpDo.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("openrouter http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	out := make(chan llm.StreamChunk, 8)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if ctx.Err() != nil {
				return
			}
			line := scanner.Text()
			if !strings.HasPrefix(line, sseDataPrefix) {
				continue
			}
			data := strings.TrimPrefix(line, sseDataPrefix)
			if data == sseDone {
				return
			}

			var streamResp struct {
				Choices []struct {
					Delta struct {
						Content string `json:"content"`
					} `json:"delta"`
					FinishReason string `json:"finish_reason"`
				} `json:"choices"`
			}
			if err := json.Unmarshal([]byte(data), &streamResp); err != nil {
				// Skip malformed chunks; providers occasionally emit comments.
				continue
			}
			if len(streamResp.Choices) == 0 {
				continue
			}
			if text := streamResp.Choices[0].Delta.Content; text != "" {
				select {
				case out <- llm.StreamChunk{Text: text}:
				case <-ctx.Done():
					return
				}
			}
			if streamResp.Choices[0].FinishReason != "" {
				return
			}
		}
		if err := scanner.Err(); err != nil && !errors.Is(err, context.Canceled) {
			select {
			case out <- llm.StreamChunk{Err: fmt.Errorf("read stream: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}
