// Package qa talks to the remote question-answering service: one
// endpoint for asking questions, one for storing survey answers.
package qa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/haneul-dev/bertbot/internal/config"
	"github.com/haneul-dev/bertbot/internal/domain"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: config.RequestTimeout},
	}
}

type askRequest struct {
	Question string `json:"question"`
}

// askResponse accepts both field spellings the service has used for
// the answer text. Normalization happens here; callers only ever see
// domain.Answer.
type askResponse struct {
	BestAnswer  string   `json:"best_answer"`
	Response    string   `json:"response"`
	Confidence  *float64 `json:"confidence"`
	Suggestions []string `json:"suggestions"`
}

// Ask sends the raw user text to the QA service and returns the
// normalized answer. Transport failures, non-2xx statuses and
// undecodable bodies all collapse into domain.ErrRemoteUnavailable;
// callers translate that into a synthetic bot message, never a fault.
func (c *Client) Ask(ctx context.Context, text string) (*domain.Answer, error) {
	payload, err := json.Marshal(askRequest{Question: text})
	if err != nil {
		return nil, fmt.Errorf("marshal ask request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create ask request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: ask returned status %d", domain.ErrRemoteUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read ask response: %v", domain.ErrRemoteUnavailable, err)
	}

	var ar askResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return nil, fmt.Errorf("%w: parse ask response: %v", domain.ErrRemoteUnavailable, err)
	}

	answerText := ar.BestAnswer
	if answerText == "" {
		answerText = ar.Response
	}
	if answerText == "" {
		return nil, fmt.Errorf("%w: ask response carries no answer", domain.ErrRemoteUnavailable)
	}

	return &domain.Answer{
		Text:        answerText,
		Confidence:  ar.Confidence,
		Suggestions: ar.Suggestions,
	}, nil
}

// SubmitSurvey posts the full answer map to the survey endpoint.
// Fire-and-forget apart from the success/failure signal; no retry.
func (c *Client) SubmitSurvey(ctx context.Context, answers domain.AnswerMap) error {
	payload, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("marshal survey answers: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/survey", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create survey request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: survey returned status %d", domain.ErrRemoteUnavailable, resp.StatusCode)
	}
	return nil
}
