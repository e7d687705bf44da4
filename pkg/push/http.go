package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/conghuan0502/planzaa-api/pkg/config"
)

// HTTPGateway talks to an Expo-compatible push endpoint. The endpoint accepts
// a batch of recipient tokens with one payload and answers with one ticket
// per token, in order.
type HTTPGateway struct {
	url       string
	apiKey    string
	batchSize int
	client    *http.Client
	logger    *zap.Logger
}

// NewHTTPGateway builds a gateway client from config.
func NewHTTPGateway(cfg config.PushConfig, logger *zap.Logger) *HTTPGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPGateway{
		url:       cfg.GatewayURL,
		apiKey:    cfg.APIKey,
		batchSize: batchSize,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

type pushRequest struct {
	To    []string          `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

type pushTicket struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Details struct {
		Error string `json:"error,omitempty"`
	} `json:"details"`
}

type pushResponse struct {
	Data []pushTicket `json:"data"`
}

// Send multicasts the message, chunking the address list to the configured
// batch size. Per-address failures are collected in the result; only a
// transport-level failure returns an error.
func (g *HTTPGateway) Send(ctx context.Context, addresses []string, msg Message) (*BatchResult, error) {
	result := &BatchResult{}
	for start := 0; start < len(addresses); start += g.batchSize {
		end := start + g.batchSize
		if end > len(addresses) {
			end = len(addresses)
		}
		chunk := addresses[start:end]
		if err := g.sendChunk(ctx, chunk, msg, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (g *HTTPGateway) sendChunk(ctx context.Context, chunk []string, msg Message, result *BatchResult) error {
	payload, err := json.Marshal(pushRequest{To: chunk, Title: msg.Title, Body: msg.Body, Data: msg.Data})
	if err != nil {
		return fmt.Errorf("marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("push gateway call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}

	var decoded pushResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode push response: %w", err)
	}

	for i, addr := range chunk {
		if i >= len(decoded.Data) {
			// Gateway answered with fewer tickets than tokens; count the
			// remainder as failed with an unknown cause.
			result.FailureCount++
			result.Results = append(result.Results, RecipientResult{Address: addr, ErrorCode: ErrCodeUnknown})
			continue
		}
		ticket := decoded.Data[i]
		if ticket.Status == "ok" {
			result.SuccessCount++
			result.Results = append(result.Results, RecipientResult{Address: addr, Success: true})
			continue
		}
		result.FailureCount++
		result.Results = append(result.Results, RecipientResult{Address: addr, ErrorCode: classifyTicketError(ticket.Details.Error)})
	}

	return nil
}

func classifyTicketError(code string) string {
	switch code {
	case "DeviceNotRegistered", "InvalidCredentials":
		return ErrCodeInvalidAddress
	case "MessageRateExceeded":
		return ErrCodeRateLimited
	default:
		return ErrCodeUnknown
	}
}
