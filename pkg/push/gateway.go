package push

import "context"

// Error codes reported per recipient by the gateway.
const (
	ErrCodeInvalidAddress = "INVALID_ADDRESS"
	ErrCodeRateLimited    = "RATE_LIMITED"
	ErrCodeUnknown        = "UNKNOWN"
)

// Message is one logical notification multicast to a batch of recipients.
type Message struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// RecipientResult is the per-address outcome of a multicast send.
type RecipientResult struct {
	Address   string `json:"address"`
	Success   bool   `json:"success"`
	ErrorCode string `json:"error_code,omitempty"`
}

// BatchResult aggregates the outcome of one multicast send. Partial failure
// is reported here, never as an error for the whole batch.
type BatchResult struct {
	SuccessCount int
	FailureCount int
	Results      []RecipientResult
}

// InvalidAddresses returns the addresses the gateway reported as permanently
// invalid, for cleanup logging.
func (r *BatchResult) InvalidAddresses() []string {
	var invalid []string
	for _, res := range r.Results {
		if !res.Success && res.ErrorCode == ErrCodeInvalidAddress {
			invalid = append(invalid, res.Address)
		}
	}
	return invalid
}

// Gateway delivers a notification to a batch of device addresses. A non-nil
// error means the batch as a whole could not be attempted (transport
// failure); per-recipient failures live in BatchResult.
type Gateway interface {
	Send(ctx context.Context, addresses []string, msg Message) (*BatchResult, error)
}
