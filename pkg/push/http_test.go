package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conghuan0502/planzaa-api/pkg/config"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) (*HTTPGateway, func()) {
	srv := httptest.NewServer(handler)
	gw := NewHTTPGateway(config.PushConfig{
		GatewayURL: srv.URL,
		Timeout:    2 * time.Second,
		BatchSize:  2,
	}, nil)
	return gw, srv.Close
}

func TestSendReportsPerAddressOutcomes(t *testing.T) {
	gw, cleanup := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		var req pushRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		tickets := make([]pushTicket, len(req.To))
		for i, to := range req.To {
			if to == "token-dead" {
				tickets[i] = pushTicket{Status: "error", Message: "not registered"}
				tickets[i].Details.Error = "DeviceNotRegistered"
				continue
			}
			tickets[i] = pushTicket{Status: "ok"}
		}
		_ = json.NewEncoder(w).Encode(pushResponse{Data: tickets})
	})
	defer cleanup()

	result, err := gw.Send(context.Background(), []string{"token-a", "token-dead", "token-b"}, Message{Title: "t", Body: "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	assert.Equal(t, []string{"token-dead"}, result.InvalidAddresses())
}

func TestSendChunksBatches(t *testing.T) {
	var calls int
	gw, cleanup := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req pushRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.LessOrEqual(t, len(req.To), 2)
		tickets := make([]pushTicket, len(req.To))
		for i := range tickets {
			tickets[i] = pushTicket{Status: "ok"}
		}
		_ = json.NewEncoder(w).Encode(pushResponse{Data: tickets})
	})
	defer cleanup()

	result, err := gw.Send(context.Background(), []string{"a", "b", "c", "d", "e"}, Message{Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 5, result.SuccessCount)
}

func TestSendTransportFailure(t *testing.T) {
	gw, cleanup := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer cleanup()

	_, err := gw.Send(context.Background(), []string{"a"}, Message{Title: "t"})
	require.Error(t, err)
}
