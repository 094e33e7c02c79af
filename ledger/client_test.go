package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcHandler func(method string, params []any) (any, *rpcError)

func newRPCServer(t *testing.T, handle rpcHandler) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, rpcErr := handle(req.Method, req.Params)
		resp := rpcResponse{Error: rpcErr}
		if rpcErr == nil {
			raw, err := json.Marshal(result)
			require.NoError(t, err)
			resp.Result = raw
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestLatestBlock(t *testing.T) {
	server := newRPCServer(t, func(method string, params []any) (any, *rpcError) {
		require.Equal(t, "cert_blockNumber", method)
		return int64(1234), nil
	})
	defer server.Close()

	client := NewClient(server.URL, "0xcontract", "0xadmin")
	head, err := client.LatestBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1234), head)
}

func TestCallSurfacesRPCError(t *testing.T) {
	server := newRPCServer(t, func(method string, params []any) (any, *rpcError) {
		return nil, &rpcError{Code: -32000, Message: "execution reverted"}
	})
	defer server.Close()

	client := NewClient(server.URL, "0xcontract", "0xadmin")
	err := client.DirectBurn(context.Background(), 7, "cleanup")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execution reverted")
}

func TestQueryFilterPassesRange(t *testing.T) {
	server := newRPCServer(t, func(method string, params []any) (any, *rpcError) {
		require.Equal(t, "cert_getLogs", method)
		require.Len(t, params, 4)
		assert.Equal(t, "0xcontract", params[0])
		assert.Equal(t, EventCertificateIssued, params[1])
		return []RawEvent{{
			Name:        EventCertificateIssued,
			Args:        map[string]any{"certificateId": float64(1)},
			BlockNumber: 50,
			TxHash:      "0xhash",
		}}, nil
	})
	defer server.Close()

	client := NewClient(server.URL, "0xcontract", "0xadmin")
	events, err := client.QueryFilter(context.Background(), EventCertificateIssued, 1, 100)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(50), events[0].BlockNumber)
}

func TestIsPrivilegedFor(t *testing.T) {
	server := newRPCServer(t, func(method string, params []any) (any, *rpcError) {
		require.Equal(t, "cert_isPrivileged", method)
		return true, nil
	})
	defer server.Close()

	client := NewClient(server.URL, "0xcontract", "0xadmin")
	privileged, err := client.IsPrivilegedFor(context.Background(), 7, "0xadmin")
	require.NoError(t, err)
	assert.True(t, privileged)
}

func TestPollFansOutBlocksAndEvents(t *testing.T) {
	var mu sync.Mutex
	head := int64(100)
	logs := map[string][]RawEvent{}

	server := newRPCServer(t, func(method string, params []any) (any, *rpcError) {
		mu.Lock()
		defer mu.Unlock()
		switch method {
		case "cert_blockNumber":
			return head, nil
		case "cert_getLogs":
			name, _ := params[1].(string)
			return logs[name], nil
		}
		return nil, &rpcError{Code: -32601, Message: "method not found"}
	})
	defer server.Close()

	client := NewClient(server.URL, "0xcontract", "0xadmin")

	var gotBlocks []int64
	var gotEvents []RawEvent
	_, err := client.SubscribeBlocks(func(n int64) {
		mu.Lock()
		gotBlocks = append(gotBlocks, n)
		mu.Unlock()
	})
	require.NoError(t, err)
	sub, err := client.Subscribe(EventCertificateIssued, func(raw RawEvent) {
		mu.Lock()
		gotEvents = append(gotEvents, raw)
		mu.Unlock()
	})
	require.NoError(t, err)

	// First poll establishes the baseline at the current head.
	client.poll()

	mu.Lock()
	head = 102
	logs[EventCertificateIssued] = []RawEvent{{
		Name:        EventCertificateIssued,
		BlockNumber: 101,
		TxHash:      "0xhash",
	}}
	mu.Unlock()

	client.poll()

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, gotBlocks, int64(101))
	assert.Contains(t, gotBlocks, int64(102))
	require.NotEmpty(t, gotEvents)
	assert.Equal(t, "0xhash", gotEvents[0].TxHash)

	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	server := newRPCServer(t, func(method string, params []any) (any, *rpcError) {
		if method == "cert_blockNumber" {
			return int64(10), nil
		}
		return []RawEvent{{Name: EventCertificateIssued, BlockNumber: 10}}, nil
	})
	defer server.Close()

	client := NewClient(server.URL, "0xcontract", "0xadmin")
	delivered := 0
	sub, err := client.Subscribe(EventCertificateIssued, func(RawEvent) { delivered++ })
	require.NoError(t, err)
	sub.Unsubscribe()

	client.poll()
	assert.Zero(t, delivered)
}
