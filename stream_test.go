package ethlog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmagro/ethlog/internal/ethval"
)

// streamClient builds a Client over one mock endpoint whose head sits
// far beyond the streamed window and whose eth_getLogs always returns
// an empty array, with the endpoint's range boundary pinned to 10.
func streamClient(t *testing.T) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch req.Method {
		case "eth_blockNumber":
			fmt.Fprint(w, `{"id":0,"jsonrpc":"2.0","result":"0xf4240"}`) // 1,000,000
		case "eth_getLogs":
			fmt.Fprint(w, `{"id":0,"jsonrpc":"2.0","result":[]}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)

	ep := endpoint(t, srv.URL)
	ep.LogRangeBoundary = 10
	ep.Quota.BatchLimit = 1000

	client, err := NewClient([]ethval.EthEndpoint{ep}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestLogStream_Progression(t *testing.T) {
	client := streamClient(t)

	var handled []LogSegment
	handler := func(ctx context.Context, seg LogSegment, c *Client) error {
		handled = append(handled, seg)
		return nil
	}

	from, _ := ethval.NewUInt64(1000)
	stream := NewLogStream(client, handler,
		StreamFromBlock(from),
		StreamInterval(0),
	)

	// Three cycles: the first fills the pipeline, each later cycle
	// fetches one segment while handling the previous one.
	for i := 0; i < 3; i++ {
		stream.Step(context.Background())
	}

	if stream.CursorBlock() != 1030 {
		t.Errorf("cursor = %d, want 1030", stream.CursorBlock())
	}
	if len(handled) != 2 {
		t.Fatalf("handler invoked %d times, want 2", len(handled))
	}
	// Strict ascending order, each segment spanning its 10-block window.
	if handled[0].FromBlock.Value() != 1000 || handled[0].ToBlock.Value() != 1009 {
		t.Errorf("segment 0 = [%d, %d], want [1000, 1009]", handled[0].FromBlock.Value(), handled[0].ToBlock.Value())
	}
	if handled[1].FromBlock.Value() != 1010 || handled[1].ToBlock.Value() != 1019 {
		t.Errorf("segment 1 = [%d, %d], want [1010, 1019]", handled[1].FromBlock.Value(), handled[1].ToBlock.Value())
	}
}

func TestLogStream_FailedFetchKeepsCursor(t *testing.T) {
	// A server that always 500s: the cursor must not move and the
	// handler must never run.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient([]ethval.EthEndpoint{endpoint(t, srv.URL)}, nil)
	if err != nil {
		t.Fatal(err)
	}

	invoked := 0
	handler := func(ctx context.Context, seg LogSegment, c *Client) error {
		invoked++
		return nil
	}

	from, _ := ethval.NewUInt64(1000)
	stream := NewLogStream(client, handler, StreamFromBlock(from), StreamInterval(0))

	stream.Step(context.Background())
	stream.Step(context.Background())

	if stream.CursorBlock() != 1000 {
		t.Errorf("cursor = %d, want unchanged 1000", stream.CursorBlock())
	}
	if invoked != 0 {
		t.Errorf("handler invoked %d times, want 0", invoked)
	}
}

func TestLogStream_HandlerErrorDoesNotStall(t *testing.T) {
	client := streamClient(t)

	invoked := 0
	handler := func(ctx context.Context, seg LogSegment, c *Client) error {
		invoked++
		return fmt.Errorf("handler hiccup")
	}

	from, _ := ethval.NewUInt64(1000)
	stream := NewLogStream(client, handler, StreamFromBlock(from), StreamInterval(0))

	for i := 0; i < 3; i++ {
		stream.Step(context.Background())
	}

	// Errors are logged, the slot is freed, and the stream advances.
	if invoked != 2 {
		t.Errorf("handler invoked %d times, want 2", invoked)
	}
	if stream.CursorBlock() != 1030 {
		t.Errorf("cursor = %d, want 1030", stream.CursorBlock())
	}
}

func TestLogStream_RunStopsOnCancel(t *testing.T) {
	client := streamClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	handler := func(ctx context.Context, seg LogSegment, c *Client) error {
		cancel()
		return nil
	}

	from, _ := ethval.NewUInt64(1000)
	stream := NewLogStream(client, handler, StreamFromBlock(from), StreamInterval(0))

	if err := stream.Run(ctx); err != context.Canceled {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
}
