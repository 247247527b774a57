package rpcproto

import (
	"encoding/json"
	"testing"
)

func TestEncodeRequest(t *testing.T) {
	codec := JSONCodec{}

	body, err := codec.EncodeRequest("eth_getBlockByNumber", []interface{}{"0x1b4", false})
	if err != nil {
		t.Fatal(err)
	}

	var req map[string]any
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatal(err)
	}
	if req["id"] != float64(0) || req["jsonrpc"] != "2.0" || req["method"] != "eth_getBlockByNumber" {
		t.Errorf("envelope = %v", req)
	}
	params := req["params"].([]any)
	if params[0] != "0x1b4" || params[1] != false {
		t.Errorf("params = %v", params)
	}
}

func TestEncodeRequest_NilParams(t *testing.T) {
	codec := JSONCodec{}

	body, err := codec.EncodeRequest("eth_blockNumber", nil)
	if err != nil {
		t.Fatal(err)
	}
	// The wire body must carry "params": [], never null.
	var req struct {
		Params json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatal(err)
	}
	if string(req.Params) != "[]" {
		t.Errorf("params = %s, want []", req.Params)
	}
}

func TestDecodeResponse(t *testing.T) {
	codec := JSONCodec{}

	tests := []struct {
		name    string
		body    string
		wantErr bool
		check   func(t *testing.T, resp *Response)
	}{
		{
			name: "result",
			body: `{"id":0,"jsonrpc":"2.0","result":"0x1b4"}`,
			check: func(t *testing.T, resp *Response) {
				if string(resp.Result) != `"0x1b4"` || resp.Error != nil {
					t.Errorf("resp = %+v", resp)
				}
			},
		},
		{
			name: "error_object",
			body: `{"id":0,"jsonrpc":"2.0","error":{"code":-32601,"message":"method not found"}}`,
			check: func(t *testing.T, resp *Response) {
				if resp.Error == nil || resp.Error.Code != -32601 || resp.Error.Message != "method not found" {
					t.Errorf("error = %+v", resp.Error)
				}
			},
		},
		{
			name: "null_result",
			body: `{"id":0,"jsonrpc":"2.0","result":null}`,
			check: func(t *testing.T, resp *Response) {
				if resp.Error != nil {
					t.Errorf("error = %+v", resp.Error)
				}
			},
		},
		{name: "not_json", body: `<html></html>`, wantErr: true},
		{name: "json_but_not_jsonrpc", body: `{"hello":"world"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := codec.DecodeResponse([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.check != nil {
				tt.check(t, resp)
			}
		})
	}
}
