package smsverify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPGatewaySend(t *testing.T) {
	var got httpGatewayRequest
	var gotKey string

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/send" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotKey = r.Header.Get("x-api-key")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode upstream request: %v", err)
		}
		json.NewEncoder(w).Encode(httpGatewayResponse{MessageID: "msg-1"})
	}))
	defer upstream.Close()

	gw := NewHTTPGateway(HTTPGatewayConfig{
		URL:      upstream.URL,
		APIKey:   "secret",
		SenderID: "ACME",
	})

	receipt, err := gw.Send(context.Background(), "+15551234567", "Your code is 123456")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if receipt.MessageID != "msg-1" {
		t.Fatalf("unexpected message ID %q", receipt.MessageID)
	}
	if got.PhoneNumber != "+15551234567" || got.Message != "Your code is 123456" || got.SenderID != "ACME" {
		t.Fatalf("unexpected upstream payload %+v", got)
	}
	if gotKey != "secret" {
		t.Fatalf("expected x-api-key header, got %q", gotKey)
	}
}

func TestHTTPGatewayUpstreamErrors(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non-200 status", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}},
		{"error in body", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(httpGatewayResponse{Error: "invalid destination"})
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			upstream := httptest.NewServer(tc.handler)
			defer upstream.Close()

			gw := NewHTTPGateway(HTTPGatewayConfig{URL: upstream.URL})
			if _, err := gw.Send(context.Background(), "+15551234567", "hi 123456"); !errors.Is(err, ErrDispatchFailed) {
				t.Fatalf("expected ErrDispatchFailed, got %v", err)
			}
		})
	}
}

func TestHTTPGatewayUnconfigured(t *testing.T) {
	gw := NewHTTPGateway(HTTPGatewayConfig{})
	if _, err := gw.Send(context.Background(), "+15551234567", "hi"); !errors.Is(err, ErrGatewayNotConfigured) {
		t.Fatalf("expected ErrGatewayNotConfigured, got %v", err)
	}
}
