package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrEthical07/smsverify"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func newTestRouter(t *testing.T) (*gin.Engine, *smsverify.CaptureGateway, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	gw := smsverify.NewCaptureGateway()

	engine, err := smsverify.New().
		WithRedis(rdb).
		WithGateway(gw).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return NewHandler(engine).Router(), gw, mr
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sentCode(t *testing.T, gw *smsverify.CaptureGateway) string {
	t.Helper()

	msgs := gw.Messages()
	if len(msgs) == 0 {
		t.Fatal("expected a captured message")
	}
	body := msgs[len(msgs)-1].Message
	return body[strings.LastIndexByte(body, ' ')+1:]
}

func TestSendEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := postJSON(t, router, "/send", SendRequest{
		PhoneNumber: "+15551234567",
		Message:     "Your code is {code}",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp SendResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.MessageID == "" {
		t.Fatal("expected a messageId in the response")
	}
	if !resp.CodePersisted {
		t.Fatal("expected codePersisted true")
	}
}

func TestSendEndpointValidation(t *testing.T) {
	router, _, _ := newTestRouter(t)

	cases := []struct {
		name string
		body any
	}{
		{"missing phone", SendRequest{Message: "hi {code}"}},
		{"missing message", SendRequest{PhoneNumber: "+15551234567"}},
		{"malformed phone", SendRequest{PhoneNumber: "not-a-phone", Message: "hi {code}"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := postJSON(t, router, "/send", tc.body); w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
		})
	}

	// Non-JSON body.
	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader("not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestSendEndpointRateLimit(t *testing.T) {
	router, _, _ := newTestRouter(t)

	body := SendRequest{PhoneNumber: "+15551234567", Message: "Code: {code}"}
	for i := 0; i < 3; i++ {
		if w := postJSON(t, router, "/send", body); w.Code != http.StatusOK {
			t.Fatalf("send %d: expected 200, got %d", i+1, w.Code)
		}
	}

	w := postJSON(t, router, "/send", body)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on fourth send, got %d", w.Code)
	}
}

func TestVerifyEndpointRoundTrip(t *testing.T) {
	router, gw, _ := newTestRouter(t)

	if w := postJSON(t, router, "/send", SendRequest{
		PhoneNumber: "+15551234567",
		Message:     "Your code is {code}",
	}); w.Code != http.StatusOK {
		t.Fatalf("send failed: %d", w.Code)
	}
	code := sentCode(t, gw)

	w := postJSON(t, router, "/verify", VerifyRequest{
		PhoneNumber: "+15551234567",
		Code:        code,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp VerifyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Verified {
		t.Fatal("expected verified true")
	}

	// Replay of a consumed code.
	w = postJSON(t, router, "/verify", VerifyRequest{
		PhoneNumber: "+15551234567",
		Code:        code,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on replay, got %d", w.Code)
	}
	var failed errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &failed); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if failed.Reason != "code_not_found" {
		t.Fatalf("expected reason code_not_found, got %q", failed.Reason)
	}
}

func TestVerifyEndpointMismatchReason(t *testing.T) {
	router, gw, _ := newTestRouter(t)

	if w := postJSON(t, router, "/send", SendRequest{
		PhoneNumber: "+15551234567",
		Message:     "Your code is {code}",
	}); w.Code != http.StatusOK {
		t.Fatalf("send failed: %d", w.Code)
	}

	wrong := "000000"
	if wrong == sentCode(t, gw) {
		wrong = "000001"
	}

	w := postJSON(t, router, "/verify", VerifyRequest{
		PhoneNumber: "+15551234567",
		Code:        wrong,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var failed errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &failed); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if failed.Reason != "code_mismatch" {
		t.Fatalf("expected reason code_mismatch, got %q", failed.Reason)
	}
}

func TestActionEndpointDispatch(t *testing.T) {
	router, gw, _ := newTestRouter(t)

	w := postJSON(t, router, "/", map[string]string{
		"action":      "send",
		"phoneNumber": "+15551234567",
		"message":     "Your code is {code}",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("action send: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	code := sentCode(t, gw)
	w = postJSON(t, router, "/", map[string]string{
		"action":      "verify",
		"phoneNumber": "+15551234567",
		"code":        code,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("action verify: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = postJSON(t, router, "/", map[string]string{
		"action":      "reset",
		"phoneNumber": "+15551234567",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown action: expected 400, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t)

	postJSON(t, router, "/send", SendRequest{
		PhoneNumber: "+15551234567",
		Message:     "Code: {code}",
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "smsverify_send_success_total") {
		t.Fatalf("expected counter exposition, got:\n%s", w.Body.String())
	}
}
