package httpapi

import (
	"errors"
	"net/http"
	"sync"

	smsverify "github.com/MrEthical07/smsverify"
	"github.com/MrEthical07/smsverify/metrics/export/prometheus"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SendRequest defines a public type used by smsverify APIs.
type SendRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required,e164"`
	Message     string `json:"message" binding:"required"`
}

// SendResponse defines a public type used by smsverify APIs.
type SendResponse struct {
	MessageID     string `json:"messageId"`
	CodePersisted bool   `json:"codePersisted"`
}

// VerifyRequest defines a public type used by smsverify APIs.
type VerifyRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required,e164"`
	Code        string `json:"code" binding:"required,otpcode"`
}

// VerifyResponse defines a public type used by smsverify APIs.
type VerifyResponse struct {
	Verified bool `json:"verified"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// actionRequest is the legacy single-endpoint shape: one POST body carrying
// an action discriminator, as the original gateway exposed it.
type actionRequest struct {
	Action      string `json:"action" binding:"required,oneof=send verify"`
	PhoneNumber string `json:"phoneNumber" binding:"required,e164"`
	Message     string `json:"message,omitempty"`
	Code        string `json:"code,omitempty" binding:"omitempty,otpcode"`
}

// Handler serves the verification boundary over HTTP.
type Handler struct {
	engine *smsverify.Engine
}

// NewHandler describes the newhandler operation and its observable behavior.
//
// NewHandler may return an error when input validation, dependency calls, or security checks fail.
// NewHandler does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewHandler(engine *smsverify.Engine) *Handler {
	return &Handler{engine: engine}
}

// Router builds a gin engine with the verification routes mounted:
//
//	POST /send     — issue and dispatch a code
//	POST /verify   — consume a submitted code
//	POST /         — action-dispatched compatibility endpoint
//	GET  /metrics  — Prometheus exposition
func (h *Handler) Router() *gin.Engine {
	RegisterValidations()

	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/send", h.Send)
	router.POST("/verify", h.Verify)
	router.POST("/", h.Action)

	exporter := prometheus.NewPrometheusExporter(h.engine)
	router.GET("/metrics", gin.WrapH(exporter.Handler()))

	return router
}

// Send describes the send operation and its observable behavior.
//
// Send may return an error when input validation, dependency calls, or security checks fail.
// Send does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (h *Handler) Send(c *gin.Context) {
	var input SendRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "phoneNumber and message required"})
		return
	}

	h.send(c, input.PhoneNumber, input.Message)
}

// Verify describes the verify operation and its observable behavior.
//
// Verify may return an error when input validation, dependency calls, or security checks fail.
// Verify does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (h *Handler) Verify(c *gin.Context) {
	var input VerifyRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "phoneNumber and code required"})
		return
	}

	h.verify(c, input.PhoneNumber, input.Code)
}

// Action dispatches on the request body's action field; kept for callers of
// the original single-endpoint gateway.
func (h *Handler) Action(c *gin.Context) {
	var input actionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: `unknown action; use "send" or "verify"`})
		return
	}

	switch input.Action {
	case "send":
		if input.Message == "" {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "phoneNumber and message required"})
			return
		}
		h.send(c, input.PhoneNumber, input.Message)
	case "verify":
		if input.Code == "" {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "phoneNumber and code required"})
			return
		}
		h.verify(c, input.PhoneNumber, input.Code)
	}
}

func (h *Handler) send(c *gin.Context, phone, message string) {
	ctx := smsverify.WithClientIP(c.Request.Context(), c.ClientIP())

	result, err := h.engine.Send(ctx, phone, message)
	if err != nil {
		switch {
		case errors.Is(err, smsverify.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, errorResponse{Error: "phoneNumber and message required"})
		case errors.Is(err, smsverify.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
		case errors.Is(err, smsverify.ErrDispatchFailed):
			c.JSON(http.StatusBadGateway, gin.H{
				"error":         "sms dispatch failed",
				"codePersisted": result.CodePersisted,
			})
		default:
			c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, SendResponse{
		MessageID:     result.MessageID,
		CodePersisted: result.CodePersisted,
	})
}

func (h *Handler) verify(c *gin.Context, phone, code string) {
	ctx := smsverify.WithClientIP(c.Request.Context(), c.ClientIP())

	if err := h.engine.Verify(ctx, phone, code); err != nil {
		switch {
		case errors.Is(err, smsverify.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, errorResponse{Error: "phoneNumber and code required"})
		case errors.Is(err, smsverify.ErrCodeMismatch):
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid code", Reason: "code_mismatch"})
		case errors.Is(err, smsverify.ErrCodeExpired):
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid code", Reason: "code_expired"})
		case errors.Is(err, smsverify.ErrCodeNotFound):
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid code", Reason: "code_not_found"})
		default:
			c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, VerifyResponse{Verified: true})
}

var registerOnce sync.Once

// RegisterValidations installs the custom "otpcode" binding validation: 6 to
// 10 ASCII digits. Safe to call more than once; gin's binding validator is
// process-global.
func RegisterValidations() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("otpcode", func(fl validator.FieldLevel) bool {
			code := fl.Field().String()
			if len(code) < 6 || len(code) > 10 {
				return false
			}
			for i := 0; i < len(code); i++ {
				if code[i] < '0' || code[i] > '9' {
					return false
				}
			}
			return true
		})
	})
}
