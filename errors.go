package smsverify

import "errors"

var (
	// ErrInvalidInput is an exported constant or variable used by the verification engine.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRateLimited is an exported constant or variable used by the verification engine.
	ErrRateLimited = errors.New("send rate limited")
	// ErrDispatchFailed is an exported constant or variable used by the verification engine.
	ErrDispatchFailed = errors.New("sms dispatch failed")
	// ErrStoreUnavailable is an exported constant or variable used by the verification engine.
	ErrStoreUnavailable = errors.New("verification store unavailable")
	// ErrCodeMismatch is an exported constant or variable used by the verification engine.
	ErrCodeMismatch = errors.New("verification code mismatch")
	// ErrCodeExpired is an exported constant or variable used by the verification engine.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrCodeNotFound is an exported constant or variable used by the verification engine.
	ErrCodeNotFound = errors.New("verification code not found")
	// ErrGatewayNotConfigured is an exported constant or variable used by the verification engine.
	ErrGatewayNotConfigured = errors.New("sms gateway not configured")
	// ErrEngineNotReady is an exported constant or variable used by the verification engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
