package smsverify

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by smsverify APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	gateway   SmsGateway
	store     VerificationStore
	codes     CodeGenerator
	auditSink AuditSink

	built bool
}

// New returns a [Builder] seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithGateway describes the withgateway operation and its observable behavior.
//
// WithGateway may return an error when input validation, dependency calls, or security checks fail.
// WithGateway does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithGateway(gw SmsGateway) *Builder {
	b.gateway = gw
	return b
}

// WithStore overrides the default Redis-backed [VerificationStore], e.g. with
// [NewPostgresVerificationStore] or an in-memory fake. The rate limiter stays
// on Redis either way.
func (b *Builder) WithStore(store VerificationStore) *Builder {
	b.store = store
	return b
}

// WithCodeGenerator describes the withcodegenerator operation and its observable behavior.
//
// WithCodeGenerator may return an error when input validation, dependency calls, or security checks fail.
// WithCodeGenerator does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithCodeGenerator(gen CodeGenerator) *Builder {
	b.codes = gen
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.gateway == nil {
		return nil, errors.New("sms gateway required")
	}

	engine := &Engine{
		config:  cfg,
		gateway: b.gateway,
	}

	engine.limiter = newSendRateLimiter(b.redis, cfg.Store.RedisPrefix, cfg.RateLimit)

	engine.store = b.store
	if engine.store == nil {
		engine.store = newRedisVerificationStore(b.redis, cfg.Store.RedisPrefix)
	}

	engine.codes = b.codes
	if engine.codes == nil {
		engine.codes = newRandomCodeGenerator(cfg.Code.Digits)
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	if cfg.Reaper.Enabled {
		reaper, ok := engine.store.(expiredReaper)
		if !ok {
			return nil, errors.New("Reaper enabled but store does not support proactive reaping")
		}
		engine.reaper = newCodeReaper(engine, reaper, cfg.Reaper.Interval)
	}

	b.built = true

	return engine, nil
}
