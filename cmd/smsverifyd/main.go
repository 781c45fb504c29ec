// Command smsverifyd runs the phone verification service.
//
// Configuration is environment-style (a .env file is honored when present):
//
//	HTTP_ADDR                 listen address (default ":8080")
//	REDIS_ADDR                Redis endpoint; empty starts an embedded
//	                          miniredis for local development
//	DATABASE_URL              optional Postgres DSN; switches the code store
//	                          off Redis (the rate limiter stays on Redis)
//	SMS_GATEWAY_URL           upstream SMS endpoint; empty captures messages
//	                          in process and logs a warning
//	SMS_GATEWAY_KEY           optional x-api-key for the upstream endpoint
//	SMS_SENDER_ID             sender identifier passed through unchanged
//	SMS_RATE_WINDOW_SECONDS   rate window (default 60)
//	SMS_RATE_MAX_PER_WINDOW   sends allowed per window (default 3)
//	SMS_CODE_EXPIRY_SECONDS   code lifetime (default 600)
package main

import (
	"database/sql"
	"log"
	"os"
	"strconv"
	"time"

	smsverify "github.com/MrEthical07/smsverify"
	"github.com/MrEthical07/smsverify/httpapi"

	"github.com/alicebob/miniredis/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()

	cfg := smsverify.DefaultConfig()
	cfg.RateLimit.Window = envDuration("SMS_RATE_WINDOW_SECONDS", cfg.RateLimit.Window)
	cfg.RateLimit.MaxPerWindow = envInt("SMS_RATE_MAX_PER_WINDOW", cfg.RateLimit.MaxPerWindow)
	cfg.Code.Expiry = envDuration("SMS_CODE_EXPIRY_SECONDS", cfg.Code.Expiry)
	cfg.Reaper.Enabled = true

	// ---------- backing store ----------
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			log.Fatal("embedded redis:", err)
		}
		defer mr.Close()
		redisAddr = mr.Addr()
		log.Printf("REDIS_ADDR not set; using embedded redis at %s (development only)", redisAddr)
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})

	builder := smsverify.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAuditSink(smsverify.NewJSONWriterSink(os.Stdout))

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			log.Fatal("postgres open:", err)
		}
		defer db.Close()
		builder.WithStore(smsverify.NewPostgresVerificationStore(db))
		log.Print("verification codes stored in postgres")
	}

	// ---------- gateway ----------
	if url := os.Getenv("SMS_GATEWAY_URL"); url != "" {
		builder.WithGateway(smsverify.NewHTTPGateway(smsverify.HTTPGatewayConfig{
			URL:      url,
			APIKey:   os.Getenv("SMS_GATEWAY_KEY"),
			SenderID: os.Getenv("SMS_SENDER_ID"),
		}))
	} else {
		log.Print("SMS_GATEWAY_URL not set; capturing messages in process (development only)")
		builder.WithGateway(smsverify.NewCaptureGateway())
	}

	engine, err := builder.Build()
	if err != nil {
		log.Fatal("engine build:", err)
	}
	defer engine.Close()

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	router := httpapi.NewHandler(engine).Router()
	log.Printf("listening on %s", addr)
	log.Fatal(router.Run(addr))
}

func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("ignoring %s=%q: positive integer required", key, raw)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("ignoring %s=%q: positive integer seconds required", key, raw)
		return def
	}
	return time.Duration(n) * time.Second
}
