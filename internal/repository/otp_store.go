package repository

import (
	"context"
	"time"
)

// 発行中のOTPの状態。identifier+channelごとに常に最大1件。
// 生のコードは持たず、鍵付きハッシュだけを保存する。
type OtpRecord struct {
	SecretHash string    `json:"secret_hash"`
	ExpiresAt  time.Time `json:"expires_at"`
	Attempts   int       `json:"attempts"`
	Consumed   bool      `json:"consumed"`
}

// TTL付きのキー・バリュー保存。再送は同じキーを上書きする。
type OtpStore interface {
	Put(ctx context.Context, key string, rec OtpRecord, ttl time.Duration) error

	//無ければ ErrNotFound。
	Get(ctx context.Context, key string) (OtpRecord, error)

	//TTLは維持したまま中身だけ差し替える（試行回数の加算など）。
	Update(ctx context.Context, key string, rec OtpRecord) error

	Delete(ctx context.Context, key string) error
}
