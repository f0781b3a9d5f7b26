package config

import (
	"fmt"
	"os"
	"strconv"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5433）

	RedisAddr     string // OTPストア用Redis（host:port）
	RedisPassword string

	AmqpURL      string // OTP配送用RabbitMQ。空ならログ配送のみ
	AmqpExchange string

	JWTSecret  string // JWT署名シークレット
	OTPHashKey string // OTPの鍵付きハッシュ用シークレット

	// ホスト型決済ゲートウェイ。未設定でも起動はできるが、
	// 決済開始時に fail fast する（コールバック時ではない）。
	PayUKey        string
	PayUSalt       string
	PayUBaseURL    string // フォームのPOST先
	PayUSuccessURL string // ゲートウェイが戻すsurl
	PayUFailureURL string // ゲートウェイが戻すfurl

	GoEnv string // dev/prod
	FEURL string // フロントURL（決済後のリダイレクト先で使う）

	//カート・注文の金額ルール
	FreeShippingThreshold int64
	FlatShippingFee       int64
	GiftWrapFee           int64 // ギフト包装の1個あたり価格（表示用）
	GiftEnabled           bool
	GiftWrapEnabled       bool

	//管理者に昇格させる電話番号（カンマ区切り・正規化済み）
	AdminPhones string
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := mustAtoi("POSTGRES_PORT")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: os.Getenv("PORT"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     pgPort,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		AmqpURL:      os.Getenv("AMQP_URL"),
		AmqpExchange: getenvDefault("AMQP_EXCHANGE", "notifications"),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		OTPHashKey: os.Getenv("OTP_HASH_KEY"),

		PayUKey:        os.Getenv("PAYU_KEY"),
		PayUSalt:       os.Getenv("PAYU_SALT"),
		PayUBaseURL:    os.Getenv("PAYU_BASE_URL"),
		PayUSuccessURL: os.Getenv("PAYU_SUCCESS_URL"),
		PayUFailureURL: os.Getenv("PAYU_FAILURE_URL"),

		GoEnv: os.Getenv("GO_ENV"),
		FEURL: os.Getenv("FE_URL"),

		FreeShippingThreshold: getenvInt64("FREE_SHIPPING_THRESHOLD", 1499),
		FlatShippingFee:       getenvInt64("FLAT_SHIPPING_FEE", 99),
		GiftWrapFee:           getenvInt64("GIFT_WRAP_FEE", 30),
		GiftEnabled:           getenvBool("GIFT_ENABLED", true),
		GiftWrapEnabled:       getenvBool("GIFT_WRAP_ENABLED", true),

		AdminPhones: os.Getenv("ADMIN_PHONES"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.PostgresUser == "" {
		return Config{}, fmt.Errorf("POSTGRES_USER is required")
	}
	if cfg.PostgresPassword == "" {
		return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if cfg.PostgresDB == "" {
		return Config{}, fmt.Errorf("POSTGRES_DB is required")
	}
	if cfg.PostgresHost == "" {
		return Config{}, fmt.Errorf("POSTGRES_HOST is required")
	}
	if cfg.RedisAddr == "" {
		return Config{}, fmt.Errorf("REDIS_ADDR is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.OTPHashKey == "" {
		return Config{}, fmt.Errorf("OTP_HASH_KEY is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}
	if cfg.FEURL == "" {
		return Config{}, fmt.Errorf("FE_URL is required")
	}

	return cfg, nil
}

// dev/test相当の環境か（OTPの固定コードやログ配送を許す）
func (c Config) IsDev() bool {
	return c.GoEnv != "prod"
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func getenvDefault(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return i
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
