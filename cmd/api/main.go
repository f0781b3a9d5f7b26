package main

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	"app/internal/infra/notification"
	"app/internal/infra/otp"
	infraRepo "app/internal/infra/repository"
	"app/internal/server"
	"app/internal/usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func newJWTIssuer(cfg config.Config) *jwtIssuer {
	//アクセストークン
	return &jwtIssuer{
		secret:    []byte(cfg.JWTSecret),
		accessTTL: 15 * time.Minute,
	}
}

func (i *jwtIssuer) Issue(userID int64, role model.Role, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// ADMIN_PHONESに載っているidentifierだけ管理者に昇格させる。
type envAdminPolicy struct {
	privileged map[string]struct{}
}

func newEnvAdminPolicy(raw string) *envAdminPolicy {
	set := map[string]struct{}{}
	for _, s := range strings.Split(raw, ",") {
		id, _ := usecase.NormalizeIdentifier(s)
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return &envAdminPolicy{privileged: set}
}

func (p *envAdminPolicy) IsPrivileged(identifier string) bool {
	_, ok := p.privileged[identifier]
	return ok
}

// RabbitMQが無い環境向け。コードをログに出すだけ。
type logOtpNotifier struct{}

func (n *logOtpNotifier) SendOTP(_ context.Context, phone string, code string) error {
	log.Printf("otp (log delivery): phone=%s code=%s", phone, code)
	return nil
}

func main() {
	// .envは無くてもよい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusHistory{},
		&model.PaymentTx{},
		&model.Course{},
		&model.Lesson{},
		&model.CourseEnrollment{},
		&model.AuditLog{},
	); err != nil {
		log.Fatal(err)
	}

	//OTPストア（Redis）
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	otpStore := otp.NewRedisStore(redisClient)

	//OTP配送。AMQP_URLが無ければログ配送に落とす
	var notifier usecase.OtpNotifier = &logOtpNotifier{}
	if cfg.AmqpURL != "" {
		pub, err := notification.NewPublisher(cfg.AmqpURL, cfg.AmqpExchange)
		if err != nil {
			log.Fatal(err)
		}
		defer pub.Close()
		notifier = pub
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	courseRepo := infraRepo.NewCourseGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	issuer := newJWTIssuer(cfg)
	adminPolicy := newEnvAdminPolicy(cfg.AdminPhones)

	//Usecase生成
	otpUC := usecase.NewOtpUsecase(cfg, otpStore, userRepo, notifier, issuer, adminPolicy)
	productUC := usecase.NewProductUsecase(productRepo)
	cartUC := usecase.NewCartUsecase(cfg, cartRepo, cartRepo, productRepo)
	orderUC := usecase.NewOrderUsecase(txManager)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, auditRepo)
	paymentUC := usecase.NewPaymentUsecase(&cfg, txManager, userRepo, idGen)
	enrollmentUC := usecase.NewEnrollmentUsecase(txManager)
	courseUC := usecase.NewCourseUsecase(courseRepo)

	//Handler生成
	hs := server.Handlers{
		Otp:        handler.NewOtpHandler(otpUC),
		Product:    handler.NewProductHandler(productUC),
		Cart:       handler.NewCartHandler(cartUC),
		Order:      handler.NewOrderHandler(orderUC),
		AdminOrder: handler.NewAdminOrderHandler(adminOrderUC),
		Payment:    handler.NewPaymentHandler(paymentUC, cfg),
		Course:     handler.NewCourseHandler(courseUC, enrollmentUC),
	}

	//Server起動
	e := server.New(cfg, hs)
	if err := server.Start(e, cfg); err != nil {
		log.Fatal(err)
	}
}
