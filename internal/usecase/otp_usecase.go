package usecase

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"math/big"
	"net/http"
	"strings"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	repo "app/internal/repository"
)

const (
	otpTTL         = 5 * time.Minute
	otpMaxAttempts = 5
	otpCodeLength  = 6

	//devでは固定コードでE2Eを回せるようにする
	devTestIdentifier = "9999999999"
	devTestCode       = "123456"
)

// OTPをSMSワーカーに渡す（RabbitMQ実装はinfra/notification）。
type OtpNotifier interface {
	SendOTP(ctx context.Context, phone string, code string) error
}

// 検証成功後のアクセストークン発行（JWT実装はmain）。
type TokenIssuer interface {
	Issue(userID int64, role model.Role, now time.Time) (string, time.Time, error)
}

// 管理者に昇格させるidentifierかどうかの判定。
// ハードコードのリストではなく注入にして、テストと運用設定を差し替え可能にする。
type AdminPolicy interface {
	IsPrivileged(identifier string) bool
}

type OtpUsecase struct {
	cfg      config.Config
	store    repo.OtpStore
	users    repo.UserRepository
	notifier OtpNotifier
	issuer   TokenIssuer
	policy   AdminPolicy
}

func NewOtpUsecase(
	cfg config.Config,
	store repo.OtpStore,
	users repo.UserRepository,
	notifier OtpNotifier,
	issuer TokenIssuer,
	policy AdminPolicy,
) *OtpUsecase {
	return &OtpUsecase{
		cfg:      cfg,
		store:    store,
		users:    users,
		notifier: notifier,
		issuer:   issuer,
		policy:   policy,
	}
}

type UserDTO struct {
	ID    int64  `json:"id"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type AccessTokenDTO struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type RedeemResult struct {
	User  UserDTO        `json:"user"`
	Token AccessTokenDTO `json:"token"`
}

// identifierの正規化。
// email: trim + 小文字 / phone: 数字のみにして下10桁。
// 戻り値2つ目はチャネル（"email" / "sms"）。
func NormalizeIdentifier(raw string) (string, string) {
	s := strings.TrimSpace(raw)
	if strings.Contains(s, "@") {
		return strings.ToLower(s), "email"
	}

	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return digits, "sms"
}

// OTPの発行。identifier+channelにつき1件で、再送は上書き。
// 存在しないidentifierでも成功を返すのはhandler側の契約（列挙対策）。
func (u *OtpUsecase) Issue(ctx context.Context, rawIdentifier string) error {
	identifier, channel := NormalizeIdentifier(rawIdentifier)
	if identifier == "" {
		return NewHTTPError(http.StatusBadRequest, "identifier required")
	}
	if channel == "sms" && len(identifier) != 10 {
		return NewHTTPError(http.StatusBadRequest, "invalid phone")
	}

	code, err := u.generateCode(identifier)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	rec := repo.OtpRecord{
		SecretHash: u.hashSecret(identifier, code),
		ExpiresAt:  time.Now().Add(otpTTL),
		Attempts:   0,
		Consumed:   false,
	}

	//送信前に保存する。保存できなければ発行自体を失敗にする。
	key := channel + ":" + identifier
	if err := u.store.Put(ctx, key, rec, otpTTL); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	//devの固定コードは配送しない
	if u.cfg.IsDev() && identifier == devTestIdentifier {
		return nil
	}

	if err := u.notifier.SendOTP(ctx, identifier, code); err != nil {
		//devではログのみ。本番は発行ごと失敗。
		if u.cfg.IsDev() {
			log.Printf("otp delivery failed (dev, ignored): identifier=%s err=%v", identifier, err)
			return nil
		}
		return NewHTTPError(http.StatusInternalServerError, "failed to deliver otp")
	}

	return nil
}

// OTPの検証。成功で単回使用のため削除し、ユーザーをupsertしてトークンを返す。
func (u *OtpUsecase) Redeem(ctx context.Context, rawIdentifier string, candidate string) (RedeemResult, error) {
	identifier, channel := NormalizeIdentifier(rawIdentifier)
	if identifier == "" || strings.TrimSpace(candidate) == "" {
		return RedeemResult{}, NewHTTPError(http.StatusBadRequest, "identifier and otp required")
	}

	key := channel + ":" + identifier

	rec, err := u.store.Get(ctx, key)
	if err == repo.ErrNotFound {
		return RedeemResult{}, NewHTTPError(http.StatusNotFound, "otp not found")
	}
	if err != nil {
		return RedeemResult{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if rec.Consumed {
		return RedeemResult{}, NewHTTPError(http.StatusConflict, "otp already used")
	}

	//TTL切れはRedisが消すが、境界のずれに備えて自前でも確認する
	if time.Now().After(rec.ExpiresAt) {
		_ = u.store.Delete(ctx, key)
		return RedeemResult{}, NewHTTPError(http.StatusBadRequest, "otp expired")
	}

	rec.Attempts++
	if rec.Attempts > otpMaxAttempts {
		_ = u.store.Delete(ctx, key)
		return RedeemResult{}, NewHTTPError(http.StatusTooManyRequests, "too many attempts")
	}

	want := rec.SecretHash
	got := u.hashSecret(identifier, strings.TrimSpace(candidate))
	if !hmac.Equal([]byte(want), []byte(got)) {
		//外れた試行回数は保存してから返す
		if err := u.store.Update(ctx, key, rec); err != nil {
			return RedeemResult{}, NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		return RedeemResult{}, NewHTTPError(http.StatusBadRequest, "invalid otp")
	}

	//単回使用。消してから先へ進む。
	if err := u.store.Delete(ctx, key); err != nil {
		return RedeemResult{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user, err := u.upsertUser(ctx, channel, identifier)
	if err != nil {
		return RedeemResult{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	now := time.Now()
	token, expiresAt, err := u.issuer.Issue(user.ID, user.Role, now)
	if err != nil {
		return RedeemResult{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return RedeemResult{
		User: UserDTO{
			ID:    user.ID,
			Phone: user.Phone,
			Email: user.Email,
			Name:  user.Name,
			Role:  string(user.Role),
		},
		Token: AccessTokenDTO{
			AccessToken: token,
			ExpiresIn:   int(expiresAt.Sub(now).Seconds()),
		},
	}, nil
}

// 検証成功のたびにロールを判定し直す。
// 許可リストから外れたidentifierは必ずUSERに戻す（昇格の取り残し対策）。
// 検索と保存先の列はチャネルで分ける（メールアドレスをphone列に入れない）。
func (u *OtpUsecase) upsertUser(ctx context.Context, channel string, identifier string) (*model.User, error) {
	role := model.RoleUser
	if u.policy.IsPrivileged(identifier) {
		role = model.RoleAdmin
	}

	now := time.Now()

	var (
		user *model.User
		err  error
	)
	if channel == "email" {
		user, err = u.users.FindByEmail(ctx, identifier)
	} else {
		user, err = u.users.FindByPhone(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}

	if user == nil {
		user = &model.User{
			Role:     role,
			IsActive: true,
		}
		if channel == "email" {
			user.Email = identifier
		} else {
			user.Phone = identifier
		}
		user.LastLoginAt = &now
		if err := u.users.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	user.Role = role
	user.LastLoginAt = &now
	if err := u.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// identifierを混ぜた鍵付きハッシュ。生のコードは保存しない。
func (u *OtpUsecase) hashSecret(identifier string, code string) string {
	mac := hmac.New(sha256.New, []byte(u.cfg.OTPHashKey))
	mac.Write([]byte(identifier))
	mac.Write([]byte(":"))
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}

func (u *OtpUsecase) generateCode(identifier string) (string, error) {
	if u.cfg.IsDev() && identifier == devTestIdentifier {
		return devTestCode, nil
	}

	var b strings.Builder
	for i := 0; i < otpCodeLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteString(n.String())
	}
	return b.String(), nil
}
