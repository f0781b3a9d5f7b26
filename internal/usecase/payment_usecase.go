package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/gateway/payu"
	repo "app/internal/repository"
)

const paymentProviderPayU = "payu"

// txnid生成の差し替え口（テストで固定IDにする）。
type IDGenerator interface {
	NewID() string
}

type PaymentUsecase struct {
	cfg      *config.Config
	tx       repo.TransactionManager
	userRepo repo.UserRepository
	idGen    IDGenerator
}

func NewPaymentUsecase(cfg *config.Config, tx repo.TransactionManager, userRepo repo.UserRepository, idGen IDGenerator) *PaymentUsecase {
	return &PaymentUsecase{cfg: cfg, tx: tx, userRepo: userRepo, idGen: idGen}
}

type InitiatePaymentInput struct {
	Purpose  string
	OrderID  int64
	CourseID int64

	// 任意の上書き。空ならプロフィール→（注文なら）配送先の順で拾う。
	Email string
	Phone string
}

// ブラウザに自動送信させるフォーム一式を返す。
type InitiatePaymentOutput struct {
	TxnID     string            `json:"txn_id"`
	ActionURL string            `json:"action_url"`
	Fields    map[string]string `json:"fields"`
}

type PaymentCallbackResult struct {
	Purpose     model.PaymentPurpose
	ReferenceID int64
	Success     bool
}

// 決済開始。PENDING行を作ってからフォームを返す（コールバックが先に来ても拾える）。
func (u *PaymentUsecase) Initiate(ctx context.Context, userID int64, in InitiatePaymentInput) (InitiatePaymentOutput, error) {
	if userID <= 0 {
		return InitiatePaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	// 鍵が無い環境ではフォームを作れないので即時に503
	if u.cfg.PayUKey == "" || u.cfg.PayUSalt == "" || u.cfg.PayUBaseURL == "" {
		return InitiatePaymentOutput{}, NewHTTPError(http.StatusServiceUnavailable, "payment gateway not configured")
	}

	var purpose model.PaymentPurpose
	switch strings.ToUpper(strings.TrimSpace(in.Purpose)) {
	case string(model.PaymentPurposeShopOrder):
		purpose = model.PaymentPurposeShopOrder
	case string(model.PaymentPurposeCourseBuy):
		purpose = model.PaymentPurposeCourseBuy
	default:
		return InitiatePaymentOutput{}, NewHTTPError(http.StatusBadRequest, "purpose must be one of: SHOP_ORDER, COURSE_BUY")
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		return InitiatePaymentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	// FindByIDは未登録でnilを返す（トークンだけ生きていて行が消えたケース）
	if user == nil {
		return InitiatePaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var out InitiatePaymentOutput

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var (
			refID       int64
			amount      int64
			productInfo string
			email       = strings.TrimSpace(in.Email)
			phone       = strings.TrimSpace(in.Phone)
		)
		if email == "" {
			email = user.Email
		}
		if phone == "" {
			phone = user.Phone
		}

		switch purpose {
		case model.PaymentPurposeShopOrder:
			o, err := r.Orders().FindByID(ctx, in.OrderID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "order not found")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if o.UserID != userID {
				return NewHTTPError(http.StatusNotFound, "order not found")
			}
			if o.PaymentStatus == model.PaymentStatusPaid {
				return NewHTTPError(http.StatusConflict, "order already paid")
			}
			if o.PaymentStatus == model.PaymentStatusCancelled ||
				o.FulfilmentStatus == model.FulfilmentStatusCancelled {
				return NewHTTPError(http.StatusBadRequest, "order cancelled")
			}
			if o.TotalPrice <= 0 {
				return NewHTTPError(http.StatusBadRequest, "no payment needed")
			}

			// 配送先は最後のフォールバック
			if email == "" {
				email = o.ShippingAddress.Email
			}
			if phone == "" {
				phone = o.ShippingAddress.Phone
			}

			refID = o.ID
			amount = o.TotalPrice
			productInfo = fmt.Sprintf("order-%d", o.ID)

			// 決済中であることを注文側にも残す
			if o.PaymentMethod != model.PaymentMethodOnlinePending {
				o.PaymentMethod = model.PaymentMethodOnlinePending
				if err := r.Orders().Update(ctx, o); err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
			}

		case model.PaymentPurposeCourseBuy:
			c, err := r.Courses().FindByID(ctx, in.CourseID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "course not found")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !c.IsActive {
				return NewHTTPError(http.StatusNotFound, "course not found")
			}
			if c.Price <= 0 {
				// 無料講座は決済を通さない（enrollmentの無料付与を使う）
				return NewHTTPError(http.StatusBadRequest, "no payment needed")
			}

			refID = c.ID
			amount = c.Price
			productInfo = c.Title
		}

		if email == "" {
			return NewHTTPError(http.StatusBadRequest, "email required")
		}
		if phone == "" {
			return NewHTTPError(http.StatusBadRequest, "phone required")
		}

		firstname := strings.TrimSpace(user.Name)
		if firstname == "" {
			firstname = "Customer"
		}

		txnID := u.idGen.NewID()

		fields := payu.RequestFields{
			TxnID:       txnID,
			Amount:      payu.FormatAmount(amount),
			ProductInfo: productInfo,
			Firstname:   firstname,
			Email:       email,
			Phone:       phone,
			SuccessURL:  u.cfg.PayUSuccessURL,
			FailureURL:  u.cfg.PayUFailureURL,
			UDF1:        string(purpose),
			UDF2:        strconv.FormatInt(refID, 10),
			UDF3:        strconv.FormatInt(userID, 10),
		}
		hash := payu.RequestHash(u.cfg.PayUKey, u.cfg.PayUSalt, fields)

		// フォームを返す前にPENDING行を必ず書く
		ptx := model.PaymentTx{
			TxnID:         txnID,
			Purpose:       purpose,
			UserID:        userID,
			Amount:        amount,
			GatewayStatus: model.GatewayStatusPending,
		}
		switch purpose {
		case model.PaymentPurposeShopOrder:
			ptx.OrderID = &refID
		case model.PaymentPurposeCourseBuy:
			ptx.CourseID = &refID
		}
		if _, err := r.PaymentTxs().Create(ctx, ptx); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = InitiatePaymentOutput{
			TxnID:     txnID,
			ActionURL: u.cfg.PayUBaseURL,
			Fields:    payu.FormFields(u.cfg.PayUKey, fields, hash),
		}
		return nil
	})

	if err != nil {
		return InitiatePaymentOutput{}, err
	}
	return out, nil
}

// ゲートウェイからのコールバック。成功・失敗とも同じ入口で受ける。
// 2回目以降の同一txnidは保存済みの結果を返すだけで副作用なし。
func (u *PaymentUsecase) HandleCallback(ctx context.Context, p payu.CallbackPayload, rawPayload string) (PaymentCallbackResult, error) {
	if !payu.VerifyResponseHash(u.cfg.PayUKey, u.cfg.PayUSalt, p) {
		return PaymentCallbackResult{}, NewHTTPError(http.StatusBadRequest, "hash mismatch")
	}

	success := strings.EqualFold(p.Status, "success")

	var result PaymentCallbackResult

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		ptx, err := r.PaymentTxs().FindByTxnID(ctx, p.TxnID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "unknown transaction")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		result = PaymentCallbackResult{
			Purpose: ptx.Purpose,
			Success: success,
		}
		switch ptx.Purpose {
		case model.PaymentPurposeShopOrder:
			if ptx.OrderID != nil {
				result.ReferenceID = *ptx.OrderID
			}
		case model.PaymentPurposeCourseBuy:
			if ptx.CourseID != nil {
				result.ReferenceID = *ptx.CourseID
			}
		}

		// 既に確定済みなら何もしない（リトライ・二重POST対策）
		if ptx.GatewayStatus != model.GatewayStatusPending {
			result.Success = ptx.GatewayStatus == model.GatewayStatusSuccess
			return nil
		}

		newStatus := model.GatewayStatusFailure
		if success {
			newStatus = model.GatewayStatusSuccess
		}
		if err := r.PaymentTxs().UpdateCallbackResult(ctx, ptx.TxnID, newStatus, p.MihpayID, p.Mode, rawPayload); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		meta := PaymentMeta{
			Method:   model.PaymentMethodOnline,
			Provider: paymentProviderPayU,
			TxnID:    ptx.TxnID,
			PaidAt:   time.Now(),
		}

		switch ptx.Purpose {
		case model.PaymentPurposeShopOrder:
			if ptx.OrderID == nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if success {
				if _, err := applyPaymentSuccess(ctx, r, *ptx.OrderID, meta); err != nil {
					return err
				}
			} else {
				if _, err := applyPaymentFailure(ctx, r, *ptx.OrderID, meta); err != nil {
					return err
				}
			}

		case model.PaymentPurposeCourseBuy:
			if ptx.CourseID == nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			// 失敗時は講座側に書くものが無い
			if success {
				if err := applyEnrollmentGrant(ctx, r, ptx.UserID, *ptx.CourseID, enrollmentPaymentSummary{
					AmountPaid:      ptx.Amount,
					PaymentTxnID:    ptx.TxnID,
					PaymentProvider: paymentProviderPayU,
				}); err != nil {
					return err
				}
			}
		}

		return nil
	})

	if err != nil {
		return PaymentCallbackResult{}, err
	}
	return result, nil
}
