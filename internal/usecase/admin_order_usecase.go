package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type AdminOrderUsecase struct {
	tx        repo.TransactionManager
	auditRepo repo.AuditLogRepository
}

func NewAdminOrderUsecase(tx repo.TransactionManager, auditRepo repo.AuditLogRepository) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, auditRepo: auditRepo}
}

type AdminUpdateFulfilmentInput struct {
	Status string
	Note   string
}

type AdminUpdateTrackingInput struct {
	Courier     string
	TrackingID  string
	TrackingURL string
	Note        string
}

// 配送ステータスの遷移表。
// キャンセルは支払いステータスも道連れにするので、両軸まとめて1か所で決める。
var fulfilmentTransitions = map[model.FulfilmentStatus][]model.FulfilmentStatus{
	model.FulfilmentStatusPlaced:    {model.FulfilmentStatusConfirmed, model.FulfilmentStatusCancelled},
	model.FulfilmentStatusConfirmed: {model.FulfilmentStatusShipped, model.FulfilmentStatusCancelled},
	model.FulfilmentStatusShipped:   {model.FulfilmentStatusDelivered, model.FulfilmentStatusCancelled},
	model.FulfilmentStatusDelivered: {},
	model.FulfilmentStatusCancelled: {},
}

// (payment, fulfilment) -> (payment', fulfilment') を1回で決める。
// CANCELLEDへの遷移は支払いステータスもCANCELLEDにする（軸は独立ではない）。
func applyFulfilmentTransition(payment model.PaymentStatus, fulfilment model.FulfilmentStatus, next model.FulfilmentStatus) (model.PaymentStatus, model.FulfilmentStatus, error) {
	allowed, ok := fulfilmentTransitions[fulfilment]
	if !ok {
		return "", "", NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	for _, a := range allowed {
		if a == next {
			if next == model.FulfilmentStatusCancelled {
				return model.PaymentStatusCancelled, next, nil
			}
			return payment, next, nil
		}
	}

	return "", "", NewHTTPError(http.StatusBadRequest,
		fmt.Sprintf("cannot move %s to %s", fulfilment, next))
}

// 注文一覧（両軸のステータス・ユーザー・期間で絞り込み）
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) ([]OrderOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// 配送ステータス更新（CANCELLEDなら在庫戻し＋支払いもCANCELLED）
func (u *AdminOrderUsecase) UpdateFulfilment(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateFulfilmentInput) (OrderOutput, error) {
	if actorAdminUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	next := model.FulfilmentStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	switch next {
	case model.FulfilmentStatusConfirmed,
		model.FulfilmentStatusShipped,
		model.FulfilmentStatusDelivered,
		model.FulfilmentStatusCancelled:
		// OK
	default:
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest,
			"status must be one of: CONFIRMED, SHIPPED, DELIVERED, CANCELLED")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 注文取得
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		beforePayment := o.PaymentStatus
		beforeFulfilment := o.FulfilmentStatus

		newPayment, newFulfilment, err := applyFulfilmentTransition(o.PaymentStatus, o.FulfilmentStatus, next)
		if err != nil {
			return err
		}

		// CANCELLEDのときだけ在庫戻し
		if next == model.FulfilmentStatusCancelled {
			items, err := r.OrderItems().ListByOrderID(ctx, orderID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			for _, it := range items {
				if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
			}
		}

		o.PaymentStatus = newPayment
		o.FulfilmentStatus = newFulfilment
		if err := r.Orders().Update(ctx, o); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//履歴は両軸のスナップショットつきで追記
		if err := r.OrderHistory().Append(ctx, model.OrderStatusHistory{
			OrderID:          orderID,
			ActorUserID:      actorAdminUserID,
			Action:           model.OrderActionStatusUpdated,
			PaymentStatus:    newPayment,
			FulfilmentStatus: newFulfilment,
			Note:             in.Note,
			CreatedAt:        time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 監査ログ（UPDATE_ORDER_STATUS）
		beforeJSON := fmt.Sprintf(`{"payment_status":%q,"fulfilment_status":%q}`, beforePayment, beforeFulfilment)
		afterJSON := fmt.Sprintf(`{"payment_status":%q,"fulfilment_status":%q}`, newPayment, newFulfilment)
		if err := u.auditRepo.Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   beforeJSON,
			AfterJSON:    afterJSON,
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 追跡情報の更新。フィールド単位のマージはせず、3つまとめて置き換える。
func (u *AdminOrderUsecase) UpdateTracking(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateTrackingInput) (OrderOutput, error) {
	if actorAdminUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		beforeJSON := fmt.Sprintf(`{"courier":%q,"tracking_id":%q,"tracking_url":%q}`, o.Courier, o.TrackingID, o.TrackingURL)

		o.Courier = in.Courier
		o.TrackingID = in.TrackingID
		o.TrackingURL = in.TrackingURL

		if err := r.Orders().Update(ctx, o); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.OrderHistory().Append(ctx, model.OrderStatusHistory{
			OrderID:          orderID,
			ActorUserID:      actorAdminUserID,
			Action:           model.OrderActionTrackingUpdated,
			PaymentStatus:    o.PaymentStatus,
			FulfilmentStatus: o.FulfilmentStatus,
			Note:             in.Note,
			CreatedAt:        time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		afterJSON := fmt.Sprintf(`{"courier":%q,"tracking_id":%q,"tracking_url":%q}`, in.Courier, in.TrackingID, in.TrackingURL)
		if err := u.auditRepo.Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateTracking,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   beforeJSON,
			AfterJSON:    afterJSON,
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

type AuditLogListInput struct {
	ActorUserID  *int64
	Action       string
	ResourceType string
	ResourceID   *int64
	From         string // RFC3339
	To           string // RFC3339
	Limit        int
	Offset       int
}

// 管理操作の監査ログ一覧。
func (u *AdminOrderUsecase) ListAuditLogs(ctx context.Context, in AuditLogListInput) ([]model.AuditLog, error) {
	f := repo.AuditLogFilter{
		ActorUserID:  in.ActorUserID,
		Action:       in.Action,
		ResourceType: in.ResourceType,
		ResourceID:   in.ResourceID,
		Limit:        in.Limit,
		Offset:       in.Offset,
	}
	if t, ok := parseDateTimeRFC3339(in.From); ok {
		f.CreatedFrom = t
	} else if strings.TrimSpace(in.From) != "" {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid from")
	}
	if t, ok := parseDateTimeRFC3339(in.To); ok {
		f.CreatedTo = t
	} else if strings.TrimSpace(in.To) != "" {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid to")
	}

	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return logs, nil
}

// 期間パラメータでtime.Timeが必要なら、handlerでtime.Parseしてここに入れる
func parseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
