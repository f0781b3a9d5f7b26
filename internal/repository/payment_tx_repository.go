package repository

import (
	"context"

	"app/internal/domain/model"
)

type PaymentTxRepository interface {
	Create(ctx context.Context, tx model.PaymentTx) (int64, error)
	FindByTxnID(ctx context.Context, txnID string) (model.PaymentTx, error)

	//コールバック結果の書き込み。状態と生ペイロード以外は触らない。
	UpdateCallbackResult(ctx context.Context, txnID string, status model.GatewayStatus, providerTxnID string, mode string, rawPayload string) error
}
