package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type PaymentTxGormRepository struct {
	db *gorm.DB
}

func NewPaymentTxGormRepository(db *gorm.DB) *PaymentTxGormRepository {
	return &PaymentTxGormRepository{db: db}
}

func (r *PaymentTxGormRepository) Create(ctx context.Context, tx model.PaymentTx) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&tx).Error; err != nil {
		return 0, err
	}
	return tx.ID, nil
}

func (r *PaymentTxGormRepository) FindByTxnID(ctx context.Context, txnID string) (model.PaymentTx, error) {
	var tx model.PaymentTx
	err := r.db.WithContext(ctx).Where("txn_id = ?", txnID).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PaymentTx{}, repo.ErrNotFound
	}
	if err != nil {
		return model.PaymentTx{}, err
	}
	return tx, nil
}

// コールバック結果の書き込み。作成時の金額・目的・参照は触らない。
func (r *PaymentTxGormRepository) UpdateCallbackResult(ctx context.Context, txnID string, status model.GatewayStatus, providerTxnID string, mode string, rawPayload string) error {
	res := r.db.WithContext(ctx).Model(&model.PaymentTx{}).
		Where("txn_id = ?", txnID).
		Updates(map[string]interface{}{
			"gateway_status":  status,
			"provider_txn_id": providerTxnID,
			"payment_mode":    mode,
			"raw_payload":     rawPayload,
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
