package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// チェックアウト時に在庫の条件付き減算が競合したときのやり直し回数。
const checkoutStockRetries = 3

type OrderUsecase struct {
	tx repo.TransactionManager
}

func NewOrderUsecase(tx repo.TransactionManager) *OrderUsecase {
	return &OrderUsecase{tx: tx}
}

type CheckoutItemInput struct {
	ProductID         int64  `json:"product_id"`
	Quantity          int64  `json:"quantity"`
	IsGift            bool   `json:"is_gift"`
	GiftWrap          bool   `json:"gift_wrap"`
	GiftWrapUnitPrice int64  `json:"gift_wrap_unit_price"`
	GiftMessage       string `json:"gift_message"`
}

type CheckoutInput struct {
	Items           []CheckoutItemInput
	ShippingAddress model.ShippingAddress
	Notes           string
	Discount        int64
	Shipping        int64
	Payment         string // "COD" | "ONLINE"
}

type OrderItemOutput struct {
	ProductID         int64  `json:"product_id"`
	Name              string `json:"name"`
	Price             int64  `json:"price"`
	MRP               int64  `json:"mrp"`
	Quantity          int64  `json:"quantity"`
	IsGift            bool   `json:"is_gift"`
	GiftWrap          bool   `json:"gift_wrap"`
	GiftWrapUnitPrice int64  `json:"gift_wrap_unit_price"`
}

type OrderOutput struct {
	ID               int64             `json:"id"`
	UserID           int64             `json:"user_id"`
	PaymentStatus    string            `json:"payment_status"`
	FulfilmentStatus string            `json:"fulfilment_status"`
	PaymentMethod    string            `json:"payment_method"`
	Subtotal         int64             `json:"subtotal"`
	Discount         int64             `json:"discount"`
	Shipping         int64             `json:"shipping"`
	GiftWrapTotal    int64             `json:"gift_wrap_total"`
	Total            int64             `json:"total"`
	CreatedAt        time.Time         `json:"created_at"`
	Items            []OrderItemOutput `json:"items"`
}

// 支払いメタ（コールバックから渡される）。
type PaymentMeta struct {
	Method   model.PaymentMethod
	Provider string
	TxnID    string
	PaidAt   time.Time
}

// checkout はリクエストの明細から不変の注文スナップショットを作る。
// 数量は在庫まで黙って丸める（カートの厳格な拒否とは非対称な仕様）。
// 在庫0の商品はエラー。価格・商品名などはこの瞬間の値を焼き込む。
func (u *OrderUsecase) Checkout(ctx context.Context, userID int64, in CheckoutInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}
	if in.Discount < 0 || in.Shipping < 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid amount")
	}

	var method model.PaymentMethod
	switch strings.ToUpper(strings.TrimSpace(in.Payment)) {
	case "COD", "":
		method = model.PaymentMethodCOD
	case "ONLINE":
		method = model.PaymentMethodOnlinePending
	default:
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "payment must be one of: COD, ONLINE")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orderItems := make([]model.OrderItem, 0, len(in.Items))
		var subtotal int64 = 0
		var giftWrapTotal int64 = 0

		for _, reqItem := range in.Items {
			if reqItem.ProductID <= 0 || reqItem.Quantity <= 0 {
				return NewHTTPError(http.StatusBadRequest, "invalid item")
			}

			qty, p, err := u.reserveStock(ctx, r, reqItem.ProductID, reqItem.Quantity)
			if err != nil {
				return err
			}

			var wrapUnit int64 = 0
			if reqItem.IsGift && reqItem.GiftWrap {
				//リクエストの包装単価をそのまま信用する（元仕様どおり）
				wrapUnit = reqItem.GiftWrapUnitPrice
			}

			now := time.Now()
			orderItems = append(orderItems, model.OrderItem{
				ProductID:            p.ID,
				ProductNameSnapshot:  p.Name,
				UnitPriceSnapshot:    p.Price,
				MRPSnapshot:          p.MRP,
				ImageURLSnapshot:     p.ImageURL,
				CategoryNameSnapshot: p.CategoryName,
				Quantity:             qty,
				IsGift:               reqItem.IsGift,
				GiftWrap:             reqItem.GiftWrap,
				GiftWrapUnitPrice:    wrapUnit,
				GiftMessage:          reqItem.GiftMessage,
				CreatedAt:            now,
			})

			subtotal += p.Price * qty
			giftWrapTotal += wrapUnit * qty
		}

		total := subtotal - in.Discount + in.Shipping + giftWrapTotal
		if total < 0 {
			total = 0
		}

		now := time.Now()
		order := model.Order{
			UserID:           userID,
			PaymentStatus:    model.PaymentStatusPending,
			FulfilmentStatus: model.FulfilmentStatusPlaced,
			Subtotal:         subtotal,
			Discount:         in.Discount,
			ShippingFee:      in.Shipping,
			GiftWrapTotal:    giftWrapTotal,
			TotalPrice:       total,
			PaymentMethod:    method,
			ShippingAddress:  in.ShippingAddress,
			Notes:            in.Notes,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.OrderHistory().Append(ctx, model.OrderStatusHistory{
			OrderID:          orderID,
			ActorUserID:      userID,
			Action:           model.OrderActionCreated,
			PaymentStatus:    model.PaymentStatusPending,
			FulfilmentStatus: model.FulfilmentStatusPlaced,
			Note:             "order created",
			CreatedAt:        now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//注文になったらACTIVEカートは空にする（無ければ何もしない）
		if cart, err := r.Carts().FindActiveByUserID(ctx, userID); err == nil {
			if err := r.Carts().Clear(ctx, cart.ID); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		order.ID = orderID
		out = toOrderOutput(order, orderItems)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 在庫まで丸めた数量を条件付きUPDATEで確保する。
// 同時注文と競合したら読み直してやり直し、在庫が尽きていたらエラー。
func (u *OrderUsecase) reserveStock(ctx context.Context, r repo.TxRepos, productID int64, requested int64) (int64, model.Product, error) {
	for i := 0; i < checkoutStockRetries; i++ {
		p, err := r.Products().FindByID(ctx, productID)
		if err == repo.ErrNotFound {
			return 0, model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
		}
		if err != nil {
			return 0, model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !p.IsActive {
			return 0, model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
		}
		if p.Stock <= 0 {
			return 0, model.Product{}, NewHTTPError(http.StatusBadRequest, "out of stock")
		}

		qty := requested
		if qty > p.Stock {
			qty = p.Stock
		}

		ok, err := r.Inventory().DecreaseStockIfEnough(ctx, productID, qty)
		if err != nil {
			return 0, model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if ok {
			return qty, p, nil
		}
		//別の注文が先に減らした。読み直して再試行。
	}
	return 0, model.Product{}, NewHTTPError(http.StatusConflict, "out of stock")
}

// 支払い成功の反映。既にPAIDなら何もせず今の注文を返す（コールバック再送対策）。
// 配送ステータスはPLACEDからCONFIRMEDへ進めるだけで、先へ進んだ状態は戻さない。
func applyPaymentSuccess(ctx context.Context, r repo.TxRepos, orderID int64, meta PaymentMeta) (model.Order, error) {
	o, err := r.Orders().FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if o.PaymentStatus == model.PaymentStatusPaid {
		return o, nil
	}

	o.PaymentStatus = model.PaymentStatusPaid
	if o.FulfilmentStatus == model.FulfilmentStatusPlaced {
		o.FulfilmentStatus = model.FulfilmentStatusConfirmed
	}
	o.PaymentMethod = meta.Method
	o.PaymentProvider = meta.Provider
	o.PaymentTxnID = meta.TxnID
	paidAt := meta.PaidAt
	o.PaidAt = &paidAt

	if err := r.Orders().Update(ctx, o); err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := r.OrderHistory().Append(ctx, model.OrderStatusHistory{
		OrderID:          o.ID,
		ActorUserID:      o.UserID,
		Action:           model.OrderActionPaymentSuccess,
		PaymentStatus:    o.PaymentStatus,
		FulfilmentStatus: o.FulfilmentStatus,
		Note:             "payment confirmed via " + meta.Provider,
		CreatedAt:        time.Now(),
	}); err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return o, nil
}

// 支払い失敗の反映。配送ステータスには触らない。
func applyPaymentFailure(ctx context.Context, r repo.TxRepos, orderID int64, meta PaymentMeta) (model.Order, error) {
	o, err := r.Orders().FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if o.PaymentStatus == model.PaymentStatusFailed {
		return o, nil
	}
	// 支払い済みの注文は別試行の失敗通知で巻き戻さない
	if o.PaymentStatus == model.PaymentStatusPaid {
		return o, nil
	}

	o.PaymentStatus = model.PaymentStatusFailed
	o.PaymentProvider = meta.Provider
	o.PaymentTxnID = meta.TxnID

	if err := r.Orders().Update(ctx, o); err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := r.OrderHistory().Append(ctx, model.OrderStatusHistory{
		OrderID:          o.ID,
		ActorUserID:      o.UserID,
		Action:           model.OrderActionPaymentFailed,
		PaymentStatus:    o.PaymentStatus,
		FulfilmentStatus: o.FulfilmentStatus,
		Note:             "payment failed via " + meta.Provider,
		CreatedAt:        time.Now(),
	}); err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return o, nil
}

// MarkPaid は支払い成功を単独トランザクションで反映する。
// 決済コールバック（payment_usecase）は自分のTxの中でapplyPaymentSuccessを直接呼ぶ。
func (u *OrderUsecase) MarkPaid(ctx context.Context, orderID int64, meta PaymentMeta) (model.Order, error) {
	var out model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := applyPaymentSuccess(ctx, r, orderID, meta)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}
	return out, nil
}

func (u *OrderUsecase) MarkFailed(ctx context.Context, orderID int64, meta PaymentMeta) (model.Order, error) {
	var out model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := applyPaymentFailure(ctx, r, orderID, meta)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
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

type OrderDetailOutput struct {
	OrderOutput
	Tracking struct {
		Courier     string `json:"courier"`
		TrackingID  string `json:"tracking_id"`
		TrackingURL string `json:"tracking_url"`
	} `json:"tracking"`
	History []model.OrderStatusHistory `json:"history"`
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderDetailOutput, error) {
	if userID <= 0 {
		return OrderDetailOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderDetailOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderDetailOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		history, err := r.OrderHistory().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out.OrderOutput = toOrderOutput(o, items)
		out.Tracking.Courier = o.Courier
		out.Tracking.TrackingID = o.TrackingID
		out.Tracking.TrackingURL = o.TrackingURL
		out.History = history
		return nil
	})

	if err != nil {
		return OrderDetailOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID:         it.ProductID,
			Name:              it.ProductNameSnapshot,
			Price:             it.UnitPriceSnapshot,
			MRP:               it.MRPSnapshot,
			Quantity:          it.Quantity,
			IsGift:            it.IsGift,
			GiftWrap:          it.GiftWrap,
			GiftWrapUnitPrice: it.GiftWrapUnitPrice,
		})
	}

	return OrderOutput{
		ID:               o.ID,
		UserID:           o.UserID,
		PaymentStatus:    string(o.PaymentStatus),
		FulfilmentStatus: string(o.FulfilmentStatus),
		PaymentMethod:    string(o.PaymentMethod),
		Subtotal:         o.Subtotal,
		Discount:         o.Discount,
		Shipping:         o.ShippingFee,
		GiftWrapTotal:    o.GiftWrapTotal,
		Total:            o.TotalPrice,
		CreatedAt:        o.CreatedAt,
		Items:            outItems,
	}
}
