package handler

import (
	"fmt"
	"net/http"
	"net/url"

	"app/internal/config"
	"app/internal/gateway/payu"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /paymentsのHTTP。コールバックはゲートウェイがブラウザ経由で
// form POSTしてくるので、認証なし・ハッシュ検証のみで受ける。
type PaymentHandler struct {
	uc  *usecase.PaymentUsecase
	cfg config.Config
}

func NewPaymentHandler(uc *usecase.PaymentUsecase, cfg config.Config) *PaymentHandler {
	return &PaymentHandler{uc: uc, cfg: cfg}
}

type InitiatePaymentRequest struct {
	Purpose  string `json:"purpose"`
	OrderID  int64  `json:"order_id"`
	CourseID int64  `json:"course_id"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/payments")

	auth := g.Group("")
	auth.Use(middleware.AuthJWT(cfg))
	auth.POST("/initiate", h.initiate)

	// ゲートウェイからの戻り。成功・失敗で同じ処理。
	g.POST("/callback/success", h.callback)
	g.POST("/callback/failure", h.callback)
}

func (h *PaymentHandler) initiate(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req InitiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Initiate(c.Request().Context(), userID, usecase.InitiatePaymentInput{
		Purpose:  req.Purpose,
		OrderID:  req.OrderID,
		CourseID: req.CourseID,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) callback(c echo.Context) error {
	r := c.Request()
	if err := r.ParseForm(); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	p := payu.CallbackPayload{
		MihpayID:    r.PostFormValue("mihpayid"),
		Mode:        r.PostFormValue("mode"),
		Status:      r.PostFormValue("status"),
		TxnID:       r.PostFormValue("txnid"),
		Amount:      r.PostFormValue("amount"),
		ProductInfo: r.PostFormValue("productinfo"),
		Firstname:   r.PostFormValue("firstname"),
		Email:       r.PostFormValue("email"),
		UDF1:        r.PostFormValue("udf1"),
		UDF2:        r.PostFormValue("udf2"),
		UDF3:        r.PostFormValue("udf3"),
		UDF4:        r.PostFormValue("udf4"),
		UDF5:        r.PostFormValue("udf5"),
		Hash:        r.PostFormValue("hash"),
	}

	result, err := h.uc.HandleCallback(r.Context(), p, r.PostForm.Encode())
	if err != nil {
		return writeError(c, err)
	}

	// フロントの結果ページへ303で戻す
	status := "failure"
	if result.Success {
		status = "success"
	}
	q := url.Values{}
	q.Set("status", status)
	q.Set("purpose", string(result.Purpose))
	q.Set("ref", fmt.Sprintf("%d", result.ReferenceID))

	return c.Redirect(http.StatusSeeOther, h.cfg.FEURL+"/payment/result?"+q.Encode())
}
