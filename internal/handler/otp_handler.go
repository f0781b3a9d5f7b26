package handler

import (
	"net/http"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /auth/otp のHTTP
type OtpHandler struct {
	uc *usecase.OtpUsecase
}

// DI
func NewOtpHandler(uc *usecase.OtpUsecase) *OtpHandler {
	return &OtpHandler{uc: uc}
}

type IssueOtpRequest struct {
	Identifier string `json:"identifier"`
}

type RedeemOtpRequest struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
}

func (h *OtpHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/auth/otp")

	g.POST("/issue", h.issue)
	g.POST("/redeem", h.redeem)
}

func (h *OtpHandler) issue(c echo.Context) error {
	var req IssueOtpRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.Issue(c.Request().Context(), req.Identifier); err != nil {
		return writeError(c, err)
	}

	// identifierの実在は漏らさない
	return c.JSON(http.StatusOK, map[string]string{"message": "otp sent"})
}

func (h *OtpHandler) redeem(c echo.Context) error {
	var req RedeemOtpRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Redeem(c.Request().Context(), req.Identifier, req.Code)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
