package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rewarddesk/coupon-service/internal/core/ports"
)

// AuthHandler manages transport client accounts and token issuance.
type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Name   string `json:"name" validate:"required"`
	Secret string `json:"secret" validate:"required,min=12"`
	Role   string `json:"role" validate:"required,oneof=admin transport"`
}

type tokenRequest struct {
	Name   string `json:"name" validate:"required"`
	Secret string `json:"secret" validate:"required"`
}

type clientResponse struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type tokenResponse struct {
	Token  string         `json:"token"`
	Client clientResponse `json:"client"`
}

// Register creates a new transport client account.
//
// @Summary      Register a transport client
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      registerRequest  true  "Client credentials and role"
// @Success      201   {object}  clientResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	client, err := h.authService.Register(c.Request().Context(), req.Name, req.Secret, req.Role)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, clientResponse{Name: client.Name, Role: client.Role})
}

// IssueToken exchanges client credentials for a bearer token.
//
// @Summary      Issue an access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      tokenRequest  true  "Client credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /auth/token [post]
func (h *AuthHandler) IssueToken(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, client, err := h.authService.IssueToken(c.Request().Context(), req.Name, req.Secret)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tokenResponse{
		Token:  token,
		Client: clientResponse{Name: client.Name, Role: client.Role},
	})
}
