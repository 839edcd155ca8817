package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/discussion-api/internal/core/ports"
	"github.com/sirpyerre/discussion-api/internal/core/service"
)

type AuthHandler struct {
	ops *service.Operations
}

func NewAuthHandler(ops *service.Operations) *AuthHandler {
	return &AuthHandler{ops: ops}
}

// Register creates a new user account and returns a token for it.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorBody
// @Failure      409   {object}  errorBody
// @Failure      422   {object}  errorBody
// @Router       /v1/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var body registerRequest
	if err := bindAndValidate(c, &body); err != nil {
		return err
	}

	payload, err := invoke(c, "register", h.ops.Register, ports.RegisterInput{
		Email:    body.Email,
		Password: body.Password,
		Username: body.Username,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toAuthResponse(payload))
}

// Login authenticates a user and returns a JWT token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var body loginRequest
	if err := bindAndValidate(c, &body); err != nil {
		return err
	}

	payload, err := invoke(c, "login", h.ops.Login, ports.LoginInput{
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toAuthResponse(payload))
}
