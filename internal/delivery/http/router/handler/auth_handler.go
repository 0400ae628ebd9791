// Package handler contains the HTTP handlers for the application.
package handler

import (
	"io"
	"log/slog"
	"net/http"

	"roster/internal/delivery/http/middleware"
	"roster/internal/delivery/http/response"
	"roster/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// registerRequest is the payload for account registration. It accepts either
// a JSON body or a multipart form carrying an optional profileImage file.
type registerRequest struct {
	Name     string `json:"name" form:"name" validate:"required,min=3,max=100"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Phone    string `json:"phone" form:"phone" validate:"required,numeric,min=10,max=15"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
	Address  string `json:"address" form:"address" validate:"omitempty,max=150"`
	State    string `json:"state" form:"state" validate:"required"`
	City     string `json:"city" form:"city" validate:"required"`
	Country  string `json:"country" form:"country" validate:"required"`
	Pincode  string `json:"pincode" form:"pincode" validate:"required,numeric,min=4,max=10"`
}

// loginRequest carries either an email or a phone number as identifier.
type loginRequest struct {
	Identifier string `json:"identifier" form:"identifier" validate:"required"`
	Password   string `json:"password" form:"password" validate:"required"`
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken" validate:"required"`
}

// tokenResponse is the token pair handed to the client, with the refresh
// token lifetime in seconds.
type tokenResponse struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	RefreshExpiresIn int64  `json:"refreshExpiresIn"`
}

// AuthHandler holds dependencies for credential lifecycle handlers.
type AuthHandler struct {
	uc     usecase.AuthUsecase
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.AuthUsecase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{uc: uc, logger: logger}
}

// Register handles the account registration request.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid registration input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	upload, err := readProfileImage(c)
	if err != nil {
		return response.BadRequest(c, "INVALID_IMAGE", "Could not read profile image")
	}

	output, err := h.uc.Register(c.Request().Context(), &usecase.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     req.Password,
		Address:      req.Address,
		State:        req.State,
		City:         req.City,
		Country:      req.Country,
		Pincode:      req.Pincode,
		ProfileImage: upload,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, map[string]any{
		"user": toUserResponse(output.User),
		"tokens": tokenResponse{
			AccessToken:      output.AccessToken,
			RefreshToken:     output.RefreshToken,
			RefreshExpiresIn: output.RefreshExpiresIn,
		},
	}, "User registered successfully")
}

// Login handles the login request.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	output, err := h.uc.Login(c.Request().Context(), &usecase.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"user": toUserResponse(output.User),
		"tokens": tokenResponse{
			AccessToken:      output.AccessToken,
			RefreshToken:     output.RefreshToken,
			RefreshExpiresIn: output.RefreshExpiresIn,
		},
	}, "Login successful")
}

// RefreshToken handles the token rotation request.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req refreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid refresh token input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	output, err := h.uc.RefreshToken(c.Request().Context(), &usecase.RefreshTokenInput{
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, tokenResponse{
		AccessToken:      output.AccessToken,
		RefreshToken:     output.RefreshToken,
		RefreshExpiresIn: output.RefreshExpiresIn,
	}, "Token refreshed successfully")
}

// Logout revokes the caller's refresh token. Requires authentication.
func (h *AuthHandler) Logout(c echo.Context) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHENTICATED", "Not logged in")
	}

	if err := h.uc.Logout(c.Request().Context(), identity.UserID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Logout successful")
}

// readProfileImage extracts the optional profileImage file from a multipart
// form. A JSON request or a form without the file yields nil.
func readProfileImage(c echo.Context) (*usecase.ImageUpload, error) {
	fileHeader, err := c.FormFile("profileImage")
	if err != nil {
		// Missing file or non-multipart body; both mean "no image".
		return nil, nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open uploaded image")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read uploaded image")
	}

	return &usecase.ImageUpload{
		Data:        data,
		ContentType: fileHeader.Header.Get("Content-Type"),
	}, nil
}
