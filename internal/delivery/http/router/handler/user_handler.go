package handler

import (
	"log/slog"
	"net/http"
	"time"

	"roster/internal/delivery/http/middleware"
	"roster/internal/delivery/http/response"
	"roster/internal/domain/entity"
	"roster/internal/domain/repository"
	"roster/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// listUsersRequest captures the list query string.
type listUsersRequest struct {
	Page      int    `query:"page" validate:"omitempty,min=1"`
	Limit     int    `query:"limit" validate:"omitempty,min=1,max=100"`
	SortBy    string `query:"sortBy"`
	SortOrder string `query:"sortOrder" validate:"omitempty,oneof=asc desc"`
	Search    string `query:"search"`
	State     string `query:"state"`
	City      string `query:"city"`
}

// updateUserRequest is a partial update; absent fields are untouched.
type updateUserRequest struct {
	Name    *string `json:"name" form:"name" validate:"omitempty,min=3,max=100"`
	Email   *string `json:"email" form:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone" form:"phone" validate:"omitempty,numeric,min=10,max=15"`
	Role    *string `json:"role" form:"role" validate:"omitempty,oneof=user admin"`
	Address *string `json:"address" form:"address" validate:"omitempty,max=150"`
	State   *string `json:"state" form:"state"`
	City    *string `json:"city" form:"city"`
	Country *string `json:"country" form:"country"`
	Pincode *string `json:"pincode" form:"pincode" validate:"omitempty,numeric,min=4,max=10"`
}

// userResponse is the safe projection returned to clients.
type userResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	ProfileImage string    `json:"profileImage,omitempty"`
	Address      string    `json:"address,omitempty"`
	State        string    `json:"state"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	Pincode      string    `json:"pincode"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toUserResponse(user *entity.User) userResponse {
	return userResponse{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Phone:        user.Phone,
		Role:         user.Role.String(),
		ProfileImage: user.ProfileImage,
		Address:      user.Address,
		State:        user.State,
		City:         user.City,
		Country:      user.Country,
		Pincode:      user.Pincode,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

// UserHandler holds dependencies for user management handlers.
type UserHandler struct {
	uc     usecase.UserUsecase
	logger *slog.Logger
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(uc usecase.UserUsecase, logger *slog.Logger) *UserHandler {
	return &UserHandler{uc: uc, logger: logger}
}

// ListUsers handles the paginated user listing. Admin only.
func (h *UserHandler) ListUsers(c echo.Context) error {
	var req listUsersRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid list query")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	output, err := h.uc.ListUsers(c.Request().Context(), &usecase.ListUsersInput{
		Page:      req.Page,
		Limit:     req.Limit,
		SortBy:    req.SortBy,
		SortOrder: repository.SortOrder(req.SortOrder),
		Search:    req.Search,
		State:     req.State,
		City:      req.City,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	users := make([]userResponse, 0, len(output.Users))
	for _, user := range output.Users {
		users = append(users, toUserResponse(user))
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"users":      users,
		"pagination": output.Pagination,
	}, "Users retrieved successfully")
}

// GetUser handles the single user lookup.
func (h *UserHandler) GetUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_USER_ID", "Invalid user id")
	}

	user, err := h.uc.GetUser(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, toUserResponse(user), "User retrieved successfully")
}

// UpdateUser handles the partial account update.
func (h *UserHandler) UpdateUser(c echo.Context) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHENTICATED", "Not logged in")
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_USER_ID", "Invalid user id")
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid update input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	upload, err := readProfileImage(c)
	if err != nil {
		return response.BadRequest(c, "INVALID_IMAGE", "Could not read profile image")
	}

	updated, err := h.uc.UpdateUser(c.Request().Context(), &usecase.UpdateUserInput{
		Actor:        identity,
		UserID:       userID,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         req.Role,
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

	return response.Success(c, http.StatusOK, toUserResponse(updated), "User updated successfully")
}

// DeleteUser handles account removal.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHENTICATED", "Not logged in")
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_USER_ID", "Invalid user id")
	}

	if err := h.uc.DeleteUser(c.Request().Context(), identity, userID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "User deleted successfully")
}
