package handlers

import (
	"errors"

	"cloud-storage-api/internal/middleware"
	"cloud-storage-api/internal/models"
	"cloud-storage-api/internal/requests"
	"cloud-storage-api/internal/services"
	"cloud-storage-api/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kerimovok/go-pkg-utils/httpx"
	"github.com/kerimovok/go-pkg-utils/validator"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserHandler handles account and authentication requests
type UserHandler struct {
	users *store.UserStore
	files *services.FileService
	auth  *middleware.Auth
}

func NewUserHandler(users *store.UserStore, files *services.FileService, auth *middleware.Auth) *UserHandler {
	return &UserHandler{
		users: users,
		files: files,
		auth:  auth,
	}
}

// Register creates an account and returns a fresh access token.
func (h *UserHandler) Register(c *fiber.Ctx) error {
	var input requests.RegisterRequest
	if err := c.BodyParser(&input); err != nil {
		response := httpx.BadRequest("Invalid request body", err)
		return httpx.SendResponse(c, response)
	}

	if err := validator.ValidateStruct(&input); err != nil {
		response := httpx.BadRequest("Validation failed", err)
		return httpx.SendResponse(c, response)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		response := httpx.InternalServerError("Failed to process password", err)
		return httpx.SendResponse(c, response)
	}

	user := models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
	}

	if err := h.users.Create(&user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			response := httpx.BadRequest("Username or email already taken", err)
			return httpx.SendResponse(c, response)
		}
		response := httpx.InternalServerError("Failed to create user", err)
		return httpx.SendResponse(c, response)
	}

	token, err := h.auth.IssueToken(&user)
	if err != nil {
		response := httpx.InternalServerError("Failed to issue token", err)
		return httpx.SendResponse(c, response)
	}

	result := map[string]interface{}{
		"token": token,
		"user":  user,
	}
	response := httpx.Created("User registered successfully", result)
	return httpx.SendResponse(c, response)
}

// Login verifies credentials and returns an access token.
func (h *UserHandler) Login(c *fiber.Ctx) error {
	var input requests.LoginRequest
	if err := c.BodyParser(&input); err != nil {
		response := httpx.BadRequest("Invalid request body", err)
		return httpx.SendResponse(c, response)
	}

	if err := validator.ValidateStruct(&input); err != nil {
		response := httpx.BadRequest("Validation failed", err)
		return httpx.SendResponse(c, response)
	}

	user, err := h.users.ByEmail(input.Email)
	if err != nil {
		response := httpx.Unauthorized("Invalid email or password")
		return httpx.SendResponse(c, response)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		response := httpx.Unauthorized("Invalid email or password")
		return httpx.SendResponse(c, response)
	}

	token, err := h.auth.IssueToken(user)
	if err != nil {
		response := httpx.InternalServerError("Failed to issue token", err)
		return httpx.SendResponse(c, response)
	}

	result := map[string]interface{}{
		"token": token,
		"user":  user,
	}
	response := httpx.OK("Logged in successfully", result)
	return httpx.SendResponse(c, response)
}

// Me returns the caller's profile.
func (h *UserHandler) Me(c *fiber.Ctx) error {
	caller := middleware.CurrentUser(c)
	response := httpx.OK("Profile retrieved successfully", caller)
	return httpx.SendResponse(c, response)
}

// UpdateMe applies a partial profile update.
func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	caller := middleware.CurrentUser(c)

	var input requests.UpdateProfileRequest
	if err := c.BodyParser(&input); err != nil {
		response := httpx.BadRequest("Invalid request body", err)
		return httpx.SendResponse(c, response)
	}

	if err := validator.ValidateStruct(&input); err != nil {
		response := httpx.BadRequest("Validation failed", err)
		return httpx.SendResponse(c, response)
	}

	updates := make(map[string]interface{})
	if input.Username != nil {
		updates["username"] = *input.Username
	}
	if input.Email != nil {
		updates["email"] = *input.Email
	}

	if len(updates) > 0 {
		if err := h.users.Updates(caller, updates); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				response := httpx.BadRequest("Username or email already taken", err)
				return httpx.SendResponse(c, response)
			}
			response := httpx.InternalServerError("Failed to update profile", err)
			return httpx.SendResponse(c, response)
		}
	}

	response := httpx.OK("Profile updated successfully", caller)
	return httpx.SendResponse(c, response)
}

// ChangePassword verifies the old password and stores a new hash.
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	caller := middleware.CurrentUser(c)

	var input requests.ChangePasswordRequest
	if err := c.BodyParser(&input); err != nil {
		response := httpx.BadRequest("Invalid request body", err)
		return httpx.SendResponse(c, response)
	}

	if err := validator.ValidateStruct(&input); err != nil {
		response := httpx.BadRequest("Validation failed", err)
		return httpx.SendResponse(c, response)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(caller.PasswordHash), []byte(input.OldPassword)); err != nil {
		response := httpx.Unauthorized("Current password is incorrect")
		return httpx.SendResponse(c, response)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		response := httpx.InternalServerError("Failed to process password", err)
		return httpx.SendResponse(c, response)
	}

	if err := h.users.Updates(caller, map[string]interface{}{"password_hash": string(hash)}); err != nil {
		response := httpx.InternalServerError("Failed to change password", err)
		return httpx.SendResponse(c, response)
	}

	response := httpx.OK("Password changed successfully", nil)
	return httpx.SendResponse(c, response)
}

// DeleteUser removes an account. Files and blobs are cascaded first, then
// the account record, so a failure leaves no half-deleted storage behind.
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	caller := middleware.CurrentUser(c)

	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		response := httpx.BadRequest("Invalid user ID", err)
		return httpx.SendResponse(c, response)
	}

	if !caller.IsStaff && caller.ID != userID {
		response := httpx.Forbidden("You may only delete your own account")
		return httpx.SendResponse(c, response)
	}

	target, err := h.users.ByID(userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response := httpx.NotFound("User not found")
			return httpx.SendResponse(c, response)
		}
		response := httpx.InternalServerError("Failed to fetch user", err)
		return httpx.SendResponse(c, response)
	}

	if err := h.files.CascadeDeleteForUser(target, caller.Username); err != nil {
		response := httpx.InternalServerError("Failed to delete user files", err)
		return httpx.SendResponse(c, response)
	}

	if err := h.users.Delete(target.ID); err != nil {
		response := httpx.InternalServerError("Failed to delete user", err)
		return httpx.SendResponse(c, response)
	}

	response := httpx.OK("User deleted successfully", nil)
	return httpx.SendResponse(c, response)
}
