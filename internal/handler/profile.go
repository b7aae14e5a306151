package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/voltswap/battery-swap-api/internal/model"
	"github.com/voltswap/battery-swap-api/internal/repository"
)

// ProfileHandler serves the authenticated account's own profile:
// read, edit and account deletion.
type ProfileHandler struct {
	Accounts *repository.AccountRepo
	Tokens   *repository.TokenRepo
}

func NewProfileHandler(a *repository.AccountRepo, t *repository.TokenRepo) *ProfileHandler {
	return &ProfileHandler{Accounts: a, Tokens: t}
}

type profileResp struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	AccountType string  `json:"account_type"`
	Cnpj        *string `json:"cnpj,omitempty"`
	FullName    string  `json:"full_name"`
	Address     *string `json:"address,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

type updateProfileReq struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}

func profileFromAccount(a *model.Account) profileResp {
	return profileResp{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		AccountType: a.AccountType,
		Cnpj:        a.Cnpj,
		FullName:    a.FullName,
		Address:     a.Address,
		Phone:       a.Phone,
		CreatedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Get returns the caller's full profile.
func (h *ProfileHandler) Get(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	acc, err := h.Accounts.GetByID(ctx, accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, profileFromAccount(acc))
}

// Update edits the mutable profile fields. Username, account kind and
// tax id stay fixed after registration.
func (h *ProfileHandler) Update(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	errs := fieldErrors{}
	errs.requireMax("full_name", req.FullName, true, 100)
	errs.requireMax("email", req.Email, true, 255)
	if e := strings.TrimSpace(req.Email); e != "" && !strings.Contains(e, "@") {
		errs.add("email", "email is invalid")
	}
	errs.requireMax("address", req.Address, false, 200)
	errs.requireMax("phone", req.Phone, false, 20)
	if !errs.empty() {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Accounts.UpdateProfile(ctx, accountID,
		strings.TrimSpace(req.FullName), req.Email, optional(req.Address), optional(req.Phone))
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"errors": fieldErrors{"email": {"email already exists"}}})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	acc, err := h.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, profileFromAccount(acc))
}

// Delete removes the caller's account. Accounts that took part in any
// appointment are kept for history and the delete is refused. A
// company's batteries are removed along with the account.
func (h *ProfileHandler) Delete(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Accounts.Delete(ctx, accountID); err != nil {
		switch err {
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "account has appointment history and cannot be deleted"})
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	// Sessions die with the account.
	_ = h.Tokens.RevokeAllForAccount(ctx, accountID)
	return c.NoContent(http.StatusNoContent)
}
