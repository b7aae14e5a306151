package handler

import (
    "context"      // context with cancellation for DB calls
    "database/sql" // sentinel errors from the repository layer
    "net/http"     // HTTP status codes and primitives
    "strings"      // string normalization
    "time"         // timeouts for DB calls

    "github.com/golang-jwt/jwt/v5" // parsing access tokens during logout
    "github.com/labstack/echo/v4"  // Echo framework for HTTP routing

    "github.com/voltswap/battery-swap-api/internal/config"
    "github.com/voltswap/battery-swap-api/internal/model"
    "github.com/voltswap/battery-swap-api/internal/repository"
    "github.com/voltswap/battery-swap-api/internal/utils"
)

// AuthHandler bundles dependencies for registration, login and token
// life-cycle endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Accounts *repository.AccountRepo
	Tokens   *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, a *repository.AccountRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Accounts: a, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FullName        string `json:"full_name"`
	AccountType     string `json:"account_type"` // INDIVIDUAL | COMPANY
	Cnpj            string `json:"cnpj"`
	Address         string `json:"address"`
	Phone           string `json:"phone"`
}

type loginReq struct {
	// Identifier may be either the username or the email.
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type accountPart struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	AccountType string `json:"account_type"`
	FullName    string `json:"full_name"`
}

type authResp struct {
	Account accountPart `json:"account"`
	Access  tokenPart   `json:"access"`
	Refresh tokenPart   `json:"refresh"`
}

func accountToPart(a *model.Account) accountPart {
	return accountPart{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		AccountType: a.AccountType,
		FullName:    a.FullName,
	}
}

// validateRegister applies the registration constraints: required
// lengths, password confirmation and the tax-id rule (Cnpj required
// exactly when registering a COMPANY).
func validateRegister(req *registerReq) fieldErrors {
	errs := fieldErrors{}
	errs.requireMax("username", req.Username, true, 50)
	errs.requireMax("email", req.Email, true, 255)
	if e := strings.TrimSpace(req.Email); e != "" && !strings.Contains(e, "@") {
		errs.add("email", "email is invalid")
	}
	if len(req.Password) < 6 {
		errs.add("password", "password must be at least 6 characters")
	} else if len(req.Password) > 100 {
		errs.add("password", "password must be at most 100 characters")
	}
	if req.ConfirmPassword != req.Password {
		errs.add("confirm_password", "passwords do not match")
	}
	errs.requireMax("full_name", req.FullName, true, 100)
	switch req.AccountType {
	case model.AccountIndividual, model.AccountCompany:
	default:
		errs.add("account_type", "account_type must be INDIVIDUAL or COMPANY")
	}
	if req.AccountType == model.AccountCompany && strings.TrimSpace(req.Cnpj) == "" {
		errs.add("Cnpj", "cnpj is required for company accounts")
	}
	errs.requireMax("Cnpj", req.Cnpj, false, 18)
	errs.requireMax("address", req.Address, false, 200)
	errs.requireMax("phone", req.Phone, false, 20)
	return errs
}

// Register creates an account and returns a token pair immediately, so
// registration doubles as the first sign-in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.AccountType = strings.ToUpper(strings.TrimSpace(req.AccountType))

	if errs := validateRegister(&req); !errs.empty() {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	params := repository.CreateAccountParams{
		Username:    req.Username,
		Email:       req.Email,
		AccountType: req.AccountType,
		FullName:    strings.TrimSpace(req.FullName),
		Address:     optional(req.Address),
		Phone:       optional(req.Phone),
	}
	// The tax id is only stored for companies, even when a client
	// sends one for an individual.
	if req.AccountType == model.AccountCompany {
		params.Cnpj = optional(req.Cnpj)
	}

	acc, err := h.Accounts.Create(ctx, params, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		switch err {
		case repository.ErrUsernameExists:
			return c.JSON(http.StatusConflict, echo.Map{"errors": fieldErrors{"username": {"username already exists"}}})
		case repository.ErrEmailExists:
			return c.JSON(http.StatusConflict, echo.Map{"errors": fieldErrors{"email": {"email already exists"}}})
		case repository.ErrCnpjExists:
			return c.JSON(http.StatusConflict, echo.Map{"errors": fieldErrors{"Cnpj": {"cnpj already exists"}}})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
	}

	return h.issueTokens(c, ctx, acc, http.StatusCreated)
}

// Login verifies credentials (by username or email) and returns a new
// token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Identifier == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "identifier/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Usernames take precedence; fall back to email lookup.
	acc, err := h.Accounts.GetByUsername(ctx, req.Identifier)
	if err == sql.ErrNoRows {
		acc, err = h.Accounts.GetByEmail(ctx, req.Identifier)
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(acc.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	return h.issueTokens(c, ctx, acc, http.StatusOK)
}

// issueTokens mints an access/refresh pair for the account and stores
// the refresh hash.
func (h *AuthHandler) issueTokens(c echo.Context, ctx context.Context, acc *model.Account, status int) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, acc.ID, acc.AccountType, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, acc.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}
	return c.JSON(status, authResp{
		Account: accountToPart(acc),
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	})
}

// Refresh validates a refresh token by hash, revokes it and issues a
// new pair (rotation).
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	accountID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	acc, err := h.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load account failed"})
	}

	return h.issueTokens(c, ctx, acc, http.StatusOK)
}

// RefreshAccess validates a refresh token and returns a new access
// token WITHOUT rotating the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	accountID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	acc, err := h.Accounts.GetByID(ctx, accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load account failed"})
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, accountID, acc.AccountType, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout revokes either the specific refresh token from the body or,
// when only a bearer access token is supplied, every session of that
// account.
func (h *AuthHandler) Logout(c echo.Context) error {
	// Inspect the Authorization header ourselves so this endpoint can
	// be called without the JWT middleware.
	var accountID string
	hasBearer := false
	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		rawToken := strings.TrimPrefix(authHeader, "Bearer ")
		tok, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, echo.ErrUnauthorized
			}
			return []byte(h.Cfg.JWTSecret), nil
		})
		if err == nil && tok.Valid {
			if claims, ok := tok.Claims.(jwt.MapClaims); ok {
				if sub, ok := claims["sub"].(string); ok && sub != "" {
					accountID = sub
					hasBearer = true
				}
			}
		}
	}

	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Bearer only: revoke every session across devices.
	if hasBearer && refreshToken == "" {
		if err := h.Tokens.RevokeAllForAccount(ctx, accountID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}
	// Refresh token in the body: revoke that single session.
	if refreshToken != "" {
		hash := utils.HashRefreshRaw(refreshToken)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
}

// Me is a simple protected endpoint exposing the caller's identity.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"account_id": c.Get("account_id"),
		"role":       c.Get("role"),
	})
}
