package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eldiiar/arena-lobby/internal/arena"
	"github.com/eldiiar/arena-lobby/internal/config"
	"github.com/eldiiar/arena-lobby/internal/repository"
	"github.com/eldiiar/arena-lobby/internal/reveal"
	"github.com/eldiiar/arena-lobby/internal/utils"
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Accounts *repository.AccountRepo
	Tokens   *repository.TokenRepo
	Reveals  *reveal.Scheduler // may be nil when Redis is unavailable
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(cfg config.Config, a *repository.AccountRepo, t *repository.TokenRepo, r *reveal.Scheduler) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Accounts: a, Tokens: t, Reveals: r}
}

// ----- DTOs -----

type registerReq struct {
	GameID   string `json:"game_id"`
	Nickname string `json:"nickname"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}
type loginReq struct {
	GameID   string `json:"game_id"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type accountPart struct {
	ID       uint64 `json:"id"`
	GameID   string `json:"game_id"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
	Balance  int64  `json:"balance"`
}
type authResp struct {
	Account accountPart `json:"account"`
	Access  tokenPart   `json:"access"`
	Refresh tokenPart   `json:"refresh"`
}

// validGameID reports whether s is an 8-digit numeric handle.
func validGameID(s string) bool {
	if len(s) != 8 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Register creates a player account and returns a token pair immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.GameID = strings.TrimSpace(req.GameID)
	req.Nickname = strings.TrimSpace(req.Nickname)
	if !validGameID(req.GameID) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "game_id must be 8 digits"})
	}
	if req.Nickname == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nickname/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Accounts.Create(ctx, req.GameID, req.Nickname, req.Phone, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrAccountExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "game_id or phone already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
	}

	return h.issueTokens(ctx, c, http.StatusCreated, accountPart{
		ID: id, GameID: req.GameID, Nickname: req.Nickname, Role: "PLAYER",
	})
}

// Login verifies credentials and returns a fresh token pair. Blocked
// accounts are refused outright.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.GameID = strings.TrimSpace(req.GameID)
	if req.GameID == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "game_id/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Accounts.GetByGameID(ctx, req.GameID)
	if err != nil {
		if errors.Is(err, arena.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if a.Blocked {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account is blocked"})
	}
	if !utils.VerifyPassword(a.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	return h.issueTokens(ctx, c, http.StatusOK, accountPart{
		ID: a.ID, GameID: a.GameID, Nickname: a.Nickname, Role: a.Role, Balance: a.Balance,
	})
}

func (h *AuthHandler) issueTokens(ctx context.Context, c echo.Context, status int, part accountPart) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, part.ID, part.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, part.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}
	return c.JSON(status, authResp{
		Account: part,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	})
}

// Refresh validates a refresh token by hash, rotates it and returns a new
// pair.
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

	a, err := h.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load account failed"})
	}
	if a.Blocked {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account is blocked"})
	}
	return h.issueTokens(ctx, c, http.StatusOK, accountPart{
		ID: a.ID, GameID: a.GameID, Nickname: a.Nickname, Role: a.Role, Balance: a.Balance,
	})
}

// Logout revokes the presented refresh token and tears down the session's
// persisted reveal state so no stale countdown anchor survives into the
// next login.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	accountID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	if h.Reveals != nil {
		if err := h.Reveals.Clear(ctx, accountID); err != nil {
			c.Logger().Warnf("clear reveal state for account %d: %v", accountID, err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated account's profile and balance.
func (h *AuthHandler) Me(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, arena.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, accountPart{
		ID: a.ID, GameID: a.GameID, Nickname: a.Nickname, Role: a.Role, Balance: a.Balance,
	})
}
