package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kickoff/storefront-api/internal/core/domain"
	"github.com/kickoff/storefront-api/internal/core/ports"
)

// AccountHandler serves authenticated account reads.
type AccountHandler struct {
	authService ports.AuthService
}

func NewAccountHandler(authService ports.AuthService) *AccountHandler {
	return &AccountHandler{authService: authService}
}

// Me returns the profile of the authenticated account.
//
// @Summary      Get own profile
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  accountResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /auth/me [get]
func (h *AccountHandler) Me(c echo.Context) error {
	accountID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	return h.respondAccount(c, accountID)
}

// AdminGet returns any account by ID. Admin role only.
//
// @Summary      Get an account by ID
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Account ID"
// @Success      200  {object}  accountResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /admin/accounts/{id} [get]
func (h *AccountHandler) AdminGet(c echo.Context) error {
	return h.respondAccount(c, c.Param("id"))
}

func (h *AccountHandler) respondAccount(c echo.Context, accountID string) error {
	account, err := h.authService.Profile(c.Request().Context(), accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: "account not found"})
		}
		return err
	}

	return c.JSON(http.StatusOK, accountResponse{
		ID:        account.ID,
		Name:      account.Name,
		Email:     account.Email,
		Role:      account.Role,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	})
}
