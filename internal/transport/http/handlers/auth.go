package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/campus-records/internal/infra/config"
	"github.com/arklim/campus-records/internal/transport/http/middleware"
	"github.com/arklim/campus-records/internal/usecase"
)

// AuthHandler exposes login and logout.
type AuthHandler struct {
	auth *usecase.AuthService
	cfg  config.AuthSettings
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, cfg config.AuthSettings) *AuthHandler {
	return &AuthHandler{auth: auth, cfg: cfg}
}

// RegisterRoutes binds authentication routes, applying optional middleware ahead of the login handler.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, loginMiddlewares ...gin.HandlerFunc) {
	r.POST("/login", append(loginMiddlewares, h.login)...)
	r.POST("/logout", h.logout)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req AuthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, "login", err)
		return
	}

	reqCtx := middleware.GetRequestContext(c)
	input := usecase.LoginInput{Identifier: req.Identifier, Password: req.Password}
	if reqCtx.IP != "" {
		input.IP = &reqCtx.IP
	}
	if reqCtx.UserAgent != "" {
		input.UserAgent = &reqCtx.UserAgent
	}

	result, err := h.auth.Login(c.Request.Context(), input)
	if err != nil {
		respondRecordError(c, err)
		return
	}

	expiresIn := int(time.Until(result.Session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.CookieName, result.Token, expiresIn, "/", "", h.cfg.CookieSecure, true)

	c.JSON(http.StatusOK, AuthLoginResponse{
		AccessToken: result.Token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
		ExpiresAt:   result.Session.ExpiresAt,
		Principal:   newPrincipalSummary(result.Principal),
	})
}

func (h *AuthHandler) logout(c *gin.Context) {
	token, ok := middleware.SessionToken(c, h.cfg.CookieName)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		respondRecordError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.CookieName, "", -1, "/", "", h.cfg.CookieSecure, true)
	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}
