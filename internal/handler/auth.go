package handler

import (
	"net/http"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/dto"
	"github.com/Code-Vida/apistock/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// SignUp creates a store together with its first admin and logs them in.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req dto.SignUpRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		h.unauthorized(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.unauthorized(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// unauthorized answers credential failures with 401 instead of the 403 used
// for authorization errors elsewhere.
func (h *AuthHandler) unauthorized(c *gin.Context, err error) {
	if apierror.KindOf(err) == apierror.KindAuthorization {
		c.JSON(http.StatusUnauthorized, apierror.New(apierror.Public(err).Message))
		return
	}
	respondError(c, err)
}
