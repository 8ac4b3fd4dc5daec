package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/librarium/internal/app/models"
	"github.com/yigit/librarium/internal/app/models/dto"
	"github.com/yigit/librarium/internal/app/services"
	"github.com/yigit/librarium/internal/middleware"
	"github.com/yigit/librarium/internal/pkg/apperrors"
	"github.com/yigit/librarium/internal/pkg/auth"
)

// AuthService is the account API used by AuthController
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.RegisterOutcome, error)
	Login(ctx context.Context, username, password string) (*services.AuthResult, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	Me(ctx context.Context, actor auth.Identity) (*models.User, error)
}

// AuthController handles authentication related operations
type AuthController struct {
	authService AuthService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService AuthService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      logger,
	}
}

// Register handles user registration. A failed welcome email does not fail
// the registration; it is reported as a warning.
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if !middleware.BindRequest(ctx, &req) {
		c.logger.Warn().Msg("Invalid registration request payload")
		return
	}

	outcome, err := c.authService.Register(ctx.Request.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.NewSuccessResponse(toAuthResponse(&outcome.AuthResult), outcome.Message())
	ctx.JSON(http.StatusCreated, resp.WithWarning(outcome.Warning()))
}

// Login handles user login
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !middleware.BindRequest(ctx, &req) {
		return
	}

	result, err := c.authService.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userId", result.User.ID).Msg("User logged in")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(toAuthResponse(result), "Logged in successfully."))
}

// Logout revokes the access token of the request
func (c *AuthController) Logout(ctx *gin.Context) {
	claims := middleware.CurrentClaims(ctx)
	if claims == nil {
		middleware.HandleAPIError(ctx, apperrors.ErrUnauthenticated)
		return
	}

	if err := c.authService.Logout(ctx.Request.Context(), claims); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "You have been logged out."))
}

// Me returns the authenticated account
func (c *AuthController) Me(ctx *gin.Context) {
	identity, ok := actor(ctx)
	if !ok {
		return
	}

	user, err := c.authService.Me(ctx.Request.Context(), identity)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(toUserResponse(user), ""))
}
