package controllers

import (
	"net/http"
	"strings"
	"time"

	"storefront-service/common/logger"
	"storefront-service/middleware"
	"storefront-service/models"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthController serves registration, login and logout.
type AuthController struct {
	auth       services.AuthService
	sessionTTL time.Duration
	validator  *RequestValidator
	view       *PageRenderer
	logger     *zap.Logger
}

func NewAuthController(auth services.AuthService, sessionTTL time.Duration, validator *RequestValidator, view *PageRenderer, logger *zap.Logger) *AuthController {
	return &AuthController{auth: auth, sessionTTL: sessionTTL, validator: validator, view: view, logger: logger}
}

// Home handles GET /.
func (ac *AuthController) Home(c *gin.Context) {
	c.Redirect(http.StatusFound, "/products")
}

// LoginPage handles GET /login.
func (ac *AuthController) LoginPage(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/products")
		return
	}

	data := gin.H{"Title": "Login"}
	if _, failed := c.GetQuery("error"); failed {
		data["Flash"] = &Flash{Kind: "error", Message: "Invalid username or password"}
	}
	if _, ok := c.GetQuery("logout"); ok {
		data["Flash"] = &Flash{Kind: "success", Message: "You have been logged out"}
	}
	if _, ok := c.GetQuery("registered"); ok {
		data["Flash"] = &Flash{Kind: "success", Message: "Registration successful! Please log in."}
	}
	ac.view.HTML(c, http.StatusOK, "login.tmpl", data)
}

// Login handles POST /login.
func (ac *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil || ac.validator.Struct(&req) != nil {
		c.Redirect(http.StatusFound, "/login?error")
		return
	}

	_, token, appErr := ac.auth.Login(c.Request.Context(), strings.TrimSpace(req.Username), req.Password)
	if appErr != nil {
		logger.FromContext(c, ac.logger).Info("Login failed", zap.String("username", req.Username))
		c.Redirect(http.StatusFound, "/login?error")
		return
	}

	middleware.SetSessionCookie(c, token, int(ac.sessionTTL.Seconds()), ac.view.secure)
	c.Redirect(http.StatusFound, "/products")
}

// RegisterPage handles GET /register.
func (ac *AuthController) RegisterPage(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/products")
		return
	}
	ac.view.HTML(c, http.StatusOK, "register.tmpl", gin.H{"Title": "Register", "Form": &models.RegisterRequest{}})
}

// Register handles POST /register. Validation failures re-render the form
// with the entered values.
func (ac *AuthController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		ac.renderRegister(c, http.StatusBadRequest, &req, "Invalid registration form")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := ac.validator.Struct(&req); err != nil {
		ac.renderRegister(c, http.StatusBadRequest, &req, err.Error())
		return
	}

	if _, appErr := ac.auth.Register(c.Request.Context(), &req); appErr != nil {
		ac.renderRegister(c, appErr.Code, &req, appErr.Message)
		return
	}

	c.Redirect(http.StatusFound, "/login?registered")
}

func (ac *AuthController) renderRegister(c *gin.Context, status int, req *models.RegisterRequest, message string) {
	req.Password = ""
	ac.view.HTML(c, status, "register.tmpl", gin.H{
		"Title": "Register",
		"Form":  req,
		"Flash": &Flash{Kind: "error", Message: message},
	})
}

// Logout handles POST /logout.
func (ac *AuthController) Logout(c *gin.Context) {
	middleware.ClearSessionCookie(c, ac.view.secure)
	c.Redirect(http.StatusFound, "/products?logout")
}
