package controllers

import (
	"encoding/base64"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
	"time"

	"storefront-service/common/logger"
	"storefront-service/middleware"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const flashCookie = "flash"

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string `json:"k"`
	Message string `json:"m"`
}

// queryErrors maps the ?error= codes used in redirects to page messages.
var queryErrors = map[string]string{
	"access_denied":     "Access denied",
	"unauthorized":      "Unauthorized access to order",
	"invalid_status":    "Order is not awaiting payment",
	"order_not_found":   "Order not found",
	"already_reviewed":  "You have already reviewed this product",
	"review_not_found":  "Review not found",
	"product_not_found": "Product not found",
}

// PageRenderer renders server-side pages with the data every layout needs:
// the signed-in user, their cart count and any pending flash message.
type PageRenderer struct {
	carts  services.CartService
	logger *zap.Logger
	secure bool
}

func NewPageRenderer(carts services.CartService, logger *zap.Logger, secureCookies bool) *PageRenderer {
	return &PageRenderer{carts: carts, logger: logger, secure: secureCookies}
}

// HTML renders the named template. Values already present in data win over
// the defaults added here.
func (v *PageRenderer) HTML(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	user := middleware.CurrentUser(c)
	setDefault(data, "User", user)
	if _, ok := data["CartCount"]; !ok && user != nil && v.carts != nil {
		count, appErr := v.carts.CountItems(c.Request.Context(), user.UserID)
		if appErr != nil {
			logger.FromContext(c, v.logger).Warn("Cart count unavailable", zap.Error(appErr))
		}
		data["CartCount"] = count
	}

	if f := v.popFlash(c); f != nil {
		setDefault(data, "Flash", f)
	} else if msg, ok := queryErrors[c.Query("error")]; ok {
		setDefault(data, "Flash", &Flash{Kind: "error", Message: msg})
	}

	c.HTML(status, name, data)
}

func (v *PageRenderer) Success(c *gin.Context, message string) {
	v.setFlash(c, &Flash{Kind: "success", Message: message})
}

func (v *PageRenderer) Error(c *gin.Context, message string) {
	v.setFlash(c, &Flash{Kind: "error", Message: message})
}

// RedirectSuccess flashes message and redirects with 302.
func (v *PageRenderer) RedirectSuccess(c *gin.Context, location, message string) {
	v.Success(c, message)
	c.Redirect(http.StatusFound, location)
}

func (v *PageRenderer) RedirectError(c *gin.Context, location, message string) {
	v.Error(c, message)
	c.Redirect(http.StatusFound, location)
}

func (v *PageRenderer) setFlash(c *gin.Context, f *Flash) {
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, base64.RawURLEncoding.EncodeToString(raw), 60, "/", "", v.secure, true)
}

func (v *PageRenderer) popFlash(c *gin.Context) *Flash {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, "", -1, "/", "", v.secure, true)

	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var f Flash
	if err := json.Unmarshal(decoded, &f); err != nil || f.Message == "" {
		return nil
	}
	return &f
}

func setDefault(data gin.H, key string, value any) {
	if _, ok := data[key]; !ok {
		data[key] = value
	}
}

// TemplateFuncs is the FuncMap shared by every page template.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": func(d decimal.Decimal) string {
			return "$" + d.StringFixed(2)
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006 15:04")
		},
		"dateptr": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format("Jan 2, 2006 15:04")
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"seq": func(n int) []int {
			out := make([]int, n)
			for i := range out {
				out[i] = i + 1
			}
			return out
		},
		"lower":    strings.ToLower,
		"truncate": truncate,
		"dict":     dict,
	}
}

// dict builds a map from alternating key/value arguments so a partial can
// receive more than one value.
func dict(pairs ...any) map[string]any {
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		if k, ok := pairs[i].(string); ok {
			m[k] = pairs[i+1]
		}
	}
	return m
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
