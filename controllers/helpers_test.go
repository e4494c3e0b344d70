package controllers

import (
	"encoding/base64"
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"storefront-service/middleware"
	"storefront-service/models"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var pageNames = []string{
	"login.tmpl", "register.tmpl", "products.tmpl", "product-detail.tmpl",
	"cart.tmpl", "checkout.tmpl", "order-history.tmpl", "order-detail.tmpl",
	"payment.tmpl", "payment-status.tmpl", "add-review.tmpl", "edit-review.tmpl",
	"my-reviews.tmpl", "admin-dashboard.tmpl", "admin-products.tmpl",
	"admin-product-form.tmpl", "admin-orders.tmpl", "admin-payments.tmpl",
}

// stubTemplates renders "<name>|<title>|<flash kind>:<flash message>" for
// every page so handlers can be tested without the real markup.
func stubTemplates() *template.Template {
	var b strings.Builder
	for _, name := range pageNames {
		b.WriteString(`{{define "` + name + `"}}` + name + `|{{.Title}}|{{with .Flash}}{{.Kind}}:{{.Message}}{{end}}{{end}}`)
	}
	return template.Must(template.New("").Funcs(TemplateFuncs()).Parse(b.String()))
}

type session struct {
	user   *models.User
	cookie string
}

var testTokens = services.NewTokenService("controller-test-secret", time.Hour)

func newSession(t *testing.T, role models.Role) session {
	t.Helper()
	u := &models.User{ID: uuid.New(), Username: "user" + strings.ToLower(string(role)), Role: role}
	token, err := testTokens.GenerateSessionToken(u)
	require.NoError(t, err)
	return session{user: u, cookie: token}
}

// anonymous is the zero session: no cookie.
var anonymous session

func newRouter() *gin.Engine {
	r := gin.New()
	r.SetHTMLTemplate(stubTemplates())
	r.Use(middleware.Authenticate(testTokens))
	return r
}

// newView returns a renderer whose cart count lookups always succeed.
func newView(carts *MockCartService) *PageRenderer {
	if carts == nil {
		carts = new(MockCartService)
	}
	carts.On("CountItems", mock.Anything, mock.Anything).Return(0, nil).Maybe()
	return NewPageRenderer(carts, zap.NewNop(), false)
}

func do(r http.Handler, method, path string, form url.Values, s session) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if s.cookie != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: s.cookie})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// flashOf decodes the flash cookie set by the response, if any.
func flashOf(w *httptest.ResponseRecorder) *Flash {
	for _, c := range w.Result().Cookies() {
		if c.Name != flashCookie || c.Value == "" {
			continue
		}
		raw, err := base64.RawURLEncoding.DecodeString(c.Value)
		if err != nil {
			return nil
		}
		var f Flash
		if json.Unmarshal(raw, &f) != nil {
			return nil
		}
		return &f
	}
	return nil
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
