package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"self-checkout/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func authRouter(secret string) *gin.Engine {
	r := gin.New()
	r.Use(PrometheusMiddleware())
	r.POST("/restock", OperatorAuthMiddleware(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"operator": c.GetString("operator")})
	})
	return r
}

func doRequest(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/restock", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthDisabledWithoutSecret(t *testing.T) {
	w := doRequest(authRouter(""), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequiresToken(t *testing.T) {
	w := doRequest(authRouter("secret"), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(authRouter("secret"), "junk")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthAcceptsOperator(t *testing.T) {
	token, err := utils.IssueToken("secret", "lane-1", utils.RoleOperator, time.Hour)
	require.NoError(t, err)

	w := doRequest(authRouter("secret"), token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"operator":"lane-1"}`, w.Body.String())
}

func TestAuthRejectsOtherRoles(t *testing.T) {
	token, err := utils.IssueToken("secret", "kiosk", "customer", time.Hour)
	require.NoError(t, err)

	w := doRequest(authRouter("secret"), token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRecordHelpersDoNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordCartOperation("add", true)
		RecordCartOperation("add", false)
		RecordLinesAdded(3)
		RecordLinesAdded(0)
	})
}
