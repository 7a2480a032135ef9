package introspect

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	assetdomain "github.com/tollgate-io/tollgate/internal/asset/domain"
)

func newTestRouter(f *engineFixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(f.engine).Register(r)
	return r
}

func TestIntrospectEndpointAllows(t *testing.T) {
	resolver := &fakeResolver{services: map[string]*assetdomain.ServiceDescriptor{
		"did:nv:0001": serviceFixture(),
	}}
	f := newFixture(t, resolver, 10)
	router := newTestRouter(f)

	req := httptest.NewRequest(http.MethodPost, "/introspect", nil)
	req.Header.Set("Authorization", f.mint(t, validClaims(f.clock)))
	req.Header.Set("NVM-Requested-Url", "https://api.example.com/v1/answers/42")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["active"])
	assert.Equal(t, "0xConsumer", body["user_id"])
	assert.Equal(t, "Bearer upstream-tok", body["auth_header"])
	assert.Equal(t, "api.example.com", body["upstream_host"])
}

func TestIntrospectEndpointDeniesWithEmptyBody(t *testing.T) {
	f := newFixture(t, &fakeResolver{}, 0)
	router := newTestRouter(f)

	req := httptest.NewRequest(http.MethodPost, "/introspect", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	req.Header.Set("NVM-Requested-Url", "https://api.example.com/v1/answers/42")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestIntrospectEndpointRequiresRequestedURL(t *testing.T) {
	f := newFixture(t, &fakeResolver{}, 0)
	router := newTestRouter(f)

	req := httptest.NewRequest(http.MethodPost, "/introspect", nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
