package introspect

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// The proxy forwards the originally requested URL under this header in its
// auth subrequest; the name is part of the wire contract with the nginx site
// config and must not drift.
const (
	headerAuthorization = "Authorization"
	headerRequestedURL  = "NVM-Requested-Url"
)

type response struct {
	Active       bool   `json:"active"`
	UserID       string `json:"user_id,omitempty"`
	Owner        string `json:"owner,omitempty"`
	AuthType     string `json:"auth_type,omitempty"`
	AuthHeader   string `json:"auth_header,omitempty"`
	ServiceToken string `json:"service_token,omitempty"`
	UpstreamHost string `json:"upstream_host,omitempty"`
	Scope        string `json:"scope,omitempty"`
	Exp          int64  `json:"exp,omitempty"`
	Iat          int64  `json:"iat,omitempty"`
}

// Handler adapts the engine to the proxy's auth subrequest contract: 200 with
// the identity payload on allow, bare 401 on deny.
type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) Register(r gin.IRouter) {
	r.POST("/introspect", h.introspect)
}

func (h *Handler) introspect(c *gin.Context) {
	decision := h.engine.Decide(
		c.Request.Context(),
		c.GetHeader(headerAuthorization),
		c.GetHeader(headerRequestedURL),
	)
	if !decision.Allow {
		c.Status(http.StatusUnauthorized)
		return
	}

	c.JSON(http.StatusOK, response{
		Active:       true,
		UserID:       decision.UserID,
		Owner:        decision.Owner,
		AuthType:     decision.AuthType,
		AuthHeader:   decision.AuthHeader,
		ServiceToken: decision.ServiceToken,
		UpstreamHost: decision.UpstreamHost,
		Scope:        decision.Scope,
		Exp:          decision.Exp,
		Iat:          decision.Iat,
	})
}
