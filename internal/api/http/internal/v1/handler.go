package v1

import (
	"github.com/cplounge/ranksync/internal/config"
	"github.com/cplounge/ranksync/internal/queue/client"
	"github.com/cplounge/ranksync/internal/service"
	"github.com/cplounge/ranksync/pkg/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services     *service.Services
	tokenManager auth.TokenManager
	config       *config.Config
	queueClient  *client.Client
}

func NewHandler(
	services *service.Services,
	tokenManager auth.TokenManager,
	config *config.Config,
	queueClient *client.Client,
) *Handler {
	return &Handler{
		services:     services,
		tokenManager: tokenManager,
		config:       config,
		queueClient:  queueClient,
	}
}

func (h *Handler) Init(api *gin.RouterGroup) {
	v1 := api.Group("v1")

	h.initAdminRoutes(v1)
}
