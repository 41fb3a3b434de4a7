package apiHttp

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"

	"github.com/cplounge/ranksync/pkg/auth"
	"github.com/cplounge/ranksync/pkg/limiter"
	"github.com/cplounge/ranksync/pkg/logger"
	"github.com/cplounge/ranksync/pkg/validator"

	internalV1 "github.com/cplounge/ranksync/internal/api/http/internal/v1"
	"github.com/cplounge/ranksync/internal/config"
	"github.com/cplounge/ranksync/internal/queue/client"
	"github.com/cplounge/ranksync/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services     *service.Services
	tokenManager auth.TokenManager
	config       *config.Config
	queueClient  *client.Client
}

func NewHandlers(
	services *service.Services,
	tokenManager auth.TokenManager,
	cfg *config.Config,
	queueClient *client.Client,
) *Handler {
	return &Handler{
		services:     services,
		tokenManager: tokenManager,
		config:       cfg,
		queueClient:  queueClient,
	}
}

func (h *Handler) Init(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	validator.RegisterGinValidator()

	router.Use(
		ginzap.Ginzap(logger.Logger(), time.RFC3339, true),
		limiter.Limit(cfg.Limiter.RPS, cfg.Limiter.Burst, cfg.Limiter.TTL),
		corsMiddleware,
	)
	router.Use(ginzap.RecoveryWithZap(logger.Logger(), true))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h.initAPI(router)

	return router
}

func (h *Handler) initAPI(router *gin.Engine) {
	internalHandlersV1 := internalV1.NewHandler(h.services, h.tokenManager, h.config, h.queueClient)
	api := router.Group("/api")
	internalHandlersV1.Init(api)
}
