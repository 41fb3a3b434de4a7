package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/cplounge/ranksync/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *Handler) initAdminRoutes(api *gin.RouterGroup) {
	admin := api.Group("/admin", h.adminIdentityMiddleware)

	admin.POST("/identities", h.registerIdentity)
	admin.GET("/identities/:platform", h.listIdentities)
	admin.POST("/reconcile/:platform", h.triggerReconcile)
}

type registerIdentityRequest struct {
	Platform string `json:"platform" binding:"required"`
	UserID   string `json:"user_id" binding:"required"`
	Handle   string `json:"handle" binding:"required,handle"`
	Tier     string `json:"tier"`
	Rating   int    `json:"rating"`
}

// registerIdentity writes a pre-verified identity, bypassing the
// ownership check. Operator tooling for members verified by hand.
func (h *Handler) registerIdentity(c *gin.Context) {
	var req registerIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	platform, err := domain.ParsePlatform(req.Platform)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, UnknownPlatformCode)
		return
	}

	userID, err := strconv.ParseInt(req.UserID, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id must be a numeric snowflake"})
		return
	}

	identity := &domain.Identity{
		UserID: userID,
		Handle: req.Handle,
		Tier:   req.Tier,
		Rating: req.Rating,
	}
	if err := h.services.Identities.Register(c.Request.Context(), platform, identity); err != nil {
		if errors.Is(err, domain.ErrHandleTaken) {
			errorResponse(c, http.StatusConflict, HandleTakenCode)
			return
		}
		errorResponse(c, http.StatusInternalServerError, UnknownErrorCode)
		return
	}

	c.JSON(http.StatusCreated, identity)
}

func (h *Handler) listIdentities(c *gin.Context) {
	platform, err := domain.ParsePlatform(c.Param("platform"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, UnknownPlatformCode)
		return
	}

	identities, err := h.services.Identities.List(c.Request.Context(), platform)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, UnknownErrorCode)
		return
	}

	c.JSON(http.StatusOK, gin.H{"identities": identities})
}

// triggerReconcile enqueues an out-of-schedule reconciliation pass.
func (h *Handler) triggerReconcile(c *gin.Context) {
	platform, err := domain.ParsePlatform(c.Param("platform"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, UnknownPlatformCode)
		return
	}

	if err := h.queueClient.EnqueueReconcile(c.Request.Context(), platform); err != nil {
		errorResponse(c, http.StatusInternalServerError, UnknownErrorCode)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "enqueued"})
}
