package handler

import (
	"errors"
	"net/http"

	"roomchat/backend/internal/apperr"
	"roomchat/backend/internal/chathub"
	"roomchat/backend/internal/config"
	"roomchat/backend/internal/rooms"
	"roomchat/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// Handler містить посилання на ChatHub та сервіси кімнат
type Handler struct {
	Hub         *chathub.ManagerService
	Storage     storage.Storage
	Registry    *rooms.Registry
	Invitations *rooms.Invitations
	Cfg         *config.Config
}

func NewHandler(hub *chathub.ManagerService, s storage.Storage, registry *rooms.Registry, invitations *rooms.Invitations, cfg *config.Config) *Handler {
	return &Handler{
		Hub:         hub,
		Storage:     s,
		Registry:    registry,
		Invitations: invitations,
		Cfg:         cfg,
	}
}

// respondError maps the error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var (
		validation *apperr.ValidationError
		notFound   *apperr.NotFoundError
		conflict   *apperr.ConflictError
		authz      *apperr.AuthorizationError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"message": validation.Msg})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"message": notFound.Msg})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"message": conflict.Msg})
	case errors.As(err, &authz):
		c.JSON(http.StatusForbidden, gin.H{"message": authz.Msg})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
	}
}

// currentUserID returns the authenticated user's ID set by AuthRequired.
func currentUserID(c *gin.Context) string {
	return c.GetString("userID")
}
