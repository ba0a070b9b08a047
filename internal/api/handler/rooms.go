package handler

import (
	"net/http"
	"strconv"

	"roomchat/backend/internal/config"
	"roomchat/backend/internal/rooms"

	"github.com/gin-gonic/gin"
)

type createRoomRequest struct {
	Name        string `json:"name" binding:"required,max=50"`
	Description string `json:"description" binding:"max=200"`
	IsPrivate   bool   `json:"is_private"`
}

// CreateRoom створює нову кімнату. Творець стає її першим учасником.
func (h *Handler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	room, err := h.Registry.CreateRoom(req.Name, req.Description, currentUserID(c), req.IsPrivate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

// ListRooms повертає кімнати, учасником яких є користувач.
func (h *Handler) ListRooms(c *gin.Context) {
	userRooms, err := h.Registry.RoomsForUser(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userRooms)
}

// ListAvailableRooms повертає публічні кімнати, до яких користувач ще не приєднався.
func (h *Handler) ListAvailableRooms(c *gin.Context) {
	available, err := h.Registry.ListAvailable(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, available)
}

// JoinRoom приєднує користувача до кімнати (ідемпотентно).
func (h *Handler) JoinRoom(c *gin.Context) {
	room, err := h.Registry.Join(c.Param("id"), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

type joinPrivateRequest struct {
	RoomCode string `json:"room_code" binding:"required"`
}

// JoinPrivateRoom приєднує користувача до приватної кімнати за кодом.
func (h *Handler) JoinPrivateRoom(c *gin.Context) {
	var req joinPrivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	room, err := h.Registry.JoinByCode(req.RoomCode, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

type inviteRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Invite надсилає запрошення до приватної кімнати за email користувача.
func (h *Handler) Invite(c *gin.Context) {
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	target, err := h.Storage.GetUserByEmail(req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	if _, err := h.Invitations.Invite(c.Param("id"), currentUserID(c), target.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invitation sent successfully"})
}

// ListInvitations повертає очікувані запрошення користувача.
func (h *Handler) ListInvitations(c *gin.Context) {
	pending, err := h.Invitations.ListPending(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pending)
}

// ResolveInvitation приймає або відхиляє запрошення.
func (h *Handler) ResolveInvitation(c *gin.Context) {
	action := c.Param("action")

	room, err := h.Invitations.Resolve(c.Param("roomId"), currentUserID(c), action)
	if err != nil {
		respondError(c, err)
		return
	}

	if action == rooms.DecisionAccept {
		c.JSON(http.StatusOK, gin.H{"message": "Invitation accepted", "room": room})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invitation declined"})
}

// GetMessages повертає сторінку історії повідомлень кімнати.
func (h *Handler) GetMessages(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(config.DefaultMessagePageSize)))
	if limit <= 0 || limit > config.MaxMessagePageSize {
		limit = config.DefaultMessagePageSize
	}

	messages, err := h.Storage.GetMessages(c.Param("id"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// LeaveRoom видаляє користувача зі складу кімнати.
func (h *Handler) LeaveRoom(c *gin.Context) {
	deleted, err := h.Registry.Leave(c.Param("id"), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	if deleted {
		c.JSON(http.StatusOK, gin.H{"message": "Room deleted as no members left"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Left room successfully"})
}
