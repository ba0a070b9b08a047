package rooms

import (
	"errors"

	"roomchat/backend/internal/apperr"
	"roomchat/backend/internal/models"
	"roomchat/backend/internal/storage"

	"gorm.io/gorm"
)

// Invitation decisions.
const (
	DecisionAccept  = "accept"
	DecisionDecline = "decline"
)

// Invitations owns the per-(room, user) invitation lifecycle for private
// rooms: pending → accepted | declined, terminal either way. It shares the
// registry's per-room locks so invitation mutations are serialized with
// membership mutations on the same room.
type Invitations struct {
	storage  storage.Storage
	registry *Registry
}

func NewInvitations(s storage.Storage, registry *Registry) *Invitations {
	return &Invitations{storage: s, registry: registry}
}

// Invite appends a pending invitation for targetUserID to a private room.
// The inviter must be a member; the target must exist, must not already be a
// member, and must not already hold a pending invitation for this room.
func (i *Invitations) Invite(roomID, inviterID, targetUserID string) (*models.Invitation, error) {
	unlock := i.registry.locks.lock(roomID)
	defer unlock()

	room, err := i.storage.GetRoomByID(roomID)
	if err != nil {
		return nil, err
	}
	if room == nil || !room.IsPrivate {
		return nil, apperr.NotFound("private room not found")
	}
	if !room.HasMember(inviterID) {
		return nil, apperr.Authorization("you are not a member of this room")
	}

	target, err := i.storage.GetUserByID(targetUserID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, apperr.NotFound("user not found")
	}
	if room.HasMember(targetUserID) {
		return nil, apperr.Conflict("user is already a member")
	}

	pending, err := i.storage.GetPendingInvitation(roomID, targetUserID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, apperr.Conflict("invitation already sent")
	}

	inv := &models.Invitation{
		RoomID:      roomID,
		UserID:      targetUserID,
		InvitedByID: inviterID,
		Status:      models.InvitationPending,
	}
	if err := i.storage.SaveInvitation(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Resolve finds the unique pending invitation for (roomID, userID) and moves
// it to its terminal state. Accepting also joins the room as part of the same
// atomic update. A second resolve for the same pair fails NotFound: the
// decision is honored at most once.
func (i *Invitations) Resolve(roomID, userID, decision string) (*models.ChatRoom, error) {
	if decision != DecisionAccept && decision != DecisionDecline {
		return nil, apperr.Validation("invalid action")
	}

	unlock := i.registry.locks.lock(roomID)
	defer unlock()

	room, err := i.storage.GetRoomByID(roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, apperr.NotFound("chat room not found")
	}

	inv, err := i.storage.GetPendingInvitation(roomID, userID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apperr.NotFound("invitation not found")
	}

	if decision == DecisionAccept {
		joined, err := i.storage.AcceptInvitation(inv)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Lost a race with a concurrent resolve.
			return nil, apperr.NotFound("invitation not found")
		}
		if err != nil {
			return nil, err
		}
		return joined, nil
	}

	inv.Status = models.InvitationDeclined
	if err := i.storage.SaveInvitation(inv); err != nil {
		return nil, err
	}
	return nil, nil
}

// ListPending returns all pending invitations across rooms where userID is
// the target, each carrying the inviter identity and the invited room's
// name and description.
func (i *Invitations) ListPending(userID string) ([]models.PendingInvite, error) {
	invs, err := i.storage.GetPendingInvitationsForUser(userID)
	if err != nil {
		return nil, err
	}

	out := make([]models.PendingInvite, 0, len(invs))
	for _, inv := range invs {
		out = append(out, models.PendingInvite{
			RoomID:          inv.RoomID,
			RoomName:        inv.Room.Name,
			RoomDescription: inv.Room.Description,
			InvitedByID:     inv.InvitedByID,
			InvitedByName:   inv.InvitedBy.Username,
			CreatedAt:       inv.CreatedAt,
		})
	}
	return out, nil
}
