package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/uzhavansanthai/marketplace/internal/middleware/auth"
	"github.com/uzhavansanthai/marketplace/internal/models"
	"github.com/uzhavansanthai/marketplace/internal/mykafka"
)

type ChatHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

type sendMessageRequest struct {
	ReceiverID  uuid.UUID  `json:"receiver_id" validate:"required"`
	Message     string     `json:"message" validate:"required,min=1,max=1000"`
	ProductID   *uuid.UUID `json:"product_id"`
	MessageType string     `json:"message_type" validate:"omitempty,oneof=text image file offer"`
}

func (h *ChatHandler) Send(c echo.Context) error {
	user := auth.CurrentUser(c)

	var req sendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	var receiver models.User
	if err := h.DB.First(&receiver, "id = ?", req.ReceiverID).Error; err != nil {
		return respondError(c, http.StatusNotFound, "Receiver not found",
			"the specified receiver does not exist")
	}

	if req.ProductID != nil {
		var product models.Product
		if err := h.DB.First(&product, "id = ?", *req.ProductID).Error; err != nil {
			return respondError(c, http.StatusNotFound, "Product not found",
				"the specified product does not exist")
		}
	}

	messageType := req.MessageType
	if messageType == "" {
		messageType = "text"
	}

	msg := models.ChatMessage{
		SenderID:    user.ID,
		ReceiverID:  req.ReceiverID,
		ProductID:   req.ProductID,
		Message:     req.Message,
		MessageType: messageType,
		IsRead:      false,
	}
	if err := h.DB.Create(&msg).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Message sending failed",
			"an error occurred while sending the message")
	}

	if err := h.DB.Preload("Sender").Preload("Receiver").Preload("Product").
		First(&msg, "id = ?", msg.ID).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Message sending failed",
			"an error occurred while sending the message")
	}

	h.publish(c, msg.ID.String(), map[string]any{
		"type":        "chat_message_sent",
		"message_id":  msg.ID,
		"sender_id":   msg.SenderID,
		"receiver_id": msg.ReceiverID,
	})

	return respond(c, http.StatusCreated, "Message sent successfully", msg)
}

// Conversation returns both directions oldest-first and, in the same
// transaction, marks every message from the other party to the caller as
// read. Messages the caller sent are left untouched.
func (h *ChatHandler) Conversation(c echo.Context) error {
	user := auth.CurrentUser(c)

	otherID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Validation failed", "invalid user id")
	}

	var other models.User
	if err := h.DB.First(&other, "id = ?", otherID).Error; err != nil {
		return respondError(c, http.StatusNotFound, "User not found",
			"the specified user does not exist")
	}

	page, offset, limit := pageParams(c)

	var (
		messages []models.ChatMessage
		total    int64
	)
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		pair := tx.Model(&models.ChatMessage{}).
			Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
				user.ID, otherID, otherID, user.ID)

		if err := pair.Count(&total).Error; err != nil {
			return err
		}
		if err := pair.Preload("Sender").Preload("Product").
			Order("created_at ASC").Offset(offset).Limit(limit).
			Find(&messages).Error; err != nil {
			return err
		}

		return tx.Model(&models.ChatMessage{}).
			Where("sender_id = ? AND receiver_id = ? AND is_read = ?", otherID, user.ID, false).
			Update("is_read", true).Error
	})
	if txErr != nil {
		return respondError(c, http.StatusInternalServerError, "Conversation retrieval failed",
			"an error occurred while retrieving the conversation")
	}

	return respond(c, http.StatusOK, "Conversation retrieved successfully", map[string]any{
		"messages": messages,
		"other_user": map[string]any{
			"id":            other.ID,
			"name":          other.Name,
			"profile_image": other.ProfileImage,
		},
		"pagination": NewPagination(page, limit, total),
	})
}

type conversationSummary struct {
	OtherUser   *models.User        `json:"other_user"`
	LastMessage *models.ChatMessage `json:"last_message"`
	UnreadCount int                 `json:"unread_count"`
}

// Conversations groups the caller's messages by counterparty and reports the
// latest message and unread count for each pair, newest first.
func (h *ChatHandler) Conversations(c echo.Context) error {
	user := auth.CurrentUser(c)
	page, offset, limit := pageParams(c)

	var messages []models.ChatMessage
	if err := h.DB.
		Where("sender_id = ? OR receiver_id = ?", user.ID, user.ID).
		Order("created_at DESC").
		Find(&messages).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Conversations retrieval failed",
			"an error occurred while retrieving conversations")
	}

	byPartner := map[uuid.UUID]*conversationSummary{}
	order := []uuid.UUID{}
	for i := range messages {
		msg := messages[i]
		partnerID := msg.SenderID
		if partnerID == user.ID {
			partnerID = msg.ReceiverID
		}

		summary, ok := byPartner[partnerID]
		if !ok {
			summary = &conversationSummary{LastMessage: &messages[i]}
			byPartner[partnerID] = summary
			order = append(order, partnerID)
		}
		if !msg.IsRead && msg.ReceiverID == user.ID {
			summary.UnreadCount++
		}
	}

	// messages arrive newest-first, so order is already sorted by latest
	// activity; the sort just pins ties deterministically.
	sort.SliceStable(order, func(i, j int) bool {
		return byPartner[order[i]].LastMessage.CreatedAt.After(byPartner[order[j]].LastMessage.CreatedAt)
	})

	start := offset
	if start > len(order) {
		start = len(order)
	}
	end := start + limit
	if end > len(order) {
		end = len(order)
	}

	summaries := make([]conversationSummary, 0, end-start)
	for _, partnerID := range order[start:end] {
		summary := byPartner[partnerID]
		var partner models.User
		if err := h.DB.First(&partner, "id = ?", partnerID).Error; err == nil {
			summary.OtherUser = &partner
		}
		summaries = append(summaries, *summary)
	}

	return respond(c, http.StatusOK, "Conversations retrieved successfully", map[string]any{
		"conversations": summaries,
		"pagination":    NewPagination(page, limit, int64(len(order))),
	})
}

type markReadRequest struct {
	SenderID uuid.UUID `json:"sender_id" validate:"required"`
}

func (h *ChatHandler) MarkRead(c echo.Context) error {
	user := auth.CurrentUser(c)

	var req markReadRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.DB.Model(&models.ChatMessage{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", req.SenderID, user.ID, false).
		Update("is_read", true).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Mark read failed",
			"an error occurred while marking messages as read")
	}

	return respond(c, http.StatusOK, "Messages marked as read successfully", nil)
}

func (h *ChatHandler) UnreadCount(c echo.Context) error {
	user := auth.CurrentUser(c)

	var count int64
	if err := h.DB.Model(&models.ChatMessage{}).
		Where("receiver_id = ? AND is_read = ?", user.ID, false).
		Count(&count).Error; err != nil {
		return respondError(c, http.StatusInternalServerError, "Unread count retrieval failed",
			"an error occurred while retrieving unread count")
	}

	return respond(c, http.StatusOK, "Unread count retrieved successfully",
		map[string]any{"unread_count": count})
}

func (h *ChatHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "chat_events", key, event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}
