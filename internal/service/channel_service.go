package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/evrelay/event-relay/internal/config"
	"github.com/evrelay/event-relay/internal/errs"
	"github.com/evrelay/event-relay/internal/model"
)

// ChannelServicer is the surface handlers depend on.
type ChannelServicer interface {
	Create(ownerID string) (*model.Channel, error)
	Get(channelID string) (*model.Channel, error)
	Close(channelID string) error
	AddSubscriber(channelID, userID string) error
	GetSubscribers(channelID string) ([]model.Subscriber, error)
}

// ChannelService manages event channel lifecycle.
type ChannelService struct {
	db  *gorm.DB
	cfg *config.Config
	hub *EventHub
}

// NewChannelService creates a channel service.
func NewChannelService(db *gorm.DB, cfg *config.Config, hub *EventHub) *ChannelService {
	return &ChannelService{db: db, cfg: cfg, hub: hub}
}

// Create creates a new event channel for the owner.
func (s *ChannelService) Create(ownerID string) (*model.Channel, error) {
	ent := &model.EventChannel{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		ChannelKey: "ck_" + uuid.New().String()[:16],
		Status:     string(model.ChannelStatusWaiting),
	}
	if err := s.db.Create(ent).Error; err != nil {
		return nil, err
	}
	return entityToChannel(ent), nil
}

// Get returns a channel by ID.
func (s *ChannelService) Get(channelID string) (*model.Channel, error) {
	var ent model.EventChannel
	if err := s.db.Preload("Subscribers").Where("id = ?", channelID).First(&ent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrChannelNotFound
		}
		return nil, err
	}
	return entityToChannel(&ent), nil
}

// Close marks the channel as closed and notifies the hub.
func (s *ChannelService) Close(channelID string) error {
	var ent model.EventChannel
	if err := s.db.Where("id = ?", channelID).First(&ent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrChannelNotFound
		}
		return err
	}
	now := time.Now()
	if err := s.db.Model(&ent).Updates(map[string]interface{}{
		"status":    string(model.ChannelStatusClosed),
		"closed_at": now,
	}).Error; err != nil {
		return err
	}
	s.hub.CloseChannel(channelID)
	return nil
}

// AddSubscriber adds a subscriber to the channel (called when a subscriber joins WS).
func (s *ChannelService) AddSubscriber(channelID, userID string) error {
	var ent model.EventChannel
	if err := s.db.Preload("Subscribers").Where("id = ?", channelID).First(&ent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrChannelNotFound
		}
		return err
	}
	if ent.Status == string(model.ChannelStatusClosed) {
		return errs.ErrChannelClosed
	}
	for _, sub := range ent.Subscribers {
		if sub.UserID == userID {
			return nil
		}
	}
	if len(ent.Subscribers) >= s.cfg.ChannelMaxSubscribers {
		return errs.ErrTooManySubscribers
	}
	sub := &model.ChannelSubscriber{
		ID:        uuid.New().String(),
		ChannelID: channelID,
		UserID:    userID,
		JoinedAt:  time.Now(),
	}
	if err := s.db.Create(sub).Error; err != nil {
		return err
	}
	if ent.Status == string(model.ChannelStatusWaiting) {
		_ = s.db.Model(&ent).Update("status", string(model.ChannelStatusLive))
	}
	return nil
}

// GetSubscribers returns subscribers for a channel.
func (s *ChannelService) GetSubscribers(channelID string) ([]model.Subscriber, error) {
	var ent model.EventChannel
	if err := s.db.Preload("Subscribers").Where("id = ?", channelID).First(&ent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrChannelNotFound
		}
		return nil, err
	}
	out := make([]model.Subscriber, 0, len(ent.Subscribers))
	for _, sub := range ent.Subscribers {
		out = append(out, model.Subscriber{UserID: sub.UserID, JoinedAt: sub.JoinedAt})
	}
	return out, nil
}

func entityToChannel(ent *model.EventChannel) *model.Channel {
	ch := &model.Channel{
		ID:         ent.ID,
		OwnerID:    ent.OwnerID,
		ChannelKey: ent.ChannelKey,
		Status:     model.ChannelStatus(ent.Status),
		CreatedAt:  ent.CreatedAt,
		ClosedAt:   ent.ClosedAt,
	}
	for _, sub := range ent.Subscribers {
		ch.Subscribers = append(ch.Subscribers, model.Subscriber{UserID: sub.UserID, JoinedAt: sub.JoinedAt})
	}
	return ch
}
