package model

import "time"

// EventChannel is the channel entity (GORM).
type EventChannel struct {
	ID         string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerID    string     `gorm:"type:uuid;not null;index"`
	ChannelKey string     `gorm:"size:64;not null;uniqueIndex"`
	Status     string     `gorm:"size:20;not null;default:waiting"` // waiting, live, closed
	CreatedAt  time.Time  `gorm:"autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime"`
	ClosedAt   *time.Time `gorm:"column:closed_at"`

	Subscribers []ChannelSubscriber `gorm:"foreignKey:ChannelID"`
}

func (EventChannel) TableName() string { return "event_channels" }

// ChannelSubscriber is a subscriber joined to a channel (GORM).
type ChannelSubscriber struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChannelID string    `gorm:"type:uuid;not null;index"`
	UserID    string    `gorm:"type:uuid;not null;index"`
	JoinedAt  time.Time `gorm:"column:joined_at;not null"`
}

func (ChannelSubscriber) TableName() string { return "channel_subscribers" }
