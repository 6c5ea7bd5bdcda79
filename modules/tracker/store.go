package tracker

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Channel is one station channel in the playlist API.
type Channel struct {
	ID   int    `gorm:"primaryKey"`
	Name string `gorm:"size:255;not null"`
}

// Track is a deduplicated track identity. Two announcements with the same
// artist/title/album/year are the same track; the cover URL may be updated
// in place.
type Track struct {
	ID     uint   `gorm:"primaryKey"`
	Artist string `gorm:"size:255;not null;uniqueIndex:idx_track_identity"`
	Title  string `gorm:"size:255;not null;uniqueIndex:idx_track_identity"`
	Album  string `gorm:"size:255;not null;uniqueIndex:idx_track_identity"`
	Year   int    `gorm:"not null;uniqueIndex:idx_track_identity"`
	Cover  string `gorm:"size:512"`
}

// Play marks that a track was heard on a channel at least once.
type Play struct {
	ChannelID int  `gorm:"primaryKey"`
	TrackID   uint `gorm:"primaryKey"`
}

// PlaylistEntry is one row of a channel's play history.
type PlaylistEntry struct {
	ID        uint      `gorm:"primaryKey"`
	Time      time.Time `gorm:"not null;index:idx_playlist_time_channel"`
	ChannelID int       `gorm:"not null;index:idx_playlist_time_channel"`
	TrackID   uint      `gorm:"not null"`
}

// Store is the persistence contract the poll loop needs: insert-or-get for
// channel/track/playlist rows.
type Store interface {
	SyncChannels(ctx context.Context, channels []Channel) error

	// FindOrCreateTrack resolves t by identity, creating it when missing,
	// and fills t.ID either way.
	FindOrCreateTrack(ctx context.Context, t *Track) error

	MarkPlayed(ctx context.Context, channelID int, trackID uint) error

	// AppendPlaylist records that trackID started playing on channelID at
	// the given time, unless it is already the channel's latest entry.
	AppendPlaylist(ctx context.Context, channelID int, trackID uint, at time.Time) error

	UpdateCover(ctx context.Context, trackID uint, cover string) error

	Close() error
}

type gormStore struct {
	db *gorm.DB
}

// newGormStore connects to MySQL and migrates the schema.
func newGormStore(dsn string) (Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.AutoMigrate(&Channel{}, &Track{}, &Play{}, &PlaylistEntry{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &gormStore{db: db}, nil
}

func (s *gormStore) SyncChannels(ctx context.Context, channels []Channel) error {
	if len(channels) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(&channels).Error
}

func (s *gormStore) FindOrCreateTrack(ctx context.Context, t *Track) error {
	return s.db.WithContext(ctx).
		Where(Track{Artist: t.Artist, Title: t.Title, Album: t.Album, Year: t.Year}).
		Attrs(Track{Cover: t.Cover}).
		FirstOrCreate(t).Error
}

func (s *gormStore) MarkPlayed(ctx context.Context, channelID int, trackID uint) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Play{ChannelID: channelID, TrackID: trackID}).Error
}

func (s *gormStore) AppendPlaylist(ctx context.Context, channelID int, trackID uint, at time.Time) error {
	var last PlaylistEntry
	err := s.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("time DESC").
		Limit(1).
		Find(&last).Error
	if err != nil {
		return err
	}
	if last.ID != 0 && last.TrackID == trackID {
		// Already the channel's latest entry; a poll saw the same track twice.
		return nil
	}
	return s.db.WithContext(ctx).Create(&PlaylistEntry{
		Time:      at,
		ChannelID: channelID,
		TrackID:   trackID,
	}).Error
}

func (s *gormStore) UpdateCover(ctx context.Context, trackID uint, cover string) error {
	return s.db.WithContext(ctx).Model(&Track{}).
		Where("id = ?", trackID).
		Update("cover", cover).Error
}

func (s *gormStore) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
