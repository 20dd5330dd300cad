package models

import "time"

// Rating is one user's score for one map. (user_id, map_id) is unique: a
// second submission updates the existing row.
type Rating struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_ratings_user_map,priority:1"`
	MapID     int64     `json:"map_id" gorm:"not null;uniqueIndex:idx_ratings_user_map,priority:2;index:idx_ratings_map_id"`
	Rating    int       `json:"rating" gorm:"not null;check:chk_ratings_value,rating >= 1 AND rating <= 5"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Associations
	User User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
}

func (Rating) TableName() string {
	return "ratings"
}
