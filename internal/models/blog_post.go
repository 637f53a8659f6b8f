package models

import (
	"time"

	"gorm.io/gorm"
)

type BlogPost struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Slug        string         `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Excerpt     string         `gorm:"size:512" json:"excerpt"`
	Content     string         `gorm:"type:longtext" json:"content"`
	Status      string         `gorm:"size:20;not null;index" json:"status"` // DRAFT, PUBLISHED, ARCHIVED
	PublishedAt *time.Time     `json:"published_at"`
	ViewCount   int64          `gorm:"not null;default:0" json:"view_count"`
	CoverImage  string         `gorm:"size:512" json:"cover_image"`
	Author      string         `gorm:"size:128" json:"author"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (BlogPost) TableName() string {
	return "blog_posts"
}
