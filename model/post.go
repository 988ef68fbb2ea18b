package model

import (
	"time"

	"gorm.io/gorm"
)

// PostScope controls feed visibility across the tenancy hierarchy
type PostScope string

const (
	PostScopeGlobal     PostScope = "global"
	PostScopeSchool     PostScope = "school"
	PostScopeDepartment PostScope = "department"
)

// Post is an announcement/feed entry
type Post struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	AuthorID   uint           `gorm:"not null;index" json:"author_id"`
	AuthorName string         `gorm:"type:varchar(255)" json:"author_name"` // denormalized for display
	Title      string         `gorm:"not null" json:"title"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	Category   string         `gorm:"type:varchar(100);default:'University Update'" json:"category"`

	// Tenancy scoping
	Scope        PostScope `gorm:"type:varchar(20);default:'global'" json:"scope"`
	UniversityID uint      `gorm:"index" json:"university_id"`
	SchoolID     uint      `gorm:"index" json:"school_id"`
	DepartmentID uint      `gorm:"index" json:"department_id"`

	// Relationships
	Author   User          `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	Comments []PostComment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

// PostComment is a comment on a feed post
type PostComment struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	PostID     uint           `gorm:"not null;index" json:"post_id"`
	AuthorID   uint           `gorm:"not null;index" json:"author_id"`
	AuthorRole string         `gorm:"type:varchar(20)" json:"author_role"`
	Content    string         `gorm:"type:text;not null" json:"content"`

	// Relationships
	Post Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// TableName specifies the table name for PostComment
func (PostComment) TableName() string {
	return "post_comments"
}
