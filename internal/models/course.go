package models

import (
	"time"

	"github.com/google/uuid"
)

type Course struct {
	ID   uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name string    `json:"name" gorm:"not null;size:200" validate:"required,min=1,max=200"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Groups        []Group              `json:"groups,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	MainLecturers []CourseMainLecturer `json:"main_lecturers,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Exercises     []Exercise           `json:"exercises,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

type Group struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CourseID uuid.UUID `json:"course_id" gorm:"type:uuid;not null;index"`
	Name     string    `json:"name" gorm:"not null;size:200" validate:"required,min=1,max=200"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Course  Course      `json:"course" gorm:"foreignKey:CourseID"`
	Members []UserGroup `json:"members,omitempty" gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
}

// UserGroup is the membership edge between a user and a group. Whether the
// member acts as student or lecturer follows from the user's global role,
// not from the membership itself.
type UserGroup struct {
	UserID  string    `json:"user_id" gorm:"primaryKey;size:255"`
	GroupID uuid.UUID `json:"group_id" gorm:"type:uuid;primaryKey;index"`

	// Relations
	User  User  `json:"user" gorm:"foreignKey:UserID"`
	Group Group `json:"group" gorm:"foreignKey:GroupID"`
}

// CourseMainLecturer assigns a main lecturer to a course (many-to-many edge).
type CourseMainLecturer struct {
	CourseID       uuid.UUID `json:"course_id" gorm:"type:uuid;primaryKey"`
	MainLecturerID string    `json:"main_lecturer_id" gorm:"primaryKey;size:255;index"`

	// Relations
	Course       Course `json:"course" gorm:"foreignKey:CourseID"`
	MainLecturer User   `json:"main_lecturer" gorm:"foreignKey:MainLecturerID"`
}

func (Course) TableName() string {
	return "courses"
}

func (Group) TableName() string {
	return "groups"
}

func (UserGroup) TableName() string {
	return "user_groups"
}

func (CourseMainLecturer) TableName() string {
	return "course_main_lecturers"
}
