package models

import (
	"time"

	"github.com/google/uuid"
)

type ProgrammingLanguage struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `json:"name" gorm:"not null;size:100" validate:"required,min=1,max=100"`
	Version     string    `json:"version" gorm:"size:50"`
	CompilerURL string    `json:"compiler_url" gorm:"not null;size:500" validate:"required,url"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Exercise struct {
	ID                    uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CourseID              uuid.UUID `json:"course_id" gorm:"type:uuid;not null;index"`
	AuthorID              string    `json:"author_id" gorm:"size:255;index"`
	Name                  string    `json:"name" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Content               string    `json:"content" gorm:"type:text"`
	InitialCode           string    `json:"initial_code" gorm:"type:text"`
	ProgrammingLanguageID uuid.UUID `json:"programming_language_id" gorm:"type:uuid;not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Course              Course              `json:"course" gorm:"foreignKey:CourseID"`
	Author              *User               `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	ProgrammingLanguage ProgrammingLanguage `json:"programming_language" gorm:"foreignKey:ProgrammingLanguageID"`
	Tests               []CorrectnessTest   `json:"tests,omitempty" gorm:"foreignKey:ExerciseID;constraint:OnDelete:CASCADE"`
	GroupScopes         []ExerciseGroup     `json:"group_scopes,omitempty" gorm:"foreignKey:ExerciseID;constraint:OnDelete:CASCADE"`
}

// ExerciseGroup scopes an exercise to a group. Deleting a group does not
// cascade here, so rows may dangle; readers must skip scopes whose group is
// gone.
type ExerciseGroup struct {
	ExerciseID uuid.UUID `json:"exercise_id" gorm:"type:uuid;primaryKey"`
	GroupID    uuid.UUID `json:"group_id" gorm:"type:uuid;primaryKey;index"`

	// Relations
	Exercise Exercise `json:"exercise" gorm:"foreignKey:ExerciseID"`
}

// CorrectnessTest is one judged scenario of an exercise. Inputs and outputs
// are paired by position: input[i] is fed to the program and the produced
// output is compared against output[i]. A test is runnable only when both
// sequences are non-empty and of equal length.
type CorrectnessTest struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ExerciseID uuid.UUID `json:"exercise_id" gorm:"type:uuid;not null;index"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Inputs  []CorrectnessTestInput  `json:"inputs,omitempty" gorm:"foreignKey:CorrectnessTestID;constraint:OnDelete:CASCADE"`
	Outputs []CorrectnessTestOutput `json:"outputs,omitempty" gorm:"foreignKey:CorrectnessTestID;constraint:OnDelete:CASCADE"`
}

type CorrectnessTestInput struct {
	ID                uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CorrectnessTestID uuid.UUID `json:"correctness_test_id" gorm:"type:uuid;not null;index"`
	Position          int       `json:"position" gorm:"not null"`
	Content           string    `json:"content" gorm:"type:text"`
}

type CorrectnessTestOutput struct {
	ID                uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CorrectnessTestID uuid.UUID `json:"correctness_test_id" gorm:"type:uuid;not null;index"`
	Position          int       `json:"position" gorm:"not null"`
	Content           string    `json:"content" gorm:"type:text"`
}

// Runnable reports whether the test carries a complete, positionally paired
// input/output set.
func (t *CorrectnessTest) Runnable() bool {
	return len(t.Inputs) > 0 && len(t.Inputs) == len(t.Outputs)
}

func (ProgrammingLanguage) TableName() string {
	return "programming_languages"
}

func (Exercise) TableName() string {
	return "exercises"
}

func (ExerciseGroup) TableName() string {
	return "exercise_groups"
}

func (CorrectnessTest) TableName() string {
	return "correctness_tests"
}

func (CorrectnessTestInput) TableName() string {
	return "correctness_test_inputs"
}

func (CorrectnessTestOutput) TableName() string {
	return "correctness_test_outputs"
}
