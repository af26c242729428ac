package models

import (
	"database/sql/driver"
	"time"
)

// CourseStatus captures the lifecycle state of a course.
type CourseStatus string

const (
	CourseStatusDraft  CourseStatus = "draft"
	CourseStatusActive CourseStatus = "active"
)

// WeeklyContent describes one syllabus week. Week numbers are positive and
// unique within a course; they are not required to be contiguous.
type WeeklyContent struct {
	Week           int    `json:"week"`
	Topics         string `json:"topics"`
	StudyMaterials string `json:"studyMaterials"`
}

// WeeklyContentList is the JSONB-persisted syllabus of a course.
type WeeklyContentList []WeeklyContent

// Value marshals the syllabus to JSON for persistence.
func (l WeeklyContentList) Value() (driver.Value, error) {
	return marshalJSONB(l)
}

// Scan unmarshals a JSONB payload into the syllabus.
func (l *WeeklyContentList) Scan(value interface{}) error {
	return scanJSONB(value, l, "WeeklyContentList")
}

// UploadedFile references a stored course reference material. Path is the
// location inside the upload store; downloads go through signed URLs keyed by
// FileID rather than exposing the path.
type UploadedFile struct {
	FileID     string    `json:"fileId"`
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	MIMEType   string    `json:"mimeType"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// UploadedFileList is the JSONB-persisted set of uploaded materials.
type UploadedFileList []UploadedFile

// Value marshals uploaded file references for persistence.
func (l UploadedFileList) Value() (driver.Value, error) {
	return marshalJSONB(l)
}

// Scan unmarshals a JSONB payload into the file list.
func (l *UploadedFileList) Scan(value interface{}) error {
	return scanJSONB(value, l, "UploadedFileList")
}

// Course represents a course authored by an instructor.
type Course struct {
	ID               string            `db:"id" json:"id"`
	Name             string            `db:"name" json:"name"`
	Code             string            `db:"code" json:"code"`
	Level            string            `db:"level" json:"level"`
	Semester         string            `db:"semester" json:"semester"`
	Credits          int               `db:"credits" json:"credits"`
	Description      string            `db:"description" json:"description"`
	Objectives       string            `db:"objectives" json:"objectives"`
	LearningOutcomes string            `db:"learning_outcomes" json:"learningOutcomes"`
	Requirements     string            `db:"requirements" json:"requirements"`
	AssessmentMode   string            `db:"assessment_mode" json:"assessmentMode"`
	WeeklyContent    WeeklyContentList `db:"weekly_content" json:"weeklyContent"`
	UploadedFiles    UploadedFileList  `db:"uploaded_files" json:"uploadedFiles"`
	Students         int               `db:"students" json:"students"`
	Status           CourseStatus      `db:"status" json:"status"`
	InstructorID     string            `db:"instructor_id" json:"instructorId"`
	CreatedAt        time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time         `db:"updated_at" json:"updatedAt"`
}

// FindWeek returns the syllabus entry for the given week number.
func (c *Course) FindWeek(week int) (WeeklyContent, bool) {
	for _, w := range c.WeeklyContent {
		if w.Week == week {
			return w, true
		}
	}
	return WeeklyContent{}, false
}

// CourseFilter captures listing criteria for courses.
type CourseFilter struct {
	InstructorID string
	Status       *CourseStatus
	Search       string
	Page         int
	PageSize     int
}
