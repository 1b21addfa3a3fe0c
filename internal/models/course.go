package models

import "time"

type Course struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	LecturerID  int64     `json:"lecturer_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type Enrollment struct {
	CourseID  int64 `json:"course_id"`
	StudentID int64 `json:"student_id"`
}
