package dto

import "github.com/noah-isme/enrollment-api/internal/models"

// StudentRequest is the create/update payload for a student.
type StudentRequest struct {
	Name      string      `json:"name" validate:"required,max=255"`
	Email     string      `json:"email" validate:"required,email,max=255"`
	Birthdate models.Date `json:"birthdate"`
	Address   string      `json:"address" validate:"max=500"`
}

// CourseRequest is the create/update payload for a course.
type CourseRequest struct {
	Code        string  `json:"code" validate:"required,max=32"`
	Name        string  `json:"name" validate:"required,max=255"`
	Description string  `json:"description" validate:"max=2000"`
	Units       float64 `json:"units" validate:"gte=0,lte=999.99"`
}
