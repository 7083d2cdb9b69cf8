package enrollclient

import (
	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
)

// Wire types shared with the server.
type (
	Student              = models.Student
	Course               = models.Course
	CourseWithStudents   = models.CourseWithStudents
	StudentWithCourses   = models.StudentWithCourses
	CoursePartitionData  = dto.CoursePartition
	StudentPartitionData = dto.StudentPartition
)
