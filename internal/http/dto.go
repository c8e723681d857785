package http

import (
	"time"

	"github.com/example/elearning-platform/internal/application"
)

type userDTO struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FullName  string  `json:"full_name"`
	Role      string  `json:"role,omitempty"`
	CreatedAt *string `json:"created_at,omitempty"`
}

type sessionDTO struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   string `json:"expires_at"`
}

type categoryDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	CreatedAt   string  `json:"created_at"`
}

type categoryRefDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type adminRefDTO struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

type courseDTO struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       float64         `json:"price"`
	Duration    *string         `json:"duration"`
	Level       *string         `json:"level"`
	ImageURL    *string         `json:"image_url"`
	CategoryID  *string         `json:"category_id"`
	AdminID     string          `json:"admin_id"`
	IsPublished bool            `json:"is_published"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
	Category    *categoryRefDTO `json:"category"`
	Admin       *adminRefDTO    `json:"admin"`
}

type courseDetailDTO struct {
	courseDTO
	Lessons []lessonDTO `json:"lessons"`
}

type lessonDTO struct {
	ID         string  `json:"id"`
	CourseID   string  `json:"course_id"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	VideoURL   *string `json:"video_url"`
	PDFURL     *string `json:"pdf_url"`
	OrderIndex int     `json:"order_index"`
	CreatedAt  string  `json:"created_at"`
}

type publishDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	IsPublished bool   `json:"is_published"`
	UpdatedAt   string `json:"updated_at"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func toCategoryDTO(c application.Category) categoryDTO {
	return categoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   formatTime(c.CreatedAt),
	}
}

func toCategoryDTOs(categories []application.Category) []categoryDTO {
	out := make([]categoryDTO, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryDTO(c))
	}
	return out
}

func toCourseDTO(c application.Course) courseDTO {
	dto := courseDTO{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Price:       c.Price,
		Duration:    c.Duration,
		Level:       c.Level,
		ImageURL:    c.ImageURL,
		CategoryID:  c.CategoryID,
		AdminID:     c.AdminID,
		IsPublished: c.IsPublished,
		CreatedAt:   formatTime(c.CreatedAt),
		UpdatedAt:   formatTime(c.UpdatedAt),
	}
	if c.Category != nil {
		dto.Category = &categoryRefDTO{ID: c.Category.ID, Name: c.Category.Name}
	}
	if c.Admin != nil {
		dto.Admin = &adminRefDTO{ID: c.Admin.ID, FullName: c.Admin.FullName}
	}
	return dto
}

func toCourseDTOs(courses []application.Course) []courseDTO {
	out := make([]courseDTO, 0, len(courses))
	for _, c := range courses {
		out = append(out, toCourseDTO(c))
	}
	return out
}

func toCourseDetailDTO(c application.Course) courseDetailDTO {
	return courseDetailDTO{courseDTO: toCourseDTO(c), Lessons: toLessonDTOs(c.Lessons)}
}

func toLessonDTO(l application.Lesson) lessonDTO {
	return lessonDTO{
		ID:         l.ID,
		CourseID:   l.CourseID,
		Title:      l.Title,
		Content:    l.Content,
		VideoURL:   l.VideoURL,
		PDFURL:     l.PDFURL,
		OrderIndex: l.OrderIndex,
		CreatedAt:  formatTime(l.CreatedAt),
	}
}

func toLessonDTOs(lessons []application.Lesson) []lessonDTO {
	out := make([]lessonDTO, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, toLessonDTO(l))
	}
	return out
}

func toPublishDTO(p application.PublishResult) publishDTO {
	return publishDTO{
		ID:          p.ID,
		Title:       p.Title,
		IsPublished: p.IsPublished,
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}
