package persistence

import "time"

// Identity is the credential record owned by the identity provider.
type Identity struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	CreatedAt    time.Time
}

// Profile is the application-side user row keyed by the identity id.
type Profile struct {
	ID        string
	FullName  string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Category groups courses by subject.
type Category struct {
	ID          string
	Name        string
	Description *string
	CreatedAt   time.Time
}

// Course is a course row. CategoryName and AdminName are populated by joined reads.
type Course struct {
	ID          string
	Title       string
	Description string
	Price       float64
	Duration    *string
	Level       *string
	ImageURL    *string
	CategoryID  *string
	AdminID     string
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time

	CategoryName *string
	AdminName    *string
}

// CourseChanges lists the columns an update writes. Nil fields are left untouched.
type CourseChanges struct {
	Title       *string
	Description *string
	Price       *float64
	Duration    *string
	Level       *string
	ImageURL    *string
	CategoryID  *string
	UpdatedAt   time.Time
}

// Lesson is a unit of content belonging to one course.
type Lesson struct {
	ID         string
	CourseID   string
	Title      string
	Content    string
	VideoURL   *string
	PDFURL     *string
	OrderIndex int
	CreatedAt  time.Time
}

// RevokedSession marks a session id as signed out until it would have expired.
type RevokedSession struct {
	SessionID string
	ExpiresAt time.Time
}
