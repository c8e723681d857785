package application

import "time"

// Role is the only authorization attribute of a user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}

// Caller identifies who is making a request. Token is the session token
// presented by the client and may be empty.
type Caller struct {
	Token string
}

// Session is an authenticated identity for the lifetime of its token.
type Session struct {
	ID          string
	UserID      string
	Email       string
	AccessToken string
	ExpiresAt   time.Time
}

// Identity is an account as known by the identity provider.
type Identity struct {
	ID        string
	Email     string
	FullName  string
	CreatedAt time.Time
}

// Profile is the application-side user record.
type Profile struct {
	ID        string
	FullName  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Category struct {
	ID          string
	Name        string
	Description *string
	CreatedAt   time.Time
}

// CategoryRef is the category summary embedded in courses.
type CategoryRef struct {
	ID   string
	Name string
}

// AdminRef is the author summary embedded in courses.
type AdminRef struct {
	ID       string
	FullName string
}

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

	Category *CategoryRef
	Admin    *AdminRef
	// Lessons is only populated by CourseService.Get.
	Lessons []Lesson
}

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

// CourseFilter narrows CourseService.List.
type CourseFilter struct {
	CategoryID    string
	PublishedOnly bool
	Search        string
}

type CategoryInput struct {
	Name        string
	Description *string
}

// CourseInput carries the fields of a new course. Price is a pointer so that
// an absent price can be told apart from zero.
type CourseInput struct {
	Title       string
	Description string
	Price       *float64
	Duration    *string
	Level       *string
	ImageURL    *string
	CategoryID  *string
}

// CoursePatch lists the fields a course update may change. Nil means unchanged.
// Publication state changes only through CourseService.SetPublished.
type CoursePatch struct {
	Title       *string
	Description *string
	Price       *float64
	Duration    *string
	Level       *string
	ImageURL    *string
	CategoryID  *string
}

// IsEmpty reports whether the patch changes nothing besides updated_at.
func (p CoursePatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Price == nil && p.Duration == nil &&
		p.Level == nil && p.ImageURL == nil && p.CategoryID == nil
}

// LessonInput carries the fields of a new lesson. A nil OrderIndex asks for
// the next index after the course's current last lesson.
type LessonInput struct {
	Title      string
	Content    string
	VideoURL   *string
	PDFURL     *string
	OrderIndex *int
}

// PublishResult is the slice of the course returned after a publication change.
type PublishResult struct {
	ID          string
	Title       string
	IsPublished bool
	UpdatedAt   time.Time
}

type SignUpInput struct {
	Email    string
	Password string
	FullName string
}

type SignUpResult struct {
	Identity Identity
	Profile  Profile
}

type SignInInput struct {
	Email    string
	Password string
}

type SignInResult struct {
	Session Session
	Profile Profile
}

// CurrentUser is the caller's profile together with their email.
type CurrentUser struct {
	Email   string
	Profile Profile
}
