package sqlstore_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/elearning-platform/internal/persistence"
	"github.com/example/elearning-platform/internal/testfixtures"
)

func nextIndex(last *int) int {
	if last == nil {
		return 1
	}
	return *last + 1
}

func TestIdentityRepository(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()
	created := testfixtures.ReferenceTime()

	identity := persistence.Identity{ID: "id-1", Email: "Lea@Example.com", PasswordHash: "$argon2id$x", FullName: "Lea", CreatedAt: created}
	require.NoError(t, h.Store.CreateIdentity(ctx, identity))

	got, err := h.Store.GetIdentityByEmail(ctx, " LEA@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "lea@example.com", got.Email)
	assert.True(t, created.Equal(got.CreatedAt))

	byID, err := h.Store.GetIdentity(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, got, byID)

	identity.ID = "id-2"
	assert.ErrorIs(t, h.Store.CreateIdentity(ctx, identity), persistence.ErrDuplicate)

	_, err = h.Store.GetIdentityByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestRevocationRepository(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()
	now := testfixtures.ReferenceTime()

	revoked, err := h.Store.IsRevoked(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, h.Store.MarkRevoked(ctx, "sess-1", now.Add(time.Hour)))
	require.NoError(t, h.Store.MarkRevoked(ctx, "sess-1", now.Add(2*time.Hour)))
	require.NoError(t, h.Store.MarkRevoked(ctx, "sess-old", now.Add(-time.Hour)))

	revoked, err = h.Store.IsRevoked(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	purged, err := h.Store.PurgeRevoked(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	revoked, err = h.Store.IsRevoked(ctx, "sess-old")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestProfileRepository(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	profile := h.SeedProfile(t, testfixtures.NewProfileFixture(testfixtures.WithProfileID("user-a")))

	got, err := h.Store.GetProfile(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, "student", got.Role)
	assert.Equal(t, profile.FullName, got.FullName)

	require.NoError(t, h.Store.SetProfileRole(ctx, "user-a", "admin"))
	got, err = h.Store.GetProfile(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Role)

	assert.ErrorIs(t, h.Store.SetProfileRole(ctx, "user-a", "instructor"), persistence.ErrConstraintViolation)
	assert.ErrorIs(t, h.Store.SetProfileRole(ctx, "ghost", "admin"), persistence.ErrNotFound)

	_, err = h.Store.GetProfile(ctx, "ghost")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestCategoryRepository(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	h.SeedCategory(t, testfixtures.NewCategoryFixture(testfixtures.WithCategoryName("Web")))
	design := h.SeedCategory(t, testfixtures.NewCategoryFixture(testfixtures.WithCategoryName("Design")))

	list, err := h.Store.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Design", list[0].Name)
	assert.Equal(t, "Web", list[1].Name)

	got, err := h.Store.GetCategory(ctx, design.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Description)
	assert.Equal(t, *design.Description, *got.Description)
}

func TestCourseRepository_ReadsJoinNames(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	admin := h.SeedProfile(t, testfixtures.NewProfileFixture(testfixtures.WithAdminRole(), testfixtures.WithProfileName("Alice Admin")))
	category := h.SeedCategory(t, testfixtures.NewCategoryFixture(testfixtures.WithCategoryName("Programming")))
	course := h.SeedCourse(t, testfixtures.NewCourseFixture(admin.ID, testfixtures.WithCourseCategory(category.ID)))

	got, err := h.Store.GetCourse(ctx, course.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CategoryName)
	require.NotNil(t, got.AdminName)
	assert.Equal(t, "Programming", *got.CategoryName)
	assert.Equal(t, "Alice Admin", *got.AdminName)
	assert.False(t, got.IsPublished)
	assert.InDelta(t, course.Price, got.Price, 0.0001)

	_, err = h.Store.GetCourse(ctx, "ghost")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestCourseRepository_ListFilters(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	admin := h.SeedProfile(t, testfixtures.NewProfileFixture(testfixtures.WithAdminRole()))
	web := h.SeedCategory(t, testfixtures.NewCategoryFixture())
	base := testfixtures.ReferenceTime()

	oldest := h.SeedCourse(t, testfixtures.NewCourseFixture(admin.ID,
		testfixtures.WithCourseTitle("Intro to Go"),
		testfixtures.WithCourseCreatedAt(base),
		testfixtures.WithCoursePublished(true),
	))
	middle := h.SeedCourse(t, testfixtures.NewCourseFixture(admin.ID,
		testfixtures.WithCourseTitle("CSS layouts"),
		testfixtures.WithCourseDescription("Grids, flexbox and 100% widths"),
		testfixtures.WithCourseCategory(web.ID),
		testfixtures.WithCourseCreatedAt(base.Add(time.Hour)),
	))
	newest := h.SeedCourse(t, testfixtures.NewCourseFixture(admin.ID,
		testfixtures.WithCourseTitle("Advanced GO"),
		testfixtures.WithCourseCategory(web.ID),
		testfixtures.WithCourseCreatedAt(base.Add(2*time.Hour)),
		testfixtures.WithCoursePublished(true),
	))

	all, err := h.Store.ListCourses(ctx, persistence.CourseFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{newest.ID, middle.ID, oldest.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	published, err := h.Store.ListCourses(ctx, persistence.CourseFilter{PublishedOnly: true})
	require.NoError(t, err)
	assert.Len(t, published, 2)

	byCategory, err := h.Store.ListCourses(ctx, persistence.CourseFilter{CategoryID: web.ID, PublishedOnly: true})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, newest.ID, byCategory[0].ID)

	search, err := h.Store.ListCourses(ctx, persistence.CourseFilter{Search: "go"})
	require.NoError(t, err)
	assert.Len(t, search, 2)

	literal, err := h.Store.ListCourses(ctx, persistence.CourseFilter{Search: "100%"})
	require.NoError(t, err)
	require.Len(t, literal, 1)
	assert.Equal(t, middle.ID, literal[0].ID)

	none, err := h.Store.ListCourses(ctx, persistence.CourseFilter{Search: "_"})
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestCourseRepository_SearchFoldsAccents(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	admin := h.SeedProfile(t, testfixtures.NewProfileFixture(testfixtures.WithAdminRole()))
	school := h.SeedCourse(t, testfixtures.NewCourseFixture(admin.ID,
		testfixtures.WithCourseTitle("École de programmation"),
	))
	h.SeedCourse(t, testfixtures.NewCourseFixture(admin.ID,
		testfixtures.WithCourseTitle("Cuisine"),
		testfixtures.WithCourseDescription("Les bases de la PÂTISSERIE"),
	))

	for _, term := range []string{"école", "ÉCOLE", "École", "programmation", "PROGRAMMATION"} {
		found, err := h.Store.ListCourses(ctx, persistence.CourseFilter{Search: term})
		require.NoError(t, err, term)
		require.Len(t, found, 1, term)
		assert.Equal(t, school.ID, found[0].ID, term)
	}

	pastry, err := h.Store.ListCourses(ctx, persistence.CourseFilter{Search: "pâtisserie"})
	require.NoError(t, err)
	assert.Len(t, pastry, 1)
}

func TestCourseRepository_UpdatePublishDelete(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	admin := h.SeedProfile(t, testfixtures.NewProfileFixture(testfixtures.WithAdminRole()))
	category := h.SeedCategory(t, testfixtures.NewCategoryFixture())
	course := h.SeedCourse(t, testfixtures.NewCourseFixture(admin.ID, testfixtures.WithCourseCategory(category.ID)))

	later := testfixtures.ReferenceTime().Add(48 * time.Hour)
	title := "Renamed"
	price := 0.0
	detach := ""
	require.NoError(t, h.Store.UpdateCourse(ctx, course.ID, persistence.CourseChanges{
		Title:      &title,
		Price:      &price,
		CategoryID: &detach,
		UpdatedAt:  later,
	}))

	got, err := h.Store.GetCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, course.Description, got.Description)
	assert.Zero(t, got.Price)
	assert.Nil(t, got.CategoryID)
	assert.True(t, later.Equal(got.UpdatedAt))
	assert.True(t, course.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, h.Store.SetCoursePublished(ctx, course.ID, true, later.Add(time.Minute)))
	got, err = h.Store.GetCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPublished)

	assert.ErrorIs(t, h.Store.SetCoursePublished(ctx, "ghost", true, later), persistence.ErrNotFound)
	assert.ErrorIs(t, h.Store.UpdateCourse(ctx, "ghost", persistence.CourseChanges{UpdatedAt: later}), persistence.ErrNotFound)

	h.SeedLesson(t, testfixtures.NewLessonFixture(course.ID, 1))
	require.NoError(t, h.Store.DeleteCourse(ctx, course.ID))
	require.NoError(t, h.Store.DeleteCourse(ctx, course.ID), "deleting twice is not an error")

	lessons, err := h.Store.ListLessons(ctx, course.ID)
	require.NoError(t, err)
	assert.Empty(t, lessons, "lessons should cascade with their course")
}

func TestCourseRepository_CategoryDeletionDetachesCourse(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	admin := h.SeedProfile(t, testfixtures.NewProfileFixture(testfixtures.WithAdminRole()))
	category := h.SeedCategory(t, testfixtures.NewCategoryFixture())
	course := h.SeedCourse(t, testfixtures.NewCourseFixture(admin.ID, testfixtures.WithCourseCategory(category.ID)))

	_, err := h.Store.DB().ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, category.ID)
	require.NoError(t, err)

	got, err := h.Store.GetCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.Nil(t, got.CategoryName)
}

func TestCourseRepository_RequiresExistingAdmin(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)

	err := h.Store.CreateCourse(context.Background(), testfixtures.NewCourseFixture("ghost-admin").Persistence())
	assert.ErrorIs(t, err, persistence.ErrForeignKey)
}

func TestLessonRepository(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	admin := h.SeedProfile(t, testfixtures.NewProfileFixture(testfixtures.WithAdminRole()))
	course := h.SeedCourse(t, testfixtures.NewCourseFixture(admin.ID))

	has, err := h.Store.HasLessons(ctx, course.ID)
	require.NoError(t, err)
	assert.False(t, has)

	first, err := h.Store.CreateLessonAfterLast(ctx, testfixtures.NewLessonFixture(course.ID, 0).Persistence(), nextIndex)
	require.NoError(t, err)
	assert.Equal(t, 1, first.OrderIndex)

	h.SeedLesson(t, testfixtures.NewLessonFixture(course.ID, 7, testfixtures.WithLessonVideo("https://video.example.com/7")))

	after, err := h.Store.CreateLessonAfterLast(ctx, testfixtures.NewLessonFixture(course.ID, 0).Persistence(), nextIndex)
	require.NoError(t, err)
	assert.Equal(t, 8, after.OrderIndex)

	has, err = h.Store.HasLessons(ctx, course.ID)
	require.NoError(t, err)
	assert.True(t, has)

	lessons, err := h.Store.ListLessons(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, lessons, 3)
	assert.Equal(t, []int{1, 7, 8}, []int{lessons[0].OrderIndex, lessons[1].OrderIndex, lessons[2].OrderIndex})
	require.NotNil(t, lessons[1].VideoURL)
	assert.Nil(t, lessons[0].VideoURL)

	_, err = h.Store.CreateLessonAfterLast(ctx, testfixtures.NewLessonFixture("ghost", 0).Persistence(), nextIndex)
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	err = h.Store.CreateLesson(ctx, testfixtures.NewLessonFixture("ghost", 1).Persistence())
	assert.ErrorIs(t, err, persistence.ErrForeignKey)
}

func TestLessonRepository_ConcurrentAppendsGetDistinctIndexes(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	admin := h.SeedProfile(t, testfixtures.NewProfileFixture(testfixtures.WithAdminRole()))
	course := h.SeedCourse(t, testfixtures.NewCourseFixture(admin.ID))

	const writers = 8
	fixtures := make([]persistence.Lesson, writers)
	for i := range fixtures {
		fixtures[i] = testfixtures.NewLessonFixture(course.ID, 0).Persistence()
	}

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(lesson persistence.Lesson) {
			defer wg.Done()
			_, err := h.Store.CreateLessonAfterLast(ctx, lesson, nextIndex)
			errs <- err
		}(fixtures[i])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	lessons, err := h.Store.ListLessons(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, lessons, writers)
	for i, lesson := range lessons {
		assert.Equal(t, i+1, lesson.OrderIndex)
	}
}
