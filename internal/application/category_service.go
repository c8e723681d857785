package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CategoryService lists and creates course categories.
type CategoryService struct {
	repo   CategoryRepository
	policy *Policy
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// NewCategoryService constructs a CategoryService with the default logger.
func NewCategoryService(repo CategoryRepository, policy *Policy, now func() time.Time, newID func() string) *CategoryService {
	return NewCategoryServiceWithLogger(repo, policy, now, newID, nil)
}

// NewCategoryServiceWithLogger constructs a CategoryService with a specified logger.
func NewCategoryServiceWithLogger(repo CategoryRepository, policy *Policy, now func() time.Time, newID func() string, logger *slog.Logger) *CategoryService {
	if now == nil {
		now = time.Now
	}
	if newID == nil {
		newID = uuid.NewString
	}
	return &CategoryService{
		repo:   repo,
		policy: policy,
		now:    now,
		newID:  newID,
		logger: defaultLogger(logger),
	}
}

func (s *CategoryService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CategoryService", operation, attrs...)
}

// List returns every category, ordered by name. It needs no session.
func (s *CategoryService) List(ctx context.Context) (categories []Category, err error) {
	if s == nil || s.repo == nil {
		err = unexpected("CategoryService not configured")
		return
	}

	logger := s.loggerWith(ctx, "List")
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "")
		}
	}()

	categories, err = s.repo.ListCategories(ctx)
	if err != nil {
		err = storeError(err)
		return
	}
	if categories == nil {
		categories = []Category{}
	}
	return
}

// Create adds a category. The name is checked before the caller's role.
func (s *CategoryService) Create(ctx context.Context, caller Caller, input CategoryInput) (category Category, err error) {
	if s == nil || s.repo == nil || s.policy == nil {
		err = unexpected("CategoryService not configured")
		return
	}

	name := strings.TrimSpace(input.Name)
	logger := s.loggerWith(ctx, "Create", "name", name)
	defer func() {
		logOutcome(ctx, logger.With("category_id", category.ID), err, "category created")
	}()

	if name == "" {
		err = NewValidationError(MsgCategoryNameRequired)
		return
	}

	if _, err = s.policy.Authorize(ctx, caller, ResourceCategory, ActionCreate); err != nil {
		return
	}

	category, err = s.repo.CreateCategory(ctx, Category{
		ID:          s.newID(),
		Name:        name,
		Description: input.Description,
		CreatedAt:   s.now(),
	})
	if err != nil {
		err = storeError(err)
		category = Category{}
	}
	return
}
