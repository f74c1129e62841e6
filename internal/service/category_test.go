package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/validator"
)

func TestCreateCategory_Success(t *testing.T) {
	repo := new(mockCategoryRepository)
	svc := NewCategoryService(repo, newTestLogger())
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.Category")).Return(nil)

	category, err := svc.CreateCategory(ctx, domain.CategoryInput{Name: "  Home & Garden "})

	require.NoError(t, err)
	assert.NotEmpty(t, category.ID)
	assert.Equal(t, "Home & Garden", category.Name)
	assert.Equal(t, "home-garden", category.Slug)
	repo.AssertExpectations(t)
}

func TestCreateCategory_NameRequired(t *testing.T) {
	repo := new(mockCategoryRepository)
	svc := NewCategoryService(repo, newTestLogger())

	_, err := svc.CreateCategory(context.Background(), domain.CategoryInput{Name: "   "})

	var valErr *validator.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "Name is required", valErr.First().Message)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateCategory_Duplicate(t *testing.T) {
	repo := new(mockCategoryRepository)
	svc := NewCategoryService(repo, newTestLogger())
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).Return(apperrors.AlreadyExists("Category already exists"))

	_, err := svc.CreateCategory(ctx, domain.CategoryInput{Name: "Phones"})

	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestUpdateCategory_Success(t *testing.T) {
	repo := new(mockCategoryRepository)
	svc := NewCategoryService(repo, newTestLogger())
	ctx := context.Background()

	repo.On("GetByID", ctx, "c-1").Return(&domain.Category{ID: "c-1", Name: "Phones", Slug: "phones"}, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*domain.Category")).Return(nil)

	category, err := svc.UpdateCategory(ctx, "c-1", domain.CategoryInput{Name: "Mobile Phones"})

	require.NoError(t, err)
	assert.Equal(t, "Mobile Phones", category.Name)
	assert.Equal(t, "mobile-phones", category.Slug)
}

func TestUpdateCategory_NotFound(t *testing.T) {
	repo := new(mockCategoryRepository)
	svc := NewCategoryService(repo, newTestLogger())
	ctx := context.Background()

	repo.On("GetByID", ctx, "missing").Return(nil, apperrors.ErrNotFound)

	_, err := svc.UpdateCategory(ctx, "missing", domain.CategoryInput{Name: "x"})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "category not found", appErr.Message)
}

func TestDeleteCategory_InUse(t *testing.T) {
	repo := new(mockCategoryRepository)
	svc := NewCategoryService(repo, newTestLogger())
	ctx := context.Background()

	repo.On("Delete", ctx, "c-1").Return(domain.ErrCategoryInUse)

	err := svc.DeleteCategory(ctx, "c-1")

	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestListCategories_EmptyIsNotNil(t *testing.T) {
	repo := new(mockCategoryRepository)
	svc := NewCategoryService(repo, newTestLogger())
	ctx := context.Background()

	repo.On("List", ctx).Return(nil, nil)

	categories, err := svc.ListCategories(ctx)

	require.NoError(t, err)
	assert.NotNil(t, categories)
	assert.Empty(t, categories)
}

func TestListCategories_RepositoryError(t *testing.T) {
	repo := new(mockCategoryRepository)
	svc := NewCategoryService(repo, newTestLogger())
	ctx := context.Background()

	repo.On("List", ctx).Return(nil, errors.New("db down"))

	_, err := svc.ListCategories(ctx)

	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
}
