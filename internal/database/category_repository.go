package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/studybot/pkg/models"
	"github.com/jmoiron/sqlx"
)

// CategoryRepository reads the quiz taxonomy
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new repository instance
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetCategories returns all categories ordered by name
func (r *CategoryRepository) GetCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.SelectContext(ctx, &categories, "SELECT id, name FROM test_categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

// GetCategoryByName looks a category up ignoring case. Returns nil if absent.
func (r *CategoryRepository) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	query := r.db.Rebind("SELECT id, name FROM test_categories WHERE LOWER(name) = LOWER(?)")
	err := r.db.GetContext(ctx, &category, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category by name: %w", err)
	}
	return &category, nil
}

// GetSubcategories returns the subcategories of a category ordered by name
func (r *CategoryRepository) GetSubcategories(ctx context.Context, categoryID int64) ([]models.Subcategory, error) {
	var subcategories []models.Subcategory
	query := r.db.Rebind("SELECT id, name, category_id FROM test_subcategories WHERE category_id = ? ORDER BY name")
	if err := r.db.SelectContext(ctx, &subcategories, query, categoryID); err != nil {
		return nil, fmt.Errorf("failed to get subcategories: %w", err)
	}
	return subcategories, nil
}

// GetSubcategoryByID returns nil if the subcategory doesn't exist
func (r *CategoryRepository) GetSubcategoryByID(ctx context.Context, id int64) (*models.Subcategory, error) {
	var sub models.Subcategory
	query := r.db.Rebind("SELECT id, name, category_id FROM test_subcategories WHERE id = ?")
	err := r.db.GetContext(ctx, &sub, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subcategory by id: %w", err)
	}
	return &sub, nil
}

// GetSubcategoryByName looks a subcategory up ignoring case. Returns nil if absent.
func (r *CategoryRepository) GetSubcategoryByName(ctx context.Context, name string) (*models.Subcategory, error) {
	var sub models.Subcategory
	query := r.db.Rebind("SELECT id, name, category_id FROM test_subcategories WHERE LOWER(name) = LOWER(?)")
	err := r.db.GetContext(ctx, &sub, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subcategory by name: %w", err)
	}
	return &sub, nil
}

// SubcategoryIDByName implements quiz.ResultStore
func (r *CategoryRepository) SubcategoryIDByName(ctx context.Context, name string) (int64, bool, error) {
	sub, err := r.GetSubcategoryByName(ctx, name)
	if err != nil || sub == nil {
		return 0, false, err
	}
	return sub.ID, true, nil
}

// EnsureCategory returns the id of the named category, creating it if needed
func (r *CategoryRepository) EnsureCategory(ctx context.Context, name string) (int64, error) {
	existing, err := r.GetCategoryByName(ctx, name)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	query := r.db.Rebind("INSERT INTO test_categories (name) VALUES (?) ON CONFLICT (name) DO NOTHING")
	if _, err := r.db.ExecContext(ctx, query, name); err != nil {
		return 0, fmt.Errorf("failed to create category: %w", err)
	}

	created, err := r.GetCategoryByName(ctx, name)
	if err != nil {
		return 0, err
	}
	if created == nil {
		return 0, fmt.Errorf("category %q was not created", name)
	}
	return created.ID, nil
}

// EnsureSubcategory returns the id of the named subcategory, creating it
// under the given category if needed
func (r *CategoryRepository) EnsureSubcategory(ctx context.Context, name, categoryName string) (int64, error) {
	existing, err := r.GetSubcategoryByName(ctx, name)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	categoryID, err := r.EnsureCategory(ctx, categoryName)
	if err != nil {
		return 0, err
	}

	query := r.db.Rebind("INSERT INTO test_subcategories (name, category_id) VALUES (?, ?) ON CONFLICT (name) DO NOTHING")
	if _, err := r.db.ExecContext(ctx, query, name, categoryID); err != nil {
		return 0, fmt.Errorf("failed to create subcategory: %w", err)
	}

	created, err := r.GetSubcategoryByName(ctx, name)
	if err != nil {
		return 0, err
	}
	if created == nil {
		return 0, fmt.Errorf("subcategory %q was not created", name)
	}
	return created.ID, nil
}

// Taxonomy returns every subcategory with the name of its category
func (r *CategoryRepository) Taxonomy(ctx context.Context) ([]models.TaxonomyEntry, error) {
	var entries []models.TaxonomyEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT s.id AS subcategory_id, s.name AS subcategory_name, c.name AS category_name
		FROM test_subcategories s
		JOIN test_categories c ON c.id = s.category_id
		ORDER BY c.name, s.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to get taxonomy: %w", err)
	}
	return entries, nil
}
