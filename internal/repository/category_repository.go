package repository

import (
	"context"

	"plata-bot/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type CategoryRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCategoryRepository(db *pgxpool.Pool, logger *zap.Logger) *CategoryRepository {
	return &CategoryRepository{
		db:     db,
		logger: logger,
	}
}

func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	query := squirrel.Insert("categories").
		Columns("user_id", "name", "direction", "created_at").
		Values(category.UserID, category.Name, category.Direction, category.CreatedAt).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	return r.db.QueryRow(ctx, sql, args...).Scan(&category.ID)
}

func (r *CategoryRepository) CreateSubcategory(ctx context.Context, sub *models.Subcategory) error {
	query := squirrel.Insert("subcategories").
		Columns("category_id", "name", "created_at").
		Values(sub.CategoryID, sub.Name, sub.CreatedAt).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	return r.db.QueryRow(ctx, sql, args...).Scan(&sub.ID)
}

func (r *CategoryRepository) GetByID(ctx context.Context, userID uuid.UUID, id int64) (*models.Category, error) {
	query := squirrel.Select("id", "user_id", "name", "direction", "created_at").
		From("categories").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var category models.Category
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&category.ID, &category.UserID, &category.Name, &category.Direction, &category.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &category, nil
}

func (r *CategoryRepository) GetSubcategory(ctx context.Context, id int64) (*models.Subcategory, error) {
	query := squirrel.Select("id", "category_id", "name", "created_at").
		From("subcategories").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var sub models.Subcategory
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&sub.ID, &sub.CategoryID, &sub.Name, &sub.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &sub, nil
}
