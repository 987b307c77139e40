package models

import (
	"time"

	"github.com/google/uuid"
)

type CategoryDirection string

const (
	CategoryDirectionIncome  CategoryDirection = "INCOME"
	CategoryDirectionExpense CategoryDirection = "EXPENSE"
)

type Category struct {
	ID        int64             `db:"id"`
	UserID    uuid.UUID         `db:"user_id"`
	Name      string            `db:"name"`
	Direction CategoryDirection `db:"direction"`
	CreatedAt time.Time         `db:"created_at"`
}

// Subcategory inherits its transactional direction from its parent category.
type Subcategory struct {
	ID         int64     `db:"id"`
	CategoryID int64     `db:"category_id"`
	Name       string    `db:"name"`
	CreatedAt  time.Time `db:"created_at"`
}
