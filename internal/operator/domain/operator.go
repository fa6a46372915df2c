package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Role types
const (
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

// Operator represents a warehouse operator account
type Operator struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Username  string         `json:"username" gorm:"uniqueIndex;not null"`
	Password  string         `json:"-" gorm:"not null"` // Never expose password in JSON
	FullName  string         `json:"full_name"`
	Role      string         `json:"role" gorm:"not null;default:'operator'"`
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (Operator) TableName() string {
	return "operators"
}

// IsAdmin checks if the operator has the admin role
func (o *Operator) IsAdmin() bool {
	return o.Role == RoleAdmin
}

// OperatorRepository defines the contract for operator data access
type OperatorRepository interface {
	Create(ctx context.Context, operator *Operator) error
	FindByID(ctx context.Context, id uint) (*Operator, error)
	FindByUsername(ctx context.Context, username string) (*Operator, error)
	FindAll(ctx context.Context, limit, offset int) ([]Operator, error)
	Update(ctx context.Context, operator *Operator) error
}
