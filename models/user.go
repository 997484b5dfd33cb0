package models

import (
	"context"
	"time"

	"github.com/venturatrading/commerce_backend/config"
	"github.com/venturatrading/commerce_backend/utils"
	"gorm.io/gorm"
)

// User is a back-office or customer account. CustomerId links customer
// accounts to their Customer record; zero for staff.
type User struct {
	ID         int       `gorm:"primary_key" json:"id"`
	Username   string    `gorm:"size:100;not null;uniqueIndex" json:"username" binding:"required"`
	Password   string    `gorm:"size:255;not null" json:"-"`
	Role       UserRole  `gorm:"size:20;not null" json:"role"`
	CustomerId int       `gorm:"index;default:0" json:"customer_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username   string   `json:"username" binding:"required"`
	Password   string   `json:"password" binding:"required"`
	Role       UserRole `json:"role" binding:"required"`
	CustomerId int      `json:"customer_id"`
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	if input.Role != UserRoleAdmin && input.Role != UserRoleCustomer {
		return nil, utils.NewValidationError("invalid role")
	}
	if input.Role == UserRoleCustomer && input.CustomerId <= 0 {
		return nil, utils.NewValidationError("customer accounts require a customer_id")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Username:   input.Username,
		Password:   string(hashed),
		Role:       input.Role,
		CustomerId: input.CustomerId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// AuthenticateUser checks credentials and returns the account on success.
func AuthenticateUser(ctx context.Context, username string, password string) (*User, error) {
	db := config.GetDB()

	var user User
	err := db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewAuthorizationError("invalid username or password")
		}
		return nil, err
	}

	if err := utils.ComparePassword(user.Password, password); err != nil {
		return nil, utils.NewAuthorizationError("invalid username or password")
	}
	return &user, nil
}
