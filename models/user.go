package models

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/mmdatafocus/bizbooks_backend/config"
	"github.com/mmdatafocus/bizbooks_backend/utils"
	"gorm.io/gorm"
)

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	CompanyId string    `gorm:"size:64;index" json:"company_id"`
	Username  string    `gorm:"size:100;not null;unique" json:"username"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	Role      UserRole  `gorm:"type:enum('A', 'O', 'C');default:C" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

/*
caches:
	User:$username
	UserId:$id -> username
*/

const userCacheTTL = 12 * time.Hour

func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

func (u User) cache() {
	_ = config.SetRedisObject("User:"+u.Username, u, userCacheTTL)
	_ = config.SetRedisValue("UserId:"+strconv.Itoa(u.ID), u.Username, userCacheTTL)
}

// GetUserByUsername reads the user from the Redis cache, falling back to the DB.
func GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	exists, err := config.GetRedisObject("User:"+username, &user)
	if err != nil {
		return nil, err
	}
	if exists {
		return &user, nil
	}

	db := config.GetDB()
	if db == nil {
		return nil, errors.New("db is nil")
	}
	err = db.WithContext(utils.SetSkipTenantScopeInContext(ctx, true)).
		Where("username = ?", username).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	user.cache()
	return &user, nil
}

func GetUserById(ctx context.Context, id int) (*User, error) {
	username, exists, err := config.GetRedisValue("UserId:" + strconv.Itoa(id))
	if err != nil {
		return nil, err
	}
	if exists {
		return GetUserByUsername(ctx, username)
	}

	db := config.GetDB()
	if db == nil {
		return nil, errors.New("db is nil")
	}
	var user User
	err = db.WithContext(utils.SetSkipTenantScopeInContext(ctx, true)).
		Where("id = ?", id).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	user.cache()
	return &user, nil
}
