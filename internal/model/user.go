package model

// Roles as asserted by the identity provider
const (
	RoleAdmin        = "admin"
	RoleStoreManager = "store_manager"
	RoleEmployee     = "employee"
)

// User collaborator view of an account, table users.
// PushToken is the device's push destination address; several users may share one.
type User struct {
	UserID    string  `gorm:"type:varchar(64);primaryKey"                json:"user_id"`
	Name      string  `gorm:"type:varchar(100);not null"                 json:"name"`
	Email     string  `gorm:"type:varchar(255);not null;default:''"      json:"email"`
	Role      string  `gorm:"type:varchar(32);not null;default:employee" json:"role"`
	StoreID   string  `gorm:"type:varchar(64);not null;default:''"       json:"store_id"`
	IsActive  bool    `gorm:"not null;default:true"                      json:"is_active"`
	PushToken *string `gorm:"type:text"                                  json:"-"`
	Timestamps
}

// TableName table name
func (User) TableName() string { return "users" }

// HasPushToken reports whether the user registered a device
func (u *User) HasPushToken() bool {
	return u.PushToken != nil && *u.PushToken != ""
}
