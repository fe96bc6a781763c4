package model

// User represents a dashboard user
type User struct {
	BaseModel
	Username     string `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	Role         string `gorm:"type:varchar(32);default:'admin'" json:"role"`
	Disabled     bool   `gorm:"default:0" json:"disabled"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
