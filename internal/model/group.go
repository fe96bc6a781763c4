package model

// Group represents a named group of players
type Group struct {
	UUIDModel
	Name        string   `gorm:"type:varchar(100);not null" json:"name"`
	Color       string   `gorm:"type:varchar(7);default:'#8819C7'" json:"color"`
	Description string   `gorm:"type:text" json:"description"`
	Players     []Player `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"players,omitempty"`
}

// TableName specifies the table name for Group model
func (Group) TableName() string {
	return "groups"
}
