package models

// Group is a named community that posts may optionally belong to.
type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Slug        string `gorm:"size:75;uniqueIndex;not null" json:"slug"`
	Description string `gorm:"size:400" json:"description"`
}

// TableName specifies the table name for GORM
func (Group) TableName() string {
	return "groups"
}

func (g Group) String() string {
	return g.Title
}
