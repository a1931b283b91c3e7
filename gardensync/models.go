package gardensync

import "gorm.io/datatypes"

// GameIDRow is one row of the game_ids table shared with the board's web
// service, which reads data as JSON text.
type GameIDRow struct {
	ID   string         `gorm:"column:id;primaryKey;type:text"`
	Data datatypes.JSON `gorm:"column:data;type:text;not null"`
}

func (GameIDRow) TableName() string { return "game_ids" }
