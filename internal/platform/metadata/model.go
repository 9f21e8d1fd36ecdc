package metadata

import "gorm.io/gorm"

// Metadata is a simple key/value table used for aggregation checkpoints
// and other bookkeeping that must survive restarts.
type Metadata struct {
	gorm.Model
	Key   string `gorm:"uniqueIndex;not null"`
	Value string
}
