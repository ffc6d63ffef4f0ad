package models

// IORecord is one persisted IO element, flattened out of its AVL record.
// Values narrower than eight bytes are stored zero-extended.
type IORecord struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	IMEI      string `gorm:"index;not null;size:17" json:"imei"`
	Timestamp string `gorm:"not null" json:"timestamp"`
	IOID      uint16 `gorm:"column:io_id;not null" json:"io_id"`
	IOValue   uint64 `gorm:"column:io_value;not null" json:"io_value"`
}

// TableName returns the table name for IORecord.
func (IORecord) TableName() string {
	return "io_data"
}
