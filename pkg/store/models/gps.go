package models

// GPSRecord is one persisted position fix. Rows are append-only; the same
// device may legitimately report the same position twice, so there are no
// uniqueness constraints.
type GPSRecord struct {
	ID         uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	IMEI       string  `gorm:"index;not null;size:17" json:"imei"`
	Timestamp  string  `gorm:"not null" json:"timestamp"`
	Latitude   float64 `gorm:"not null" json:"latitude"`
	Longitude  float64 `gorm:"not null" json:"longitude"`
	Altitude   int16   `json:"altitude"`
	Angle      uint16  `json:"angle"`
	Satellites uint8   `json:"satellites"`
	Speed      uint16  `json:"speed"`
}

// TableName returns the table name for GPSRecord.
func (GPSRecord) TableName() string {
	return "gps_data"
}
