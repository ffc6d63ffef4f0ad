package models

// DOUT1State tracks the digital-output automation for one device. One row
// per IMEI, created on the device's first DOUT1 observation.
//
// Invariant: Active implies DeactivateTime is set; inactive rows always have
// a nil DeactivateTime.
type DOUT1State struct {
	IMEI           string  `gorm:"primaryKey;size:17" json:"imei"`
	LastZeroTime   *string `gorm:"column:last_dout1_zero_time" json:"last_dout1_zero_time"`
	Active         bool    `gorm:"column:dout1_active;not null;default:false" json:"dout1_active"`
	DeactivateTime *string `gorm:"column:deactivate_time" json:"deactivate_time"`
}

// TableName returns the table name for DOUT1State.
func (DOUT1State) TableName() string {
	return "dout1_state"
}
