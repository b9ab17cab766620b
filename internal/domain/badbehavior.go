package domain

import (
	"time"

	"gorm.io/datatypes"
)

// ReasonAllowed marks verbose log rows for requests that were let through.
const ReasonAllowed = "00000000"

// BadBehaviorLog records a screened request. Blocked requests are always
// logged (when logging is on); allowed ones only in verbose mode.
type BadBehaviorLog struct {
	ID             int64             `json:"id"              gorm:"primaryKey;autoIncrement"`
	IP             string            `json:"ip"              gorm:"type:varchar(64);not null;index"`
	Date           time.Time         `json:"date"            gorm:"not null;index"`
	RequestMethod  string            `json:"request_method"  gorm:"type:varchar(16);not null"`
	RequestURI     string            `json:"request_uri"     gorm:"type:text;not null"`
	ServerProtocol string            `json:"server_protocol" gorm:"type:varchar(16);not null"`
	UserAgent      string            `json:"user_agent"      gorm:"type:text;not null;default:''"`
	Headers        datatypes.JSONMap `json:"headers"`
	Entity         string            `json:"entity"          gorm:"type:text;not null;default:''"`
	Reason         string            `json:"reason"          gorm:"type:char(8);not null;index"`
	Rule           string            `json:"rule"            gorm:"type:varchar(64);not null;default:''"`
}

// TableName returns the database table name for BadBehaviorLog.
func (BadBehaviorLog) TableName() string { return "log_badbehavior" }
