package storage

import "time"

const (
	UploadStatusOK     = "ok"
	UploadStatusFailed = "failed"
)

// UploadLog records one upload attempt. Only metadata is kept; the uploaded
// rows themselves live in memory for the session.
type UploadLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	BatchID  string `gorm:"uniqueIndex;not null" json:"batch_id"`
	Bucket   string `gorm:"index;not null" json:"bucket"`
	FileName string `gorm:"not null" json:"file_name"`
	Rows     int    `json:"rows"`
	Groups   int    `json:"groups"`
	Status   string `gorm:"not null;default:'ok'" json:"status"` // ok, failed
	Error    string `json:"error,omitempty"`
}
