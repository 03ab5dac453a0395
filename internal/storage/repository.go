package storage

import (
	"errors"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) SaveUpload(log *UploadLog) error {
	return r.db.Create(log).Error
}

func (r *Repository) GetRecentUploads(limit int) ([]UploadLog, error) {
	var uploads []UploadLog
	err := r.db.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&uploads).Error
	return uploads, err
}

// GetLastSuccessfulUpload returns nil without error when the bucket was never
// loaded.
func (r *Repository) GetLastSuccessfulUpload(bucket string) (*UploadLog, error) {
	var upload UploadLog
	err := r.db.Where("bucket = ? AND status = ?", bucket, UploadStatusOK).
		Order("created_at DESC").Order("id DESC").First(&upload).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

func (r *Repository) CountFailedUploads() (int64, error) {
	var n int64
	err := r.db.Model(&UploadLog{}).Where("status = ?", UploadStatusFailed).Count(&n).Error
	return n, err
}
