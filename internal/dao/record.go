package dao

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"dictophone-api/internal/model"
)

type RecordDAO struct {
	db *gorm.DB
}

func NewRecordDAO(db *gorm.DB) *RecordDAO {
	return &RecordDAO{db: db}
}

func (d *RecordDAO) Create(record *model.Record) error {
	return d.db.Create(record).Error
}

func (d *RecordDAO) FindByID(id int64) (*model.Record, error) {
	var record model.Record
	if err := d.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (d *RecordDAO) FindByFolderID(folderID int64) ([]model.Record, error) {
	var records []model.Record
	err := d.db.Where("folder_id = ?", folderID).Find(&records).Error
	return records, err
}

// Search lists a user's records newest first with optional substring and
// folder filters. The returned count covers the whole filtered set, not
// just the requested page.
func (d *RecordDAO) Search(keycloakUserID, search string, folderID *int64, page, size int) ([]model.Record, int64, error) {
	q := d.db.Model(&model.Record{}).
		Joins("JOIN folders ON folders.id = records.folder_id").
		Where("folders.keycloak_user_id = ?", keycloakUserID)

	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(records.title) LIKE ? OR LOWER(records.description) LIKE ?", like, like)
	}

	if folderID != nil {
		q = q.Where("records.folder_id = ?", *folderID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []model.Record
	err := q.Order("records.datetime DESC").
		Limit(size).
		Offset(page * size).
		Find(&records).Error
	return records, total, err
}

func (d *RecordDAO) CountByUser(keycloakUserID string) (int64, error) {
	var count int64
	err := d.db.Model(&model.Record{}).
		Joins("JOIN folders ON folders.id = records.folder_id").
		Where("folders.keycloak_user_id = ?", keycloakUserID).
		Count(&count).Error
	return count, err
}

func (d *RecordDAO) SumDurationByUser(keycloakUserID string) (int64, error) {
	var total int64
	err := d.db.Model(&model.Record{}).
		Joins("JOIN folders ON folders.id = records.folder_id").
		Where("folders.keycloak_user_id = ?", keycloakUserID).
		Select("COALESCE(SUM(records.duration), 0)").
		Scan(&total).Error
	return total, err
}

// UpdateDescription writes the recomputed transcript cache. The transcribe
// callback is the only caller; nothing else touches description after
// creation.
func (d *RecordDAO) UpdateDescription(id int64, description string) error {
	return d.db.Model(&model.Record{}).Where("id = ?", id).Updates(map[string]interface{}{
		"description": description,
		"updated_at":  time.Now(),
	}).Error
}

// DeleteCascade removes a record and its segments in one transaction.
// Blob cleanup happens outside: the object store cannot join the
// transaction, so callers delete the blob only after this commits.
func (d *RecordDAO) DeleteCascade(id int64) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("record_id = ?", id).Delete(&model.TranscriptionSegment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Record{}, id).Error
	})
}
