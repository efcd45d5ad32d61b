package dao

import (
	"gorm.io/gorm"

	"dictophone-api/internal/model"
)

type TranscriptionDAO struct {
	db *gorm.DB
}

func NewTranscriptionDAO(db *gorm.DB) *TranscriptionDAO {
	return &TranscriptionDAO{db: db}
}

// CreateBatch persists one callback's segments in a single insert.
func (d *TranscriptionDAO) CreateBatch(recordID int64, inputs []model.TranscriptionSegmentInput) ([]model.TranscriptionSegment, error) {
	segments := make([]model.TranscriptionSegment, 0, len(inputs))
	for _, in := range inputs {
		segments = append(segments, model.TranscriptionSegment{
			RecordID: recordID,
			Start:    in.Start,
			End:      in.End,
			Text:     in.Text,
		})
	}
	if err := d.db.Create(&segments).Error; err != nil {
		return nil, err
	}
	return segments, nil
}

func (d *TranscriptionDAO) FindByRecordID(recordID int64) ([]model.TranscriptionSegment, error) {
	var segments []model.TranscriptionSegment
	err := d.db.Where("record_id = ?", recordID).
		Order("start ASC").
		Find(&segments).Error
	return segments, err
}
