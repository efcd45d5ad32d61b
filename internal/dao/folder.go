package dao

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"dictophone-api/internal/model"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

type FolderDAO struct {
	db *gorm.DB
}

func NewFolderDAO(db *gorm.DB) *FolderDAO {
	return &FolderDAO{db: db}
}

func (d *FolderDAO) Create(keycloakUserID, name string, description *string, isDefault bool) (*model.Folder, error) {
	folder := model.Folder{
		KeycloakUserID: keycloakUserID,
		Name:           name,
		Description:    description,
		IsDefault:      isDefault,
	}
	if err := d.db.Create(&folder).Error; err != nil {
		return nil, err
	}
	return &folder, nil
}

// CreateDefaults seeds the three standard folders for a user.
func (d *FolderDAO) CreateDefaults(keycloakUserID string) ([]model.Folder, error) {
	var folders []model.Folder
	for _, name := range model.DefaultFolderNames {
		folder, err := d.Create(keycloakUserID, name, nil, true)
		if err != nil {
			return folders, err
		}
		folders = append(folders, *folder)
	}
	return folders, nil
}

// HasDefaults reports whether the user already has the full default set.
// Callers racing on a first request may both see false; the duplicate seed
// is an accepted outcome.
func (d *FolderDAO) HasDefaults(keycloakUserID string) (bool, error) {
	var count int64
	err := d.db.Model(&model.Folder{}).
		Where("keycloak_user_id = ? AND is_default = ?", keycloakUserID, true).
		Count(&count).Error
	return count >= int64(len(model.DefaultFolderNames)), err
}

// EnsureDefaults seeds the default folders unless they already exist.
func (d *FolderDAO) EnsureDefaults(keycloakUserID string) error {
	ok, err := d.HasDefaults(keycloakUserID)
	if err != nil || ok {
		return err
	}
	_, err = d.CreateDefaults(keycloakUserID)
	return err
}

func (d *FolderDAO) FindByUser(keycloakUserID string) ([]model.Folder, error) {
	var folders []model.Folder
	err := d.db.Where("keycloak_user_id = ?", keycloakUserID).Find(&folders).Error
	return folders, err
}

func (d *FolderDAO) FindByID(id int64) (*model.Folder, error) {
	var folder model.Folder
	if err := d.db.First(&folder, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &folder, nil
}

func (d *FolderDAO) Update(id int64, name string, description *string) (*model.Folder, error) {
	err := d.db.Model(&model.Folder{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":        name,
		"description": description,
		"updated_at":  time.Now(),
	}).Error
	if err != nil {
		return nil, err
	}
	return d.FindByID(id)
}

func (d *FolderDAO) Delete(id int64) error {
	return d.db.Delete(&model.Folder{}, id).Error
}
