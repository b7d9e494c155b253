package storage

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Credentials

func (r *Repository) SaveToken(token string) error {
	cred := Credential{ID: credentialRow, Token: token}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
	}).Create(&cred).Error
}

// LoadToken returns "" when no session was stored.
func (r *Repository) LoadToken() (string, error) {
	var cred Credential
	err := r.db.First(&cred, credentialRow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return cred.Token, nil
}

func (r *Repository) ClearToken() error {
	return r.db.Delete(&Credential{}, credentialRow).Error
}

// Action Logs

func (r *Repository) SaveActionLog(log *ActionLog) error {
	return r.db.Create(log).Error
}

func (r *Repository) GetRecentActions(limit int) ([]ActionLog, error) {
	var logs []ActionLog
	err := r.db.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

// Dashboard Snapshots

func (r *Repository) SaveDashboardSnapshot(snapshot *DashboardSnapshot) error {
	return r.db.Create(snapshot).Error
}

func (r *Repository) GetLatestSnapshot() (*DashboardSnapshot, error) {
	var snapshot DashboardSnapshot
	err := r.db.Order("created_at DESC").Order("id DESC").First(&snapshot).Error
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}
