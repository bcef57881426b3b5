// Package imports stores the history of notes.txt imports.
//
// # Usage
//
//	repo := imports.NewRepository(db)
//	err := repo.SaveRun(run)
//	runs, total, err := repo.ListRuns(20, 0)
package imports

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/tolino-notes/internal/entities"
)

// Repository handles import run database operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SaveRun creates the run together with its documents, or updates an existing run and
// replaces its documents.
func (r *Repository) SaveRun(run *entities.ImportRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if run.ID == 0 {
			return tx.Create(run).Error
		}

		if err := tx.Where("import_run_id = ?", run.ID).Delete(&entities.ImportedDocument{}).Error; err != nil {
			return err
		}
		for i := range run.Documents {
			run.Documents[i].ID = 0
			run.Documents[i].ImportRunID = run.ID
		}
		if len(run.Documents) > 0 {
			if err := tx.Create(&run.Documents).Error; err != nil {
				return err
			}
		}
		return tx.Omit("Documents").Save(run).Error
	})
}

// GetRun retrieves a run and its documents by run id.
func (r *Repository) GetRun(runID string) (*entities.ImportRun, error) {
	var run entities.ImportRun
	err := r.db.Preload("Documents", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Where("run_id = ?", runID).First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns runs without their documents, most recent first.
func (r *Repository) ListRuns(limit, offset int) ([]entities.ImportRun, int64, error) {
	var runs []entities.ImportRun
	var total int64

	if err := r.db.Model(&entities.ImportRun{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	err := r.db.Order("started_at DESC, id DESC").Limit(limit).Offset(offset).Find(&runs).Error
	return runs, total, err
}

// LatestRun returns the most recent run from the given source, or nil when there is none.
func (r *Repository) LatestRun(source entities.ImportSource) (*entities.ImportRun, error) {
	var run entities.ImportRun
	err := r.db.Where("source = ?", source).Order("started_at DESC, id DESC").First(&run).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// DeleteRunsBefore removes runs started before the given time, with their documents.
// Returns the number of deleted runs.
func (r *Repository) DeleteRunsBefore(olderThan time.Time) (int64, error) {
	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		old := tx.Model(&entities.ImportRun{}).Select("id").Where("started_at < ?", olderThan)
		if err := tx.Where("import_run_id IN (?)", old).Delete(&entities.ImportedDocument{}).Error; err != nil {
			return err
		}
		result := tx.Where("started_at < ?", olderThan).Delete(&entities.ImportRun{})
		deleted = result.RowsAffected
		return result.Error
	})
	return deleted, err
}
