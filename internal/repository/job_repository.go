package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/logan676/bookpost-sub002/internal/models"
	"gorm.io/gorm"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Start records a new run in the running state and returns it.
func (r *JobRepository) Start(jobType string) (*models.JobRun, error) {
	run := &models.JobRun{
		ID:        uuid.NewString(),
		JobType:   jobType,
		Status:    models.JobRunning,
		StartedAt: time.Now().UTC(),
	}
	if err := r.db.Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// Finish closes out a run; a non-nil runErr marks it failed.
func (r *JobRepository) Finish(id string, runErr error) error {
	now := time.Now().UTC()
	status := models.JobSucceeded
	errText := ""
	if runErr != nil {
		status = models.JobFailed
		errText = runErr.Error()
	}
	return r.db.Model(&models.JobRun{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"finished_at": &now,
			"error":       errText,
		}).Error
}

// LastSucceeded returns the most recent successful run of a job type,
// or nil when it has never succeeded.
func (r *JobRepository) LastSucceeded(jobType string) (*models.JobRun, error) {
	var run models.JobRun
	err := r.db.Where("job_type = ? AND status = ?", jobType, models.JobSucceeded).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}
