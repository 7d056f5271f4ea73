package models

import (
	"cental/src/db"
	"cental/src/lib"
	"cental/src/types"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobTask struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	Name       string      `json:"-"`
	JobType    string      `json:"-"`
	RunsAt     time.Time   `json:"-"`
	PayloadID  string      `json:"-"`
	Payload    types.JSONB `gorm:"type:jsonb" json:"-"`
	Source     string      `json:"-"`
	SourceType string      `json:"-"`
	Status     string      `gorm:"default:'pending'" json:"-"`
	Topic      string      `json:"-"`
}

func (self *JobTask) CreateAndEnqueueJobTask(jobTask JobTask) (string, error) {
	var jobID string
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		vars := map[string]string{
			"name":  jobTask.Name,
			"topic": jobTask.Topic,
		}
		sid, err := lib.NewScheduledJob(jobTask.RunsAt, vars, jobTask.Payload)
		if err != nil {
			log.Printf("Error creating job %s: %s\n", jobTask.Name, err.Error())
			return err
		}
		jobID = sid.String()
		jobTask.ID = *sid
		jobTask.Payload["JobID"] = jobID
		if err := tx.Create(&jobTask).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	log.Printf("Created schedule for job %s with name %s at %s\n", jobID, jobTask.Name, jobTask.RunsAt.Format(time.RFC3339))
	return jobID, nil
}
