package boot

import (
	"cental/src/common"
	"cental/src/db"
	"cental/src/lib"
	"cental/src/models"
	"cental/src/types"
	"cental/src/utils"
	"log"
	"os"
	"strconv"
	"time"

	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Car{},
		&models.Payment{},
		&models.Booking{},
		&models.ContactMessage{},
		&models.JobTask{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	if seed, _ := strconv.ParseBool(os.Getenv("SEED_DB")); seed {
		go SeedDb()
	}

	return db
}

func SeedDb() {
	if err := utils.EnsureAdminUser(); err != nil {
		log.Printf("Error seeding admin user: %s\n", err.Error())
	}
	count := 25
	if n, err := strconv.Atoi(os.Getenv("SEED_CARS")); err == nil && n > 0 {
		count = n
	}
	if err := utils.SeedCars(count); err != nil {
		log.Printf("Error seeding cars: %s\n", err.Error())
	}
}

func InitBroker() {
	go RecoverQueuedJobs()
	go UpdateExpiredJobs()
	go ReleaseExpiredHolds()

	if os.Getenv("API_ENV") == string(types.Local) {
		emailTopic := utils.WithSuffix("EmailsToSend")
		paymentsTopic := utils.WithSuffix("PendingPayments")
		if _, err := lib.KafkaCreateTopics(emailTopic, paymentsTopic); err != nil {
			log.Printf("Error creating topics: %s\n", err.Error())
		}
		go lib.KafkaSubscribe("emails", emailTopic, common.KafkaEmailsToSendConsumer)
		go lib.KafkaSubscribe("payments", paymentsTopic, common.KafkaPendingPaymentsConsumer)
		return
	}
	go common.SQSConsumers()
	go common.SNSSubscribes()
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	jobsWaitingInQueue := len(sched.Jobs())
	log.Println("Jobs in queue:", jobsWaitingInQueue)
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
		return
	}
}

// RecoverQueuedJobs re-registers pending one-shot jobs after a restart.
// Jobs whose run time has already passed are handled by UpdateExpiredJobs.
func RecoverQueuedJobs() error {
	db := db.GetDb()
	ss := db.Session(&gorm.Session{PrepareStmt: true})
	var jobTasks []models.JobTask
	today := time.Now()
	in1m := today.Add(1 * time.Minute)
	in3months := today.Add((24 * 30 * 3) * time.Hour)
	err := ss.
		Model(&models.JobTask{}).Select("id", "name", "topic", "payload", "runs_at").
		Where(&models.JobTask{Status: "pending", JobType: "OneTimeJobStartDateTime"}).
		Where("runs_at BETWEEN ? AND ?", in1m, in3months).
		Order("runs_at asc").
		Limit(100).
		Find(&jobTasks).
		Error
	if err != nil {
		log.Printf("Error retrieving jobs: %s\n", err.Error())
		return err
	}
	log.Printf("Found %d pending jobs", len(jobTasks))
	for _, jobTask := range jobTasks {
		log.Printf("Queueing: %s\n", jobTask.ID.String())
		vars := map[string]string{
			"name":  jobTask.Name,
			"topic": jobTask.Topic,
		}
		sid, err := lib.NewScheduledJob(jobTask.RunsAt, vars, jobTask.Payload)
		if err != nil {
			log.Printf("Failed to schedule job [%s]. Skipping: %s\n", jobTask.ID.String(), err.Error())
			continue
		}
		log.Printf("Added job to scheduler: name=%s id=%s job=%s\n", jobTask.Name, jobTask.ID.String(), sid.String())
	}

	return nil
}

// ReleaseExpiredHolds cancels bookings held by payments whose hold window
// lapsed while the server was down. Expiry jobs for those payments never
// fired, so the cars would stay blocked without this sweep.
func ReleaseExpiredHolds() {
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		var paymentIds []uint
		if err := tx.
			Model(&models.Payment{}).
			Where("status = ? AND valid_until < ?", types.PAYMENT_PENDING, time.Now()).
			Pluck("id", &paymentIds).
			Error; err != nil {
			return err
		}
		if len(paymentIds) == 0 {
			return nil
		}
		if err := tx.
			Model(&models.Payment{}).
			Where("id IN (?)", paymentIds).
			Update("status", types.PAYMENT_EXPIRED).
			Error; err != nil {
			return err
		}
		if err := tx.
			Model(&models.Booking{}).
			Where("payment_id IN (?) AND status = ?", paymentIds, types.BOOKING_PENDING).
			Update("status", types.BOOKING_CANCELLED).
			Error; err != nil {
			return err
		}
		log.Printf("Released holds for %d expired payments\n", len(paymentIds))
		return nil
	})
	if err != nil {
		log.Printf("Error while releasing expired holds: %s\n", err.Error())
	}
}

func UpdateExpiredJobs() {
	db := db.GetDb()
	err := db.
		Transaction(func(tx *gorm.DB) error {
			err := tx.Model(&models.JobTask{}).
				Where("status", "pending").
				Where("runs_at < ?", time.Now()).
				Update("status", "expired").Error
			if err != nil {
				return err
			}
			return nil
		})
	if err != nil {
		log.Printf("Error while processing expired jobs: %s\n", err.Error())
	}
}
