package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/frahmantamala/leave-management/internal/leave"
	"github.com/frahmantamala/leave-management/internal/leave/postgres"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample leave requests for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		lg := setupLogger(cfg)

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		if clearData {
			if err := db.Exec("DELETE FROM leave_requests").Error; err != nil {
				log.Fatalf("failed to clear leave requests: %v", err)
			}
			fmt.Println("Cleared existing leave requests")
		}

		repo, err := postgres.NewLeaveRepository(db, lg)
		if err != nil {
			log.Fatalf("failed to init repository: %v", err)
		}
		// no notifier: seeding must not send e-mail
		service := leave.NewService(repo, nil, lg)

		today := leave.TruncateToDate(time.Now())
		reason := func(s string) *string { return &s }

		samples := []struct {
			dto     leave.CreateLeaveDTO
			decide  leave.LeaveStatus
			comment string
		}{
			{
				dto: leave.CreateLeaveDTO{
					UserID: "fadhil@mail.com", Type: string(leave.LeaveTypeVacation),
					StartDate: today.AddDate(0, 0, 14), EndDate: today.AddDate(0, 0, 18),
					Reason: reason("Family trip"),
				},
			},
			{
				dto: leave.CreateLeaveDTO{
					UserID: "fadhil@mail.com", Type: string(leave.LeaveTypeSick),
					StartDate: today.AddDate(0, 0, -10), EndDate: today.AddDate(0, 0, -9),
				},
				decide: leave.StatusApproved,
			},
			{
				dto: leave.CreateLeaveDTO{
					UserID: "dina@mail.com", Type: string(leave.LeaveTypePersonal),
					StartDate: today.AddDate(0, 0, 3), EndDate: today.AddDate(0, 0, 3),
					Reason: reason("Moving apartments"),
				},
			},
			{
				dto: leave.CreateLeaveDTO{
					UserID: "dina@mail.com", Type: string(leave.LeaveTypeOther),
					StartDate: today.AddDate(0, 1, 0), EndDate: today.AddDate(0, 1, 4),
				},
				decide:  leave.StatusRejected,
				comment: "Overlaps with the quarterly release",
			},
		}

		for _, sample := range samples {
			created, err := service.Create(ctx, sample.dto)
			if err != nil {
				log.Fatalf("failed to seed leave request for %s: %v", sample.dto.UserID, err)
			}

			switch sample.decide {
			case leave.StatusApproved:
				err = service.Approve(ctx, created.ID, "padil@mail.com")
			case leave.StatusRejected:
				err = service.Reject(ctx, created.ID, "padil@mail.com", sample.comment)
			}
			if err != nil {
				log.Fatalf("failed to decide seeded leave request %d: %v", created.ID, err)
			}

			fmt.Printf("Seeded leave request %d for %s (%s)\n", created.ID, created.UserID, created.Type)
		}
	},
}
