package main

import (
	"context"
	"fmt"
	"time"

	"github.com/stemsi/studygroup-backend/internal/config"
	"github.com/stemsi/studygroup-backend/internal/database"
	"github.com/stemsi/studygroup-backend/internal/logger"
	"github.com/stemsi/studygroup-backend/internal/model"
	"github.com/stemsi/studygroup-backend/internal/repository"
	"github.com/stemsi/studygroup-backend/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	groupService := service.NewStudyGroupService(repository.NewPostgresStudyGroupRepository(pool), nil, log)

	fmt.Println("=== Seeding study groups ===")

	names := map[model.Subject]string{
		model.SubjectMath:      "Calculus Circle",
		model.SubjectChemistry: "Organic Chemistry Lab",
		model.SubjectPhysics:   "Mechanics Study Hall",
	}
	members := []model.User{
		model.NewUser(1, "Budi", "Santoso", "budi@example.com"),
		model.NewUser(2, "Siti", "Aminah", "siti@example.com"),
		model.NewUser(3, "Andi", "Pratama", "andi@example.com"),
		model.NewUser(4, "Rina", "Wati", "rina@example.com"),
	}

	created := 0
	for _, subject := range model.AllSubjects() {
		res, err := groupService.Create(ctx, names[subject], subject, time.Now().UTC())
		if err != nil {
			log.Fatal().Err(err).Str("subject", subject.String()).Msg("Failed to create study group")
		}
		if !res.Success {
			fmt.Printf("Skipping %s: %s\n", subject, res.Message)
			continue
		}
		created++
		fmt.Printf("Created %q (ID: %d)\n", res.Group.Name, res.Group.ID)

		// Every other user joins each new group.
		for i, u := range members {
			if (i+int(subject))%2 != 0 {
				continue
			}
			if _, err := groupService.Join(ctx, res.Group.ID, u); err != nil {
				log.Fatal().Err(err).Int("user_id", u.ID).Msg("Failed to join study group")
			}
		}
	}

	fmt.Printf("\nSeed completed! Created %d/%d study groups.\n", created, len(model.AllSubjects()))
}
