package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stemsi/gradebook-backend/internal/apperror"
	"github.com/stemsi/gradebook-backend/internal/config"
	"github.com/stemsi/gradebook-backend/internal/database"
	"github.com/stemsi/gradebook-backend/internal/logger"
	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/repository"
	"github.com/stemsi/gradebook-backend/internal/service"
	"github.com/stemsi/gradebook-backend/internal/validator"
)

// seed fills an empty database with one course, two professors, two
// disciplines, and a class of enrolled students with grades.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	validator.Setup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	store := repository.NewPostgresStore(pool)
	pub := service.NewStoreAuditPublisher(store)
	ctx = service.WithActor(ctx, "seed")

	courses := service.NewCourseService(store, pub, log)
	professors := service.NewProfessorService(store, pub, log)
	disciplines := service.NewDisciplineService(store, pub, log)
	students := service.NewStudentService(store, pub, log)
	enrollments := service.NewEnrollmentService(store, pub, log)
	grades := service.NewGradeService(store, pub, log)

	fmt.Println("=== Seeding academic records ===")

	course, err := courses.Create(ctx, model.CourseRequest{Name: "Computer Science"})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create course (is the database already seeded?)")
	}

	profs := []model.ProfessorRequest{
		{Name: "Ana Beatriz Costa", Registration: "PRF-0001"},
		{Name: "Carlos Henrique Lima", Registration: "PRF-0002"},
	}
	disciplineNames := []string{"Object-Oriented Programming", "Data Structures"}
	disciplineIDs := make([]int64, 0, len(profs))
	for i, req := range profs {
		p, err := professors.Create(ctx, req)
		if err != nil {
			log.Fatal().Err(err).Str("registration", req.Registration).Msg("Failed to create professor")
		}
		d, err := disciplines.Create(ctx, model.DisciplineRequest{
			Name:        disciplineNames[i],
			CourseID:    course.ID,
			ProfessorID: p.ID,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create discipline")
		}
		disciplineIDs = append(disciplineIDs, d.ID)
	}

	names := []string{
		"Pedro Oliveira", "Maria Souza", "Joao Pereira", "Lucas Almeida", "Julia Ferreira",
		"Gabriel Rocha", "Beatriz Martins", "Rafael Gomes", "Larissa Ribeiro", "Mateus Carvalho",
		"Camila Barbosa", "Thiago Teixeira", "Isabela Moreira", "Felipe Cardoso", "Leticia Dias",
		"Bruno Nascimento", "Amanda Correia", "Gustavo Mendes", "Mariana Araujo", "Vinicius Pinto",
	}

	created, graded := 0, 0
	for i, name := range names {
		st, err := students.Create(ctx, model.StudentRequest{
			Name:      name,
			Matricula: fmt.Sprintf("2026%04d", i+1),
		})
		if err != nil {
			log.Error().Err(err).Str("name", name).Msg("Failed to create student")
			continue
		}
		created++

		for j, disciplineID := range disciplineIDs {
			if _, err := enrollments.EnrollPair(ctx, st.ID, disciplineID); err != nil {
				log.Error().Err(err).Int64("student_id", st.ID).Msg("Failed to enroll student")
				continue
			}

			// Deterministic spread across PASS, RETAKE, and FAIL.
			s1 := decimal.New(int64((i*7+j*3)%101), -1)
			s2 := decimal.New(int64((i*13+j*5+40)%101), -1)
			if _, err := grades.Create(ctx, model.GradeRequest{
				StudentID:    st.ID,
				DisciplineID: disciplineID,
				Score1:       &s1,
				Score2:       &s2,
			}); err != nil {
				if apperror.IsValidation(err) {
					log.Warn().Err(err).Msg("Skipping invalid grade")
					continue
				}
				log.Fatal().Err(err).Msg("Failed to record grade")
			}
			graded++
		}
	}

	fmt.Printf("Seed completed. %d students created, %d grade records.\n", created, graded)
}
