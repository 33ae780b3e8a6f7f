// Package seed populates an empty store with the default admin and, optionally, a demo roster
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/studentmanagement/internal/app/models"
	"github.com/yigit/studentmanagement/internal/app/models/dto"
	"github.com/yigit/studentmanagement/internal/app/services"
	"github.com/yigit/studentmanagement/internal/config"
)

const (
	adminDepartment = "Administration"
	teacherPassword = "teacher123"
	studentPassword = "student123"
)

// UserCounter reports how many users are stored
type UserCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Options controls what Run creates
type Options struct {
	AdminUsername string
	AdminEmail    string
	AdminPassword string
	DemoData      bool
}

// OptionsFrom builds Options from the seed section of cfg
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		AdminUsername: cfg.Seed.AdminUsername,
		AdminEmail:    cfg.Seed.AdminEmail,
		AdminPassword: cfg.Seed.AdminPassword,
		DemoData:      cfg.Seed.DemoData,
	}
}

type demoUser struct {
	username   string
	email      string
	department string
}

var demoTeachers = []demoUser{
	{"john_doe", "john.doe@school.com", "Mathematics"},
	{"jane_smith", "jane.smith@school.com", "Physics"},
	{"bob_wilson", "bob.wilson@school.com", "Computer Science"},
}

// demoStudents maps each student to the username of its teacher
var demoStudents = []struct {
	demoUser
	teacher string
}{
	{demoUser{"alice_brown", "alice.brown@student.com", "Computer Science"}, "bob_wilson"},
	{demoUser{"charlie_davis", "charlie.davis@student.com", "Mathematics"}, "john_doe"},
	{demoUser{"emma_miller", "emma.miller@student.com", "Physics"}, "jane_smith"},
	{demoUser{"david_lee", "david.lee@student.com", "Computer Science"}, "bob_wilson"},
	{demoUser{"sophia_taylor", "sophia.taylor@student.com", "Mathematics"}, "john_doe"},
}

// Seeder creates initial data through the regular services
type Seeder struct {
	counter     UserCounter
	users       services.UserService
	assignments services.AssignmentService
	logger      zerolog.Logger
}

// NewSeeder creates a new Seeder
func NewSeeder(counter UserCounter, users services.UserService, assignments services.AssignmentService, logger zerolog.Logger) *Seeder {
	return &Seeder{
		counter:     counter,
		users:       users,
		assignments: assignments,
		logger:      logger,
	}
}

// Run seeds the store when it holds no users. It reports whether anything was created.
func (s *Seeder) Run(ctx context.Context, opts Options) (bool, error) {
	count, err := s.counter.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		s.logger.Info().Int64("users", count).Msg("Data already exists, skipping seed")
		return false, nil
	}

	if _, err := s.create(ctx, demoUser{opts.AdminUsername, opts.AdminEmail, adminDepartment}, opts.AdminPassword, models.RoleAdmin); err != nil {
		return false, fmt.Errorf("failed to create admin user: %w", err)
	}
	s.logger.Info().Str("username", opts.AdminUsername).Msg("Created default admin user")

	if !opts.DemoData {
		return true, nil
	}

	var finalErr error
	teachers := make(map[string]int64, len(demoTeachers))
	for _, t := range demoTeachers {
		user, err := s.create(ctx, t, teacherPassword, models.RoleTeacher)
		if err != nil {
			s.logger.Error().Err(err).Str("username", t.username).Msg("Error creating demo teacher")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		teachers[t.username] = user.ID
	}

	for _, st := range demoStudents {
		student, err := s.create(ctx, st.demoUser, studentPassword, models.RoleStudent)
		if err != nil {
			s.logger.Error().Err(err).Str("username", st.username).Msg("Error creating demo student")
			finalErr = errors.Join(finalErr, err)
			continue
		}

		teacherID, ok := teachers[st.teacher]
		if !ok {
			continue
		}
		if _, err := s.assignments.Assign(ctx, student.ID, teacherID); err != nil {
			s.logger.Error().Err(err).Str("student", st.username).Str("teacher", st.teacher).Msg("Error assigning demo student")
			finalErr = errors.Join(finalErr, err)
		}
	}

	if finalErr != nil {
		return true, fmt.Errorf("demo data partially created: %w", finalErr)
	}

	s.logger.Info().Int("teachers", len(demoTeachers)).Int("students", len(demoStudents)).Msg("Demo data loaded")
	return true, nil
}

func (s *Seeder) create(ctx context.Context, u demoUser, password string, role models.Role) (*models.User, error) {
	return s.users.CreateUser(ctx, &dto.CreateUserRequest{
		Username:   u.username,
		Email:      u.email,
		Password:   password,
		Department: u.department,
		Role:       string(role),
	})
}
