package services

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/yigit/studentmanagement/internal/app/models"
)

// AssignmentService manages the student to teacher assignment
type AssignmentService interface {
	Assign(ctx context.Context, studentID, teacherID int64) (*models.User, error)
	Unassign(ctx context.Context, studentID int64) (*models.User, error)
}

type assignmentServiceImpl struct {
	store  UserStore
	roles  RoleChecker
	logger zerolog.Logger
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(store UserStore, roles RoleChecker, logger zerolog.Logger) AssignmentService {
	return &assignmentServiceImpl{
		store:  store,
		roles:  roles,
		logger: logger,
	}
}

// Assign points the student at the teacher, replacing any previous assignment
func (s *assignmentServiceImpl) Assign(ctx context.Context, studentID, teacherID int64) (*models.User, error) {
	var student *models.User
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		st, err := s.store.GetByID(ctx, studentID)
		if err != nil {
			return err
		}
		teacher, err := s.store.GetByID(ctx, teacherID)
		if err != nil {
			return err
		}

		if err := s.roles.CheckRole(st, models.RoleStudent); err != nil {
			return err
		}
		if err := s.roles.CheckRole(teacher, models.RoleTeacher); err != nil {
			return err
		}

		if err := s.store.SetAssignedTeacher(ctx, st.ID, &teacher.ID); err != nil {
			return err
		}
		st.AssignTo(teacher)
		student = st
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("studentID", studentID).Int64("teacherID", teacherID).Msg("Student assigned to teacher")
	return student, nil
}

// Unassign clears the student's teacher. Unassigning an unassigned student succeeds.
func (s *assignmentServiceImpl) Unassign(ctx context.Context, studentID int64) (*models.User, error) {
	var student *models.User
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		st, err := s.roles.ValidateStudent(ctx, studentID)
		if err != nil {
			return err
		}

		if err := s.store.SetAssignedTeacher(ctx, st.ID, nil); err != nil {
			return err
		}
		st.Unassign()
		student = st
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("studentID", studentID).Msg("Student unassigned")
	return student, nil
}
