package services

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"psychinsights-backend/internal/models"
	"psychinsights-backend/internal/repository"
	"psychinsights-backend/internal/scope"
)

type ClassStore interface {
	Create(ctx context.Context, c *models.Class) error
	ListByDevice(ctx context.Context, deviceID string) ([]*models.Class, error)
	GetByID(ctx context.Context, id uuid.UUID, deviceID string) (*models.Class, error)
	UpdateSummary(ctx context.Context, id uuid.UUID, deviceID, summary string) error
	Delete(ctx context.Context, id uuid.UUID, deviceID string) error
}

type StudentStore interface {
	Create(ctx context.Context, s *models.Student) error
	GetByID(ctx context.Context, id uuid.UUID, deviceID string) (*models.Student, error)
	ListByClass(ctx context.Context, classID uuid.UUID, deviceID string) ([]*models.Student, error)
	UpdateNotes(ctx context.Context, id uuid.UUID, deviceID, notes string) error
	UpdateAnalysis(ctx context.Context, id uuid.UUID, deviceID string, tag, portrait, dosDonts string) error
	Delete(ctx context.Context, id uuid.UUID, deviceID string) error
	DeleteByClass(ctx context.Context, classID uuid.UUID, deviceID string) error
}

// ClassroomService manages classes and students for one device at a time.
// The device id doubles as the scope token embedded in class names.
type ClassroomService struct {
	classes  ClassStore
	students StudentStore
	logger   *zap.Logger
}

func NewClassroomService(classes ClassStore, students StudentStore, logger *zap.Logger) *ClassroomService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassroomService{classes: classes, students: students, logger: logger}
}

var digitsOnly = regexp.MustCompile(`^\d+$`)

func (s *ClassroomService) CreateClass(ctx context.Context, deviceID, name string) (*models.Class, error) {
	if !scope.ValidToken(deviceID) {
		return nil, fieldError("x-device-id", "Invalid device identifier")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fieldError("class_name", "Class name is required")
	}
	if utf8.RuneCountInString(name) > maxClassName {
		return nil, fieldError("class_name", "Class name must be 200 characters or less")
	}

	c := &models.Class{
		ClassName: scope.Embed(name, deviceID),
		DeviceID:  deviceID,
	}
	if err := s.classes.Create(ctx, c); err != nil {
		return nil, err
	}
	c.DisplayName = name
	return c, nil
}

// ListClasses returns the device's classes, newest first. Rows whose
// embedded scope token does not match the device are skipped.
func (s *ClassroomService) ListClasses(ctx context.Context, deviceID string) ([]*models.Class, error) {
	rows, err := s.classes.ListByDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	classes := scope.FilterByScope(rows, func(c *models.Class) string { return c.ClassName }, deviceID)
	for _, c := range classes {
		c.DisplayName = scope.Strip(c.ClassName)
	}
	if classes == nil {
		classes = []*models.Class{}
	}
	return classes, nil
}

func (s *ClassroomService) GetClass(ctx context.Context, deviceID string, id uuid.UUID) (*models.Class, error) {
	c, err := s.classes.GetByID(ctx, id, deviceID)
	if err != nil {
		return nil, notFound(err, "Class not found")
	}
	c.DisplayName = scope.Strip(c.ClassName)
	return c, nil
}

func (s *ClassroomService) UpdateClassSummary(ctx context.Context, deviceID string, id uuid.UUID, summary string) error {
	if err := s.classes.UpdateSummary(ctx, id, deviceID, truncate(summary, maxSummaryLength)); err != nil {
		return notFound(err, "Class not found")
	}
	return nil
}

// DeleteClass removes the class's students and then the class. The two
// statements are independent: a failure between them leaves an empty class.
func (s *ClassroomService) DeleteClass(ctx context.Context, deviceID string, id uuid.UUID) error {
	if _, err := s.GetClass(ctx, deviceID, id); err != nil {
		return err
	}
	if err := s.students.DeleteByClass(ctx, id, deviceID); err != nil {
		return err
	}
	if err := s.classes.Delete(ctx, id, deviceID); err != nil {
		s.logger.Warn("class left without students after failed delete",
			zap.String("class_id", id.String()),
			zap.Error(err),
		)
		return notFound(err, "Class not found")
	}
	return nil
}

func (s *ClassroomService) ListStudents(ctx context.Context, deviceID string, classID uuid.UUID) ([]*models.Student, error) {
	if _, err := s.GetClass(ctx, deviceID, classID); err != nil {
		return nil, err
	}
	students, err := s.students.ListByClass(ctx, classID, deviceID)
	if err != nil {
		return nil, err
	}
	if students == nil {
		students = []*models.Student{}
	}
	return students, nil
}

// ParseStudentID accepts a non-negative integer written with digits only.
func ParseStudentID(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if !digitsOnly.MatchString(raw) {
		return 0, fieldError("student_id", "Student ID must contain only digits")
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id > 2147483647 {
		return 0, fieldError("student_id", "Student ID is too large")
	}
	return id, nil
}

func (s *ClassroomService) AddStudent(ctx context.Context, deviceID string, classID uuid.UUID, rawID string) (*models.Student, error) {
	id, err := ParseStudentID(rawID)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetClass(ctx, deviceID, classID); err != nil {
		return nil, err
	}

	st := &models.Student{
		StudentNumericID: id,
		ClassID:          classID,
		DeviceID:         deviceID,
	}
	if err := s.students.Create(ctx, st); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ConflictError{Message: "A student with this ID already exists in this class"}
		}
		return nil, err
	}
	return st, nil
}

func (s *ClassroomService) GetStudent(ctx context.Context, deviceID string, id uuid.UUID) (*models.Student, error) {
	st, err := s.students.GetByID(ctx, id, deviceID)
	if err != nil {
		return nil, notFound(err, "Student not found")
	}
	return st, nil
}

func (s *ClassroomService) UpdateNotes(ctx context.Context, deviceID string, id uuid.UUID, notes string) error {
	if err := s.students.UpdateNotes(ctx, id, deviceID, notes); err != nil {
		return notFound(err, "Student not found")
	}
	return nil
}

// SaveAnalysis persists the three AI fields of a student. dos_donts is kept
// as plain text when the model answered with a string and as JSON otherwise.
func (s *ClassroomService) SaveAnalysis(ctx context.Context, deviceID string, id uuid.UUID, a models.StudentAnalysis) error {
	if strings.TrimSpace(a.PersonalityTag) == "" && strings.TrimSpace(a.FullPortrait) == "" {
		return fieldError("full_portrait", "Analysis result is empty")
	}

	err := s.students.UpdateAnalysis(ctx, id, deviceID,
		truncate(a.PersonalityTag, maxTagLength),
		truncate(a.FullPortrait, maxPortraitOutput),
		models.DosDontsText(a.DosDonts),
	)
	if err != nil {
		return notFound(err, "Student not found")
	}
	return nil
}

func (s *ClassroomService) DeleteStudent(ctx context.Context, deviceID string, id uuid.UUID) error {
	if err := s.students.Delete(ctx, id, deviceID); err != nil {
		return notFound(err, "Student not found")
	}
	return nil
}

func notFound(err error, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Message: message}
	}
	return err
}
