package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psychinsights-backend/internal/models"
	"psychinsights-backend/internal/repository"
)

// memClasses and memStudents mimic the pgx repositories, including the
// device_id filter on every query.
type memClasses struct {
	rows      []*models.Class
	deleteErr error
	clock     time.Time
}

func (m *memClasses) Create(_ context.Context, c *models.Class) error {
	c.ID = uuid.New()
	m.clock = m.clock.Add(time.Minute)
	c.CreatedAt = m.clock
	cp := *c
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memClasses) ListByDevice(_ context.Context, deviceID string) ([]*models.Class, error) {
	var out []*models.Class
	for _, c := range m.rows {
		if c.DeviceID == deviceID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memClasses) GetByID(_ context.Context, id uuid.UUID, deviceID string) (*models.Class, error) {
	for _, c := range m.rows {
		if c.ID == id && c.DeviceID == deviceID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memClasses) UpdateSummary(_ context.Context, id uuid.UUID, deviceID, summary string) error {
	for _, c := range m.rows {
		if c.ID == id && c.DeviceID == deviceID {
			c.ClassSummary = &summary
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memClasses) Delete(_ context.Context, id uuid.UUID, deviceID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for i, c := range m.rows {
		if c.ID == id && c.DeviceID == deviceID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type memStudents struct {
	rows []*models.Student
}

func (m *memStudents) Create(_ context.Context, s *models.Student) error {
	for _, existing := range m.rows {
		if existing.ClassID == s.ClassID && existing.StudentNumericID == s.StudentNumericID {
			return repository.ErrDuplicate
		}
	}
	s.ID = uuid.New()
	cp := *s
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memStudents) find(id uuid.UUID, deviceID string) *models.Student {
	for _, s := range m.rows {
		if s.ID == id && s.DeviceID == deviceID {
			return s
		}
	}
	return nil
}

func (m *memStudents) GetByID(_ context.Context, id uuid.UUID, deviceID string) (*models.Student, error) {
	if s := m.find(id, deviceID); s != nil {
		cp := *s
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memStudents) ListByClass(_ context.Context, classID uuid.UUID, deviceID string) ([]*models.Student, error) {
	var out []*models.Student
	for _, s := range m.rows {
		if s.ClassID == classID && s.DeviceID == deviceID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentNumericID < out[j].StudentNumericID })
	return out, nil
}

func (m *memStudents) UpdateNotes(_ context.Context, id uuid.UUID, deviceID, notes string) error {
	s := m.find(id, deviceID)
	if s == nil {
		return repository.ErrNotFound
	}
	s.RawNotes = &notes
	return nil
}

func (m *memStudents) UpdateAnalysis(_ context.Context, id uuid.UUID, deviceID string, tag, portrait, dosDonts string) error {
	s := m.find(id, deviceID)
	if s == nil {
		return repository.ErrNotFound
	}
	s.AIPersonalityTag, s.AIFullPortrait, s.AIDosDonts = &tag, &portrait, &dosDonts
	return nil
}

func (m *memStudents) Delete(_ context.Context, id uuid.UUID, deviceID string) error {
	for i, s := range m.rows {
		if s.ID == id && s.DeviceID == deviceID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memStudents) DeleteByClass(_ context.Context, classID uuid.UUID, deviceID string) error {
	kept := m.rows[:0]
	for _, s := range m.rows {
		if !(s.ClassID == classID && s.DeviceID == deviceID) {
			kept = append(kept, s)
		}
	}
	m.rows = kept
	return nil
}

func newClassroom() (*ClassroomService, *memClasses, *memStudents) {
	classes := &memClasses{clock: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)}
	students := &memStudents{}
	return NewClassroomService(classes, students, nil), classes, students
}

func TestCreateAndListClasses_ScopedByToken(t *testing.T) {
	svc, classes, _ := newClassroom()
	ctx := context.Background()

	created, err := svc.CreateClass(ctx, "AbC12", "  Period 1 ")
	require.NoError(t, err)
	assert.Equal(t, "[[AbC12]]Period 1", created.ClassName)
	assert.Equal(t, "Period 1", created.DisplayName)
	assert.Equal(t, "[[AbC12]]Period 1", classes.rows[0].ClassName)

	mine, err := svc.ListClasses(ctx, "AbC12")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Period 1", mine[0].DisplayName)

	theirs, err := svc.ListClasses(ctx, "ZZz99")
	require.NoError(t, err)
	assert.Empty(t, theirs)
	assert.NotNil(t, theirs)
}

func TestListClasses_SkipsRowsWithForeignPrefix(t *testing.T) {
	svc, classes, _ := newClassroom()
	ctx := context.Background()

	_, err := svc.CreateClass(ctx, "AbC12", "Period 1")
	require.NoError(t, err)
	_, err = svc.CreateClass(ctx, "AbC12", "Period 2")
	require.NoError(t, err)
	// Same device column, but the name was written under another token.
	classes.rows = append(classes.rows, &models.Class{
		ID: uuid.New(), ClassName: "[[QQq11]]Stray", DeviceID: "AbC12", CreatedAt: classes.clock.Add(time.Hour),
	})

	list, err := svc.ListClasses(ctx, "AbC12")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Period 2", list[0].DisplayName, "newest first")
	assert.Equal(t, "Period 1", list[1].DisplayName)
}

func TestCreateClass_Validation(t *testing.T) {
	svc, _, _ := newClassroom()

	_, err := svc.CreateClass(context.Background(), "AbC12", "   ")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "class_name")

	long := make([]rune, 201)
	for i := range long {
		long[i] = 'я'
	}
	_, err = svc.CreateClass(context.Background(), "AbC12", string(long))
	require.ErrorAs(t, err, &ve)
}

func TestCreateClass_RejectsDelimiterInDeviceID(t *testing.T) {
	svc, classes, _ := newClassroom()
	ctx := context.Background()

	for _, device := range []string{"ab]]cd", "[[x", "", "ab cd"} {
		_, err := svc.CreateClass(ctx, device, "Period 1")
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, device)
		assert.Contains(t, ve.Fields, "x-device-id")
	}
	assert.Empty(t, classes.rows)
}

func TestCreateClass_ListedUnderItsOwnDevice(t *testing.T) {
	for _, device := range []string{"AbC12", "0", "device42XYZ"} {
		svc, _, _ := newClassroom()
		ctx := context.Background()

		created, err := svc.CreateClass(ctx, device, "Period 1")
		require.NoError(t, err)

		list, err := svc.ListClasses(ctx, device)
		require.NoError(t, err)
		require.Len(t, list, 1, device)
		assert.Equal(t, created.ID, list[0].ID)
	}
}

func TestGetClass_OtherDeviceIsNotFound(t *testing.T) {
	svc, _, _ := newClassroom()
	c, err := svc.CreateClass(context.Background(), "AbC12", "Period 1")
	require.NoError(t, err)

	_, err = svc.GetClass(context.Background(), "ZZz99", c.ID)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Class not found", nf.Message)
}

func TestAddStudent(t *testing.T) {
	svc, _, students := newClassroom()
	ctx := context.Background()
	c, err := svc.CreateClass(ctx, "AbC12", "Period 1")
	require.NoError(t, err)

	st, err := svc.AddStudent(ctx, "AbC12", c.ID, "042")
	require.NoError(t, err)
	assert.Equal(t, 42, st.StudentNumericID)
	assert.Equal(t, "AbC12", st.DeviceID)
	assert.Len(t, students.rows, 1)

	_, err = svc.AddStudent(ctx, "AbC12", c.ID, "42")
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "A student with this ID already exists in this class", ce.Message)

	for _, bad := range []string{"", "12a", "-3", "4.5", "99999999999"} {
		_, err = svc.AddStudent(ctx, "AbC12", c.ID, bad)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve, "id %q", bad)
	}

	_, err = svc.AddStudent(ctx, "ZZz99", c.ID, "7")
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestParseStudentID(t *testing.T) {
	id, err := ParseStudentID(" 17 ")
	require.NoError(t, err)
	assert.Equal(t, 17, id)

	_, err = ParseStudentID("1e3")
	assert.Error(t, err)
}

func TestDeleteClass_RemovesStudentsThenClass(t *testing.T) {
	svc, classes, students := newClassroom()
	ctx := context.Background()
	c, err := svc.CreateClass(ctx, "AbC12", "Period 1")
	require.NoError(t, err)
	other, err := svc.CreateClass(ctx, "AbC12", "Period 2")
	require.NoError(t, err)
	_, err = svc.AddStudent(ctx, "AbC12", c.ID, "1")
	require.NoError(t, err)
	_, err = svc.AddStudent(ctx, "AbC12", other.ID, "1")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteClass(ctx, "AbC12", c.ID))

	require.Len(t, classes.rows, 1)
	require.Len(t, students.rows, 1)
	assert.Equal(t, other.ID, students.rows[0].ClassID)
}

func TestDeleteClass_FailureAfterStudentsLeavesEmptyClass(t *testing.T) {
	svc, classes, students := newClassroom()
	ctx := context.Background()
	c, err := svc.CreateClass(ctx, "AbC12", "Period 1")
	require.NoError(t, err)
	_, err = svc.AddStudent(ctx, "AbC12", c.ID, "1")
	require.NoError(t, err)

	classes.deleteErr = errors.New("connection lost")
	err = svc.DeleteClass(ctx, "AbC12", c.ID)
	require.EqualError(t, err, "connection lost")

	assert.Len(t, classes.rows, 1)
	assert.Empty(t, students.rows)
}

func TestNotesAndAnalysis(t *testing.T) {
	svc, _, _ := newClassroom()
	ctx := context.Background()
	c, err := svc.CreateClass(ctx, "AbC12", "Period 1")
	require.NoError(t, err)
	st, err := svc.AddStudent(ctx, "AbC12", c.ID, "5")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateNotes(ctx, "AbC12", st.ID, "Helps peers."))

	err = svc.SaveAnalysis(ctx, "AbC12", st.ID, models.StudentAnalysis{
		PersonalityTag: "Caring Helper",
		FullPortrait:   "Warm and attentive.",
		DosDonts:       json.RawMessage(`{"dos":["Praise effort"],"donts":["Rush"]}`),
	})
	require.NoError(t, err)

	got, err := svc.GetStudent(ctx, "AbC12", st.ID)
	require.NoError(t, err)
	assert.Equal(t, "Helps peers.", *got.RawNotes)
	assert.Equal(t, "Caring Helper", *got.AIPersonalityTag)
	assert.Equal(t, "Warm and attentive.", *got.AIFullPortrait)
	assert.JSONEq(t, `{"dos":["Praise effort"],"donts":["Rush"]}`, *got.AIDosDonts)

	err = svc.SaveAnalysis(ctx, "AbC12", st.ID, models.StudentAnalysis{})
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	var nf *NotFoundError
	assert.ErrorAs(t, svc.UpdateNotes(ctx, "ZZz99", st.ID, "x"), &nf)
	assert.ErrorAs(t, svc.DeleteStudent(ctx, "ZZz99", st.ID), &nf)
	assert.NoError(t, svc.DeleteStudent(ctx, "AbC12", st.ID))
}
