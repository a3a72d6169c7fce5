package client

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"psychinsights-backend/internal/models"
)

var digitsOnly = regexp.MustCompile(`^\d+$`)

func (c *Client) CreateClass(ctx context.Context, name string) (*models.Class, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Message: "Please enter a class name"}
	}

	var class models.Class
	if err := c.do(ctx, http.MethodPost, "/api/v1/classes", models.CreateClassRequest{ClassName: name}, &class); err != nil {
		return nil, err
	}
	return &class, nil
}

func (c *Client) ListClasses(ctx context.Context) ([]*models.Class, error) {
	var resp struct {
		Classes []*models.Class `json:"classes"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/classes", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Classes, nil
}

func (c *Client) GetClass(ctx context.Context, id uuid.UUID) (*models.Class, error) {
	var class models.Class
	if err := c.do(ctx, http.MethodGet, "/api/v1/classes/"+id.String(), nil, &class); err != nil {
		return nil, err
	}
	return &class, nil
}

func (c *Client) UpdateClassSummary(ctx context.Context, id uuid.UUID, summary string) error {
	return c.do(ctx, http.MethodPut, "/api/v1/classes/"+id.String()+"/summary",
		models.UpdateClassSummaryRequest{ClassSummary: summary}, nil)
}

// DeleteClass removes the class and all of its students.
func (c *Client) DeleteClass(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/classes/"+id.String(), nil, nil)
}

func (c *Client) ListStudents(ctx context.Context, classID uuid.UUID) ([]*models.Student, error) {
	var resp struct {
		Students []*models.Student `json:"students"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/classes/"+classID.String()+"/students", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Students, nil
}

// AddStudent registers a numeric student id in a class. The id is checked
// for digits locally; the server enforces uniqueness.
func (c *Client) AddStudent(ctx context.Context, classID uuid.UUID, rawID string) (*models.Student, error) {
	rawID = strings.TrimSpace(rawID)
	if rawID == "" {
		return nil, &ValidationError{Message: "Please enter a student ID"}
	}
	if !digitsOnly.MatchString(rawID) {
		return nil, &ValidationError{Message: "Student ID must contain only numbers"}
	}

	body := map[string]string{"student_id": rawID}
	var st models.Student
	if err := c.do(ctx, http.MethodPost, "/api/v1/classes/"+classID.String()+"/students", body, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) GetStudent(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	var st models.Student
	if err := c.do(ctx, http.MethodGet, "/api/v1/students/"+id.String(), nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) error {
	return c.do(ctx, http.MethodPut, "/api/v1/students/"+id.String()+"/notes",
		models.UpdateNotesRequest{RawNotes: notes}, nil)
}

func (c *Client) SaveAnalysis(ctx context.Context, id uuid.UUID, a models.StudentAnalysis) error {
	return c.do(ctx, http.MethodPut, "/api/v1/students/"+id.String()+"/analysis", a, nil)
}

func (c *Client) DeleteStudent(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/students/"+id.String(), nil, nil)
}
