package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"psychinsights-backend/internal/labstate"
	"psychinsights-backend/internal/models"
	"psychinsights-backend/internal/scope"
)

// Invoke calls one analysis function and decodes its JSON reply into out.
func (c *Client) Invoke(ctx context.Context, kind string, payload, out any) error {
	return c.do(ctx, http.MethodPost, "/functions/v1/"+kind, payload, out)
}

// AnalyzeStudent produces an AI profile from notes and stores it on the
// student. Notes that differ from the saved ones are saved first. Nothing
// is written when the analysis call fails.
func (c *Client) AnalyzeStudent(ctx context.Context, st *models.Student, notes string) (*models.AnalyzeStudentResponse, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, &ValidationError{Message: "Please enter observation notes before analyzing"}
	}

	if st.RawNotes == nil || *st.RawNotes != notes {
		if err := c.UpdateNotes(ctx, st.ID, notes); err != nil {
			return nil, fmt.Errorf("save notes: %w", err)
		}
		st.RawNotes = &notes
	}

	var result models.AnalyzeStudentResponse
	req := models.AnalyzeStudentRequest{StudentID: st.StudentNumericID, Notes: notes}
	if err := c.Invoke(ctx, "analyze-student", req, &result); err != nil {
		return nil, err
	}

	err := c.SaveAnalysis(ctx, st.ID, models.StudentAnalysis{
		PersonalityTag: result.PersonalityTag,
		FullPortrait:   result.FullPortrait,
		DosDonts:       result.DosDonts,
	})
	if err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}

	return &result, nil
}

// SynthesizeClass builds a class strategy from every analysed student and
// stores it as the class summary.
func (c *Client) SynthesizeClass(ctx context.Context, class *models.Class) (string, error) {
	students, err := c.ListStudents(ctx, class.ID)
	if err != nil {
		return "", err
	}

	portraits := make([]models.StudentPortrait, 0, len(students))
	for _, s := range students {
		if s.AIFullPortrait == nil || *s.AIFullPortrait == "" {
			continue
		}
		tag := "Unknown"
		if s.AIPersonalityTag != nil && *s.AIPersonalityTag != "" {
			tag = *s.AIPersonalityTag
		}
		portraits = append(portraits, models.StudentPortrait{
			StudentID: s.StudentNumericID,
			Portrait:  *s.AIFullPortrait,
			Tag:       tag,
		})
	}
	if len(portraits) == 0 {
		return "", &ValidationError{Message: "No analyzed students found. Please analyze individual students first."}
	}

	name := class.DisplayName
	if name == "" {
		name = scope.Strip(class.ClassName)
	}

	var resp models.SynthesizeClassResponse
	req := models.SynthesizeClassRequest{ClassName: name, StudentPortraits: portraits}
	if err := c.Invoke(ctx, "synthesize-class", req, &resp); err != nil {
		return "", err
	}

	summary := resp.Strategy()
	if summary == "" {
		return "", errors.New("AI returned empty strategy")
	}

	if err := c.UpdateClassSummary(ctx, class.ID, summary); err != nil {
		return "", fmt.Errorf("save summary: %w", err)
	}
	class.ClassSummary = &summary
	return summary, nil
}

// AnalyzeInterference maps L1 transfer onto L2 content. An empty task
// category falls back to grammar.
func (c *Client) AnalyzeInterference(ctx context.Context, req models.InterferenceRequest) (*models.InterferenceAnalysis, error) {
	req.L1 = strings.TrimSpace(req.L1)
	req.L2 = strings.TrimSpace(req.L2)
	if req.L1 == "" || req.L2 == "" {
		return nil, &ValidationError{Message: "Please enter both L1 and L2 languages"}
	}
	if strings.TrimSpace(req.ContentArea) == "" {
		return nil, &ValidationError{Message: "Please enter content to analyze"}
	}
	if req.TaskCategory == "" {
		req.TaskCategory = "grammar"
	}

	var result models.InterferenceAnalysis
	if err := c.Invoke(ctx, "analyze-interference", req, &result); err != nil {
		return nil, err
	}
	result.Normalize()

	err := c.saveLab(ctx, labstate.Patch{InterferenceMap: &labstate.InterferenceMap{
		L1Text:         req.L1,
		L2Text:         req.L2,
		TaskCategory:   req.TaskCategory,
		ContentArea:    req.ContentArea,
		AnalysisResult: &result,
	}})
	return &result, err
}

func (c *Client) AnalyzeEtymology(ctx context.Context, words string) (*models.EtymologyAnalysis, error) {
	if strings.TrimSpace(words) == "" {
		return nil, &ValidationError{Message: "Please enter words to analyze"}
	}

	var result models.EtymologyAnalysis
	if err := c.Invoke(ctx, "analyze-etymology", models.EtymologyRequest{Words: words}, &result); err != nil {
		return nil, err
	}
	result.Normalize()

	err := c.saveLab(ctx, labstate.Patch{Etymology: &labstate.Etymology{
		Words:          words,
		AnalysisResult: &result,
	}})
	return &result, err
}

func (c *Client) AnalyzeCognitiveLoad(ctx context.Context, passage string) (*models.CognitiveAnalysis, error) {
	if strings.TrimSpace(passage) == "" {
		return nil, &ValidationError{Message: "Please enter a text passage to analyze"}
	}

	var result models.CognitiveAnalysis
	if err := c.Invoke(ctx, "analyze-cognitive-load", models.CognitiveLoadRequest{TextPassage: passage}, &result); err != nil {
		return nil, err
	}
	result.Normalize()

	err := c.saveLab(ctx, labstate.Patch{CognitiveScanner: &labstate.CognitiveScanner{
		TextPassage:    passage,
		AnalysisResult: &result,
	}})
	return &result, err
}

// LabState returns the saved lab tool state. Corrupt local state reads as
// the defaults.
func (c *Client) LabState(ctx context.Context) (labstate.State, error) {
	if c.lab != nil {
		st, err := c.lab.Load(ctx, c.token)
		if errors.Is(err, labstate.ErrCorrupt) {
			return st, nil
		}
		return st, err
	}

	st := labstate.Default()
	if err := c.do(ctx, http.MethodGet, "/api/v1/lab/state", nil, &st); err != nil {
		return labstate.State{}, err
	}
	return st, nil
}

func (c *Client) saveLab(ctx context.Context, p labstate.Patch) error {
	if c.lab != nil {
		_, err := labstate.Update(ctx, c.lab, c.token, p)
		return err
	}
	return c.do(ctx, http.MethodPut, "/api/v1/lab/state", p, nil)
}

// DosDonts is the display form of a stored dos_donts value. When the value
// is not a JSON object, Structured is false and Raw holds the text.
type DosDonts struct {
	Structured bool
	Dos        []string
	Donts      []string
	Raw        string
}

// ParseDosDonts reads {"dos": [...], "donts": [...]} and falls back to
// treating the value as plain text.
func ParseDosDonts(text string) DosDonts {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil || parsed == nil {
		return DosDonts{Raw: text}
	}
	return DosDonts{
		Structured: true,
		Dos:        stringList(parsed["dos"]),
		Donts:      stringList(parsed["donts"]),
	}
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
