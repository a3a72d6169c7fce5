package models

import "encoding/json"

// Wire shapes of the analysis functions. Field names are the public contract.

type AnalyzeStudentRequest struct {
	StudentID int    `json:"student_id"`
	Notes     string `json:"notes"`
}

type AnalyzeStudentResponse struct {
	PersonalityTag string          `json:"personality_tag"`
	FullPortrait   string          `json:"full_portrait"`
	DosDonts       json.RawMessage `json:"dos_donts"` // string or object
}

type StudentPortrait struct {
	StudentID int    `json:"student_id"`
	Portrait  string `json:"portrait"`
	Tag       string `json:"tag"`
}

type SynthesizeClassRequest struct {
	ClassName        string            `json:"class_name"`
	StudentPortraits []StudentPortrait `json:"student_portraits"`
}

// SynthesizeClassResponse carries the class strategy. Summary is canonical;
// GlobalStrategy and Content are deprecated aliases still read by clients.
type SynthesizeClassResponse struct {
	Summary        string `json:"summary"`
	GlobalStrategy string `json:"global_strategy,omitempty"`
	Content        string `json:"content,omitempty"`
}

type InterferenceRequest struct {
	L1           string `json:"l1"`
	L2           string `json:"l2"`
	TaskCategory string `json:"taskCategory"`
	ContentArea  string `json:"contentArea"`
}

type Bridge struct {
	L1Concept    string `json:"l1Concept"`
	L2Concept    string `json:"l2Concept"`
	Type         string `json:"type"`         // grammatical | lexical | phonetic
	TransferType string `json:"transferType"` // positive | neutral
	Explanation  string `json:"explanation"`
}

type Pitfall struct {
	L1Pattern   string `json:"l1Pattern"`
	L2Error     string `json:"l2Error"`
	Severity    string `json:"severity"` // high | medium | low
	Explanation string `json:"explanation"`
	Correction  string `json:"correction"`
}

type FalseFriend struct {
	L1Word    string `json:"l1Word"`
	L2Word    string `json:"l2Word"`
	L1Meaning string `json:"l1Meaning"`
	L2Meaning string `json:"l2Meaning"`
}

type DecisionStep struct {
	Step     int    `json:"step"`
	L1Logic  string `json:"l1Logic"`
	L2Result string `json:"l2Result"`
	IsError  bool   `json:"isError"`
}

type InterferenceAnalysis struct {
	Bridges      []Bridge       `json:"bridges"`
	Pitfalls     []Pitfall      `json:"pitfalls"`
	FalseFriends []FalseFriend  `json:"falseFriends"`
	DecisionTree []DecisionStep `json:"decisionTree"`
}

type EtymologyRequest struct {
	Words string `json:"words"`
}

type Cognate struct {
	Language string `json:"language"`
	Word     string `json:"word"`
}

type WordConnection struct {
	ID           string    `json:"id"`
	Word         string    `json:"word"`
	Root         string    `json:"root"`
	RootLanguage string    `json:"rootLanguage"`
	Cognates     []Cognate `json:"cognates"`
	Meaning      string    `json:"meaning"`
}

type RootGroup struct {
	Root    string   `json:"root"`
	Meaning string   `json:"meaning"`
	Words   []string `json:"words"`
}

type EtymologyAnalysis struct {
	Connections []WordConnection `json:"connections"`
	RootGroups  []RootGroup      `json:"rootGroups"`
}

type CognitiveLoadRequest struct {
	TextPassage string `json:"textPassage"`
}

type LoadPoint struct {
	Position int     `json:"position"`
	Word     string  `json:"word"`
	Load     float64 `json:"load"` // 0-100
	Reason   string  `json:"reason"`
}

type HeatmapSegment struct {
	Text       string  `json:"text"`
	Load       float64 `json:"load"`
	StartIndex int     `json:"startIndex"`
	EndIndex   int     `json:"endIndex"`
}

type ScaffoldingAdvice struct {
	Position string `json:"position"`
	Advice   string `json:"advice"`
	Priority string `json:"priority"`
}

type GraphPoint struct {
	Position     int     `json:"position"`
	MentalEffort float64 `json:"mentalEffort"`
	Label        string  `json:"label"`
}

type CognitiveAnalysis struct {
	LoadPoints        []LoadPoint         `json:"loadPoints"`
	OverallScore      float64             `json:"overallScore"`
	HeatmapSegments   []HeatmapSegment    `json:"heatmapSegments"`
	ScaffoldingAdvice []ScaffoldingAdvice `json:"scaffoldingAdvice"`
	GraphData         []GraphPoint        `json:"graphData"`
}

// Normalize replaces nil collections with empty ones so results always
// serialize as arrays.
func (a *InterferenceAnalysis) Normalize() {
	if a.Bridges == nil {
		a.Bridges = []Bridge{}
	}
	if a.Pitfalls == nil {
		a.Pitfalls = []Pitfall{}
	}
	if a.FalseFriends == nil {
		a.FalseFriends = []FalseFriend{}
	}
	if a.DecisionTree == nil {
		a.DecisionTree = []DecisionStep{}
	}
}

func (a *EtymologyAnalysis) Normalize() {
	if a.Connections == nil {
		a.Connections = []WordConnection{}
	}
	if a.RootGroups == nil {
		a.RootGroups = []RootGroup{}
	}
}

func (a *CognitiveAnalysis) Normalize() {
	if a.LoadPoints == nil {
		a.LoadPoints = []LoadPoint{}
	}
	if a.HeatmapSegments == nil {
		a.HeatmapSegments = []HeatmapSegment{}
	}
	if a.ScaffoldingAdvice == nil {
		a.ScaffoldingAdvice = []ScaffoldingAdvice{}
	}
	if a.GraphData == nil {
		a.GraphData = []GraphPoint{}
	}
}

// Strategy returns the first non-empty of the canonical summary and its
// deprecated aliases.
func (r SynthesizeClassResponse) Strategy() string {
	for _, s := range []string{r.Summary, r.GlobalStrategy, r.Content} {
		if s != "" {
			return s
		}
	}
	return ""
}
