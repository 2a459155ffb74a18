package domain

import (
	"encoding/json"
	"math"
	"sort"
)

// IDSet is a set of completed item/module ids.
type IDSet map[string]struct{}

func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Add(id string) { s[id] = struct{}{} }

func (s IDSet) Remove(id string) { delete(s, id) }

// Sorted returns the ids in lexical order for stable persistence.
func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ProgressDocument is the persisted progress layout of one learner:
// a JSON object mapping path identifiers to arrays of completed module ids.
type ProgressDocument map[string][]string

// ParseProgressDocument never fails: malformed input yields an empty document.
func ParseProgressDocument(raw []byte) ProgressDocument {
	doc := ProgressDocument{}
	if len(raw) == 0 {
		return doc
	}
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return ProgressDocument{}
	}
	return doc
}

func (d ProgressDocument) Encode() ([]byte, error) {
	if d == nil {
		d = ProgressDocument{}
	}
	return json.Marshal(d)
}

// Set returns the completed ids for pathID.
func (d ProgressDocument) Set(pathID string) IDSet {
	return NewIDSet(d[pathID]...)
}

// Module is one unit of a learning path.
type Module struct {
	ID        string `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	ChapterID int    `json:"chapterId" yaml:"chapterId"`
	SectionID string `json:"sectionId,omitempty" yaml:"sectionId,omitempty"`
	Duration  string `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// LearningPath is an ordered module list with a difficulty label.
type LearningPath struct {
	ID            string   `json:"id" yaml:"id"`
	Title         string   `json:"title" yaml:"title"`
	Description   string   `json:"description,omitempty" yaml:"description,omitempty"`
	Difficulty    string   `json:"difficulty" yaml:"difficulty"`
	EstimatedTime string   `json:"estimatedTime,omitempty" yaml:"estimatedTime,omitempty"`
	Modules       []Module `json:"modules" yaml:"modules"`
}

func (p LearningPath) HasModule(id string) bool {
	for _, m := range p.Modules {
		if m.ID == id {
			return true
		}
	}
	return false
}

// PathProgress is a learner's view of one learning path.
type PathProgress struct {
	PathID    string   `json:"pathId"`
	Completed []string `json:"completed"`
	Total     int      `json:"total"`
	Percent   int      `json:"percent"`
}

// NewPathProgress only counts completed ids that belong to the path.
func NewPathProgress(path LearningPath, completed IDSet) PathProgress {
	ids := make([]string, 0, len(completed))
	for _, m := range path.Modules {
		if completed.Has(m.ID) {
			ids = append(ids, m.ID)
		}
	}
	percent := 0
	if len(path.Modules) > 0 {
		percent = int(math.Round(float64(len(ids)) / float64(len(path.Modules)) * 100))
	}
	return PathProgress{PathID: path.ID, Completed: ids, Total: len(path.Modules), Percent: percent}
}

// FinalScore is the aggregate reported when an activity is finalized.
type FinalScore struct {
	ActivityID string  `json:"activityId"`
	Score      int     `json:"score"`
	MaxScore   int     `json:"maxScore"`
	Correct    int     `json:"correct"`
	Answered   int     `json:"answered"`
	Total      int     `json:"total"`
	Percentage int     `json:"percentage"`
	BestStreak int     `json:"bestStreak"`
	Perfect    bool    `json:"perfect"`
	TimedOut   bool    `json:"timedOut,omitempty"`
	Progress   float64 `json:"progress"`
}
