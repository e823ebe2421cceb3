// Package resume holds the editable résumé document, the pure edit operations over it and the
// store that owns the current snapshot.
//
// A Document is a snapshot: edits never write into it. Slices are shared between snapshots
// wherever an edit did not touch them, so callers must treat every slice as read-only.
package resume

// Template is the only layout the generation service is asked for.
const Template = "modern"

// ExperienceEntry is one position in the work history.
type ExperienceEntry struct {
	Company      string   `json:"company"`
	Role         string   `json:"role"`
	Duration     string   `json:"duration"`
	Achievements []string `json:"achievements"`
}

// EducationEntry is one degree.
type EducationEntry struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

// Document is the edit-time résumé.
type Document struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	LinkedIn       string `json:"linkedin"`
	Summary        string `json:"summary"`
	JobTitleTarget string `json:"job_title_target"`

	// Skills is kept as typed: comma separated, split only when the payload is built.
	Skills string `json:"skills"`

	Experience     []ExperienceEntry `json:"experience"`
	Education      []EducationEntry  `json:"education"`
	Certifications []string          `json:"certifications"`
	Projects       []string          `json:"projects"`
	Languages      []string          `json:"languages"`
	Interests      []string          `json:"interests"`

	Template string `json:"template"`
}

// New returns the empty document a session starts with: one blank entry in every section.
func New() Document {
	return Document{
		Experience:     []ExperienceEntry{NewExperienceEntry()},
		Education:      []EducationEntry{{}},
		Certifications: []string{""},
		Projects:       []string{""},
		Languages:      []string{""},
		Interests:      []string{""},
		Template:       Template,
	}
}

// NewExperienceEntry returns a blank position with one empty achievement.
func NewExperienceEntry() ExperienceEntry {
	return ExperienceEntry{Achievements: []string{""}}
}

func (e ExperienceEntry) clone() ExperienceEntry {
	e.Achievements = append([]string(nil), e.Achievements...)
	return e
}
