// Package payload turns an edit-time résumé into the JSON body sent to the generation service.
package payload

import (
	"strings"
	"unicode"

	"cvbuilder/internal/resume"
)

// Experience is a position as sent over the wire.
type Experience struct {
	Company      string   `json:"company"`
	Role         string   `json:"role"`
	Duration     string   `json:"duration"`
	Achievements []string `json:"achievements"`
}

// Education is a degree as sent over the wire.
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year"`
}

// Payload is the body of POST /api/cv/generate.
type Payload struct {
	FullName       string       `json:"full_name"`
	Email          string       `json:"email"`
	Phone          string       `json:"phone"`
	LinkedIn       *string      `json:"linkedin"`
	Summary        *string      `json:"summary"`
	JobTitleTarget string       `json:"job_title_target"`
	Skills         []string     `json:"skills"`
	Experience     []Experience `json:"experience"`
	Education      []Education  `json:"education"`
	Certifications []string     `json:"certifications"`
	Projects       []string     `json:"projects"`
	Languages      []string     `json:"languages"`
	Interests      []string     `json:"interests"`
	Template       string       `json:"template"`
}

// Normalize builds the payload for doc. It never fails: blank leaf values are dropped.
func Normalize(doc resume.Document) Payload {
	exp := make([]Experience, 0, len(doc.Experience))
	for _, e := range doc.Experience {
		exp = append(exp, Experience{
			Company:      e.Company,
			Role:         e.Role,
			Duration:     e.Duration,
			Achievements: Clean(e.Achievements),
		})
	}

	edu := make([]Education, 0, len(doc.Education))
	for _, e := range doc.Education {
		edu = append(edu, Education{Degree: e.Degree, Institution: e.Institution, Year: e.Year})
	}

	return Payload{
		FullName:       doc.FullName,
		Email:          doc.Email,
		Phone:          doc.Phone,
		LinkedIn:       optional(doc.LinkedIn),
		Summary:        optional(doc.Summary),
		JobTitleTarget: doc.JobTitleTarget,
		Skills:         SplitSkills(doc.Skills),
		Experience:     exp,
		Education:      edu,
		Certifications: Clean(doc.Certifications),
		Projects:       Clean(doc.Projects),
		Languages:      Clean(doc.Languages),
		Interests:      Clean(doc.Interests),
		Template:       resume.Template,
	}
}

// SplitSkills splits a comma separated list, trimming each item and dropping empty ones.
// Order and duplicates are kept.
func SplitSkills(skills string) []string {
	return Clean(strings.Split(skills, ","))
}

// Clean trims every element and drops the ones left empty. The result is never nil.
func Clean(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s = strings.TrimFunc(s, isTrimSpace); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// isTrimSpace matches the characters an ECMAScript trim removes: Unicode white space
// and line terminators plus the byte order mark, but not NEL.
func isTrimSpace(r rune) bool {
	return r == '\uFEFF' || (r != '\u0085' && unicode.IsSpace(r))
}

// optional maps "" to null and passes anything else through untouched.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
