package resume

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSection is returned for a section name or value outside the known set.
	ErrUnknownSection = errors.New("unknown section")
	// ErrUnknownField is returned for a field name or value outside the known set.
	ErrUnknownField = errors.New("unknown field")
	// ErrFieldNotInSection is returned when an entry field is addressed in the wrong section.
	ErrFieldNotInSection = errors.New("field does not belong to section")
	// ErrIndexOutOfRange is returned when an index does not address an existing element.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// ScalarField names a top-level string field.
type ScalarField int

const (
	FieldFullName ScalarField = iota + 1
	FieldEmail
	FieldPhone
	FieldLinkedIn
	FieldSummary
	FieldJobTitleTarget
	FieldSkills
)

var scalarNames = map[ScalarField]string{
	FieldFullName:       "full_name",
	FieldEmail:          "email",
	FieldPhone:          "phone",
	FieldLinkedIn:       "linkedin",
	FieldSummary:        "summary",
	FieldJobTitleTarget: "job_title_target",
	FieldSkills:         "skills",
}

func (f ScalarField) String() string {
	if s, ok := scalarNames[f]; ok {
		return s
	}
	return fmt.Sprintf("ScalarField(%d)", int(f))
}

// ParseScalarField maps a wire name such as "full_name" to its field.
func ParseScalarField(name string) (ScalarField, error) {
	for f, s := range scalarNames {
		if s == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// EntrySection names a section whose elements are structured entries.
type EntrySection int

const (
	SectionExperience EntrySection = iota + 1
	SectionEducation
)

func (s EntrySection) String() string {
	switch s {
	case SectionExperience:
		return "experience"
	case SectionEducation:
		return "education"
	}
	return fmt.Sprintf("EntrySection(%d)", int(s))
}

// ParseEntrySection maps "experience" or "education" to its section.
func ParseEntrySection(name string) (EntrySection, error) {
	switch name {
	case "experience":
		return SectionExperience, nil
	case "education":
		return SectionEducation, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSection, name)
}

// EntryField names a string field of an experience or education entry.
type EntryField int

const (
	FieldCompany EntryField = iota + 1
	FieldRole
	FieldDuration
	FieldDegree
	FieldInstitution
	FieldYear
)

var entryFields = map[EntryField]struct {
	name    string
	section EntrySection
}{
	FieldCompany:     {"company", SectionExperience},
	FieldRole:        {"role", SectionExperience},
	FieldDuration:    {"duration", SectionExperience},
	FieldDegree:      {"degree", SectionEducation},
	FieldInstitution: {"institution", SectionEducation},
	FieldYear:        {"year", SectionEducation},
}

func (f EntryField) String() string {
	if d, ok := entryFields[f]; ok {
		return d.name
	}
	return fmt.Sprintf("EntryField(%d)", int(f))
}

// Section reports which entry section the field belongs to.
func (f EntryField) Section() EntrySection {
	return entryFields[f].section
}

// ParseEntryField maps a field name to its field, checking it belongs to section.
func ParseEntryField(section EntrySection, name string) (EntryField, error) {
	for f, d := range entryFields {
		if d.name != name {
			continue
		}
		if d.section != section {
			return 0, fmt.Errorf("%w: %s.%s", ErrFieldNotInSection, section, name)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// ListSection names a section whose elements are plain strings.
type ListSection int

const (
	SectionCertifications ListSection = iota + 1
	SectionProjects
	SectionLanguages
	SectionInterests
)

var listNames = map[ListSection]string{
	SectionCertifications: "certifications",
	SectionProjects:       "projects",
	SectionLanguages:      "languages",
	SectionInterests:      "interests",
}

func (s ListSection) String() string {
	if n, ok := listNames[s]; ok {
		return n
	}
	return fmt.Sprintf("ListSection(%d)", int(s))
}

// ParseListSection maps a section name such as "projects" to its section.
func ParseListSection(name string) (ListSection, error) {
	for s, n := range listNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSection, name)
}

// List returns the elements of section in doc.
func (doc Document) List(section ListSection) ([]string, error) {
	switch section {
	case SectionCertifications:
		return doc.Certifications, nil
	case SectionProjects:
		return doc.Projects, nil
	case SectionLanguages:
		return doc.Languages, nil
	case SectionInterests:
		return doc.Interests, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSection, section)
}

func (doc *Document) setList(section ListSection, list []string) {
	switch section {
	case SectionCertifications:
		doc.Certifications = list
	case SectionProjects:
		doc.Projects = list
	case SectionLanguages:
		doc.Languages = list
	case SectionInterests:
		doc.Interests = list
	}
}
