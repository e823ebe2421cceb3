package resume

import "fmt"

// Entry is a template that AppendEntry can add to its section.
type Entry interface {
	EntrySection() EntrySection
}

// EntrySection implements Entry.
func (ExperienceEntry) EntrySection() EntrySection { return SectionExperience }

// EntrySection implements Entry.
func (EducationEntry) EntrySection() EntrySection { return SectionEducation }

// SetScalar returns doc with one top-level field replaced.
func SetScalar(doc Document, field ScalarField, value string) (Document, error) {
	switch field {
	case FieldFullName:
		doc.FullName = value
	case FieldEmail:
		doc.Email = value
	case FieldPhone:
		doc.Phone = value
	case FieldLinkedIn:
		doc.LinkedIn = value
	case FieldSummary:
		doc.Summary = value
	case FieldJobTitleTarget:
		doc.JobTitleTarget = value
	case FieldSkills:
		doc.Skills = value
	default:
		return doc, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return doc, nil
}

// SetEntryField returns doc with one field of section[index] replaced. Only the addressed
// entry is rewritten; the section slice is copied, every other entry is carried over as is.
func SetEntryField(doc Document, section EntrySection, index int, field EntryField, value string) (Document, error) {
	if _, ok := entryFields[field]; !ok {
		return doc, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if field.Section() != section {
		return doc, fmt.Errorf("%w: %s.%s", ErrFieldNotInSection, section, field)
	}

	switch section {
	case SectionExperience:
		if err := checkIndex(section.String(), index, len(doc.Experience)); err != nil {
			return doc, err
		}
		exp := append([]ExperienceEntry(nil), doc.Experience...)
		e := exp[index]
		switch field {
		case FieldCompany:
			e.Company = value
		case FieldRole:
			e.Role = value
		case FieldDuration:
			e.Duration = value
		}
		exp[index] = e
		doc.Experience = exp
	case SectionEducation:
		if err := checkIndex(section.String(), index, len(doc.Education)); err != nil {
			return doc, err
		}
		edu := append([]EducationEntry(nil), doc.Education...)
		e := edu[index]
		switch field {
		case FieldDegree:
			e.Degree = value
		case FieldInstitution:
			e.Institution = value
		case FieldYear:
			e.Year = value
		}
		edu[index] = e
		doc.Education = edu
	default:
		return doc, fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
	return doc, nil
}

// SetListElement returns doc with section[index] replaced.
func SetListElement(doc Document, section ListSection, index int, value string) (Document, error) {
	list, err := doc.List(section)
	if err != nil {
		return doc, err
	}
	if err := checkIndex(section.String(), index, len(list)); err != nil {
		return doc, err
	}
	next := append([]string(nil), list...)
	next[index] = value
	doc.setList(section, next)
	return doc, nil
}

// SetAchievement returns doc with experience[expIndex].achievements[achIndex] replaced.
// The experience slice, the entry and its achievements are all copied so the input
// document is left exactly as it was.
func SetAchievement(doc Document, expIndex, achIndex int, value string) (Document, error) {
	if err := checkIndex("experience", expIndex, len(doc.Experience)); err != nil {
		return doc, err
	}
	entry := doc.Experience[expIndex]
	if err := checkIndex(fmt.Sprintf("experience[%d].achievements", expIndex), achIndex, len(entry.Achievements)); err != nil {
		return doc, err
	}

	entry = entry.clone()
	entry.Achievements[achIndex] = value

	exp := append([]ExperienceEntry(nil), doc.Experience...)
	exp[expIndex] = entry
	doc.Experience = exp
	return doc, nil
}

// AppendEntry returns doc with a copy of entry appended to the entry's section. Entries may
// be passed by value or by pointer. An experience template without achievements gets one
// empty achievement.
func AppendEntry(doc Document, entry Entry) (Document, error) {
	switch e := entry.(type) {
	case *ExperienceEntry:
		if e != nil {
			entry = *e
		}
	case *EducationEntry:
		if e != nil {
			entry = *e
		}
	}

	switch e := entry.(type) {
	case ExperienceEntry:
		e = e.clone()
		if len(e.Achievements) == 0 {
			e.Achievements = []string{""}
		}
		exp := make([]ExperienceEntry, len(doc.Experience), len(doc.Experience)+1)
		copy(exp, doc.Experience)
		doc.Experience = append(exp, e)
	case EducationEntry:
		edu := make([]EducationEntry, len(doc.Education), len(doc.Education)+1)
		copy(edu, doc.Education)
		doc.Education = append(edu, e)
	default:
		return doc, fmt.Errorf("%w: %T", ErrUnknownSection, entry)
	}
	return doc, nil
}

// AppendListElement returns doc with value appended to section.
func AppendListElement(doc Document, section ListSection, value string) (Document, error) {
	list, err := doc.List(section)
	if err != nil {
		return doc, err
	}
	next := make([]string, len(list), len(list)+1)
	copy(next, list)
	doc.setList(section, append(next, value))
	return doc, nil
}

// AppendAchievement returns doc with an empty achievement added to experience[expIndex].
func AppendAchievement(doc Document, expIndex int) (Document, error) {
	if err := checkIndex("experience", expIndex, len(doc.Experience)); err != nil {
		return doc, err
	}
	entry := doc.Experience[expIndex]
	ach := make([]string, len(entry.Achievements), len(entry.Achievements)+1)
	copy(ach, entry.Achievements)
	entry.Achievements = append(ach, "")

	exp := append([]ExperienceEntry(nil), doc.Experience...)
	exp[expIndex] = entry
	doc.Experience = exp
	return doc, nil
}

func checkIndex(path string, index, length int) error {
	if index < 0 || index >= length {
		return fmt.Errorf("%w: %s[%d] (len %d)", ErrIndexOutOfRange, path, index, length)
	}
	return nil
}
