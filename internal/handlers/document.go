package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"cvbuilder/internal/resume"
	u "cvbuilder/internal/utils"
)

// HandleGetDocument returns the current snapshot.
func (svc *CVService) HandleGetDocument(c *fiber.Ctx) error {
	return c.JSON(svc.Session.Store.Snapshot())
}

// HandleSetField sets a top-level scalar field.
func (svc *CVService) HandleSetField(c *fiber.Ctx) error {
	field, err := resume.ParseScalarField(c.Params("field"))
	if err != nil {
		return toHTTPError(err)
	}
	value, err := parseValue(c)
	if err != nil {
		return err
	}
	return svc.update(c, func(d resume.Document) (resume.Document, error) {
		return resume.SetScalar(d, field, value)
	})
}

// HandleSetListElement sets one element of a string-list section.
func (svc *CVService) HandleSetListElement(c *fiber.Ctx) error {
	section, err := resume.ParseListSection(c.Params("section"))
	if err != nil {
		return toHTTPError(err)
	}
	index, err := paramIndex(c, "index")
	if err != nil {
		return err
	}
	value, err := parseValue(c)
	if err != nil {
		return err
	}
	return svc.update(c, func(d resume.Document) (resume.Document, error) {
		return resume.SetListElement(d, section, index, value)
	})
}

// HandleSetEntryField sets one field of an experience or education entry.
func (svc *CVService) HandleSetEntryField(c *fiber.Ctx) error {
	section, err := resume.ParseEntrySection(c.Params("section"))
	if err != nil {
		return toHTTPError(err)
	}
	field, err := resume.ParseEntryField(section, c.Params("field"))
	if err != nil {
		return toHTTPError(err)
	}
	index, err := paramIndex(c, "index")
	if err != nil {
		return err
	}
	value, err := parseValue(c)
	if err != nil {
		return err
	}
	return svc.update(c, func(d resume.Document) (resume.Document, error) {
		return resume.SetEntryField(d, section, index, field, value)
	})
}

// HandleSetAchievement sets one achievement of an experience entry.
func (svc *CVService) HandleSetAchievement(c *fiber.Ctx) error {
	exp, err := paramIndex(c, "index")
	if err != nil {
		return err
	}
	ach, err := paramIndex(c, "ach")
	if err != nil {
		return err
	}
	value, err := parseValue(c)
	if err != nil {
		return err
	}
	return svc.update(c, func(d resume.Document) (resume.Document, error) {
		return resume.SetAchievement(d, exp, ach, value)
	})
}

// HandleAppend appends to a section. Entry sections take an optional entry template as body,
// list sections an optional {"value": ...}.
func (svc *CVService) HandleAppend(c *fiber.Ctx) error {
	name := c.Params("section")
	if section, err := resume.ParseListSection(name); err == nil {
		value, err := parseValue(c)
		if err != nil {
			return err
		}
		return svc.update(c, func(d resume.Document) (resume.Document, error) {
			return resume.AppendListElement(d, section, value)
		})
	}

	section, err := resume.ParseEntrySection(name)
	if err != nil {
		return toHTTPError(err)
	}
	entry, err := parseEntry(c, section)
	if err != nil {
		return err
	}
	return svc.update(c, func(d resume.Document) (resume.Document, error) {
		return resume.AppendEntry(d, entry)
	})
}

// HandleAppendAchievement appends a blank achievement to an experience entry.
func (svc *CVService) HandleAppendAchievement(c *fiber.Ctx) error {
	exp, err := paramIndex(c, "index")
	if err != nil {
		return err
	}
	return svc.update(c, func(d resume.Document) (resume.Document, error) {
		return resume.AppendAchievement(d, exp)
	})
}

func parseEntry(c *fiber.Ctx, section resume.EntrySection) (resume.Entry, error) {
	var entry resume.Entry
	switch section {
	case resume.SectionExperience:
		e := resume.NewExperienceEntry()
		if err := decodeOptional(c, &e); err != nil {
			return nil, err
		}
		entry = e
	default:
		var e resume.EducationEntry
		if err := decodeOptional(c, &e); err != nil {
			return nil, err
		}
		entry = e
	}
	return entry, nil
}

func decodeOptional(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(c.Body(), out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}
	return nil
}

// update applies edit and answers with the new snapshot.
func (svc *CVService) update(c *fiber.Ctx, edit resume.Edit) error {
	snap, err := svc.Session.Store.Update(edit)
	if err != nil {
		return toHTTPError(err)
	}
	u.Debug("Document updated", "session", svc.Session.ID, "version", snap.Version, "path", c.Path())
	return c.JSON(snap)
}
