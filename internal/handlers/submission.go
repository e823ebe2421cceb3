package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"cvbuilder/internal/submission"
	u "cvbuilder/internal/utils"
)

// previewCSP keeps generated HTML from running scripts or loading remote content.
const previewCSP = "sandbox; default-src 'none'; style-src 'unsafe-inline'; img-src data:; font-src data:"

// HandleSubmit submits the current document and waits for the outcome. A document
// missing required fields is answered with 400 and the displayed result stays.
func (svc *CVService) HandleSubmit(c *fiber.Ctx) error {
	st, err := svc.Session.Submit(c.UserContext())
	if err != nil {
		return toHTTPError(err)
	}
	u.Info("Submission finished", "session", svc.Session.ID, "state", st.State.String(),
		"generation", st.Generation, "request_id", c.GetRespHeader(fiber.HeaderXRequestID))
	return c.JSON(st)
}

// HandleStatus returns the submission status.
func (svc *CVService) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(svc.Session.Controller.Status())
}

// HandleDismiss dismisses a displayed outcome.
func (svc *CVService) HandleDismiss(c *fiber.Ctx) error {
	return c.JSON(svc.Session.Controller.Dismiss())
}

// HandlePreview serves the preview HTML.
func (svc *CVService) HandlePreview(c *fiber.Ctx) error {
	html, rev, ok := svc.Session.Preview.Current()
	if !ok || html == "" {
		return fiber.NewError(fiber.StatusNotFound, "no preview available")
	}
	c.Set(fiber.HeaderContentSecurityPolicy, previewCSP)
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	c.Set("X-Preview-Revision", strconv.FormatUint(rev, 10))
	c.Type("html", "utf-8")
	return c.SendString(html)
}

// HandleDownload downloads the PDF of the displayed result.
func (svc *CVService) HandleDownload(c *fiber.Ctx) error {
	if err := svc.requireSuccess(); err != nil {
		return err
	}
	location, err := svc.Session.DownloadPDF(c.UserContext())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(fiber.Map{"location": location})
}

// HandlePrintPreview prints the preview to PDF and downloads it.
func (svc *CVService) HandlePrintPreview(c *fiber.Ctx) error {
	if err := svc.requireSuccess(); err != nil {
		return err
	}
	location, err := svc.Session.PrintPreview(c.UserContext())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(fiber.Map{"location": location})
}

func (svc *CVService) requireSuccess() error {
	if svc.Session.Controller.Status().State != submission.SuccessDisplayed {
		return fiber.NewError(fiber.StatusConflict, "no successful result")
	}
	return nil
}
