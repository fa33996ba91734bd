package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"propcore/internal/http/middleware"
	"propcore/internal/model"
)

func (h *Handler) uploadDocument(c *fiber.Ctx) error {
	propertyID, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
	}
	defer f.Close()

	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	visibility := model.Visibility(c.FormValue("visibility", string(model.VisibilityPrivate)))

	doc, err := h.Documents.Upload(c.UserContext(), middleware.PrincipalFromCtx(c), propertyID, f, fh.Filename, ct, fh.Size, visibility)
	if err != nil {
		return presentWriteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

func (h *Handler) listDocuments(c *fiber.Ctx) error {
	propertyID, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}
	limit, offset, err := pagination(c)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_PAGINATION", "invalid limit or offset")
	}

	res, err := h.Documents.List(c.UserContext(), middleware.PrincipalFromCtx(c), propertyID, limit, offset)
	if err != nil {
		return presentReadError(c, err)
	}
	return c.JSON(res)
}

func (h *Handler) getDocument(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}

	doc, err := h.Documents.Get(c.UserContext(), middleware.PrincipalFromCtx(c), id)
	if err != nil {
		return presentReadError(c, err)
	}
	return c.JSON(doc)
}

func (h *Handler) downloadDocument(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}

	rc, doc, err := h.Documents.Download(c.UserContext(), middleware.PrincipalFromCtx(c), id)
	if err != nil {
		return presentReadError(c, err)
	}

	c.Set(fiber.HeaderContentType, doc.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+doc.Filename+`"`)
	return c.SendStream(rc, int(doc.Size))
}

func (h *Handler) presignDocument(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}
	expirySec, err := strconv.Atoi(c.Query("expiry_sec", "900"))
	if err != nil || expirySec <= 0 {
		return writeError(c, fiber.StatusBadRequest, "INVALID_EXPIRY", "invalid expiry")
	}

	u, err := h.Documents.Presign(c.UserContext(), middleware.PrincipalFromCtx(c), id, time.Duration(expirySec)*time.Second)
	if err != nil {
		return presentReadError(c, err)
	}
	return c.JSON(fiber.Map{"url": u, "expires_in_sec": expirySec})
}

type visibilityInput struct {
	Visibility model.Visibility `json:"visibility"`
}

func (h *Handler) setDocumentVisibility(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}
	var in visibilityInput
	if err := c.BodyParser(&in); err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	doc, err := h.Documents.SetVisibility(c.UserContext(), middleware.PrincipalFromCtx(c), id, in.Visibility)
	if err != nil {
		return presentWriteError(c, err)
	}
	return c.JSON(doc)
}

func (h *Handler) deleteDocument(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}

	if err := h.Documents.Delete(c.UserContext(), middleware.PrincipalFromCtx(c), id); err != nil {
		return presentWriteError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) listDocumentJobs(c *fiber.Ctx) error {
	id, ok := pathUUID(c, "id")
	if !ok {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}

	jobs, err := h.Documents.Jobs(c.UserContext(), middleware.PrincipalFromCtx(c), id)
	if err != nil {
		return presentReadError(c, err)
	}
	return c.JSON(fiber.Map{"data": jobs})
}
