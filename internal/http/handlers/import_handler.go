package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"shopadmin/internal/csvpreview"
	"shopadmin/internal/domain"
	"shopadmin/internal/log"
	"shopadmin/internal/services"
)

type ImportHandler struct {
	Auth      *services.AuthService
	Import    *services.ImportService
	MaxUpload int64
}

func (h *ImportHandler) Page(c *fiber.Ctx) error {
	return h.renderPage(c, fiber.StatusOK, h.Import.Outcome(clientID(c)))
}

// Submit previews a newly chosen file and, when action=upload, sends the current
// selection to the backend. A post may do both.
func (h *ImportHandler) Submit(c *fiber.Ctx) error {
	sid := clientID(c)
	out := h.Import.Outcome(sid)

	if fh, err := c.FormFile("file"); err == nil && fh.Size > 0 {
		data, err := readLimited(fh, h.MaxUpload)
		if err != nil {
			log.Security(c, "import.file.reject", map[string]any{"name": fh.Filename, "err": err.Error()})
			return h.renderPage(c, fiber.StatusBadRequest, domain.Failed(err.Error()))
		}
		out, err = h.Import.Select(sid, fh.Filename, fh.Header.Get("Content-Type"), data)
		if err != nil {
			log.Security(c, "import.file.reject", map[string]any{"name": fh.Filename, "err": err.Error()})
			return h.renderPage(c, fiber.StatusBadRequest, out)
		}
		sel, _ := h.Import.Current(sid)
		log.Info(c, "import.preview", map[string]any{"name": fh.Filename, "rows": sel.Count, "missing": sel.Missing})
	}

	if c.FormValue("action") != "upload" {
		return h.renderPage(c, fiber.StatusOK, out)
	}

	tok, _ := h.Auth.Token(c.UserContext(), sid)
	out, err := h.Import.Upload(c.UserContext(), sid, tok)
	if err != nil {
		logFailure(c, "import.upload", err, nil)
		return h.renderPage(c, statusFor(err), out)
	}
	log.Audit(c, "import.upload", map[string]any{"message": out.Message})
	return h.renderPage(c, fiber.StatusOK, out)
}

func (h *ImportHandler) renderPage(c *fiber.Ctx, status int, out domain.Outcome) error {
	data := fiber.Map{"Outcome": out, "Columns": csvpreview.Columns}
	if sel, ok := h.Import.Current(clientID(c)); ok {
		data["Selection"] = sel
	}
	return c.Status(status).Render("csv_upload", withCommon(c, data))
}

var errFileTooLarge = errors.New("file too large")

func readLimited(fh *multipart.FileHeader, max int64) ([]byte, error) {
	r, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer r.Close()
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > max {
		return nil, errFileTooLarge
	}
	return data, nil
}
