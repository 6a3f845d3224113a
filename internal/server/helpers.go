package server

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"inkwell/internal/auth"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// pageData adds the signed-in principal to template data.
func (s *Server) pageData(c *fiber.Ctx, data fiber.Map) fiber.Map {
	if data == nil {
		data = fiber.Map{}
	}
	if _, ok := data["principal"]; !ok {
		data["principal"] = auth.FromCtx(c)
	}
	return data
}

// render executes a page with the principal filled in.
func (s *Server) render(c *fiber.Ctx, name string, data fiber.Map) error {
	return c.Render(name, s.pageData(c, data))
}

// viewerID returns the signed-in user id, or 0 for anonymous visitors.
func viewerID(c *fiber.Ctx) uint {
	if p := auth.FromCtx(c); p != nil {
		return p.ID
	}
	return 0
}

// parsePostID extracts the post_id route parameter. Anything that is not a
// positive integer cannot name a post and is reported as NOT_FOUND.
func parsePostID(c *fiber.Ctx) (uint, error) {
	raw := c.Params("post_id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewNotFoundError("Post", raw)
	}
	return uint(id), nil
}

// parseOptionalID parses a form select value, returning nil when it is empty or malformed.
func parseOptionalID(raw string) *uint {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil || id == 0 {
		return nil
	}
	v := uint(id)
	return &v
}

// readUpload returns the contents of the named file part, or nil when the
// request carries none. Browsers send an empty unnamed part when no file is
// chosen, which also counts as none. At most limit+1 bytes are read so that
// oversized uploads can still be reported by validation.
func readUpload(c *fiber.Ctx, field string, limit int64) ([]byte, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// url-encoded submissions carry no files
		return nil, nil
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	fh := files[0]
	if fh.Filename == "" && fh.Size == 0 {
		return nil, nil
	}
	return readFileHeader(fh, limit)
}

func readFileHeader(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return io.ReadAll(io.LimitReader(f, limit+1))
}

// safeRedirect only allows local absolute paths as login redirect targets.
func safeRedirect(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "/"
	}
	return next
}
