package shopapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/bytes"
	"go.uber.org/zap"

	"github.com/dayyanintl/surgishop/internal/blob"
	"github.com/dayyanintl/surgishop/internal/domain"
	"github.com/dayyanintl/surgishop/internal/webserver"
)

func registerUploadRoutes() {
	webserver.ApiPOST("/utils/upload/image", UploadImage, webserver.Protect(webserver.Staff)...)
}

// UploadImage stores a product image and returns its public URL
func UploadImage(c echo.Context) error {
	appCtx := GetAppContext(c)
	fh, err := c.FormFile("file")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Missing file field", err.Error())
	}
	contentType := fh.Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, "image/") {
		return fail(c, http.StatusBadRequest, "INVALID_FILE", "File must be an image", nil)
	}
	maxBytes := int64(appCtx.Config().Storage.MaxSizeMB) << 20
	if maxBytes > 0 && fh.Size > maxBytes {
		return fail(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			fmt.Sprintf("File exceeds %s", bytes.Format(maxBytes)), nil)
	}

	src, err := fh.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to read file", err.Error())
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to read file", err.Error())
	}
	// the part header is client supplied, the content decides
	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return fail(c, http.StatusBadRequest, "INVALID_FILE", "File must be an image",
			map[string]string{"detected": detected.String()})
	}
	contentType = detected.String()

	name := blob.ObjectName(fh.Filename)
	url, err := appCtx.Uploader().Upload(c.Request().Context(), name, data, contentType)
	if err != nil {
		zap.L().Error("image upload failed", zap.String("namespace", "api"), zap.String("name", name), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to upload image", err.Error())
	}

	if err := audit(GetDB(c), c, domain.ActionUploadImage, fmt.Sprintf("Uploaded %s as %s", fh.Filename, url)); err != nil {
		zap.L().Warn("audit write failed", zap.String("namespace", "api"), zap.Error(err))
	}
	return ok(c, map[string]string{"url": url})
}
