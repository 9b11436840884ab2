package inkwell

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 1200
	jpegQuality   = 80
	maxUploadSize = 10 << 20 // 10MB
	uploadsSubdir = "uploads"
)

// processImage decodes an image from src, resizes it down to maxImageWidth
// if needed, and re-encodes it as JPEG. The stored filename is keyed by the
// uploading user and a timestamp: {userID}/{timestamp}_{slug}.jpg.
func processImage(src io.Reader, originalName, userID string) (Image, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return Image{}, nil, fmt.Errorf("%w: decode image: %v", ErrUpload, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxImageWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Image{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	now := time.Now().UTC()
	base := Slugify(strings.TrimSuffix(originalName, filepath.Ext(originalName)))
	if base == "" {
		base = "image"
	}
	filename := fmt.Sprintf("%s/%d_%s.jpg", userID, now.Unix(), base)

	return Image{
		Filename:     filename,
		OriginalName: originalName,
		Width:        w,
		Height:       h,
		Size:         buf.Len(),
		UserID:       userID,
		UploadedAt:   now,
	}, buf.Bytes(), nil
}

// PublicImageURL returns the URL path an uploaded image is served under.
func PublicImageURL(filename string) string {
	return "/public/" + uploadsSubdir + "/" + filename
}

func (a *App) handleImageUpload(c echo.Context) error {
	actor := CurrentIdentity(c)
	if actor == nil {
		return c.Redirect(http.StatusSeeOther, "/auth/signin/")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.String(http.StatusBadRequest, "No image file provided")
	}
	if file.Size > maxUploadSize {
		return c.String(http.StatusBadRequest, "File too large (max 10MB)")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	img, data, err := processImage(src, file.Filename, actor.ID)
	if err != nil {
		if errors.Is(err, ErrUpload) {
			return c.String(http.StatusBadRequest, "Invalid image: "+err.Error())
		}
		return err
	}

	path := filepath.Join(a.staticDir, uploadsSubdir, filepath.FromSlash(img.Filename))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}

	if err := a.Store.SaveImage(img); err != nil {
		return err
	}

	return a.renderImageList(c)
}

func (a *App) handleImageDelete(c echo.Context) error {
	actor := CurrentIdentity(c)
	if actor == nil {
		return c.Redirect(http.StatusSeeOther, "/auth/signin/")
	}

	filename := strings.Trim(c.Param("*"), "/")
	if filename == "" {
		return c.String(http.StatusBadRequest, "Filename required")
	}

	img, err := a.Store.GetImage(filename)
	if errors.Is(err, sql.ErrNoRows) {
		return c.NoContent(http.StatusNotFound)
	}
	if err != nil {
		return err
	}
	if !actor.IsSuperAdmin() && img.UserID != actor.ID {
		return c.String(http.StatusForbidden, "Access denied")
	}

	path := filepath.Join(a.staticDir, uploadsSubdir, filepath.FromSlash(img.Filename))
	_ = os.Remove(path) // ignore error if file already gone

	if err := a.Store.DeleteImage(img.Filename); err != nil {
		return err
	}

	return a.renderImageList(c)
}

func (a *App) handleImageList(c echo.Context) error {
	if CurrentIdentity(c) == nil {
		return c.Redirect(http.StatusSeeOther, "/auth/signin/")
	}
	return a.renderImageList(c)
}

func (a *App) renderImageList(c echo.Context) error {
	images, err := a.Store.ListImages()
	if err != nil {
		return err
	}
	return Render(c, a.Views.Images(images, CsrfToken(c)))
}
