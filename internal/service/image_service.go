package service

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"mime"
	"strings"

	"simplesocial/internal/config"
	"simplesocial/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder

	_ "image/gif"
	_ "image/png"
)

const (
	JPEGQuality = 82
	WebPQuality = 70
)

// ProcessedPicture is a stored rendition of an uploaded image: a JPEG master
// capped at the configured height and a small WebP thumbnail.
type ProcessedPicture struct {
	Data        []byte
	Thumbnail   []byte
	ContentType string
}

// ImageService normalizes picture uploads before they are attached to a
// post or comment.
type ImageService struct {
	maxHeight          int
	thumbHeight        int
	maxUploadSizeBytes int64
}

// NewImageService returns a new ImageService.
func NewImageService(cfg *config.Config) *ImageService {
	return &ImageService{
		maxHeight:          cfg.PictureMaxHeight,
		thumbHeight:        cfg.PictureThumbHeight,
		maxUploadSizeBytes: int64(cfg.PictureMaxUploadMB) * 1024 * 1024,
	}
}

// Process validates and decodes an upload, scales it down to the configured
// maximum height and returns the JPEG master plus a WebP thumbnail.
func (s *ImageService) Process(content []byte, contentType string) (*ProcessedPicture, error) {
	if len(content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}
	if !isAllowedImageMIME(contentType) {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if !isSupportedDecodedFormat(format) {
		return nil, models.NewValidationError("Unsupported image format")
	}

	master := resizeToHeight(decoded, s.maxHeight)
	data, err := encodeJPEG(master, JPEGQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	thumb := resizeToHeight(decoded, s.thumbHeight)
	thumbData, err := encodeWebP(thumb, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &ProcessedPicture{
		Data:        data,
		Thumbnail:   thumbData,
		ContentType: "image/jpeg",
	}, nil
}

// resizeToHeight scales the image down so its height is at most maxHeight,
// preserving aspect ratio. Images already small enough pass through.
func resizeToHeight(src image.Image, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 || h <= maxHeight {
		return src
	}

	scale := float64(maxHeight) / float64(h)
	newW := int(float64(w) * scale)
	if newW < 1 {
		newW = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, maxHeight))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}
