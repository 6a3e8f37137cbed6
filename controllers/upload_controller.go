package controllers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/achievehub/achievehub/utils"
)

const (
	maxImageBytes = 3 << 20  // 3 MB
	maxVideoBytes = 10 << 20 // 10 MB

	imageKeyPrefix = "blog_images"
	videoKeyPrefix = "blog_videos"
)

var (
	imageFormats = map[string]bool{"png": true, "jpg": true, "jpeg": true, "webp": true}
	videoFormats = map[string]bool{"mp4": true, "mov": true, "avi": true}
)

// MediaUploader stores a file under a key and returns its public URL.
// Satisfied by utils.MediaStore; injected so handler tests can stub it.
type MediaUploader interface {
	Upload(key string, file io.Reader, contentType string) (string, error)
}

// UploadController handles media uploads to the object store.
type UploadController struct {
	media MediaUploader
}

// NewUploadController creates a new UploadController instance.
func NewUploadController(media MediaUploader) *UploadController {
	return &UploadController{media: media}
}

// Image accepts a single image under the "file" form field, validates format
// and size, and stores it under a unique key.
func (u *UploadController) Image(ctx *gin.Context) {
	u.handleUpload(ctx, imageFormats, maxImageBytes, imageKeyPrefix,
		"only png, jpg, jpeg, and webp images are allowed",
		"image must be 3MB or smaller")
}

// Video accepts a single video under the "file" form field, validates format
// and size, and stores it under a unique key.
func (u *UploadController) Video(ctx *gin.Context) {
	u.handleUpload(ctx, videoFormats, maxVideoBytes, videoKeyPrefix,
		"only mp4, mov, and avi videos are allowed",
		"video must be 10MB or smaller")
}

func (u *UploadController) handleUpload(ctx *gin.Context, allowed map[string]bool, maxBytes int64, prefix, formatMsg, sizeMsg string) {
	header, err := ctx.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, "file is required")
		return
	}

	format := fileFormat(header)
	if !allowed[format] {
		utils.Error(ctx, http.StatusBadRequest, formatMsg)
		return
	}
	if header.Size > maxBytes {
		utils.Error(ctx, http.StatusBadRequest, sizeMsg)
		return
	}

	file, err := header.Open()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "failed to read file")
		return
	}
	defer file.Close()

	key := fmt.Sprintf("%s/%s.%s", prefix, uuid.NewString(), format)
	url, err := u.media.Upload(key, file, header.Header.Get("Content-Type"))
	if err != nil {
		utils.Sugar.Errorf("media upload failed for %s: %v", key, err)
		utils.Error(ctx, http.StatusInternalServerError, "failed to upload file")
		return
	}

	utils.Success(ctx, gin.H{"message": "File has been uploaded", "url": url})
}

// fileFormat resolves the upload's format from the content-type subtype,
// falling back to the filename extension. Browsers send video/quicktime for
// .mov files, so the extension fallback matters.
func fileFormat(header *multipart.FileHeader) string {
	contentType := header.Header.Get("Content-Type")
	if idx := strings.Index(contentType, "/"); idx >= 0 {
		subtype := strings.ToLower(contentType[idx+1:])
		if imageFormats[subtype] || videoFormats[subtype] {
			return subtype
		}
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	return ext
}
