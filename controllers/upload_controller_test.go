package controllers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func uploadRouter(media MediaUploader) *gin.Engine {
	router := gin.New()
	ctrl := NewUploadController(media)
	router.POST("/api/upload", ctrl.Image)
	router.POST("/api/upload-video", ctrl.Video)
	return router
}

func multipartFile(t *testing.T, filename, contentType string, size int) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	assert.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), size))
	assert.NoError(t, err)
	assert.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func doUpload(router *gin.Engine, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadImageSuccess(t *testing.T) {
	media := new(mockUploader)
	media.On("Upload", mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "blog_images/") && strings.HasSuffix(key, ".png")
	}), mock.Anything, "image/png").Return("https://cdn.example.com/blog_images/x.png", nil)

	router := uploadRouter(media)
	body, ct := multipartFile(t, "badge.png", "image/png", 1024)
	w := doUpload(router, "/api/upload", body, ct)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, "File has been uploaded", resp["message"])
	assert.NotEmpty(t, resp["url"])
	media.AssertExpectations(t)
}

func TestUploadImageRejectsWrongFormat(t *testing.T) {
	media := new(mockUploader)
	router := uploadRouter(media)

	body, ct := multipartFile(t, "notes.pdf", "application/pdf", 1024)
	w := doUpload(router, "/api/upload", body, ct)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	media.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadImageRejectsOversize(t *testing.T) {
	media := new(mockUploader)
	router := uploadRouter(media)

	body, ct := multipartFile(t, "huge.png", "image/png", maxImageBytes+1)
	w := doUpload(router, "/api/upload", body, ct)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	media.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadVideoAcceptsQuicktimeMov(t *testing.T) {
	media := new(mockUploader)
	media.On("Upload", mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "blog_videos/") && strings.HasSuffix(key, ".mov")
	}), mock.Anything, "video/quicktime").Return("https://cdn.example.com/blog_videos/x.mov", nil)

	router := uploadRouter(media)
	body, ct := multipartFile(t, "demo.mov", "video/quicktime", 2048)
	w := doUpload(router, "/api/upload-video", body, ct)

	assert.Equal(t, http.StatusOK, w.Code)
	media.AssertExpectations(t)
}

func TestUploadVideoRejectsImage(t *testing.T) {
	media := new(mockUploader)
	router := uploadRouter(media)

	body, ct := multipartFile(t, "selfie.png", "image/png", 1024)
	w := doUpload(router, "/api/upload-video", body, ct)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadMissingFile(t *testing.T) {
	media := new(mockUploader)
	router := uploadRouter(media)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	assert.NoError(t, writer.Close())
	w := doUpload(router, "/api/upload", body, writer.FormDataContentType())

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
