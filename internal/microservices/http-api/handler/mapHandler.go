package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"mapportal/internal/microservices/http-api/dto"
	"mapportal/internal/microservices/http-api/middleware"
	"mapportal/internal/microservices/http-api/service"
	"mapportal/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type MapHandler struct {
	Service       service.MapService
	MaxUploadSize int64
}

func NewMapHandler(s service.MapService, maxUploadSize int64) *MapHandler {
	return &MapHandler{Service: s, MaxUploadSize: maxUploadSize}
}

// RegisterRoutes registers the public map routes
func (h *MapHandler) RegisterRoutes(maps *gin.RouterGroup) {
	maps.GET("", h.List)
	maps.GET("/:id", h.Get)
	maps.GET("/:id/download", h.Download)
}

// RegisterProtectedRoutes registers the routes that need an authenticated user
func (h *MapHandler) RegisterProtectedRoutes(maps *gin.RouterGroup) {
	maps.POST("/upload", h.Upload)
}

// List GET /api/maps
func (h *MapHandler) List(c *gin.Context) {
	var q dto.MapQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err.Error())
		return
	}

	page, err := h.Service.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Get GET /api/maps/:id
func (h *MapHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.Service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Download GET /api/maps/:id/download
func (h *MapHandler) Download(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	file, err := h.Service.Download(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.FileAttachment(file.Path, file.Filename)
}

// Upload POST /api/maps/upload (multipart/form-data)
func (h *MapHandler) Upload(c *gin.Context) {
	// room for the metadata fields and an optional preview next to the package
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*h.MaxUploadSize + 1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(c, storage.ErrTooLarge)
			return
		}
		badRequest(c, "file is required")
		return
	}
	if header.Size > h.MaxUploadSize {
		respondError(c, storage.ErrTooLarge)
		return
	}

	var form dto.UploadMapForm
	if err := c.ShouldBind(&form); err != nil {
		unprocessable(c, err.Error())
		return
	}
	var gen dto.GenerationParams
	var bar dto.BARMapInfo
	if err := decodeValid(form.GenerationParams, &gen); err != nil {
		unprocessable(c, "generation_params: "+err.Error())
		return
	}
	if err := decodeValid(form.BarInfo, &bar); err != nil {
		unprocessable(c, "bar_info: "+err.Error())
		return
	}

	file, err := header.Open()
	if err != nil {
		badRequest(c, "file could not be read")
		return
	}
	defer file.Close()

	in := service.UploadInput{
		CreatorID: middleware.UserID(c),
		Map:       form.ToModel(middleware.UserID(c), gen, bar),
		Filename:  header.Filename,
		File:      file,
	}
	if preview, err := c.FormFile("preview_image"); err == nil {
		r, err := preview.Open()
		if err != nil {
			badRequest(c, "preview_image could not be read")
			return
		}
		defer r.Close()
		in.Preview = r
	}

	created, err := h.Service.Upload(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// decodeValid decodes a JSON form field and runs its binding rules.
func decodeValid(raw string, v interface{}) error {
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return err
	}
	return binding.Validator.ValidateStruct(v)
}

func unprocessable(c *gin.Context, detail string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid_argument", "detail": detail})
}
