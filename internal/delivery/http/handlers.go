package http

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Aadya-Jha/AgriCare-sub001/internal/domain"
	"github.com/Aadya-Jha/AgriCare-sub001/internal/registry"
	"github.com/Aadya-Jha/AgriCare-sub001/internal/service"
)

// maxBatchFiles bounds the images accepted by one batch upload
const maxBatchFiles = 20

// allowedExtensions lists the image formats accepted for upload
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
	".webp": true,
	".gif":  true,
}

// Handler contains all HTTP handlers
type Handler struct {
	gateway      *service.Gateway
	jobs         *service.JobManager
	dashboardSvc *service.DashboardService
	store        service.JobStore
}

// NewHandler creates a new handler
func NewHandler(gateway *service.Gateway, jobs *service.JobManager, dashboardSvc *service.DashboardService, store service.JobStore) *Handler {
	return &Handler{
		gateway:      gateway,
		jobs:         jobs,
		dashboardSvc: dashboardSvc,
		store:        store,
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	storeStatus := "ok"
	if err := h.store.Health(c.Context()); err != nil {
		log.Printf("Job store health check failed: %v", err)
		storeStatus = "unavailable"
	}

	return c.JSON(fiber.Map{
		"status":           "ok",
		"service":          "agricare-backend",
		"version":          "1.0.0",
		"engine_available": h.gateway.EngineAvailable(),
		"simulation_mode":  !h.gateway.EngineAvailable(),
		"job_store":        storeStatus,
		"timestamp":        time.Now(),
	})
}

// GetPredictions returns predictions for every registered location
func (h *Handler) GetPredictions(c *fiber.Ctx) error {
	return c.JSON(h.gateway.PredictAll(c.Context()))
}

// GetLocationPrediction returns the prediction for one location. Unknown
// names get the default profile rather than a 404.
func (h *Handler) GetLocationPrediction(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("location"))
	if err != nil || strings.TrimSpace(name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid location name")
	}

	return c.JSON(h.gateway.PredictLocation(c.Context(), name))
}

// TrainModel runs model training
func (h *Handler) TrainModel(c *fiber.Ctx) error {
	return c.JSON(h.gateway.Train(c.Context()))
}

// GetModelInfo describes the active model
func (h *Handler) GetModelInfo(c *fiber.Ctx) error {
	return c.JSON(h.gateway.ModelInfo())
}

// GetLocations returns the location registry
func (h *Handler) GetLocations(c *fiber.Ctx) error {
	locs := registry.All()
	return c.JSON(fiber.Map{
		"locations": locs,
		"count":     len(locs),
	})
}

// GetNearestLocation returns the registered location closest to lat/lon
func (h *Handler) GetNearestLocation(c *fiber.Ctx) error {
	lat, lon, err := parseCoordinates(c.Query("lat"), c.Query("lon"))
	if err != nil {
		return err
	}

	loc, dist := registry.Nearest(lat, lon)
	return c.JSON(fiber.Map{
		"location":    loc,
		"distance_km": dist,
	})
}

func parseCoordinates(latValue, lonValue string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(latValue, 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "Parameter lat must be a latitude")
	}
	lon, err := strconv.ParseFloat(lonValue, 64)
	if err != nil || lon < -180 || lon > 180 {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "Parameter lon must be a longitude")
	}
	return lat, lon, nil
}

// resolveFieldID uses the field_id form value, or names the registered
// location nearest to the lat/lon form values when it is absent
func resolveFieldID(c *fiber.Ctx) (string, error) {
	if id := strings.TrimSpace(c.FormValue("field_id")); id != "" {
		return id, nil
	}
	latValue, lonValue := c.FormValue("lat"), c.FormValue("lon")
	if latValue == "" && lonValue == "" {
		return "", nil
	}
	lat, lon, err := parseCoordinates(latValue, lonValue)
	if err != nil {
		return "", err
	}
	loc, _ := registry.Nearest(lat, lon)
	return loc.Name, nil
}

// readImage validates an uploaded part and returns its base name and contents
func readImage(fh *multipart.FileHeader) (string, []byte, error) {
	filename := filepath.Base(fh.Filename)
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", nil, fiber.NewError(fiber.StatusBadRequest, "Unsupported image format: "+ext)
	}

	f, err := fh.Open()
	if err != nil {
		return "", nil, fiber.NewError(fiber.StatusBadRequest, "Failed to read uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, fiber.NewError(fiber.StatusBadRequest, "Failed to read uploaded file")
	}
	if len(data) == 0 {
		return "", nil, fiber.NewError(fiber.StatusBadRequest, "Uploaded file is empty: "+filename)
	}
	return filename, data, nil
}

// UploadImage accepts an image and starts an analysis job
func (h *Handler) UploadImage(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		fh, err = c.FormFile("file")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "No image file provided")
	}

	filename, data, err := readImage(fh)
	if err != nil {
		return err
	}
	fieldID, err := resolveFieldID(c)
	if err != nil {
		return err
	}

	job, err := h.jobs.Submit(c.Context(), domain.ImageUpload{
		Filename: filename,
		FieldID:  fieldID,
		Data:     data,
	})
	if err != nil {
		return submitError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id":                    job.ID,
		"status":                    job.Status,
		"field_id":                  job.FieldID,
		"estimated_processing_time": h.jobs.EstimatedProcessingTime(),
		"message":                   "Image uploaded successfully. Processing started.",
	})
}

// BatchUploadImages validates every uploaded image and starts one analysis job per file
func (h *Handler) BatchUploadImages(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "No image files provided")
	}
	files := form.File["images"]
	if len(files) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "No image files provided")
	}
	if len(files) > maxBatchFiles {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("At most %d images per batch", maxBatchFiles))
	}

	uploads := make([]domain.ImageUpload, 0, len(files))
	for _, fh := range files {
		filename, data, err := readImage(fh)
		if err != nil {
			return err
		}
		uploads = append(uploads, domain.ImageUpload{Filename: filename, Data: data})
	}
	fieldID, err := resolveFieldID(c)
	if err != nil {
		return err
	}

	jobIDs := make([]string, 0, len(uploads))
	jobs := make([]fiber.Map, 0, len(uploads))
	for _, u := range uploads {
		u.FieldID = fieldID
		job, err := h.jobs.Submit(c.Context(), u)
		if err != nil {
			return submitError(err)
		}
		jobIDs = append(jobIDs, job.ID)
		jobs = append(jobs, fiber.Map{
			"job_id":   job.ID,
			"filename": job.Filename,
			"status":   job.Status,
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_ids":                   jobIDs,
		"jobs":                      jobs,
		"count":                     len(jobIDs),
		"field_id":                  fieldID,
		"estimated_processing_time": h.jobs.EstimatedProcessingTime(),
		"message":                   fmt.Sprintf("%d images uploaded successfully. Processing started.", len(jobIDs)),
	})
}

func submitError(err error) error {
	if errors.Is(err, service.ErrJobManagerClosed) {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Server is shutting down")
	}
	log.Printf("Failed to submit image job: %v", err)
	return fiber.NewError(fiber.StatusInternalServerError, "Failed to start image processing")
}

// GetJobStatus returns the state of an image job
func (h *Handler) GetJobStatus(c *fiber.Ctx) error {
	job, err := h.jobs.Status(c.Context(), c.Params("job_id"))
	if err != nil {
		return jobError(err)
	}
	return c.JSON(job)
}

// GetImageIndices returns the analysis of a completed image job
func (h *Handler) GetImageIndices(c *fiber.Ctx) error {
	result, err := h.jobs.Indices(c.Context(), c.Params("image_id"))
	if err != nil {
		return jobError(err)
	}
	return c.JSON(result)
}

// GetDashboardSummary returns aggregated location health
func (h *Handler) GetDashboardSummary(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.dashboardSvc.Summary(c.Context()),
	})
}

// GetAlerts returns alerts for the locations whose predicted health is critical
func (h *Handler) GetAlerts(c *fiber.Ctx) error {
	alerts := h.dashboardSvc.Alerts(c.Context())
	return c.JSON(fiber.Map{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

func jobError(err error) error {
	if errors.Is(err, domain.ErrJobNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Job not found")
	}
	log.Printf("Failed to read job: %v", err)
	return fiber.NewError(fiber.StatusInternalServerError, "Failed to read job")
}
