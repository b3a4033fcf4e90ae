package rest

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	app "house-inspect/internal/application"
	"house-inspect/internal/domain/entity"
	"house-inspect/internal/logger"
)

// maxVideoSize предел размера загружаемого видео
const maxVideoSize = 512 << 20

type Handler struct {
	inspections *app.InspectionService
	reports     *app.ReportService
	log         *logger.Logger
}

func NewHandler(inspections *app.InspectionService, reports *app.ReportService, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		inspections: inspections,
		reports:     reports,
		log:         log.WithComponent("rest"),
	}
}

// CreateInspection принимает видео и возвращает готовый отчёт.
func (h *Handler) CreateInspection(c *gin.Context) {
	log := h.log.WithContext(c.Request.Context())

	propertyType := entity.PropertyType(c.PostForm("propertyType"))
	if !propertyType.IsValid() {
		AbortWithBadRequest(c, "unknown property type", map[string]interface{}{
			"propertyType": string(propertyType),
		})
		return
	}

	file, err := c.FormFile("video")
	if err != nil {
		AbortWithBadRequest(c, "video file is required", nil)
		return
	}
	if file.Size > maxVideoSize {
		AbortWithBadRequest(c, "video file is too large", map[string]interface{}{
			"maxBytes": maxVideoSize,
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer src.Close()

	video, err := io.ReadAll(src)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	report, err := h.inspections.AnalyzeVideo(c.Request.Context(), video, propertyType, c.PostForm("address"), nil)
	if err != nil {
		log.Error("inspection failed", "error", err, "filename", file.Filename)
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, report)
}

func (h *Handler) ListReports(c *gin.Context) {
	reports, err := h.reports.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if reports == nil {
		reports = []*entity.Report{}
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (h *Handler) GetReport(c *gin.Context) {
	report, err := h.reports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// DownloadReport отдаёт отчёт файлом; format=html|json, по умолчанию html.
func (h *Handler) DownloadReport(c *gin.Context) {
	file, err := h.reports.Export(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

func (h *Handler) DeleteReport(c *gin.Context) {
	if err := h.reports.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveProblem удаляет находку и возвращает отчёт с пересчитанной сводкой.
func (h *Handler) RemoveProblem(c *gin.Context) {
	report, err := h.reports.RemoveProblem(c.Request.Context(), c.Param("id"), c.Param("problemId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
