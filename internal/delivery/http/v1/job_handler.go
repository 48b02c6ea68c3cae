package v1

import (
	"fmt"
	"net/http"

	"workwave-backend/internal/delivery/http/middleware"
	"workwave-backend/internal/delivery/http/response"
	"workwave-backend/internal/domain"
	"workwave-backend/pkg/apperror"
	"workwave-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type JobHandler struct {
	jobUC domain.JobUsecase
}

// NewJobHandler registers the job routes. gin requires one wildcard name per
// segment, so the lookup route reads the job key from :id.
func NewJobHandler(protected *gin.RouterGroup, jobUC domain.JobUsecase, secLog *security.SecurityLogger) {
	handler := &JobHandler{jobUC: jobUC}
	employerOnly := middleware.RequireRole(secLog, domain.RoleEmployer)
	employeeOnly := middleware.RequireRole(secLog, domain.RoleEmployee)

	jobs := protected.Group("/job")
	{
		jobs.POST("", employerOnly, handler.Create)
		jobs.PUT("/:id", employerOnly, handler.Update)
		jobs.DELETE("/:id", employerOnly, handler.Delete)
		jobs.GET("/:id", handler.GetByKey)
		jobs.GET("/:id/applicants/export", employerOnly, handler.ExportApplicants)
		jobs.POST("/apply/:id", employeeOnly, handler.Apply)
	}
}

// Create godoc
// @Summary      Post a job
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        job  body      domain.JobInput  true  "Job posting"
// @Success      201  {object}  response.Response{data=domain.Job}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /job [post]
// @Security     BearerAuth
func (h *JobHandler) Create(c *gin.Context) {
	var req domain.JobInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}
	job, err := h.jobUC.CreateJob(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Job created successfully", job)
}

// Update godoc
// @Summary      Update an owned job
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        id   path      string           true  "Job ID"
// @Param        job  body      domain.JobInput  true  "Job posting"
// @Success      200  {object}  response.Response{data=domain.Job}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /job/{id} [put]
// @Security     BearerAuth
func (h *JobHandler) Update(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	var req domain.JobInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}
	job, err := h.jobUC.UpdateJob(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Job updated successfully", job)
}

// Delete godoc
// @Summary      Delete an owned job
// @Tags         jobs
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /job/{id} [delete]
// @Security     BearerAuth
func (h *JobHandler) Delete(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	if err := h.jobUC.DeleteJob(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Job deleted successfully", nil)
}

// GetByKey godoc
// @Summary      Get a job by its public key
// @Tags         jobs
// @Produce      json
// @Param        id   path      string  true  "Job key"
// @Success      200  {object}  response.Response{data=domain.Job}
// @Failure      404  {object}  response.Response
// @Router       /job/{id} [get]
// @Security     BearerAuth
func (h *JobHandler) GetByKey(c *gin.Context) {
	job, err := h.jobUC.GetJobByKey(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Job retrieved", job)
}

// Apply godoc
// @Summary      Apply to a job
// @Tags         jobs
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /job/apply/{id} [post]
// @Security     BearerAuth
func (h *JobHandler) Apply(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	if err := h.jobUC.Apply(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Applied successfully", nil)
}

// ExportApplicants godoc
// @Summary      Export applicants as XLSX
// @Tags         jobs
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id   path      string  true  "Job ID"
// @Success      200  {file}    binary
// @Failure      404  {object}  response.Response
// @Router       /job/{id}/applicants/export [get]
// @Security     BearerAuth
func (h *JobHandler) ExportApplicants(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	data, filename, err := h.jobUC.ExportApplicants(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
