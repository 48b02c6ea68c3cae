package v1

import (
	"net/http"

	"workwave-backend/internal/delivery/http/response"
	"workwave-backend/internal/domain"
	"workwave-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type EmployeeHandler struct {
	employeeUC domain.EmployeeUsecase
	uploads    uploadReader
}

func NewEmployeeHandler(employee *gin.RouterGroup, employeeUC domain.EmployeeUsecase, uploads uploadReader) {
	handler := &EmployeeHandler{employeeUC: employeeUC, uploads: uploads}

	employee.GET("/profile", handler.GetProfile)
	employee.POST("/profile", handler.UpdateProfile)
	employee.POST("/resume", handler.UploadResume)
	employee.GET("/resume", handler.DownloadResume)
	employee.DELETE("/resume", handler.DeleteResume)
}

// GetProfile godoc
// @Summary      Get the caller's employee profile
// @Tags         employee
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.EmployeeProfile}
// @Failure      404  {object}  response.Response
// @Router       /employee/profile [get]
// @Security     BearerAuth
func (h *EmployeeHandler) GetProfile(c *gin.Context) {
	profile, err := h.employeeUC.GetProfile(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Profile retrieved", profile)
}

// UpdateProfile godoc
// @Summary      Update name, phone and location
// @Tags         employee
// @Accept       json
// @Produce      json
// @Param        profile  body      domain.EmployeeDetails  true  "Profile details"
// @Success      200  {object}  response.Response{data=domain.EmployeeProfile}
// @Failure      400  {object}  response.Response
// @Router       /employee/profile [post]
// @Security     BearerAuth
func (h *EmployeeHandler) UpdateProfile(c *gin.Context) {
	var req domain.EmployeeDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}
	profile, err := h.employeeUC.UpdateProfile(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Profile updated", profile)
}

// UploadResume godoc
// @Summary      Upload or replace the resume
// @Tags         employee
// @Accept       multipart/form-data
// @Produce      json
// @Param        resume  formData  file  true  "PDF, DOC or DOCX"
// @Success      201  {object}  response.Response{data=domain.ResumeFile}
// @Failure      400  {object}  response.Response
// @Failure      429  {object}  response.Response
// @Router       /employee/resume [post]
// @Security     BearerAuth
func (h *EmployeeHandler) UploadResume(c *gin.Context) {
	file, ok := h.uploads.read(c, "resume")
	if !ok {
		return
	}
	resume, err := h.employeeUC.UploadResume(c.Request.Context(), file)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Resume uploaded", resume)
}

// DownloadResume godoc
// @Summary      Download the resume
// @Description  Redirects to a short-lived signed URL.
// @Tags         employee
// @Success      307
// @Failure      404  {object}  response.Response
// @Router       /employee/resume [get]
// @Security     BearerAuth
func (h *EmployeeHandler) DownloadResume(c *gin.Context) {
	url, err := h.employeeUC.ResumeURL(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// DeleteResume godoc
// @Summary      Remove the resume
// @Tags         employee
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /employee/resume [delete]
// @Security     BearerAuth
func (h *EmployeeHandler) DeleteResume(c *gin.Context) {
	if err := h.employeeUC.DeleteResume(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Resume deleted", nil)
}
