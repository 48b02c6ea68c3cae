package v1

import (
	"net/http"

	"workwave-backend/internal/delivery/http/response"
	"workwave-backend/internal/domain"
	"workwave-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type EmployerHandler struct {
	employerUC domain.EmployerUsecase
	uploads    uploadReader
}

func NewEmployerHandler(employer *gin.RouterGroup, employerUC domain.EmployerUsecase, uploads uploadReader) {
	handler := &EmployerHandler{employerUC: employerUC, uploads: uploads}

	employer.POST("", handler.Upsert)
	employer.GET("", handler.Get)
	employer.DELETE("", handler.Delete)
	employer.PATCH("/location", handler.UpdateLocation)
	employer.PATCH("/hr", handler.UpdateHR)
	employer.PATCH("/description", handler.UpdateDescription)
	employer.POST("/logo", handler.UploadLogo)
	employer.GET("/logo", handler.Logo)
}

type DescriptionRequest struct {
	Description string `json:"description"`
}

// Upsert godoc
// @Summary      Create or replace the company profile
// @Tags         employer
// @Accept       json
// @Produce      json
// @Param        profile  body      domain.EmployerDetails  true  "Company profile"
// @Success      200  {object}  response.Response{data=domain.EmployerProfile}
// @Failure      400  {object}  response.Response
// @Router       /employer [post]
// @Security     BearerAuth
func (h *EmployerHandler) Upsert(c *gin.Context) {
	var req domain.EmployerDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}
	profile, err := h.employerUC.UpsertProfile(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Company profile saved", profile)
}

// Get godoc
// @Summary      Get the company profile
// @Tags         employer
// @Produce      json
// @Success      200  {object}  response.Response{data=domain.EmployerProfile}
// @Failure      404  {object}  response.Response
// @Router       /employer [get]
// @Security     BearerAuth
func (h *EmployerHandler) Get(c *gin.Context) {
	profile, err := h.employerUC.GetProfile(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Company profile retrieved", profile)
}

// Delete godoc
// @Summary      Delete the company profile
// @Tags         employer
// @Produce      json
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /employer [delete]
// @Security     BearerAuth
func (h *EmployerHandler) Delete(c *gin.Context) {
	if err := h.employerUC.DeleteProfile(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Company profile deleted", nil)
}

// UpdateLocation godoc
// @Summary      Update the company address
// @Tags         employer
// @Accept       json
// @Produce      json
// @Param        location  body      domain.EmployerLocation  true  "Address"
// @Success      200  {object}  response.Response{data=domain.EmployerProfile}
// @Router       /employer/location [patch]
// @Security     BearerAuth
func (h *EmployerHandler) UpdateLocation(c *gin.Context) {
	var req domain.EmployerLocation
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}
	profile, err := h.employerUC.UpdateLocation(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Location updated", profile)
}

// UpdateHR godoc
// @Summary      Update the HR contact
// @Tags         employer
// @Accept       json
// @Produce      json
// @Param        hr  body      domain.HRContact  true  "HR contact"
// @Success      200  {object}  response.Response{data=domain.EmployerProfile}
// @Router       /employer/hr [patch]
// @Security     BearerAuth
func (h *EmployerHandler) UpdateHR(c *gin.Context) {
	var req domain.HRContact
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}
	profile, err := h.employerUC.UpdateHR(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "HR contact updated", profile)
}

// UpdateDescription godoc
// @Summary      Update the company description
// @Tags         employer
// @Accept       json
// @Produce      json
// @Param        description  body      DescriptionRequest  true  "Plain text, markup is stripped"
// @Success      200  {object}  response.Response{data=domain.EmployerProfile}
// @Router       /employer/description [patch]
// @Security     BearerAuth
func (h *EmployerHandler) UpdateDescription(c *gin.Context) {
	var req DescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}
	profile, err := h.employerUC.UpdateDescription(c.Request.Context(), req.Description)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Description updated", profile)
}

// UploadLogo godoc
// @Summary      Upload or replace the company logo
// @Tags         employer
// @Accept       multipart/form-data
// @Produce      json
// @Param        logo  formData  file  true  "PNG or JPEG"
// @Success      201  {object}  response.Response{data=domain.EmployerProfile}
// @Failure      400  {object}  response.Response
// @Router       /employer/logo [post]
// @Security     BearerAuth
func (h *EmployerHandler) UploadLogo(c *gin.Context) {
	file, ok := h.uploads.read(c, "logo")
	if !ok {
		return
	}
	profile, err := h.employerUC.UploadLogo(c.Request.Context(), file)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Logo uploaded", profile)
}

// Logo godoc
// @Summary      Download the company logo
// @Tags         employer
// @Success      307
// @Failure      404  {object}  response.Response
// @Router       /employer/logo [get]
// @Security     BearerAuth
func (h *EmployerHandler) Logo(c *gin.Context) {
	url, err := h.employerUC.LogoURL(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}
