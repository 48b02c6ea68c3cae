package v1

import (
	"net/http"

	"workwave-backend/internal/delivery/http/response"
	"workwave-backend/internal/domain"
	"workwave-backend/internal/usecase"
	"workwave-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// subResourceHandler serves add, edit and delete for one profile collection.
// Every response carries the whole collection after the change.
type subResourceHandler[T domain.SubResource[T]] struct {
	uc    domain.SubResourceUsecase[T]
	label string
}

func registerSubResource[T domain.SubResource[T]](group *gin.RouterGroup, path string, kind domain.SubResourceKind, uc domain.SubResourceUsecase[T]) {
	h := &subResourceHandler[T]{uc: uc, label: kind.Label}
	group.POST(path, h.add)
	group.PUT(path+"/:id", h.edit)
	group.DELETE(path+"/:id", h.remove)
}

// NewProfileCollectionHandlers mounts every employee profile collection.
func NewProfileCollectionHandlers(employee *gin.RouterGroup, cols usecase.ProfileCollections) {
	registerSubResource(employee, "/education", domain.KindEducation, cols.Education)
	registerSubResource(employee, "/experience", domain.KindExperience, cols.Experience)
	registerSubResource(employee, "/skills", domain.KindSkill, cols.Skills)
	registerSubResource(employee, "/certifications", domain.KindCertification, cols.Certifications)
	registerSubResource(employee, "/language", domain.KindLanguage, cols.Languages)
	registerSubResource(employee, "/job-preferences", domain.KindJobPreference, cols.JobPreferences)
}

func parseObjectID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		c.Error(apperror.BadRequest("Invalid id"))
		return primitive.NilObjectID, false
	}
	return id, true
}

// add godoc
// @Summary      Add an entry to a profile collection
// @Description  The body is one entry of the collection named in the path. Responds with the whole collection.
// @Tags         employee
// @Accept       json
// @Produce      json
// @Param        entry  body      object  true  "Collection entry"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /employee/education [post]
// @Router       /employee/experience [post]
// @Router       /employee/skills [post]
// @Router       /employee/certifications [post]
// @Router       /employee/language [post]
// @Router       /employee/job-preferences [post]
// @Security     BearerAuth
func (h *subResourceHandler[T]) add(c *gin.Context) {
	var entry T
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}
	list, err := h.uc.Add(c.Request.Context(), entry)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, h.label+" added", list)
}

// edit godoc
// @Summary      Replace an entry in a profile collection
// @Description  The body is one entry of the collection named in the path. Responds with the whole collection.
// @Tags         employee
// @Accept       json
// @Produce      json
// @Param        id     path      string  true  "Entry ID"
// @Param        entry  body      object  true  "Collection entry"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /employee/education/{id} [put]
// @Router       /employee/experience/{id} [put]
// @Router       /employee/skills/{id} [put]
// @Router       /employee/certifications/{id} [put]
// @Router       /employee/language/{id} [put]
// @Router       /employee/job-preferences/{id} [put]
// @Security     BearerAuth
func (h *subResourceHandler[T]) edit(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	var entry T
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.Error(apperror.BadRequest("Invalid request body"))
		return
	}
	list, err := h.uc.Edit(c.Request.Context(), id, entry)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, h.label+" updated", list)
}

// remove godoc
// @Summary      Remove an entry from a profile collection
// @Description  Responds with the whole collection.
// @Tags         employee
// @Produce      json
// @Param        id     path      string  true  "Entry ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /employee/education/{id} [delete]
// @Router       /employee/experience/{id} [delete]
// @Router       /employee/skills/{id} [delete]
// @Router       /employee/certifications/{id} [delete]
// @Router       /employee/language/{id} [delete]
// @Router       /employee/job-preferences/{id} [delete]
// @Security     BearerAuth
func (h *subResourceHandler[T]) remove(c *gin.Context) {
	id, ok := parseObjectID(c, "id")
	if !ok {
		return
	}
	list, err := h.uc.Delete(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, h.label+" deleted", list)
}
