package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/studygroup-backend/internal/model"
	"github.com/stemsi/studygroup-backend/internal/response"
	"github.com/stemsi/studygroup-backend/internal/service"
	"github.com/stemsi/studygroup-backend/internal/validator"
)

type StudyGroupHandler struct {
	groupService *service.StudyGroupService
	log          zerolog.Logger
}

func NewStudyGroupHandler(groupService *service.StudyGroupService, log zerolog.Logger) *StudyGroupHandler {
	return &StudyGroupHandler{
		groupService: groupService,
		log:          log.With().Str("component", "study_group_handler").Logger(),
	}
}

// GetAll godoc
// GET /api/v1/study-groups
func (h *StudyGroupHandler) GetAll(c *gin.Context) {
	groups, err := h.groupService.GetAll(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	if groups == nil {
		groups = []*model.StudyGroup{}
	}
	response.Success(c, http.StatusOK, gin.H{"study_groups": groups})
}

// Create godoc
// POST /api/v1/study-groups
func (h *StudyGroupHandler) Create(c *gin.Context) {
	var req model.CreateStudyGroupRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	subject, err := model.ParseSubject(req.Subject)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidSubject)
		return
	}

	createDate := time.Now().UTC()
	if req.CreateDate != nil && !req.CreateDate.IsZero() {
		createDate = *req.CreateDate
	}

	res, err := h.groupService.Create(c.Request.Context(), req.Name, subject, createDate)
	if err != nil {
		h.internalError(c, err)
		return
	}
	if !res.Success {
		h.failResult(c, res, response.ErrDuplicateSubject)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"study_group": res.Group})
}

// Search godoc
// GET /api/v1/study-groups/search?subject=Math
func (h *StudyGroupHandler) Search(c *gin.Context) {
	subject, err := model.ParseSubject(c.Query("subject"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidSubject)
		return
	}

	groups, err := h.groupService.SearchBySubject(c.Request.Context(), subject)
	if err != nil {
		h.internalError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"study_groups": groups})
}

// GetByID godoc
// GET /api/v1/study-groups/:id
func (h *StudyGroupHandler) GetByID(c *gin.Context) {
	id, ok := parseGroupID(c)
	if !ok {
		return
	}

	group, found, err := h.groupService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.internalError(c, err)
		return
	}
	if !found {
		response.FailWithMessage(c, http.StatusNotFound, response.ErrNotFound, model.MsgGroupNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"study_group": group})
}

// Join godoc
// POST /api/v1/study-groups/:id/join
func (h *StudyGroupHandler) Join(c *gin.Context) {
	id, req, ok := bindMembership(c)
	if !ok {
		return
	}

	res, err := h.groupService.Join(c.Request.Context(), id, req.User())
	if err != nil {
		h.internalError(c, err)
		return
	}
	if !res.Success {
		h.failResult(c, res, response.ErrAlreadyJoined)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"changed": res.Changed, "study_group": res.Group})
}

// Leave godoc
// POST /api/v1/study-groups/:id/leave
func (h *StudyGroupHandler) Leave(c *gin.Context) {
	id, req, ok := bindMembership(c)
	if !ok {
		return
	}

	res, err := h.groupService.Leave(c.Request.Context(), id, req.User())
	if err != nil {
		h.internalError(c, err)
		return
	}
	if !res.Success {
		h.failResult(c, res, response.ErrInternal)
		return
	}

	data := gin.H{"changed": res.Changed}
	if res.Changed {
		data["study_group"] = res.Group
	} else {
		data["message"] = res.Message
	}
	response.Success(c, http.StatusOK, data)
}

// failResult maps an unsuccessful result to its HTTP status. conflictCode is the
// error code the calling operation uses for CONFLICT.
func (h *StudyGroupHandler) failResult(c *gin.Context, res model.Result, conflictCode response.ErrCode) {
	switch res.Reason {
	case model.ReasonInvalidArgument:
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrValidation, res.Message)
	case model.ReasonNotFound:
		response.FailWithMessage(c, http.StatusNotFound, response.ErrNotFound, res.Message)
	case model.ReasonConflict:
		response.FailWithMessage(c, http.StatusConflict, conflictCode, res.Message)
	default:
		h.log.Error().Str("reason", string(res.Reason)).Str("message", res.Message).Msg("Unmapped result")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func (h *StudyGroupHandler) internalError(c *gin.Context, err error) {
	h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Study group request failed")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

func parseGroupID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

func bindMembership(c *gin.Context) (int, model.MembershipRequest, bool) {
	var req model.MembershipRequest
	id, ok := parseGroupID(c)
	if !ok {
		return 0, req, false
	}
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return 0, req, false
	}
	return id, req, true
}
