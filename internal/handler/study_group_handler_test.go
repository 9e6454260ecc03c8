package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/studygroup-backend/internal/config"
	"github.com/stemsi/studygroup-backend/internal/handler"
	"github.com/stemsi/studygroup-backend/internal/model"
	"github.com/stemsi/studygroup-backend/internal/repository"
	"github.com/stemsi/studygroup-backend/internal/response"
	"github.com/stemsi/studygroup-backend/internal/router"
	"github.com/stemsi/studygroup-backend/internal/service"
	"github.com/stemsi/studygroup-backend/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	validator.Setup()
	os.Exit(m.Run())
}

type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

type groupJSON struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Subject     string `json:"subject"`
	MemberCount int    `json:"member_count"`
	Users       []struct {
		ID int `json:"id"`
	} `json:"users"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	svc := service.NewStudyGroupService(repository.NewMemoryStudyGroupRepository(), nil, zerolog.Nop())
	cfg := &config.Config{GinMode: gin.TestMode}
	return router.SetupRouter(&router.Handlers{
		StudyGroup: handler.NewStudyGroupHandler(svc, zerolog.Nop()),
	}, nil, cfg)
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func createGroup(t *testing.T, r http.Handler, name, subject string) groupJSON {
	t.Helper()
	w, env := do(t, r, http.MethodPost, "/api/v1/study-groups", map[string]string{"name": name, "subject": subject})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		StudyGroup groupJSON `json:"study_group"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.StudyGroup
}

func TestCreateStudyGroup(t *testing.T) {
	r := newTestRouter(t)

	g := createGroup(t, r, "Calculus Circle", "math")
	assert.Equal(t, 1, g.ID)
	assert.Equal(t, "Math", g.Subject)
	assert.Equal(t, 0, g.MemberCount)

	w, env := do(t, r, http.MethodPost, "/api/v1/study-groups", map[string]string{"name": "Other", "subject": "Math"})
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, response.ErrDuplicateSubject, env.Error.Code)
	assert.Equal(t, "Duplicate subject. Study group with Math subject already exists.", env.Error.Message)
}

func TestCreateStudyGroupValidation(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name  string
		body  map[string]string
		field string
	}{
		{"missing name", map[string]string{"subject": "Physics"}, "name"},
		{"unknown subject", map[string]string{"name": "Art Club", "subject": "Art"}, "subject"},
		{"missing subject", map[string]string{"name": "Art Club"}, "subject"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, http.MethodPost, "/api/v1/study-groups", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, response.ErrValidation, env.Error.Code)
			assert.Contains(t, env.Error.Fields, tt.field)
		})
	}

	// A blank name passes binding but is rejected by the domain.
	w, env := do(t, r, http.MethodPost, "/api/v1/study-groups", map[string]string{"name": "   ", "subject": "Physics"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, response.ErrValidation, env.Error.Code)
}

func TestGetByID(t *testing.T) {
	r := newTestRouter(t)
	g := createGroup(t, r, "Mechanics", "Physics")

	w, _ := do(t, r, http.MethodGet, "/api/v1/study-groups/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Mechanics"`)
	assert.Equal(t, 1, g.ID)

	w, env := do(t, r, http.MethodGet, "/api/v1/study-groups/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, model.MsgGroupNotFound, env.Error.Message)

	w, env = do(t, r, http.MethodGet, "/api/v1/study-groups/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.ErrInvalidID, env.Error.Code)
}

func TestListAndSearch(t *testing.T) {
	r := newTestRouter(t)
	createGroup(t, r, "Calculus", "Math")
	createGroup(t, r, "Lab", "Chemistry")

	var list struct {
		StudyGroups []groupJSON `json:"study_groups"`
	}

	w, env := do(t, r, http.MethodGet, "/api/v1/study-groups", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list.StudyGroups, 2)

	w, env = do(t, r, http.MethodGet, "/api/v1/study-groups/search?subject=CHEMISTRY", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.StudyGroups, 1)
	assert.Equal(t, "Lab", list.StudyGroups[0].Name)

	w, env = do(t, r, http.MethodGet, "/api/v1/study-groups/search?subject=Physics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"study_groups":[]}`, string(env.Data))

	w, env = do(t, r, http.MethodGet, "/api/v1/study-groups/search?subject=Art", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.ErrInvalidSubject, env.Error.Code)
}

func TestJoinAndLeave(t *testing.T) {
	r := newTestRouter(t)
	createGroup(t, r, "Calculus", "Math")
	user := map[string]interface{}{"user_id": 7, "first_name": "Ada", "email": "ada@example.com"}

	w, env := do(t, r, http.MethodPost, "/api/v1/study-groups/1/join", user)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var joined struct {
		Changed    bool      `json:"changed"`
		StudyGroup groupJSON `json:"study_group"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &joined))
	assert.True(t, joined.Changed)
	assert.Equal(t, 1, joined.StudyGroup.MemberCount)

	w, env = do(t, r, http.MethodPost, "/api/v1/study-groups/1/join", user)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.ErrAlreadyJoined, env.Error.Code)
	assert.Equal(t, model.MsgAlreadyJoined, env.Error.Message)

	w, _ = do(t, r, http.MethodPost, "/api/v1/study-groups/9/join", user)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/v1/study-groups/1/leave", user)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = do(t, r, http.MethodPost, "/api/v1/study-groups/1/leave", user)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"changed":false,"message":"User is not a member of the study group."}`, string(env.Data))

	w, _ = do(t, r, http.MethodPost, "/api/v1/study-groups/9/leave", user)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMembershipValidation(t *testing.T) {
	r := newTestRouter(t)
	createGroup(t, r, "Calculus", "Math")

	w, env := do(t, r, http.MethodPost, "/api/v1/study-groups/1/join", map[string]interface{}{"user_id": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Fields, "user_id")

	w, env = do(t, r, http.MethodPost, "/api/v1/study-groups/1/join", map[string]interface{}{"user_id": 3, "email": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Fields, "email")
}

func TestActivityRouteRequiresRedis(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/ws/v1/study-groups/1/activity", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndRequestID(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(response.HeaderRequestID, "not-a-uuid")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	id := w.Header().Get(response.HeaderRequestID)
	assert.NotEqual(t, "not-a-uuid", id)
	assert.True(t, strings.Contains(w.Body.String(), id))
}
