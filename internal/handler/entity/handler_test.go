package entity

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinsync/clinsync/internal/authn"
	"github.com/clinsync/clinsync/internal/handler"
	"github.com/clinsync/clinsync/internal/repository/docstore"
	"github.com/clinsync/clinsync/internal/repository/document"
	entitysvc "github.com/clinsync/clinsync/internal/service/entity"
	"github.com/clinsync/clinsync/internal/service/validation"
	"github.com/clinsync/clinsync/pkg/logger"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := docstore.NewMemoryStore()
	identities := document.NewIdentityRepository(store)
	patients := document.NewPatientProfileRepository(store)
	practitioners := document.NewPractitionerProfileRepository(store)
	outbox := document.NewOutboxRepository(store)
	log := logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})

	svc := entitysvc.NewService(identities, patients, practitioners, authn.NewFakeProvider(), outbox, log)
	validator := validation.NewService(identities, patients, practitioners, log, nil)

	r := gin.New()
	NewHandler(svc, validator).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createPatientRequest() map[string]interface{} {
	return map[string]interface{}{
		"email":        "ana.soto@example.com",
		"national_id":  "X-4821",
		"display_name": "Ana Soto",
		"role":         "patient",
		"patient": map[string]interface{}{
			"blood_type": "O+",
			"allergies":  []string{"penicillin"},
		},
	}
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) handler.Response {
	t.Helper()
	var resp handler.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCreateEntityEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/entities", createPatientRequest())
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decodeResponse(t, w)
	assert.Equal(t, "success", resp.Status)

	flat, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ana.soto@example.com", flat["email"])
	assert.Equal(t, "O+", flat["blood_type"])
	assert.NotEmpty(t, flat["id"])
	assert.NotEmpty(t, flat["profile_id"])
}

func TestCreateEntityEndpointValidatesPayload(t *testing.T) {
	r := newTestRouter(t)

	body := createPatientRequest()
	body["email"] = "not-an-email"
	w := doJSON(t, r, http.MethodPost, "/api/v1/entities", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = createPatientRequest()
	delete(body, "patient")
	w = doJSON(t, r, http.MethodPost, "/api/v1/entities", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = createPatientRequest()
	body["role"] = "admin"
	w = doJSON(t, r, http.MethodPost, "/api/v1/entities", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateEntityEndpointRejectsUnknownBloodType(t *testing.T) {
	r := newTestRouter(t)

	body := createPatientRequest()
	body["patient"] = map[string]interface{}{"blood_type": "Q+"}
	w := doJSON(t, r, http.MethodPost, "/api/v1/entities", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateEntityEndpointDuplicateEmail(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/entities", createPatientRequest())
	require.Equal(t, http.StatusCreated, w.Code)

	body := createPatientRequest()
	body["national_id"] = "different"
	w = doJSON(t, r, http.MethodPost, "/api/v1/entities", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func createEntity(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/entities", createPatientRequest())
	require.Equal(t, http.StatusCreated, w.Code)
	flat := decodeResponse(t, w).Data.(map[string]interface{})
	return flat["id"].(string)
}

func TestGetEntityEndpoint(t *testing.T) {
	r := newTestRouter(t)
	id := createEntity(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/v1/entities/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	flat := decodeResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, "Ana Soto", flat["display_name"])
	assert.Equal(t, "patient", flat["role"])
}

func TestGetEntityEndpointNotFound(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/entities/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateEntityEndpoint(t *testing.T) {
	r := newTestRouter(t)
	id := createEntity(t, r)

	w := doJSON(t, r, http.MethodPatch, "/api/v1/entities/"+id, map[string]interface{}{
		"personal": map[string]interface{}{"display_name": "Ana Soto-Rivera"},
		"profile":  map[string]interface{}{"medical_history": "appendectomy 2020"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/entities/"+id, nil)
	flat := decodeResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, "Ana Soto-Rivera", flat["display_name"])
	assert.Equal(t, "appendectomy 2020", flat["medical_history"])
}

func TestUpdateEntityEndpointRejectsPersonalKeysInProfilePatch(t *testing.T) {
	r := newTestRouter(t)
	id := createEntity(t, r)

	w := doJSON(t, r, http.MethodPatch, "/api/v1/entities/"+id, map[string]interface{}{
		"profile": map[string]interface{}{"email": "smuggled@example.com"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// The stored email must be untouched.
	w = doJSON(t, r, http.MethodGet, "/api/v1/entities/"+id, nil)
	flat := decodeResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, "ana.soto@example.com", flat["email"])
}

func TestDeleteEntityEndpoint(t *testing.T) {
	r := newTestRouter(t)
	id := createEntity(t, r)

	w := doJSON(t, r, http.MethodDelete, "/api/v1/entities/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/entities/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLinkStatusEndpoint(t *testing.T) {
	r := newTestRouter(t)
	id := createEntity(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/v1/entities/"+id+"/link-status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeResponse(t, w).Data.(map[string]interface{})
	assert.Equal(t, "linked", data["link_status"])
}

func TestRunValidationEndpoint(t *testing.T) {
	r := newTestRouter(t)
	createEntity(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/v1/admin/validation", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeResponse(t, w).Data.(map[string]interface{})
	errs, ok := data["errors"].([]interface{})
	if ok {
		assert.Empty(t, errs)
	}
	assert.EqualValues(t, 1, data["identities_scanned"])
	assert.EqualValues(t, 1, data["profiles_scanned"])
}
