package selection

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/klokku/courseplan/internal/rest"
	"github.com/klokku/courseplan/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withUserHeader resolves X-User-Id straight into the request context.
func withUserHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid := r.Header.Get(userIdHeader); uid != "" {
			r = r.WithContext(user.WithUser(r.Context(), user.User{Uid: uid, Username: uid}))
		}
		next.ServeHTTP(w, r)
	})
}

func setupRouter(t *testing.T) (*mux.Router, *RepositoryStub) {
	service, repo, _ := setupService(t)
	handler := NewHandler(service)

	router := mux.NewRouter()
	router.Use(withUserHeader)
	router.HandleFunc("/api/selection", handler.GetSelections).Methods(http.MethodGet)
	router.HandleFunc("/api/selection", handler.AddSelection).Methods(http.MethodPost)
	router.HandleFunc("/api/selection/{courseId}", handler.RemoveSelection).Methods(http.MethodDelete)
	return router, repo
}

func doRequest(router http.Handler, method, path, userId string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userId != "" {
		req.Header.Set(userIdHeader, userId)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_AddSelection(t *testing.T) {
	t.Run("should accept section data as an object", func(t *testing.T) {
		router, repo := setupRouter(t)
		body := []byte(`{"courseId":"COMS4111","courseName":"Databases","sectionIndex":0,"credits":3,
			"sectionData":{"days":["M","W"],"time":"11:40am - 12:55pm","professor":"Jae Lee","location":"Mudd 833","capacity":120,"enrollment":87}}`)

		w := doRequest(router, http.MethodPost, "/api/selection", "alice", body)

		assert.Equal(t, http.StatusCreated, w.Code)
		stored, _ := repo.GetSelections(ctx, "alice")
		require.Len(t, stored, 1)
		assert.Equal(t, mondayWednesday, stored[0].SectionData)
	})

	t.Run("should accept section data encoded as a string", func(t *testing.T) {
		router, repo := setupRouter(t)
		encoded, _ := json.Marshal(`{"days":["Th"],"time":"4:10pm - 5:25pm"}`)
		body := []byte(`{"courseId":"COMS4111","courseName":"Databases","sectionIndex":1,"credits":3,"sectionData":` + string(encoded) + `}`)

		w := doRequest(router, http.MethodPost, "/api/selection", "alice", body)

		assert.Equal(t, http.StatusCreated, w.Code)
		stored, _ := repo.GetSelections(ctx, "alice")
		require.Len(t, stored, 1)
		assert.Equal(t, []string{"Th"}, stored[0].SectionData.Days)
		assert.Equal(t, "4:10pm - 5:25pm", stored[0].SectionData.Time)
	})

	t.Run("should return 409 for a duplicate", func(t *testing.T) {
		router, _ := setupRouter(t)
		body := []byte(`{"courseId":"COMS4111","courseName":"Databases","sectionIndex":0,"sectionData":{"days":["M"],"time":"9:00am - 9:50am"}}`)
		require.Equal(t, http.StatusCreated, doRequest(router, http.MethodPost, "/api/selection", "alice", body).Code)

		w := doRequest(router, http.MethodPost, "/api/selection", "alice", body)

		assert.Equal(t, http.StatusConflict, w.Code)
		var resp rest.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Section already selected", resp.Error)
	})

	t.Run("should return 400 for bad input", func(t *testing.T) {
		router, _ := setupRouter(t)
		cases := map[string]string{
			"malformed body":   `{"courseId":`,
			"no section index": `{"courseId":"COMS4111","sectionData":{}}`,
			"bad section data": `{"courseId":"COMS4111","sectionIndex":0,"sectionData":42}`,
			"no course id":     `{"courseId":"","sectionIndex":0,"sectionData":{}}`,
		}
		for name, body := range cases {
			t.Run(name, func(t *testing.T) {
				w := doRequest(router, http.MethodPost, "/api/selection", "alice", []byte(body))
				assert.Equal(t, http.StatusBadRequest, w.Code)
			})
		}
	})

	t.Run("should return 403 without a user", func(t *testing.T) {
		router, _ := setupRouter(t)
		body := []byte(`{"courseId":"COMS4111","sectionIndex":0,"sectionData":{}}`)

		w := doRequest(router, http.MethodPost, "/api/selection", "", body)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestHandler_GetSelections(t *testing.T) {
	router, _ := setupRouter(t)
	body := []byte(`{"courseId":"COMS4111","courseName":"Databases","sectionIndex":0,"credits":3,"sectionData":{"days":["M","W"],"time":"11:40am - 12:55pm"}}`)
	require.Equal(t, http.StatusCreated, doRequest(router, http.MethodPost, "/api/selection", "alice", body).Code)

	w := doRequest(router, http.MethodGet, "/api/selection", "alice", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var dtos []SelectionDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dtos))
	require.Len(t, dtos, 1)
	assert.Equal(t, "COMS4111", dtos[0].CourseId)
	assert.Equal(t, 0, *dtos[0].SectionIndex)
	assert.JSONEq(t, `{"days":["M","W"],"time":"11:40am - 12:55pm","professor":"","location":"","capacity":0,"enrollment":0}`, string(dtos[0].SectionData))

	t.Run("should return an empty array for a user without selections", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/selection", "bob", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})
}

func TestHandler_RemoveSelection(t *testing.T) {
	router, repo := setupRouter(t)
	for i := 0; i < 2; i++ {
		_, err := repo.CreateSelection(ctx, SelectedSection{UserId: "alice", CourseId: "COMS4111", SectionIndex: i})
		require.NoError(t, err)
	}

	w := doRequest(router, http.MethodDelete, "/api/selection/COMS4111?sectionIndex=1", "alice", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	stored, _ := repo.GetSelections(ctx, "alice")
	require.Len(t, stored, 1)
	assert.Equal(t, 0, stored[0].SectionIndex)

	w = doRequest(router, http.MethodDelete, "/api/selection/COMS4111?sectionIndex=1", "alice", nil)
	assert.Equal(t, http.StatusNoContent, w.Code, "removing an absent section is not an error")

	w = doRequest(router, http.MethodDelete, "/api/selection/COMS4111?sectionIndex=abc", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodDelete, "/api/selection/COMS4111", "alice", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	stored, _ = repo.GetSelections(ctx, "alice")
	assert.Empty(t, stored)
}
