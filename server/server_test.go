package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/housing"
	"github.com/YuminosukeSato/housing/pkg/errors"
	"github.com/YuminosukeSato/housing/pkg/log"
)

type mockPredictor struct {
	mock.Mock
}

func (m *mockPredictor) PredictObservation(obs housing.Observation) (float64, error) {
	args := m.Called(obs)
	return args.Get(0).(float64), args.Error(1)
}

func validBody() map[string]any {
	return map[string]any{
		"longitude":          -122.23,
		"latitude":           37.88,
		"housing_median_age": 41,
		"total_rooms":        880,
		"total_bedrooms":     129,
		"population":         322,
		"households":         126,
		"median_income":      8.3252,
		"ocean_proximity":    "NEAR BAY",
	}
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestPredict(t *testing.T) {
	gin.SetMode(gin.TestMode)

	p := &mockPredictor{}
	p.On("PredictObservation", mock.MatchedBy(func(o housing.Observation) bool {
		return o.OceanProximity == housing.NearBay && o.MedianIncome == 8.3252
	})).Return(452600.0, nil).Once()

	w := do(t, NewRouter(p, log.NewNopLogger()), http.MethodPost, "/predict", validBody())
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 452600.0, decode(t, w)["prediction"])
	p.AssertExpectations(t)
}

func TestPredictBadRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)

	missing := validBody()
	delete(missing, "households")
	badProximity := validBody()
	badProximity["ocean_proximity"] = "MOON"
	wrongType := validBody()
	wrongType["total_rooms"] = "many"

	tests := []struct {
		name string
		body any
	}{
		{"missing field", missing},
		{"unknown category", badProximity},
		{"wrong type", wrongType},
		{"not an object", []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &mockPredictor{}
			w := do(t, NewRouter(p, log.NewNopLogger()), http.MethodPost, "/predict", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decode(t, w), "error")
			p.AssertNotCalled(t, "PredictObservation", mock.Anything)
		})
	}
}

func TestPredictZeroIsPresent(t *testing.T) {
	gin.SetMode(gin.TestMode)

	body := validBody()
	body["housing_median_age"] = 0
	p := &mockPredictor{}
	p.On("PredictObservation", mock.Anything).Return(1.0, nil)

	w := do(t, NewRouter(p, log.NewNopLogger()), http.MethodPost, "/predict", body)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestPredictScorerErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		value  float64
		err    error
		status int
	}{
		{"schema", 0, errors.NewSchemaError("Imputer.Transform", []string{"a"}, []string{"b"}), http.StatusBadRequest},
		{"internal", 0, errors.New("boom"), http.StatusInternalServerError},
		{"non-finite", math.Inf(1), nil, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &mockPredictor{}
			p.On("PredictObservation", mock.Anything).Return(tt.value, tt.err)
			w := do(t, NewRouter(p, log.NewNopLogger()), http.MethodPost, "/predict", validBody())
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHealthAndNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(&mockPredictor{}, log.NewNopLogger())

	w := do(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, map[string]any{"error": "Not found"}, decode(t, w))
}

func TestServeShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "127.0.0.1:0", http.NotFoundHandler(), log.NewNopLogger())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
