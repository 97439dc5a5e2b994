package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sharedError "github.com/changhyeonkim/letter-press/go-api-server/internal/shared/error"
	"github.com/changhyeonkim/letter-press/go-api-server/internal/shared/validator"
	"github.com/gin-gonic/gin"
)

// SetupTestRouter creates a gin engine in test mode with only the given middleware
func SetupTestRouter(middlewares ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	_ = validator.RegisterAll()

	engine := gin.New()
	engine.Use(middlewares...)
	return engine
}

// TestRequest describes one request. RawBody wins over Body and is sent as-is,
// which is how malformed payloads are tested.
type TestRequest struct {
	Method  string
	URL     string
	Body    interface{}
	RawBody string
	Headers map[string]string
	Cookies []*http.Cookie
}

func ExecuteRequest(t *testing.T, router http.Handler, req TestRequest) *httptest.ResponseRecorder {
	t.Helper()

	var bodyReader io.Reader
	switch {
	case req.RawBody != "":
		bodyReader = strings.NewReader(req.RawBody)
	case req.Body != nil:
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	httpReq := httptest.NewRequest(req.Method, req.URL, bodyReader)
	httpReq.Header.Set("Content-Type", "application/json")
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	for _, cookie := range req.Cookies {
		httpReq.AddCookie(cookie)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httpReq)
	return recorder
}

func ParseResponse(t *testing.T, recorder *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(recorder.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to parse response body %q: %v", recorder.Body.String(), err)
	}
}

// ParseError decodes the standard error body
func ParseError(t *testing.T, recorder *httptest.ResponseRecorder) sharedError.ErrorResponse {
	t.Helper()

	var response sharedError.ErrorResponse
	ParseResponse(t, recorder, &response)
	return response
}
