package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sliea/antennadesk/internal/auth"
	"github.com/sliea/antennadesk/internal/middleware"
	"github.com/sliea/antennadesk/internal/models"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testClientID = "11111111-1111-4111-8111-111111111111"
	testStaffID  = "22222222-2222-4222-8222-222222222222"
	testOtherID  = "33333333-3333-4333-8333-333333333333"
	testReqID    = "66666666-6666-4666-8666-666666666666"
	testEquipID  = "77777777-7777-4777-8777-777777777777"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

// newTestRouter creates a gin engine that authenticates every request as p.
func newTestRouter(p auth.Principal) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		middleware.SetPrincipal(c, p)
		c.Next()
	})

	return r
}

func asStaff() auth.Principal  { return auth.Principal{ID: testStaffID, Role: models.RoleAdmin} }
func asClient() auth.Principal { return auth.Principal{ID: testClientID, Role: models.RoleUser} }

func otherClient() auth.Principal { return auth.Principal{ID: testOtherID, Role: models.RoleUser} }

// doRequest performs an HTTP request against the test router and returns the recorder.
func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	return doAuthRequest(r, method, path, body, "")
}

// doAuthRequest is doRequest with an optional bearer token.
func doAuthRequest(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, http.NoBody)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func issueToken(t *testing.T, id string, role models.Role) string {
	t.Helper()

	tok, err := auth.NewIssuer(testSecret, "").Issue(id, role, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	return tok
}

func sampleRequest(status models.RequestStatus) *models.Request {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	return &models.Request{
		ID:        testReqID,
		Type:      models.RequestDeactivate,
		Status:    status,
		Client:    &models.UserRef{ID: testClientID, Username: "carla"},
		Equipment: &models.EquipmentRef{ID: testEquipID, KitNumber: "KIT-0001", Status: models.EquipmentActive},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
