package integration

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kendall-kelly/maintenance-orders-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

// OrderIntegrationTestSuite defines the test suite for order integration tests
type OrderIntegrationTestSuite struct {
	suite.Suite
	app *testutil.TestApp
}

// SetupSuite runs once before all tests
func (suite *OrderIntegrationTestSuite) SetupSuite() {
	testutil.MustSetTestEnvironment(suite.T())
}

// SetupTest runs before each test
func (suite *OrderIntegrationTestSuite) SetupTest() {
	suite.app = testutil.NewTestApp(suite.T(), testutil.AppOptions{})
}

// TearDownTest runs after each test
func (suite *OrderIntegrationTestSuite) TearDownTest() {
	suite.app.Close()
}

// request sends a JSON request through the router and decodes the response
func (suite *OrderIntegrationTestSuite) request(method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var reader *bytes.Reader
	if body != nil {
		bodyJSON, _ := json.Marshal(body)
		reader = bytes.NewReader(bodyJSON)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	suite.app.Router.ServeHTTP(w, req)

	var response map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &response)
	return w, response
}

func (suite *OrderIntegrationTestSuite) createOrder(fields map[string]interface{}) map[string]interface{} {
	body := map[string]interface{}{
		"site":     "Park",
		"building": "A",
		"floor":    "3",
		"unit":     "301",
		"reason":   "water leak",
		"staff":    "Lee",
		"amount":   1500,
	}
	for k, v := range fields {
		body[k] = v
	}

	w, response := suite.request(http.MethodPost, "/api/v1/orders", body)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return response["data"].(map[string]interface{})
}

// TestOrderWorkflow_CreateListAndGet tests the full order workflow
func (suite *OrderIntegrationTestSuite) TestOrderWorkflow_CreateListAndGet() {
	// Step 1: Create an order
	created := suite.createOrder(nil)
	number := created["orderNumber"].(string)
	assert.Equal(suite.T(), "pending", created["status"])

	// Step 2: List orders (should include the created order)
	w, response := suite.request(http.MethodGet, "/api/v1/orders", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	orders := response["data"].([]interface{})
	assert.Equal(suite.T(), 1, len(orders))

	// Step 3: Get the specific order
	w, response = suite.request(http.MethodGet, "/api/v1/orders/"+number, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	retrieved := response["data"].(map[string]interface{})
	assert.Equal(suite.T(), created, retrieved)
}

// TestOrderWorkflow_EditSignAndFreeze tests that a signed order can no longer change
func (suite *OrderIntegrationTestSuite) TestOrderWorkflow_EditSignAndFreeze() {
	number := suite.createOrder(nil)["orderNumber"].(string)

	w, response := suite.request(http.MethodPut, "/api/v1/orders/"+number, map[string]interface{}{"unit": "302"})
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "302", response["data"].(map[string]interface{})["unit"])

	w, _ = suite.request(http.MethodPost, "/api/v1/orders/"+number+"/sign", map[string]interface{}{
		"signature":     "data:image/png;base64,AAA",
		"customerEmail": "owner@example.com",
	})
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	sent := suite.app.Notifier.Sent()
	suite.Require().Len(sent, 1)
	assert.Equal(suite.T(), "owner@example.com", sent[0].To)
	assert.Contains(suite.T(), sent[0].Body, "A棟3樓302戶")

	for _, attempt := range []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodPut, "/api/v1/orders/" + number, map[string]interface{}{"unit": "303"}},
		{http.MethodPost, "/api/v1/orders/" + number + "/sign", map[string]interface{}{"signature": "again"}},
		{http.MethodPost, "/api/v1/orders/" + number + "/photos", map[string]interface{}{"photos": []interface{}{
			map[string]interface{}{"originalName": "a.png", "dataUri": "data:image/png;base64,aGVsbG8="},
		}}},
	} {
		w, response = suite.request(attempt.method, attempt.path, attempt.body)
		assert.Equal(suite.T(), http.StatusConflict, w.Code, attempt.path)
		assert.Equal(suite.T(), "ALREADY_SIGNED", response["error"].(map[string]interface{})["code"])
	}

	// A signed order may still be deleted
	w, _ = suite.request(http.MethodDelete, "/api/v1/orders/"+number, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

// TestDuplicateSignedOrder tests that a duplicate starts over as pending
func (suite *OrderIntegrationTestSuite) TestDuplicateSignedOrder() {
	number := suite.createOrder(nil)["orderNumber"].(string)
	w, _ := suite.request(http.MethodPost, "/api/v1/orders/"+number+"/sign", map[string]interface{}{"signature": "sig", "customerEmail": "a@b.co"})
	suite.Require().Equal(http.StatusOK, w.Code)

	w, response := suite.request(http.MethodPost, "/api/v1/orders/"+number+"/duplicate", nil)
	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	duplicate := response["data"].(map[string]interface{})
	assert.NotEqual(suite.T(), number, duplicate["orderNumber"])
	assert.Equal(suite.T(), "pending", duplicate["status"])
	assert.Nil(suite.T(), duplicate["signature"])
	assert.Nil(suite.T(), duplicate["signedAt"])
	assert.Equal(suite.T(), "", duplicate["customerEmail"])

	_, response = suite.request(http.MethodGet, "/api/v1/orders/statistics", nil)
	stats := response["data"].(map[string]interface{})
	assert.Equal(suite.T(), float64(2), stats["total"])
	assert.Equal(suite.T(), float64(1), stats["signed"])
}

// TestPhotosWorkflow tests attaching, serving and removing photos
func (suite *OrderIntegrationTestSuite) TestPhotosWorkflow() {
	number := suite.createOrder(nil)["orderNumber"].(string)
	payload := []byte("tiny gif")

	w, response := suite.request(http.MethodPost, "/api/v1/orders/"+number+"/photos", map[string]interface{}{
		"photos": []interface{}{
			map[string]interface{}{"originalName": "crack.gif", "dataUri": "data:image/gif;base64," + base64.StdEncoding.EncodeToString(payload)},
		},
	})
	suite.Require().Equal(http.StatusCreated, w.Code)
	photo := response["data"].(map[string]interface{})["photos"].([]interface{})[0].(map[string]interface{})
	assert.Equal(suite.T(), float64(len(payload)), photo["sizeBytes"])

	w = httptest.NewRecorder()
	suite.app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/orders/%s/photos/%s", number, photo["id"]), nil))
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "image/gif", w.Header().Get("Content-Type"))
	assert.Equal(suite.T(), payload, w.Body.Bytes())

	_, response = suite.request(http.MethodGet, "/api/v1/orders?view=summary", nil)
	summary := response["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(suite.T(), float64(1), summary["photoCount"])

	w, _ = suite.request(http.MethodDelete, fmt.Sprintf("/api/v1/orders/%s/photos/%s", number, photo["id"]), nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

// TestExportMatchesFilters tests that both exports honour the same filters
func (suite *OrderIntegrationTestSuite) TestExportMatchesFilters() {
	suite.createOrder(map[string]interface{}{"site": "Park", "staff": "Lee"})
	suite.createOrder(map[string]interface{}{"site": "Park", "staff": "Chen"})
	suite.createOrder(map[string]interface{}{"site": "Lake", "staff": "Lee"})

	w := httptest.NewRecorder()
	suite.app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders/export.csv?site=park&staff=lee", nil))
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	lines := strings.Split(strings.TrimSuffix(w.Body.String(), "\n"), "\n")
	assert.Len(suite.T(), lines, 2)

	w = httptest.NewRecorder()
	suite.app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders/export.json?site=park&staff=lee", nil))
	var export struct {
		TotalOrders int                    `json:"totalOrders"`
		Filters     map[string]interface{} `json:"filters"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &export))
	assert.Equal(suite.T(), 1, export.TotalOrders)
	assert.Equal(suite.T(), map[string]interface{}{"site": "park", "staff": "lee"}, export.Filters)
}

// TestStorageQuotaExceeded tests that a full store rejects writes and keeps old data
func (suite *OrderIntegrationTestSuite) TestStorageQuotaExceeded() {
	suite.app.Close()
	suite.app = testutil.NewTestApp(suite.T(), testutil.AppOptions{QuotaBytes: 2048})

	var lastStatus int
	var response map[string]interface{}
	created := 0
	for i := 0; i < 20; i++ {
		var w *httptest.ResponseRecorder
		w, response = suite.request(http.MethodPost, "/api/v1/orders", map[string]interface{}{
			"site": "Park", "building": "A", "floor": "3", "unit": "301",
			"reason": strings.Repeat("long reason ", 10), "staff": "Lee", "amount": 100,
		})
		lastStatus = w.Code
		if w.Code != http.StatusCreated {
			break
		}
		created++
	}

	assert.Equal(suite.T(), http.StatusInsufficientStorage, lastStatus)
	assert.Equal(suite.T(), "STORAGE_QUOTA_EXCEEDED", response["error"].(map[string]interface{})["code"])

	_, response = suite.request(http.MethodGet, "/api/v1/orders", nil)
	assert.Equal(suite.T(), float64(created), response["total"])
}

// TestRequireKnownStaff tests the optional staff reference check
func (suite *OrderIntegrationTestSuite) TestRequireKnownStaff() {
	suite.app.Close()
	suite.app = testutil.NewTestApp(suite.T(), testutil.AppOptions{RequireKnownStaff: true})

	w, _ := suite.request(http.MethodPost, "/api/v1/orders", map[string]interface{}{
		"site": "Park", "building": "A", "floor": "3", "unit": "301",
		"reason": "water leak", "staff": "Lee", "amount": 100,
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w, _ = suite.request(http.MethodPost, "/api/v1/staff", map[string]interface{}{"name": "Lee"})
	suite.Require().Equal(http.StatusOK, w.Code)

	suite.createOrder(nil)
}

// TestOrderIntegrationSuite runs the order integration test suite
func TestOrderIntegrationSuite(t *testing.T) {
	suite.Run(t, new(OrderIntegrationTestSuite))
}
