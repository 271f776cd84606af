package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestErrorUsesStatusOfCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		code   string
		status int
	}{
		{CodeBadRequest, http.StatusBadRequest},
		{CodeUnknownClickID, http.StatusNotFound},
		{CodeApprovalRequired, http.StatusConflict},
		{CodeMissingCampaignID, http.StatusUnprocessableEntity},
		{CodeProviderFailed, http.StatusBadGateway},
		{"something_new", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set("request_id", "req-1")
		Error(c, tc.code, "boom")
		if w.Code != tc.status {
			t.Fatalf("%s: status want %d got %d", tc.code, tc.status, w.Code)
		}
		var resp struct {
			Success bool                   `json:"success"`
			Code    string                 `json:"code"`
			Message string                 `json:"message"`
			Data    map[string]interface{} `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if resp.Success || resp.Code != tc.code || resp.Message != "boom" || resp.Data["request_id"] != "req-1" {
			t.Fatalf("unexpected envelope: %+v", resp)
		}
	}
}

func TestBuildPagination(t *testing.T) {
	p := BuildPagination(2, 20, 41)
	if p.TotalPage != 3 {
		t.Fatalf("total page want 3 got %d", p.TotalPage)
	}
	if BuildPagination(1, 0, 10).TotalPage != 0 {
		t.Fatalf("zero page size must not divide")
	}
}
