package response

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 41)
	if p.TotalPage != 3 || p.Page != 2 || p.PageSize != 20 || p.Total != 41 {
		t.Fatalf("unexpected pagination: %+v", p)
	}
	if !p.HasMore {
		t.Fatalf("page 2 of 3 should report more pages")
	}
	if NewPagination(3, 20, 41).HasMore {
		t.Fatalf("last page should not report more pages")
	}
	if NewPagination(1, 0, 10).TotalPage != 0 {
		t.Fatalf("zero page size should yield zero total pages")
	}
}

func TestErrorAttachesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "req-1")

	Error(c, CodeConflict, "conflict")

	var body struct {
		StatusCode int               `json:"status_code"`
		Msg        string            `json:"msg"`
		Data       map[string]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body failed: %v", err)
	}
	if w.Code != 200 || body.StatusCode != CodeConflict || body.Data["request_id"] != "req-1" {
		t.Fatalf("unexpected response: code=%d body=%+v", w.Code, body)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	root := errors.New("root")
	appErr := WrapError(CodeBadGateway, "error.pix_unavailable", "upstream", root)
	if !errors.Is(appErr, root) {
		t.Fatalf("app error should unwrap to root")
	}
	if appErr.Error() != "upstream: root" {
		t.Fatalf("unexpected message: %s", appErr.Error())
	}
	if !appErr.ServerSide() {
		t.Fatalf("502 should be server side")
	}
	if len(appErr.LogFields()) != 6 {
		t.Fatalf("unexpected log fields: %v", appErr.LogFields())
	}
	if WrapError(CodeNotFound, "error.not_found", "", nil).Error() != "error.not_found" {
		t.Fatalf("message key should back an empty message")
	}
}

func TestAbortStopsChain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Abort(c, CodeForbidden, "forbidden")

	if !c.IsAborted() {
		t.Fatalf("context should be aborted")
	}
	var body Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body failed: %v", err)
	}
	if body.StatusCode != CodeForbidden || body.Data != nil {
		t.Fatalf("unexpected response: %+v", body)
	}
}
