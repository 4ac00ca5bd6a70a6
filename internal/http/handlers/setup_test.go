package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/caselens/caselens-backend/internal/pkg/logger"
	"github.com/caselens/caselens-backend/internal/services"
)

func newSetupRouter(svc services.SetupService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewSetupHandler(logger.NewNop(), svc)
	r.POST("/api/setup", h.Setup)
	return r
}

func TestSetupReturnsReport(t *testing.T) {
	fake := &fakeSetupService{report: &services.SetupReport{
		Status:    "success",
		Truncated: []string{"sections"},
		Verification: &services.SchemaVerification{
			Status: "success",
		},
	}}
	r := newSetupRouter(fake)

	w := doJSON(t, r, http.MethodPost, "/api/setup", `{"tables_to_truncate":["sections"],"seed_prompts":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: want=%d got=%d body=%s", http.StatusOK, w.Code, w.Body.String())
	}
	if len(fake.gotReq.TablesToTruncate) != 1 || fake.gotReq.TablesToTruncate[0] != "sections" {
		t.Fatalf("request passthrough: got=%+v", fake.gotReq)
	}
	if !fake.gotReq.SeedPrompts {
		t.Fatal("seed_prompts flag lost")
	}

	var resp struct {
		Status    string   `json:"status"`
		Truncated []string `json:"truncated"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "success" || len(resp.Truncated) != 1 {
		t.Fatalf("report envelope: got=%+v", resp)
	}
}

func TestSetupValidationErrorIs400(t *testing.T) {
	fake := &fakeSetupService{
		err: fmt.Errorf("%w: unknown or unauthorized table name: %q", services.ErrInvalidSetupRequest, "users"),
	}
	r := newSetupRouter(fake)

	w := doJSON(t, r, http.MethodPost, "/api/setup", `{"tables_to_drop":["users"]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: want=%d got=%d", http.StatusBadRequest, w.Code)
	}

	var resp struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "error" {
		t.Fatalf("status field: want=%q got=%q", "error", resp.Status)
	}
}

func TestSetupFailureIs500(t *testing.T) {
	fake := &fakeSetupService{err: errors.New("truncate sections: connection refused")}
	r := newSetupRouter(fake)

	w := doJSON(t, r, http.MethodPost, "/api/setup", `{"tables_to_truncate":["sections"]}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: want=%d got=%d", http.StatusInternalServerError, w.Code)
	}

	var resp struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "error" || resp.Error == "" {
		t.Fatalf("error envelope: got=%+v", resp)
	}
}
