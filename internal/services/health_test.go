package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/caselens/caselens-backend/internal/domain"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

type healthFixture struct {
	llm    *fakeLLM
	bucket *fakeBucket
	parser *fakeDocParse
	cms    *fakeCMS
	svc    HealthService
}

func newHealthFixture(t *testing.T, validate func() []string, testURN string) *healthFixture {
	t.Helper()
	f := &healthFixture{
		llm:    &fakeLLM{textFn: func(string) (string, error) { return "6", nil }},
		bucket: newFakeBucket(),
		parser: &fakeDocParse{},
		cms:    newFakeCMS(),
	}
	db := newSetupDB(t)
	if err := db.AutoMigrate(domain.AllModels()...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	f.svc = NewHealthService(logger.NewNop(), validate, db, f.bucket, f.llm, f.parser, f.cms, testURN)
	return f
}

func TestHealthEmptyRouteIsConfigOnly(t *testing.T) {
	f := newHealthFixture(t, func() []string { return nil }, "")

	res := f.svc.Check(context.Background(), "")
	if res["status"] != "success" {
		t.Fatalf("status: want=success got=%v", res["status"])
	}
	if f.llm.textCalls != 0 || f.cms.authCalls != 0 {
		t.Fatalf("empty route must not touch clients: llm=%d cms=%d", f.llm.textCalls, f.cms.authCalls)
	}
}

func TestHealthConfigErrorsFailEveryRoute(t *testing.T) {
	f := newHealthFixture(t, func() []string { return []string{"missing OPENAI_API_KEY"} }, "")

	res := f.svc.Check(context.Background(), "llm")
	if res["status"] != "error" {
		t.Fatalf("status: want=error got=%v", res["status"])
	}
	errs, ok := res["errors"].([]string)
	if !ok || len(errs) != 1 || errs[0] != "missing OPENAI_API_KEY" {
		t.Fatalf("errors: got=%v", res["errors"])
	}
	if f.llm.textCalls != 0 {
		t.Fatalf("probe ran despite config errors: calls=%d", f.llm.textCalls)
	}
}

func TestHealthBlobRoute(t *testing.T) {
	f := newHealthFixture(t, nil, "")

	res := f.svc.Check(context.Background(), "blob")
	if res["status"] != "success" {
		t.Fatalf("status: want=success got=%v (error=%v)", res["status"], res["error"])
	}
	if res["blob"] != "connected (3 buckets)" {
		t.Fatalf("blob detail: got=%v", res["blob"])
	}
}

func TestHealthPostgresRoute(t *testing.T) {
	f := newHealthFixture(t, nil, "")

	res := f.svc.Check(context.Background(), "postgres")
	if res["status"] != "success" {
		t.Fatalf("status: want=success got=%v (error=%v)", res["status"], res["error"])
	}
	detail, _ := res["postgres"].(string)
	if !strings.Contains(detail, "verification ok") {
		t.Fatalf("postgres detail: got=%q", detail)
	}
}

func TestHealthLLMRoute(t *testing.T) {
	f := newHealthFixture(t, nil, "")

	res := f.svc.Check(context.Background(), "llm")
	if res["status"] != "success" || res["llm"] != "connected ('6')" {
		t.Fatalf("llm probe: got=%v", res)
	}

	f.llm.textFn = func(string) (string, error) { return "", errors.New("upstream 503") }
	res = f.svc.Check(context.Background(), "llm")
	if res["status"] != "error" || res["llm"] != "disconnected" {
		t.Fatalf("llm failure envelope: got=%v", res)
	}
	if detail, _ := res["error"].(string); !strings.Contains(detail, "upstream 503") {
		t.Fatalf("llm failure error: got=%v", res["error"])
	}
}

func TestHealthDocParseRoute(t *testing.T) {
	f := newHealthFixture(t, nil, "")

	res := f.svc.Check(context.Background(), "docparse")
	if res["status"] != "success" || res["docparse"] != "connected (processor ENABLED)" {
		t.Fatalf("docparse probe: got=%v", res)
	}

	f.parser.pingErr = errors.New("processor not found")
	res = f.svc.Check(context.Background(), "docparse")
	if res["status"] != "error" || res["docparse"] != "disconnected" {
		t.Fatalf("docparse failure envelope: got=%v", res)
	}
}

func TestHealthCMSRoute(t *testing.T) {
	f := newHealthFixture(t, nil, "55AB1234521")
	f.cms.caseIDs["55AB1234521"] = 991

	res := f.svc.Check(context.Background(), "cms")
	if res["status"] != "success" || res["cms"] != "connected (case_id length 3)" {
		t.Fatalf("cms probe: got=%v", res)
	}

	// Route names are trimmed and lowercased.
	res = f.svc.Check(context.Background(), " CMS ")
	if res["status"] != "success" {
		t.Fatalf("normalized route: got=%v", res)
	}
}

func TestHealthCMSWithoutTestURN(t *testing.T) {
	f := newHealthFixture(t, nil, "")

	res := f.svc.Check(context.Background(), "cms")
	if res["status"] != "success" || res["cms"] != "connected (authenticated)" {
		t.Fatalf("cms auth-only probe: got=%v", res)
	}
}

func TestHealthCMSFailures(t *testing.T) {
	f := newHealthFixture(t, nil, "55AB1234521")
	f.cms.authErr = errors.New("bad credentials")

	res := f.svc.Check(context.Background(), "cms")
	if res["status"] != "error" || res["cms"] != "disconnected" {
		t.Fatalf("cms auth failure envelope: got=%v", res)
	}
	if detail, _ := res["error"].(string); !strings.Contains(detail, "authentication failed") {
		t.Fatalf("cms auth failure error: got=%v", res["error"])
	}

	f.cms.authErr = nil
	res = f.svc.Check(context.Background(), "cms")
	if res["status"] != "error" {
		t.Fatalf("cms unresolved test urn: got=%v", res)
	}
	if detail, _ := res["error"].(string); !strings.Contains(detail, "failed to get case ID") {
		t.Fatalf("cms resolve failure error: got=%v", res["error"])
	}
}

func TestHealthUnknownRoute(t *testing.T) {
	f := newHealthFixture(t, nil, "")

	res := f.svc.Check(context.Background(), "bogus")
	if res["status"] != "error" || res["error"] != "Unknown route: bogus" {
		t.Fatalf("unknown route envelope: got=%v", res)
	}
}
