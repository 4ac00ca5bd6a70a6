package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/caselens/caselens-backend/internal/clients/gcp"
	"github.com/caselens/caselens-backend/internal/data/repos"
	"github.com/caselens/caselens-backend/internal/domain"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

// ErrInvalidSetupRequest marks request validation failures so callers can
// report them as client errors rather than setup failures.
var ErrInvalidSetupRequest = errors.New("invalid setup request")

// Identifiers get interpolated into DDL and GRANT statements, which take no
// bind parameters, so anything not matching this shape is rejected up front.
var sqlIdentPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*)?$`)

type SetupRequest struct {
	TablesToTruncate []string `json:"tables_to_truncate"`
	TablesToDrop     []string `json:"tables_to_drop"`
	Grantee          string   `json:"grantee"`
	TablesToGrant    []string `json:"tables_to_grant_permission"`
	SequencesToGrant []string `json:"sequences_to_grant_permission"`
	BlobTestUpload   bool     `json:"blob_test_upload"`
	SeedPrompts      bool     `json:"seed_prompts"`
}

type SchemaVerification struct {
	Status         string   `json:"status"`
	ExpectedTables []string `json:"expected_tables"`
	ExistingTables []string `json:"existing_tables"`
	MissingTables  []string `json:"missing_tables"`
	Error          string   `json:"error,omitempty"`
}

type SetupReport struct {
	Status         string              `json:"status"`
	Truncated      []string            `json:"truncated,omitempty"`
	Dropped        []string            `json:"dropped,omitempty"`
	Verification   *SchemaVerification `json:"verification"`
	Granted        []string            `json:"granted,omitempty"`
	BlobTestUpload string              `json:"blob_test_upload,omitempty"`
	PromptsSeeded  int                 `json:"prompts_seeded,omitempty"`
}

// SetupService prepares a deployment: optional truncate/drop of known tables,
// schema verification and migration, grants for a reporting role, an optional
// blob round trip and seeding of the embedded prompt pack.
type SetupService interface {
	Setup(ctx context.Context, req SetupRequest) (*SetupReport, error)
	SeedPrompts(ctx context.Context) (int, error)
}

type setupService struct {
	log     *logger.Logger
	db      *gorm.DB
	bucket  gcp.BucketService
	prompts repos.PromptTemplateRepo
}

func NewSetupService(
	baseLog *logger.Logger,
	db *gorm.DB,
	bucket gcp.BucketService,
	prompts repos.PromptTemplateRepo,
) SetupService {
	return &setupService{
		log:     baseLog.With("service", "SetupService"),
		db:      db,
		bucket:  bucket,
		prompts: prompts,
	}
}

func (s *setupService) Setup(ctx context.Context, req SetupRequest) (*SetupReport, error) {
	s.log.Info("setup invoked",
		"truncate", len(req.TablesToTruncate),
		"drop", len(req.TablesToDrop),
		"grant_tables", len(req.TablesToGrant),
		"grant_sequences", len(req.SequencesToGrant),
		"blob_test", req.BlobTestUpload,
		"seed_prompts", req.SeedPrompts,
	)

	// 1) Validate the whole request before touching anything.
	if err := validateSetupRequest(req); err != nil {
		return nil, err
	}

	report := &SetupReport{Status: "success"}

	// 2) Destructive operations, truncate before drop.
	for _, name := range req.TablesToTruncate {
		stmt := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", name)
		if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return nil, fmt.Errorf("truncate table %s: %w", name, err)
		}
		s.log.Info("truncated table", "table", name)
		report.Truncated = append(report.Truncated, name)
	}
	for _, name := range req.TablesToDrop {
		stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", name)
		if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return nil, fmt.Errorf("drop table %s: %w", name, err)
		}
		s.log.Info("dropped table", "table", name)
		report.Dropped = append(report.Dropped, name)
	}

	// 3) Verify, create missing tables, verify again.
	if before := verifySchema(ctx, s.db); before.Status != "ok" {
		s.log.Warn("schema verification before migrate", "status", before.Status, "missing", before.MissingTables)
	}
	if err := s.db.WithContext(ctx).AutoMigrate(domain.AllModels()...); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	report.Verification = verifySchema(ctx, s.db)
	if report.Verification.Status != "ok" {
		s.log.Warn("schema verification after migrate", "status", report.Verification.Status, "missing", report.Verification.MissingTables)
	} else {
		s.log.Info("schema verified", "tables", len(report.Verification.ExpectedTables))
	}

	// 4) Grants for the reporting role.
	for _, name := range req.TablesToGrant {
		if err := s.grantAccess(ctx, "TABLE", name, req.Grantee, []string{"SELECT", "INSERT", "UPDATE"}); err != nil {
			return nil, err
		}
		report.Granted = append(report.Granted, "TABLE "+name)
	}
	for _, name := range req.SequencesToGrant {
		if err := s.grantAccess(ctx, "SEQUENCE", name, req.Grantee, []string{"USAGE", "SELECT", "UPDATE"}); err != nil {
			return nil, err
		}
		report.Granted = append(report.Granted, "SEQUENCE "+name)
	}

	// 5) Optional blob round trip against the source bucket.
	if req.BlobTestUpload {
		if err := s.blobCheck(ctx); err != nil {
			return nil, err
		}
		report.BlobTestUpload = "success"
	}

	// 6) Optional prompt pack seeding.
	if req.SeedPrompts {
		n, err := s.SeedPrompts(ctx)
		if err != nil {
			return nil, err
		}
		report.PromptsSeeded = n
	}

	return report, nil
}

// SeedPrompts upserts the prompt pack. Running it twice leaves one row per
// (agent, theme, pattern, version) key with the latest body.
func (s *setupService) SeedPrompts(ctx context.Context) (int, error) {
	pack, err := loadPromptPack()
	if err != nil {
		return 0, fmt.Errorf("load prompt pack: %w", err)
	}
	dbc := dbctx.New(ctx)
	for _, entry := range pack.Templates {
		row := &domain.PromptTemplate{
			Template: entry.Template,
			Name:     entry.Name,
			Agent:    entry.Agent,
			Theme:    entry.Theme,
			Pattern:  entry.Pattern,
			Version:  entry.Version,
		}
		if _, err := s.prompts.UpsertByKey(dbc, row); err != nil {
			return 0, fmt.Errorf("seed prompt %s: %w", entry.Name, err)
		}
	}
	s.log.Info("prompt pack seeded", "templates", len(pack.Templates), "pack_version", pack.Version)
	return len(pack.Templates), nil
}

func validateSetupRequest(req SetupRequest) error {
	known := map[string]bool{}
	for _, name := range domain.TableNames() {
		known[name] = true
	}
	for _, name := range append(append([]string{}, req.TablesToTruncate...), req.TablesToDrop...) {
		if !known[name] {
			return fmt.Errorf("%w: unknown or unauthorized table name: %q", ErrInvalidSetupRequest, name)
		}
	}

	wantsGrants := len(req.TablesToGrant) > 0 || len(req.SequencesToGrant) > 0
	if wantsGrants && req.Grantee == "" {
		return fmt.Errorf("%w: grantee is required when granting permissions", ErrInvalidSetupRequest)
	}
	if req.Grantee != "" && !sqlIdentPattern.MatchString(req.Grantee) {
		return fmt.Errorf("%w: invalid grantee: %q", ErrInvalidSetupRequest, req.Grantee)
	}
	for _, name := range append(append([]string{}, req.TablesToGrant...), req.SequencesToGrant...) {
		if !sqlIdentPattern.MatchString(name) {
			return fmt.Errorf("%w: invalid grant object name: %q", ErrInvalidSetupRequest, name)
		}
	}
	return nil
}

// verifySchema compares the model tables against what the database reports.
func verifySchema(ctx context.Context, db *gorm.DB) *SchemaVerification {
	expected := domain.TableNames()
	sort.Strings(expected)

	existing, err := db.WithContext(ctx).Migrator().GetTables()
	if err != nil {
		return &SchemaVerification{Status: "error", Error: err.Error(), ExpectedTables: expected}
	}
	sort.Strings(existing)

	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}
	missing := []string{}
	for _, name := range expected {
		if !have[name] {
			missing = append(missing, name)
		}
	}

	status := "ok"
	if len(missing) > 0 {
		status = "missing_tables"
	}
	return &SchemaVerification{
		Status:         status,
		ExpectedTables: expected,
		ExistingTables: existing,
		MissingTables:  missing,
	}
}

func (s *setupService) grantAccess(ctx context.Context, objectType, objectName, grantee string, operations []string) error {
	stmt := fmt.Sprintf("GRANT %s ON %s %s TO %s", strings.Join(operations, ", "), objectType, objectName, grantee)
	if err := s.db.WithContext(ctx).Exec(stmt).Error; err != nil {
		return fmt.Errorf("grant on %s %s to %s: %w", strings.ToLower(objectType), objectName, grantee, err)
	}
	s.log.Info("granted access", "object_type", objectType, "object", objectName, "grantee", grantee)
	return nil
}

// blobCheck writes a marker object to the source bucket and reads it back.
func (s *setupService) blobCheck(ctx context.Context) error {
	key := fmt.Sprintf("setup/blob_check_%d.txt", time.Now().UnixNano())
	payload := []byte("blob connectivity check " + time.Now().UTC().Format(time.RFC3339))
	if err := s.bucket.UploadBytes(ctx, gcp.BucketCategorySource, key, payload); err != nil {
		return fmt.Errorf("blob check upload: %w", err)
	}
	got, err := s.bucket.DownloadBytes(ctx, gcp.BucketCategorySource, key)
	if err != nil {
		return fmt.Errorf("blob check download: %w", err)
	}
	if !bytes.Equal(got, payload) {
		return fmt.Errorf("blob check readback mismatch")
	}
	return nil
}
