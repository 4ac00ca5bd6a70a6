package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/caselens/caselens-backend/internal/clients/cms"
	"github.com/caselens/caselens-backend/internal/clients/gcp"
	"github.com/caselens/caselens-backend/internal/data/repos"
	"github.com/caselens/caselens-backend/internal/domain"
	"github.com/caselens/caselens-backend/internal/observability"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

// TriggerType selects how Ingest interprets its value argument.
type TriggerType string

const (
	TriggerURN      TriggerType = "urn"
	TriggerURNList  TriggerType = "urn_list"
	TriggerBlobName TriggerType = "blob_name"
	TriggerFilepath TriggerType = "filepath"
)

// blobCaseURN is the placeholder reference for documents that arrive without
// a case, via a storage blob or a local file.
const blobCaseURN = "01BL0000001"

// Documents must pass all three lists to be ingested.
var (
	supportedDocCategories = []string{"Review", "MGForm"}
	supportedDocTypes      = []string{"MG 3", "MG3", "MG3 (with Schedule of Charges)"}
	supportedMimeTypes     = []string{
		"application/pdf",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
)

// IngestionResult reports what one ingestion run created. Failures land in
// Error with Success false; Ingest never returns a Go error. ExperimentID is
// always the resolved id, including when the run generated one.
type IngestionResult struct {
	Success      bool    `json:"success"`
	ExperimentID string  `json:"experiment_id,omitempty"`
	CaseIDs      []int64 `json:"case_ids,omitempty"`
	DocumentIDs  []int64 `json:"document_ids,omitempty"`
	VersionIDs   []int64 `json:"version_ids,omitempty"`
	SectionIDs   []int64 `json:"section_ids,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// IngestionService runs the document pipeline: fetch or receive raw content,
// parse it, extract and redact narrative sections, and persist the case graph
// with blob pointers along the way.
type IngestionService interface {
	Ingest(ctx context.Context, trigger TriggerType, value string, experimentID string) *IngestionResult
}

type ingestionService struct {
	log         *logger.Logger
	cms         cms.Client
	bucket      gcp.BucketService
	parser      gcp.DocParseService
	extractor   ExtractionService
	redactor    RedactionService
	audit       AuditService
	cases       repos.CaseRepo
	defendants  repos.DefendantRepo
	charges     repos.ChargeRepo
	offences    repos.OffenceRepo
	documents   repos.DocumentRepo
	versions    repos.VersionRepo
	experiments repos.ExperimentRepo
	sections    repos.SectionRepo
	retry       RetryPolicy
}

func NewIngestionService(
	baseLog *logger.Logger,
	cmsClient cms.Client,
	bucket gcp.BucketService,
	parser gcp.DocParseService,
	extractor ExtractionService,
	redactor RedactionService,
	audit AuditService,
	cases repos.CaseRepo,
	defendants repos.DefendantRepo,
	charges repos.ChargeRepo,
	offences repos.OffenceRepo,
	documents repos.DocumentRepo,
	versions repos.VersionRepo,
	experiments repos.ExperimentRepo,
	sections repos.SectionRepo,
) IngestionService {
	return &ingestionService{
		log:         baseLog.With("service", "IngestionService"),
		cms:         cmsClient,
		bucket:      bucket,
		parser:      parser,
		extractor:   extractor,
		redactor:    redactor,
		audit:       audit,
		cases:       cases,
		defendants:  defendants,
		charges:     charges,
		offences:    offences,
		documents:   documents,
		versions:    versions,
		experiments: experiments,
		sections:    sections,
		retry:       DefaultRetryPolicy(),
	}
}

func ingestionFailure(format string, args ...any) *IngestionResult {
	return &IngestionResult{Error: fmt.Sprintf(format, args...)}
}

// Ingest resolves the experiment once up front so every version and section
// of the run lands under the same id, then routes on the trigger.
func (s *ingestionService) Ingest(ctx context.Context, trigger TriggerType, value string, experimentID string) *IngestionResult {
	if experimentID == "" {
		experimentID = uuid.NewString()
	}
	ctx, span := observability.Tracer().Start(ctx, "ingestion.Ingest",
		trace.WithAttributes(
			attribute.String("ingestion.trigger", string(trigger)),
			attribute.String("ingestion.experiment_id", experimentID),
		))
	defer span.End()
	s.log.Info("ingestion started", "trigger", trigger, "value", value, "experiment_id", experimentID)

	result := s.route(ctx, trigger, value, experimentID)
	result.ExperimentID = experimentID
	if !result.Success {
		span.SetStatus(codes.Error, result.Error)
	}
	return result
}

func (s *ingestionService) route(ctx context.Context, trigger TriggerType, value string, experimentID string) *IngestionResult {
	if _, err := s.experiments.GetOrCreate(dbctx.New(ctx), experimentID); err != nil {
		return ingestionFailure("resolve experiment %s: %v", experimentID, err)
	}

	switch trigger {
	case TriggerURN, TriggerURNList:
		s.logEvent(ctx, "CMS_AUTH_REQUEST", "CMS", "")
		if err := s.cms.Authenticate(ctx); err != nil {
			s.log.Error("CMS authentication failed", "error", err)
			return ingestionFailure("CMS authentication failed: %v", err)
		}
		s.logEvent(ctx, "CMS_TOKEN_ISSUED", "CMS", "")

		if trigger == TriggerURN {
			return s.ingestFromURN(ctx, strings.TrimSpace(value), experimentID)
		}
		return s.ingestFromURNList(ctx, value, experimentID)
	case TriggerBlobName:
		return s.ingestFromBlobName(ctx, value, experimentID)
	case TriggerFilepath:
		return s.ingestFromFilepath(ctx, value, experimentID)
	default:
		return ingestionFailure("Unknown trigger type: %s", trigger)
	}
}

// ingestFromURNList runs the single-URN path per comma-separated item. A
// failed item flips overall success and overwrites the reported error, but
// the remaining items still run.
func (s *ingestionService) ingestFromURNList(ctx context.Context, value string, experimentID string) *IngestionResult {
	overall := &IngestionResult{Success: true}
	for _, raw := range strings.Split(value, ",") {
		urn := strings.TrimSpace(raw)
		if urn == "" {
			continue
		}

		result := s.ingestFromURN(ctx, urn, experimentID)
		if !result.Success {
			overall.Success = false
			overall.Error = fmt.Sprintf("One or more URNs failed ingestion. Latest error: %s", result.Error)
			continue
		}
		overall.CaseIDs = append(overall.CaseIDs, result.CaseIDs...)
		overall.DocumentIDs = append(overall.DocumentIDs, result.DocumentIDs...)
		overall.VersionIDs = append(overall.VersionIDs, result.VersionIDs...)
		overall.SectionIDs = append(overall.SectionIDs, result.SectionIDs...)
	}
	return overall
}

// cmsDocument pairs a listing entry with its downloaded bytes so nothing is
// persisted for a case whose content could not be fetched.
type cmsDocument struct {
	info cms.DocumentInfo
	data []byte
}

func (s *ingestionService) ingestFromURN(ctx context.Context, urn string, experimentID string) *IngestionResult {
	s.log.Info("ingesting from URN", "urn", urn, "experiment_id", experimentID)
	s.logEvent(ctx, "CMS_METADATA_REQUEST", "URN", urn)

	caseID, err := s.cms.GetCaseIDFromURN(ctx, urn)
	if err != nil {
		return ingestionFailure("resolve case for urn %s: %v", urn, err)
	}

	caseRow := &domain.Case{ID: caseID, URN: urn}
	if summary, err := s.cms.GetCaseSummary(ctx, caseID); err == nil {
		caseRow.Finalised = summary.Finalised
		caseRow.AreaID = summary.AreaID
		caseRow.UnitID = summary.UnitID
		caseRow.RegistrationDate = summary.RegistrationDate
	} else {
		s.log.Warn("case summary unavailable", "case_id", caseID, "error", err)
	}

	docs, err := s.cms.ListCaseDocuments(ctx, caseID)
	if err != nil {
		return ingestionFailure("list documents for case %d: %v", caseID, err)
	}
	s.log.Debug("case documents listed", "case_id", caseID, "count", len(docs))

	var selected []cmsDocument
	for _, doc := range docs {
		if !slices.Contains(supportedDocCategories, doc.CMSDocCategory) {
			s.log.Debug("skipping document", "file", doc.OriginalFileName, "document_id", doc.ID, "reason", "category "+doc.CMSDocCategory)
			continue
		}
		if !slices.Contains(supportedDocTypes, doc.DocType) {
			s.log.Debug("skipping document", "file", doc.OriginalFileName, "document_id", doc.ID, "reason", "doc type "+doc.DocType)
			continue
		}
		if !slices.Contains(supportedMimeTypes, doc.MimeType) {
			s.log.Debug("skipping document", "file", doc.OriginalFileName, "document_id", doc.ID, "reason", "mime type "+doc.MimeType)
			continue
		}

		s.logEvent(ctx, "CMS_DOCUMENTS_REQUEST", "version", strconv.FormatInt(doc.VersionID, 10))
		data, err := s.cms.DownloadData(ctx, caseID, doc.ID, doc.VersionID)
		if err != nil {
			return ingestionFailure("download document %d version %d: %v", doc.ID, doc.VersionID, err)
		}
		selected = append(selected, cmsDocument{info: doc, data: data})
	}

	if len(selected) == 0 {
		s.log.Warn("no document selected", "case_id", caseID)
		return ingestionFailure("No document selected for case %d", caseID)
	}

	defendants, err := s.cms.GetCaseDefendants(ctx, caseID, true, true)
	if err != nil {
		return ingestionFailure("fetch defendants for case %d: %v", caseID, err)
	}
	s.log.Debug("case defendants fetched", "case_id", caseID, "count", len(defendants))

	return s.storeAndProcessCase(ctx, caseRow, defendants, selected, experimentID)
}

func (s *ingestionService) ingestFromBlobName(ctx context.Context, blobName string, experimentID string) *IngestionResult {
	s.log.Info("ingesting from blob", "blob_name", blobName, "experiment_id", experimentID)
	dbc := dbctx.New(ctx)

	caseRow, err := s.cases.Upsert(dbc, &domain.Case{URN: blobCaseURN})
	if err != nil {
		return ingestionFailure("store case: %v", err)
	}

	docRow, err := s.documents.Upsert(dbc, &domain.Document{
		CaseID:           caseRow.ID,
		OriginalFileName: path.Base(blobName),
	})
	if err != nil {
		return ingestionFailure("store document: %v", err)
	}

	sourceBucket, err := s.bucket.BucketName(gcp.BucketCategorySource)
	if err != nil {
		return ingestionFailure("resolve source bucket: %v", err)
	}

	verRow, err := s.versions.Upsert(dbc, &domain.Version{
		DocumentID:          docRow.ID,
		SourceBlobContainer: sourceBucket,
		SourceBlobName:      blobName,
	})
	if err != nil {
		return ingestionFailure("store version: %v", err)
	}

	result := s.processVersion(ctx, verRow, experimentID)
	result.CaseIDs = append(result.CaseIDs, caseRow.ID)
	return result
}

func (s *ingestionService) ingestFromFilepath(ctx context.Context, filePath string, experimentID string) *IngestionResult {
	s.log.Info("ingesting from filepath", "filepath", filePath, "experiment_id", experimentID)

	content, err := os.ReadFile(filePath)
	if err != nil {
		return ingestionFailure("Failed to read file: %v", err)
	}

	blobName := "FILEPATH/" + filepath.Base(filePath)
	if err := s.bucket.UploadBytes(ctx, gcp.BucketCategorySource, blobName, content); err != nil {
		return ingestionFailure("upload file %s: %v", blobName, err)
	}

	return s.ingestFromBlobName(ctx, blobName, experimentID)
}

// storeAndProcessCase persists the case graph, uploads each document's raw
// bytes, then processes every version. A version's processing failure is
// logged and its ids are dropped from the result; it does not fail the case.
func (s *ingestionService) storeAndProcessCase(
	ctx context.Context,
	caseRow *domain.Case,
	defendants []cms.Defendant,
	docs []cmsDocument,
	experimentID string,
) *IngestionResult {
	dbc := dbctx.New(ctx)

	caseRow, err := s.cases.Upsert(dbc, caseRow)
	if err != nil {
		return ingestionFailure("store case %s: %v", caseRow.URN, err)
	}
	result := &IngestionResult{Success: true, CaseIDs: []int64{caseRow.ID}}

	for _, d := range defendants {
		defRow, err := s.defendants.Upsert(dbc, &domain.Defendant{
			ID:        d.ID,
			CaseID:    caseRow.ID,
			DOB:       d.DOB,
			Gender:    d.Gender,
			Ethnicity: d.Ethnicity,
		})
		if err != nil {
			return ingestionFailure("store defendant %d: %v", d.ID, err)
		}

		for _, ch := range d.Charges {
			if _, err := s.charges.Upsert(dbc, &domain.Charge{
				ID:            ch.ID,
				DefendantID:   defRow.ID,
				Code:          ch.Code,
				Description:   ch.Description,
				LatestVerdict: ch.LatestVerdict,
			}); err != nil {
				return ingestionFailure("store charge %d: %v", ch.ID, err)
			}
		}
		for _, of := range d.Offences {
			if _, err := s.offences.Upsert(dbc, &domain.Offence{
				ID:          of.ID,
				DefendantID: defRow.ID,
				Code:        of.Code,
				Type:        of.Type,
				Description: of.Description,
				Active:      of.Active,
			}); err != nil {
				return ingestionFailure("store offence %d: %v", of.ID, err)
			}
		}
	}

	sourceBucket, err := s.bucket.BucketName(gcp.BucketCategorySource)
	if err != nil {
		return ingestionFailure("resolve source bucket: %v", err)
	}

	var versions []*domain.Version
	for _, doc := range docs {
		ext := doc.info.FileExtension
		if ext == "" {
			ext = filepath.Ext(doc.info.OriginalFileName)
		}

		blobName := fmt.Sprintf("%s/%d/%d_%d%s", experimentID, caseRow.ID, doc.info.ID, doc.info.VersionID, ext)
		if err := s.bucket.UploadBytes(ctx, gcp.BucketCategorySource, blobName, doc.data); err != nil {
			return ingestionFailure("upload document %d: %v", doc.info.ID, err)
		}

		docRow, err := s.documents.Upsert(dbc, &domain.Document{
			ID:               doc.info.ID,
			CaseID:           caseRow.ID,
			OriginalFileName: doc.info.OriginalFileName,
			CMSDocCategory:   doc.info.CMSDocCategory,
			DocType:          doc.info.DocType,
			FileExtension:    ext,
			MimeType:         doc.info.MimeType,
		})
		if err != nil {
			return ingestionFailure("store document %d: %v", doc.info.ID, err)
		}

		verRow, err := s.versions.Upsert(dbc, &domain.Version{
			ID:                  doc.info.VersionID,
			DocumentID:          docRow.ID,
			SourceBlobContainer: sourceBucket,
			SourceBlobName:      blobName,
		})
		if err != nil {
			return ingestionFailure("store version %d: %v", doc.info.VersionID, err)
		}
		versions = append(versions, verRow)
	}

	for _, version := range versions {
		vres := s.processVersion(ctx, version, experimentID)
		if !vres.Success {
			s.log.Warn("version processing failed",
				"document_id", version.DocumentID,
				"version_id", version.ID,
				"error", vres.Error,
			)
			continue
		}
		result.DocumentIDs = append(result.DocumentIDs, vres.DocumentIDs...)
		result.VersionIDs = append(result.VersionIDs, vres.VersionIDs...)
		result.SectionIDs = append(result.SectionIDs, vres.SectionIDs...)
	}

	return result
}

// processVersion parses one version's source blob, persists the parsed JSON,
// then extracts, redacts and stores sections. Section rows are created before
// their content blob; the pointers are back-filled once the write succeeds,
// so a crash leaves a row without pointers rather than an orphaned blob.
func (s *ingestionService) processVersion(ctx context.Context, version *domain.Version, experimentID string) *IngestionResult {
	dbc := dbctx.New(ctx)

	content, err := s.bucket.DownloadBytesFromBucket(ctx, version.SourceBlobContainer, version.SourceBlobName)
	if err != nil {
		return ingestionFailure("download source blob %s: %v", version.SourceBlobName, err)
	}

	mimeType := ""
	if docRow, err := s.documents.GetByID(dbc, version.DocumentID); err == nil {
		mimeType = docRow.MimeType
	}

	s.logEvent(ctx, "DOCUMENT_PARSE_REQUEST", "version", strconv.FormatInt(version.ID, 10))
	var parsed *gcp.ParseResult
	err = s.retry.Execute(ctx, func(ctx context.Context) error {
		var parseErr error
		parsed, parseErr = s.parser.Parse(ctx, content, mimeType)
		return parseErr
	})
	if err != nil {
		return ingestionFailure("parse version %d: %v", version.ID, err)
	}

	parsedJSON, err := parsed.JSON()
	if err != nil {
		return ingestionFailure("encode parse result for version %d: %v", version.ID, err)
	}

	parsedName := version.SourceBlobName + ".json"
	if err := s.bucket.UploadBytes(ctx, gcp.BucketCategoryProcessed, parsedName, parsedJSON); err != nil {
		return ingestionFailure("upload parsed blob %s: %v", parsedName, err)
	}

	processedBucket, err := s.bucket.BucketName(gcp.BucketCategoryProcessed)
	if err != nil {
		return ingestionFailure("resolve processed bucket: %v", err)
	}

	meta, _ := json.Marshal(map[string]any{
		"provider":  parsed.Provider,
		"processor": parsed.Processor,
		"pages":     len(parsed.Pages),
	})
	if err := s.versions.UpdateParsedPointers(dbc, version.ID, processedBucket, parsedName, datatypes.JSON(meta)); err != nil {
		return ingestionFailure("update parsed pointers for version %d: %v", version.ID, err)
	}

	result := &IngestionResult{
		Success:     true,
		DocumentIDs: []int64{version.DocumentID},
		VersionIDs:  []int64{version.ID},
	}

	s.logEvent(ctx, "SECTION_EXTRACTION_REQUEST", "version", strconv.FormatInt(version.ID, 10))
	sectionTexts, err := s.extractor.ExtractSections(ctx, parsed.Content)
	if err != nil {
		return ingestionFailure("extract sections for version %d: %v", version.ID, err)
	}

	sectionsBucket, err := s.bucket.BucketName(gcp.BucketCategorySections)
	if err != nil {
		return ingestionFailure("resolve sections bucket: %v", err)
	}

	for _, text := range sectionTexts {
		redacted, err := s.redactor.Redact(ctx, text)
		if err != nil {
			return ingestionFailure("redact section for version %d: %v", version.ID, err)
		}

		docID := version.DocumentID
		section, err := s.sections.Create(dbc, &domain.Section{
			ExperimentID:    experimentID,
			VersionID:       version.ID,
			DocumentID:      &docID,
			RedactedContent: redacted,
		})
		if err != nil {
			return ingestionFailure("store section for version %d: %v", version.ID, err)
		}

		contentName := fmt.Sprintf("%s/%d/%d.txt", experimentID, version.ID, section.ID)
		if err := s.bucket.UploadBytes(ctx, gcp.BucketCategorySections, contentName, []byte(text)); err != nil {
			return ingestionFailure("upload section blob %s: %v", contentName, err)
		}
		if err := s.sections.UpdateContentPointers(dbc, section.ID, sectionsBucket, contentName); err != nil {
			return ingestionFailure("update content pointers for section %d: %v", section.ID, err)
		}
		result.SectionIDs = append(result.SectionIDs, section.ID)
	}

	s.log.Info("version processed",
		"version_id", version.ID,
		"document_id", version.DocumentID,
		"sections", len(result.SectionIDs),
	)
	return result
}

func (s *ingestionService) logEvent(ctx context.Context, action, objectType, objectID string) {
	s.audit.Log(ctx, AuditEntry{
		Source:     "IngestionService",
		EventType:  "INGESTION",
		ActorID:    "INGESTION_ORCHESTRATOR",
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
	})
}
