package services

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/caselens/caselens-backend/internal/clients/gcp"
	"github.com/caselens/caselens-backend/internal/data/repos"
	"github.com/caselens/caselens-backend/internal/pkg/dbctx"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

// CaseTreeReport counts what DeleteCaseTree removed at each level.
type CaseTreeReport struct {
	CaseID          int64 `json:"case_id"`
	Defendants      int   `json:"defendants"`
	Charges         int   `json:"charges"`
	Offences        int   `json:"offences"`
	Documents       int   `json:"documents"`
	Versions        int   `json:"versions"`
	Sections        int   `json:"sections"`
	AnalysisJobs    int   `json:"analysis_jobs"`
	AnalysisResults int   `json:"analysis_results"`
}

// CaseAdminService owns lifecycle operations spanning the whole case graph.
// Deletion is explicit child-before-parent; no DB-side cascades are relied on.
type CaseAdminService interface {
	DeleteCaseTree(ctx context.Context, caseID int64) (*CaseTreeReport, error)
}

type caseAdminService struct {
	log        *logger.Logger
	db         *gorm.DB
	bucket     gcp.BucketService
	audit      AuditService
	cases      repos.CaseRepo
	defendants repos.DefendantRepo
	charges    repos.ChargeRepo
	offences   repos.OffenceRepo
	documents  repos.DocumentRepo
	versions   repos.VersionRepo
	sections   repos.SectionRepo
	jobs       repos.AnalysisJobRepo
	results    repos.AnalysisResultRepo
}

func NewCaseAdminService(
	baseLog *logger.Logger,
	db *gorm.DB,
	bucket gcp.BucketService,
	audit AuditService,
	cases repos.CaseRepo,
	defendants repos.DefendantRepo,
	charges repos.ChargeRepo,
	offences repos.OffenceRepo,
	documents repos.DocumentRepo,
	versions repos.VersionRepo,
	sections repos.SectionRepo,
	jobs repos.AnalysisJobRepo,
	results repos.AnalysisResultRepo,
) CaseAdminService {
	return &caseAdminService{
		log:        baseLog.With("service", "CaseAdminService"),
		db:         db,
		bucket:     bucket,
		audit:      audit,
		cases:      cases,
		defendants: defendants,
		charges:    charges,
		offences:   offences,
		documents:  documents,
		versions:   versions,
		sections:   sections,
		jobs:       jobs,
		results:    results,
	}
}

type blobPrefix struct {
	category gcp.BucketCategory
	prefix   string
}

// DeleteCaseTree removes every row hanging off the case in one transaction,
// leaves up, then sweeps the convention-keyed blob prefixes. Blobs uploaded
// outside the {experiment}/{case} layout (blob_name and filepath triggers)
// are left in place.
func (s *caseAdminService) DeleteCaseTree(ctx context.Context, caseID int64) (*CaseTreeReport, error) {
	s.log.Info("deleting case tree", "case_id", caseID)

	report := &CaseTreeReport{CaseID: caseID}
	var prefixes []blobPrefix

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		if _, err := s.cases.GetByID(dbc, caseID); err != nil {
			return fmt.Errorf("case %d not found: %w", caseID, err)
		}

		// 1) Walk down the tree collecting ids.
		docs, err := s.documents.GetByCaseIDs(dbc, []int64{caseID})
		if err != nil {
			return fmt.Errorf("list documents for case %d: %w", caseID, err)
		}
		docIDs := make([]int64, 0, len(docs))
		for _, doc := range docs {
			docIDs = append(docIDs, doc.ID)
		}

		versions, err := s.versions.GetByDocumentIDs(dbc, docIDs)
		if err != nil {
			return fmt.Errorf("list versions for case %d: %w", caseID, err)
		}
		versionIDs := make([]int64, 0, len(versions))
		for _, version := range versions {
			versionIDs = append(versionIDs, version.ID)
		}

		sections, err := s.sections.GetByVersionIDs(dbc, versionIDs)
		if err != nil {
			return fmt.Errorf("list sections for case %d: %w", caseID, err)
		}
		sectionIDs := make([]int64, 0, len(sections))
		experimentIDs := map[string]bool{}
		sectionPrefixes := map[blobPrefix]bool{}
		for _, section := range sections {
			sectionIDs = append(sectionIDs, section.ID)
			if section.ExperimentID != "" {
				experimentIDs[section.ExperimentID] = true
				sectionPrefixes[blobPrefix{
					category: gcp.BucketCategorySections,
					prefix:   fmt.Sprintf("%s/%d/", section.ExperimentID, section.VersionID),
				}] = true
			}
		}

		jobs, err := s.jobs.GetBySectionIDs(dbc, sectionIDs)
		if err != nil {
			return fmt.Errorf("list analysis jobs for case %d: %w", caseID, err)
		}
		jobIDs := make([]int64, 0, len(jobs))
		for _, job := range jobs {
			jobIDs = append(jobIDs, job.ID)
			rows, err := s.results.GetByJobID(dbc, job.ID)
			if err != nil {
				return fmt.Errorf("list analysis results for job %d: %w", job.ID, err)
			}
			report.AnalysisResults += len(rows)
		}

		defendants, err := s.defendants.GetByCaseID(dbc, caseID)
		if err != nil {
			return fmt.Errorf("list defendants for case %d: %w", caseID, err)
		}
		defendantIDs := make([]int64, 0, len(defendants))
		for _, defendant := range defendants {
			defendantIDs = append(defendantIDs, defendant.ID)
		}
		charges, err := s.charges.GetByDefendantIDs(dbc, defendantIDs)
		if err != nil {
			return fmt.Errorf("list charges for case %d: %w", caseID, err)
		}
		offences, err := s.offences.GetByDefendantIDs(dbc, defendantIDs)
		if err != nil {
			return fmt.Errorf("list offences for case %d: %w", caseID, err)
		}

		// 2) Delete leaves up.
		if err := s.results.DeleteByJobIDs(dbc, jobIDs); err != nil {
			return fmt.Errorf("delete analysis results: %w", err)
		}
		if err := s.jobs.DeleteBySectionIDs(dbc, sectionIDs); err != nil {
			return fmt.Errorf("delete analysis jobs: %w", err)
		}
		if err := s.sections.DeleteByVersionIDs(dbc, versionIDs); err != nil {
			return fmt.Errorf("delete sections: %w", err)
		}
		if err := s.versions.DeleteByDocumentIDs(dbc, docIDs); err != nil {
			return fmt.Errorf("delete versions: %w", err)
		}
		if err := s.documents.DeleteByCaseIDs(dbc, []int64{caseID}); err != nil {
			return fmt.Errorf("delete documents: %w", err)
		}
		if err := s.charges.DeleteByDefendantIDs(dbc, defendantIDs); err != nil {
			return fmt.Errorf("delete charges: %w", err)
		}
		if err := s.offences.DeleteByDefendantIDs(dbc, defendantIDs); err != nil {
			return fmt.Errorf("delete offences: %w", err)
		}
		if err := s.defendants.DeleteByCaseIDs(dbc, []int64{caseID}); err != nil {
			return fmt.Errorf("delete defendants: %w", err)
		}
		if err := s.cases.DeleteByIDs(dbc, []int64{caseID}); err != nil {
			return fmt.Errorf("delete case: %w", err)
		}

		report.Defendants = len(defendants)
		report.Charges = len(charges)
		report.Offences = len(offences)
		report.Documents = len(docs)
		report.Versions = len(versions)
		report.Sections = len(sections)
		report.AnalysisJobs = len(jobs)

		for expID := range experimentIDs {
			casePrefix := fmt.Sprintf("%s/%d/", expID, caseID)
			prefixes = append(prefixes, blobPrefix{category: gcp.BucketCategorySource, prefix: casePrefix})
			prefixes = append(prefixes, blobPrefix{category: gcp.BucketCategoryProcessed, prefix: casePrefix})
		}
		for p := range sectionPrefixes {
			prefixes = append(prefixes, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 3) Blob sweep after commit. Rows are gone, so a failed sweep only
	// strands unreferenced objects.
	for _, p := range prefixes {
		if err := s.bucket.DeletePrefix(ctx, p.category, p.prefix); err != nil {
			s.log.Warn("blob sweep failed", "category", p.category, "prefix", p.prefix, "error", err)
		}
	}

	s.audit.Log(ctx, AuditEntry{
		Source:     "CaseAdminService",
		EventType:  "CASE_ADMIN",
		ActorID:    "CASE_ADMIN",
		Action:     "CASE_TREE_DELETE",
		ObjectType: "case",
		ObjectID:   strconv.FormatInt(caseID, 10),
	})
	s.log.Info("case tree deleted",
		"case_id", caseID,
		"documents", report.Documents,
		"versions", report.Versions,
		"sections", report.Sections,
		"analysis_jobs", report.AnalysisJobs,
		"analysis_results", report.AnalysisResults,
	)
	return report, nil
}
