package repos

import (
	"gorm.io/gorm"

	"github.com/caselens/caselens-backend/internal/data/repos/analysis"
	"github.com/caselens/caselens-backend/internal/data/repos/audit"
	"github.com/caselens/caselens-backend/internal/data/repos/casefile"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

type CaseRepo = casefile.CaseRepo
type DefendantRepo = casefile.DefendantRepo
type ChargeRepo = casefile.ChargeRepo
type OffenceRepo = casefile.OffenceRepo
type DocumentRepo = casefile.DocumentRepo
type VersionRepo = casefile.VersionRepo

type ExperimentRepo = analysis.ExperimentRepo
type SectionRepo = analysis.SectionRepo
type AnalysisJobRepo = analysis.AnalysisJobRepo
type AnalysisResultRepo = analysis.AnalysisResultRepo
type PromptTemplateRepo = analysis.PromptTemplateRepo

type EventRepo = audit.EventRepo

func NewCaseRepo(db *gorm.DB, baseLog *logger.Logger) CaseRepo { return casefile.NewCaseRepo(db, baseLog) }
func NewDefendantRepo(db *gorm.DB, baseLog *logger.Logger) DefendantRepo {
	return casefile.NewDefendantRepo(db, baseLog)
}
func NewChargeRepo(db *gorm.DB, baseLog *logger.Logger) ChargeRepo {
	return casefile.NewChargeRepo(db, baseLog)
}
func NewOffenceRepo(db *gorm.DB, baseLog *logger.Logger) OffenceRepo {
	return casefile.NewOffenceRepo(db, baseLog)
}
func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return casefile.NewDocumentRepo(db, baseLog)
}
func NewVersionRepo(db *gorm.DB, baseLog *logger.Logger) VersionRepo {
	return casefile.NewVersionRepo(db, baseLog)
}

func NewExperimentRepo(db *gorm.DB, baseLog *logger.Logger) ExperimentRepo {
	return analysis.NewExperimentRepo(db, baseLog)
}
func NewSectionRepo(db *gorm.DB, baseLog *logger.Logger) SectionRepo {
	return analysis.NewSectionRepo(db, baseLog)
}
func NewAnalysisJobRepo(db *gorm.DB, baseLog *logger.Logger) AnalysisJobRepo {
	return analysis.NewAnalysisJobRepo(db, baseLog)
}
func NewAnalysisResultRepo(db *gorm.DB, baseLog *logger.Logger) AnalysisResultRepo {
	return analysis.NewAnalysisResultRepo(db, baseLog)
}
func NewPromptTemplateRepo(db *gorm.DB, baseLog *logger.Logger) PromptTemplateRepo {
	return analysis.NewPromptTemplateRepo(db, baseLog)
}

func NewEventRepo(db *gorm.DB, baseLog *logger.Logger) EventRepo {
	return audit.NewEventRepo(db, baseLog)
}
