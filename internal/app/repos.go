package app

import (
	"gorm.io/gorm"

	"github.com/caselens/caselens-backend/internal/data/repos"
	"github.com/caselens/caselens-backend/internal/pkg/logger"
)

type Repos struct {
	Case      repos.CaseRepo
	Defendant repos.DefendantRepo
	Charge    repos.ChargeRepo
	Offence   repos.OffenceRepo
	Document  repos.DocumentRepo
	Version   repos.VersionRepo

	Experiment     repos.ExperimentRepo
	Section        repos.SectionRepo
	AnalysisJob    repos.AnalysisJobRepo
	AnalysisResult repos.AnalysisResultRepo
	PromptTemplate repos.PromptTemplateRepo

	Event repos.EventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Case:      repos.NewCaseRepo(db, log),
		Defendant: repos.NewDefendantRepo(db, log),
		Charge:    repos.NewChargeRepo(db, log),
		Offence:   repos.NewOffenceRepo(db, log),
		Document:  repos.NewDocumentRepo(db, log),
		Version:   repos.NewVersionRepo(db, log),

		Experiment:     repos.NewExperimentRepo(db, log),
		Section:        repos.NewSectionRepo(db, log),
		AnalysisJob:    repos.NewAnalysisJobRepo(db, log),
		AnalysisResult: repos.NewAnalysisResultRepo(db, log),
		PromptTemplate: repos.NewPromptTemplateRepo(db, log),

		Event: repos.NewEventRepo(db, log),
	}
}
