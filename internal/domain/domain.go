package domain

import (
	"github.com/caselens/caselens-backend/internal/domain/analysis"
	"github.com/caselens/caselens-backend/internal/domain/audit"
	"github.com/caselens/caselens-backend/internal/domain/casefile"
)

type Case = casefile.Case
type Defendant = casefile.Defendant
type Charge = casefile.Charge
type Offence = casefile.Offence
type Document = casefile.Document
type Version = casefile.Version

type Experiment = analysis.Experiment
type Section = analysis.Section
type AnalysisJob = analysis.AnalysisJob
type AnalysisResult = analysis.AnalysisResult
type PromptTemplate = analysis.PromptTemplate

type Event = audit.Event

// AllModels lists every table for automigrate, parents before children.
func AllModels() []any {
	return []any{
		&Case{},
		&Defendant{},
		&Charge{},
		&Offence{},
		&Document{},
		&Version{},
		&Experiment{},
		&Section{},
		&AnalysisJob{},
		&AnalysisResult{},
		&PromptTemplate{},
		&Event{},
	}
}

// TableNames returns the table name of every model in AllModels order.
func TableNames() []string {
	models := AllModels()
	names := make([]string, 0, len(models))
	for _, m := range models {
		if named, ok := m.(interface{ TableName() string }); ok {
			names = append(names, named.TableName())
		}
	}
	return names
}
