package validation

import (
	"context"
	"fmt"

	"satchel/internal/metadata"
	"satchel/internal/pipeline"
	"satchel/internal/store"
)

// PublisherNameValidator compares the publisher name in the article against
// the journal profile, after whitespace and case normalization.
type PublisherNameValidator struct{}

func (PublisherNameValidator) Name() string { return "publisher name" }

func (PublisherNameValidator) Validate(_ context.Context, env *pipeline.Envelope) (pipeline.Result, error) {
	if env.Journal == nil || env.Journal.PublisherName == "" {
		return pipeline.Result{Status: store.StatusError, Message: "missing publisher name in journal"}, nil
	}

	el := env.Analyzer.Document().FindElement(".//publisher-name")
	if el == nil || el.Text() == "" {
		return pipeline.Result{Status: store.StatusError, Message: "missing publisher-name in article"}, nil
	}

	if metadata.Normalize(el.Text()) == metadata.Normalize(env.Journal.PublisherName) {
		return pipeline.Result{Status: store.StatusOK}, nil
	}
	return pipeline.Result{
		Status:  store.StatusError,
		Message: fmt.Sprintf("%s [journal]\n%s [article]", env.Journal.PublisherName, el.Text()),
	}, nil
}

// JournalISSNValidator checks that the article carries at least one well
// formed ISSN matching the resolved journal profile.
type JournalISSNValidator struct{}

func (JournalISSNValidator) Name() string { return "journal issn" }

func (JournalISSNValidator) Validate(_ context.Context, env *pipeline.Envelope) (pipeline.Result, error) {
	pissn := env.Package.PrintISSN
	eissn := env.Package.ElectronicISSN

	if pissn == "" && eissn == "" {
		return pipeline.Result{Status: store.StatusError, Message: "article carries no issn"}, nil
	}
	for _, issn := range []string{pissn, eissn} {
		if issn != "" && !metadata.IsValidISSN(issn) {
			return pipeline.Result{Status: store.StatusError,
				Message: fmt.Sprintf("%s is not a valid issn", issn)}, nil
		}
	}
	if env.Journal == nil {
		return pipeline.Result{Status: store.StatusError, Message: "no journal matches the article issns"}, nil
	}
	if pissn != "" && env.Journal.PrintISSN != "" && pissn != env.Journal.PrintISSN {
		return pipeline.Result{Status: store.StatusError,
			Message: fmt.Sprintf("print issn %s does not match journal %s", pissn, env.Journal.PrintISSN)}, nil
	}
	if eissn != "" && env.Journal.ElectronicISSN != "" && eissn != env.Journal.ElectronicISSN {
		return pipeline.Result{Status: store.StatusError,
			Message: fmt.Sprintf("electronic issn %s does not match journal %s", eissn, env.Journal.ElectronicISSN)}, nil
	}
	return pipeline.Result{Status: store.StatusOK}, nil
}

// FundingValidator warns when the article declares no funding group. Absence
// is legitimate for unfunded research, so it never fails the attempt.
type FundingValidator struct{}

func (FundingValidator) Name() string { return "funding group" }

func (FundingValidator) Validate(_ context.Context, env *pipeline.Envelope) (pipeline.Result, error) {
	if env.Analyzer.Document().FindElement(".//funding-group") == nil {
		return pipeline.Result{Status: store.StatusWarning,
			Message: "this xml does not have funding-group"}, nil
	}
	return pipeline.Result{Status: store.StatusOK}, nil
}

// ReferencesValidator checks the journal citations in the reference list:
// each needs source, article-title, and year, all with content.
type ReferencesValidator struct{}

func (ReferencesValidator) Name() string { return "references" }

func (ReferencesValidator) Validate(_ context.Context, env *pipeline.Envelope) (pipeline.Result, error) {
	refs := env.Analyzer.Document().FindElements(".//ref-list/ref/nlm-citation[@citation-type='journal']")
	if len(refs) == 0 {
		return pipeline.Result{Status: store.StatusWarning,
			Message: "this xml does not have reference list"}, nil
	}

	for _, ref := range refs {
		for _, tag := range []string{"source", "article-title", "year"} {
			el := ref.FindElement(tag)
			if el == nil {
				return pipeline.Result{Status: store.StatusError,
					Message: "missing some tag in reference list"}, nil
			}
			if el.Text() == "" {
				return pipeline.Result{Status: store.StatusError,
					Message: "missing content on reference tags: source, article-title or year"}, nil
			}
		}
	}
	return pipeline.Result{Status: store.StatusOK}, nil
}
