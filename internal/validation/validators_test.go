package validation_test

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"satchel/internal/analyzer"
	"satchel/internal/pipeline"
	"satchel/internal/registry"
	"satchel/internal/store"
	"satchel/internal/validation"
)

const defaultArticleXML = `<?xml version="1.0"?>
<article>
  <front>
    <journal-meta>
      <journal-title-group>
        <journal-title>Revista de Saude Publica</journal-title>
      </journal-title-group>
      <issn pub-type="ppub">0102-6720</issn>
      <publisher>
        <publisher-name>Faculdade de Saude Publica</publisher-name>
      </publisher>
    </journal-meta>
    <article-meta>
      <title-group>
        <article-title>On the care of things</article-title>
      </title-group>
      <volume>29</volume>
      <issue>3</issue>
      <pub-date><year>2013</year></pub-date>
      <funding-group>
        <award-group><funding-source>CNPq</funding-source></award-group>
      </funding-group>
    </article-meta>
  </front>
  <back>
    <ref-list>
      <ref>
        <nlm-citation citation-type="journal">
          <source>Cad Saude Publica</source>
          <article-title>Some cited work</article-title>
          <year>2010</year>
        </nlm-citation>
      </ref>
    </ref-list>
  </back>
</article>`

func writePackage(t *testing.T, dir, xml string) string {
	t.Helper()
	path := filepath.Join(dir, "0102-6720-rsp-29-03.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("0102-6720-rsp-29-03.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(xml))
	require.NoError(t, err)
	w, err = zw.Create("0102-6720-rsp-29-03.pdf")
	require.NoError(t, err)
	_, err = w.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func envelopeFor(t *testing.T, xml string, journal *registry.Journal) *pipeline.Envelope {
	t.Helper()
	a, err := analyzer.Open(writePackage(t, t.TempDir(), xml))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	return &pipeline.Envelope{
		Attempt:  &store.Attempt{ID: 1, IsValid: true},
		Package:  &store.ArticlePackage{PrintISSN: "0102-6720"},
		Analyzer: a,
		Journal:  journal,
	}
}

func TestPublisherNameValidator(t *testing.T) {
	cases := []struct {
		name       string
		journal    *registry.Journal
		wantStatus store.Status
	}{
		{
			name:       "match after normalization",
			journal:    &registry.Journal{PublisherName: "  faculdade de saude publica "},
			wantStatus: store.StatusOK,
		},
		{
			name:       "mismatch",
			journal:    &registry.Journal{PublisherName: "Another Publisher"},
			wantStatus: store.StatusError,
		},
		{
			name:       "journal without publisher name",
			journal:    &registry.Journal{},
			wantStatus: store.StatusError,
		},
		{
			name:       "no journal resolved",
			journal:    nil,
			wantStatus: store.StatusError,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := envelopeFor(t, defaultArticleXML, tc.journal)
			result, err := validation.PublisherNameValidator{}.Validate(context.Background(), env)
			require.NoError(t, err)
			require.Equal(t, tc.wantStatus, result.Status)
		})
	}
}

func TestJournalISSNValidator(t *testing.T) {
	env := envelopeFor(t, defaultArticleXML, &registry.Journal{PrintISSN: "0102-6720"})
	result, err := validation.JournalISSNValidator{}.Validate(context.Background(), env)
	require.NoError(t, err)
	require.Equal(t, store.StatusOK, result.Status)

	env.Journal = &registry.Journal{PrintISSN: "2049-3630"}
	result, err = validation.JournalISSNValidator{}.Validate(context.Background(), env)
	require.NoError(t, err)
	require.Equal(t, store.StatusError, result.Status)

	env.Package = &store.ArticlePackage{PrintISSN: "not-an-issn"}
	result, err = validation.JournalISSNValidator{}.Validate(context.Background(), env)
	require.NoError(t, err)
	require.Equal(t, store.StatusError, result.Status)

	env.Package = &store.ArticlePackage{}
	result, err = validation.JournalISSNValidator{}.Validate(context.Background(), env)
	require.NoError(t, err)
	require.Equal(t, store.StatusError, result.Status)
}

func TestFundingValidator(t *testing.T) {
	env := envelopeFor(t, defaultArticleXML, nil)
	result, err := validation.FundingValidator{}.Validate(context.Background(), env)
	require.NoError(t, err)
	require.Equal(t, store.StatusOK, result.Status)

	withoutFunding := `<?xml version="1.0"?><article><front/></article>`
	// a package needs an xml member even when it is minimal
	env = envelopeFor(t, withoutFunding, nil)
	result, err = validation.FundingValidator{}.Validate(context.Background(), env)
	require.NoError(t, err)
	require.Equal(t, store.StatusWarning, result.Status)
	require.Equal(t, "this xml does not have funding-group", result.Message)
}

func TestReferencesValidator(t *testing.T) {
	cases := []struct {
		name       string
		refList    string
		wantStatus store.Status
	}{
		{
			name: "complete reference",
			refList: `<ref-list><ref><nlm-citation citation-type="journal">
				<source>S</source><article-title>T</article-title><year>2010</year>
			</nlm-citation></ref></ref-list>`,
			wantStatus: store.StatusOK,
		},
		{
			name: "missing tag",
			refList: `<ref-list><ref><nlm-citation citation-type="journal">
				<source>S</source><year>2010</year>
			</nlm-citation></ref></ref-list>`,
			wantStatus: store.StatusError,
		},
		{
			name: "empty content",
			refList: `<ref-list><ref><nlm-citation citation-type="journal">
				<source></source><article-title>T</article-title><year>2010</year>
			</nlm-citation></ref></ref-list>`,
			wantStatus: store.StatusError,
		},
		{
			name:       "no reference list",
			refList:    ``,
			wantStatus: store.StatusWarning,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			xml := fmt.Sprintf(`<?xml version="1.0"?><article><front/><back>%s</back></article>`, tc.refList)
			env := envelopeFor(t, xml, nil)
			result, err := validation.ReferencesValidator{}.Validate(context.Background(), env)
			require.NoError(t, err)
			require.Equal(t, tc.wantStatus, result.Status)
		})
	}
}
