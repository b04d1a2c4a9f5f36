package metadata

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Front carries the front-matter metadata extracted from an article XML
// document. String fields are empty when the document omits them.
type Front struct {
	ArticleTitle   string
	JournalTitle   string
	PublisherName  string
	PrintISSN      string
	ElectronicISSN string
	Volume         string
	Number         string
	SupplVolume    string
	SupplNumber    string
	Year           string
}

// ExtractFront pulls the identifying metadata out of a parsed article
// document. Absent elements are not an error; completeness is judged by the
// caller via Complete.
func ExtractFront(doc *etree.Document) (*Front, error) {
	if doc == nil || doc.Root() == nil {
		return nil, fmt.Errorf("front matter: empty document")
	}

	front := &Front{
		ArticleTitle:   findText(doc, "//article-meta/title-group/article-title"),
		JournalTitle:   findText(doc, "//journal-meta/journal-title-group/journal-title"),
		PublisherName:  findText(doc, "//publisher-name"),
		PrintISSN:      issnByPubType(doc, "ppub"),
		ElectronicISSN: issnByPubType(doc, "epub"),
		Year:           findText(doc, "//article-meta/pub-date/year"),
	}
	if front.JournalTitle == "" {
		front.JournalTitle = findText(doc, "//journal-meta/journal-title")
	}

	volume := findText(doc, "//article-meta/volume")
	issue := findText(doc, "//article-meta/issue")
	front.Volume, front.SupplVolume, front.Number, front.SupplNumber = IssueIdentification(volume, issue, "")

	return front, nil
}

// Complete reports whether the metadata needed to bind an article package is
// all present.
func (f *Front) Complete() bool {
	if f == nil {
		return false
	}
	if strings.TrimSpace(f.ArticleTitle) == "" || strings.TrimSpace(f.JournalTitle) == "" {
		return false
	}
	return strings.TrimSpace(f.PrintISSN) != "" || strings.TrimSpace(f.ElectronicISSN) != ""
}

// IssueLabel renders the human-facing issue identity, e.g. "v29n3" or
// "v29sv1".
func (f *Front) IssueLabel() string {
	var b strings.Builder
	if f.Volume != "" {
		b.WriteString("v")
		b.WriteString(f.Volume)
	}
	if f.Number != "" {
		b.WriteString("n")
		b.WriteString(f.Number)
	}
	if f.SupplVolume != "" {
		b.WriteString("sv")
		b.WriteString(f.SupplVolume)
	}
	if f.SupplNumber != "" {
		b.WriteString("sn")
		b.WriteString(f.SupplNumber)
	}
	return b.String()
}

func findText(doc *etree.Document, path string) string {
	if el := doc.FindElement(path); el != nil {
		return strings.TrimSpace(el.Text())
	}
	return ""
}

func issnByPubType(doc *etree.Document, pubType string) string {
	for _, el := range doc.FindElements("//journal-meta/issn") {
		if el.SelectAttrValue("pub-type", "") == pubType {
			return strings.TrimSpace(el.Text())
		}
	}
	return ""
}
