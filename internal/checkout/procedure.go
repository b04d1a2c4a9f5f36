package checkout

import (
	"context"
	"fmt"
	"time"

	"satchel/internal/analyzer"
	"satchel/internal/metadata"
	"satchel/internal/registry"
	"satchel/internal/stasher"
)

var (
	fileExtensions  = []string{"xml", "pdf"}
	imageExtensions = []string{"tif", "eps"}
)

// procedure performs the checkout of one attempt: static files go to the
// storage backend, then the article front goes to the catalog manager. It
// only mutates the in-memory attempt; persistence happens after the batch.
func (p *Processor) procedure(ctx context.Context, j *job) error {
	now := time.Now().UTC()
	j.attempt.CheckoutStartedAt = &now

	a, err := analyzer.Open(j.attempt.FilePath)
	if err != nil {
		return err
	}
	defer a.Close()

	uris, err := p.uploadFiles(ctx, a, j.pkg.AID)
	if err != nil {
		return err
	}
	imagesURI, err := p.uploadImages(ctx, a, j.pkg.AID)
	if err != nil {
		return err
	}

	front, err := metadata.ExtractFront(a.Document())
	if err != nil {
		return err
	}

	issue, err := p.registry.OneIssue(ctx, registry.IssueFilter{
		PrintISSN:      j.pkg.PrintISSN,
		ElectronicISSN: j.pkg.ElectronicISSN,
		Volume:         j.pkg.Volume,
		Number:         j.pkg.Number,
		SupplVolume:    j.pkg.SupplVolume,
		SupplNumber:    j.pkg.SupplNumber,
		Year:           j.pkg.Year,
	})
	if err != nil {
		return fmt.Errorf("resolve issue for attempt %d: %w", j.attempt.ID, err)
	}

	_, err = p.registry.PostArticle(ctx, registry.Article{
		Front:     frontPayload(front, issue),
		XMLURL:    uris["xml"],
		PDFURL:    uris["pdf"],
		ImagesURL: imagesURI,
	})
	if err != nil {
		return err
	}

	finished := time.Now().UTC()
	j.attempt.CheckoutFinishedAt = &finished
	return nil
}

func (p *Processor) uploadFiles(ctx context.Context, a *analyzer.Analyzer, aid string) (map[string]string, error) {
	uris := make(map[string]string, len(fileExtensions))
	for _, ext := range fileExtensions {
		for _, member := range a.Members(ext) {
			rc, err := member.Open()
			if err != nil {
				return nil, fmt.Errorf("open member %q: %w", member.Name, err)
			}
			uri, err := p.backend.Send(ctx, rc, stasher.TargetPath(aid, member.Name))
			rc.Close()
			if err != nil {
				return nil, err
			}
			uris[ext] = uri
		}
	}
	return uris, nil
}

func (p *Processor) uploadImages(ctx context.Context, a *analyzer.Analyzer, aid string) (string, error) {
	var names []string
	for _, ext := range imageExtensions {
		names = append(names, a.MemberNames(ext)...)
	}
	if len(names) == 0 {
		return "", nil
	}

	sub, err := a.Subarchive(names...)
	if err != nil {
		return "", err
	}
	return p.backend.Send(ctx, sub, stasher.TargetPath(aid, "images.zip"))
}

func frontPayload(front *metadata.Front, issue *registry.Issue) map[string]any {
	return map[string]any{
		"article-title":   front.ArticleTitle,
		"journal-title":   front.JournalTitle,
		"publisher-name":  front.PublisherName,
		"print-issn":      front.PrintISSN,
		"electronic-issn": front.ElectronicISSN,
		"volume":          front.Volume,
		"number":          front.Number,
		"year":            front.Year,
		"issue":           issue.ResourceURI,
	}
}
