package registry

import (
	"context"
	"fmt"
	"net/url"

	"satchel/internal/services"
)

// ISSNField selects which journal ISSN column a lookup filters on. The
// electronic field name carries the API's historical spelling.
type ISSNField string

const (
	PrintISSN      ISSNField = "print_issn"
	ElectronicISSN ISSNField = "eletronic_issn"
)

// FindJournal fetches the journal profile whose ISSN field matches issn.
// At most one result is requested; no match is services.ErrNotFound.
func (c *Client) FindJournal(ctx context.Context, field ISSNField, issn string) (*Journal, error) {
	params := url.Values{}
	params.Set(string(field), issn)
	params.Set("limit", "1")

	var envelope listEnvelope[Journal]
	if err := c.get(ctx, "journals", params, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Objects) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "registry", "find journal",
			fmt.Sprintf("no journal with %s %s", field, issn), nil)
	}
	return &envelope.Objects[0], nil
}

// IssueFilter narrows an issue lookup. Zero-valued fields are omitted. The
// ISSN fields tie the lookup to one journal; without them volume and number
// match across every journal the registry holds.
type IssueFilter struct {
	Journal        string
	PrintISSN      string
	ElectronicISSN string
	Volume         string
	Number         string
	SupplVolume    string
	SupplNumber    string
	Year           string
}

func (f IssueFilter) values() url.Values {
	params := url.Values{}
	set := func(key, value string) {
		if value != "" {
			params.Set(key, value)
		}
	}
	set("journal", f.Journal)
	set(string(PrintISSN), f.PrintISSN)
	set(string(ElectronicISSN), f.ElectronicISSN)
	set("volume", f.Volume)
	set("number", f.Number)
	set("suppl_volume", f.SupplVolume)
	set("suppl_number", f.SupplNumber)
	set("publication_year", f.Year)
	return params
}

// Issues lists the issues matching the filter.
func (c *Client) Issues(ctx context.Context, filter IssueFilter) ([]Issue, error) {
	var envelope listEnvelope[Issue]
	if err := c.get(ctx, "issues", filter.values(), &envelope); err != nil {
		return nil, err
	}
	return envelope.Objects, nil
}

// OneIssue fetches the single issue matching the filter. Zero matches is
// services.ErrNotFound; more than one means the filter is too loose and is
// reported as services.ErrDuplicate.
func (c *Client) OneIssue(ctx context.Context, filter IssueFilter) (*Issue, error) {
	issues, err := c.Issues(ctx, filter)
	if err != nil {
		return nil, err
	}
	switch len(issues) {
	case 0:
		return nil, services.Wrap(services.ErrNotFound, "registry", "one issue",
			"no issue matches the filter", nil)
	case 1:
		return &issues[0], nil
	default:
		return nil, services.Wrap(services.ErrDuplicate, "registry", "one issue",
			fmt.Sprintf("%d issues match the filter", len(issues)), nil)
	}
}

// PostArticle publishes the article front and file locations, returning the
// created resource URI.
func (c *Client) PostArticle(ctx context.Context, article Article) (string, error) {
	return c.post(ctx, "articles", article)
}

// PostCheckinArticle registers the article identity and returns its resource
// URI for the follow-up checkin post.
func (c *Client) PostCheckinArticle(ctx context.Context, article CheckinArticle) (string, error) {
	return c.post(ctx, "checkins_articles", article)
}

// PostCheckin records an accepted attempt and returns the checkin URI that
// later notices reference.
func (c *Client) PostCheckin(ctx context.Context, checkin Checkin) (string, error) {
	return c.post(ctx, "checkins", checkin)
}

// PostNotice mirrors one stage outcome to the catalog manager.
func (c *Client) PostNotice(ctx context.Context, notice Notice) error {
	_, err := c.post(ctx, "notices", notice)
	return err
}
