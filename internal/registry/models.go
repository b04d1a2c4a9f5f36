package registry

// Journal is the catalog profile matched against a submission during
// validation.
type Journal struct {
	ResourceURI    string `json:"resource_uri"`
	Title          string `json:"title"`
	PublisherName  string `json:"publisher_name"`
	PrintISSN      string `json:"print_issn"`
	ElectronicISSN string `json:"eletronic_issn"`
}

// Issue is a published issue of a journal.
type Issue struct {
	ResourceURI     string `json:"resource_uri"`
	Journal         string `json:"journal"`
	Volume          string `json:"volume"`
	Number          string `json:"number"`
	SupplVolume     string `json:"suppl_volume"`
	SupplNumber     string `json:"suppl_number"`
	PublicationYear string `json:"publication_year"`
}

// Article is the front metadata posted when an attempt is checked out,
// together with the static locations of its files.
type Article struct {
	Front     map[string]any `json:"front"`
	XMLURL    string         `json:"xml_url"`
	PDFURL    string         `json:"pdf_url,omitempty"`
	ImagesURL string         `json:"images_url,omitempty"`
}

// CheckinArticle registers the article identity ahead of its first checkin.
type CheckinArticle struct {
	PackageRef     string `json:"articlepkg_ref"`
	ArticleTitle   string `json:"article_title"`
	JournalTitle   string `json:"journal_title"`
	IssueLabel     string `json:"issue_label"`
	PrintISSN      string `json:"pissn"`
	ElectronicISSN string `json:"eissn"`
}

// Checkin is the record of one accepted submission attempt, bound to a
// previously registered checkin article.
type Checkin struct {
	AttemptRef  string `json:"attempt_ref"`
	PackageName string `json:"package_name"`
	UploadedAt  string `json:"uploaded_at"`
	Article     string `json:"article"`
	Submitter   string `json:"submitted_by,omitempty"`
}

// Notice mirrors one stage outcome, posted against the checkin of the
// attempt being processed.
type Notice struct {
	Checkin    string `json:"checkin"`
	Stage      string `json:"stage"`
	Checkpoint string `json:"checkpoint"`
	Message    string `json:"message"`
	Status     string `json:"status"`
}
