package store

import "time"

// Point names a checkpoint in the lifecycle of an attempt.
type Point string

const (
	PointCheckin    Point = "checkin"
	PointValidation Point = "validation"
	PointCheckout   Point = "checkout"
)

// Valid reports whether the point is one of the known lifecycle points.
func (p Point) Valid() bool {
	switch p {
	case PointCheckin, PointValidation, PointCheckout:
		return true
	}
	return false
}

// Status classifies a notice recorded against a checkpoint.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"

	// Service markers bracket the notices of a single checkpoint session.
	StatusServiceBegin Status = "serv_begin"
	StatusServiceEnd   Status = "serv_end"
)

// ArticlePackage is the deduplicated identity of an article across attempts.
// The aid is minted once and reused by every resubmission of the same article.
type ArticlePackage struct {
	ID             int64     `db:"id"`
	AID            string    `db:"aid"`
	ArticleTitle   string    `db:"article_title"`
	JournalTitle   string    `db:"journal_title"`
	Year           string    `db:"year"`
	Volume         string    `db:"volume"`
	Number         string    `db:"number"`
	SupplVolume    string    `db:"suppl_volume"`
	SupplNumber    string    `db:"suppl_number"`
	PrintISSN      string    `db:"print_issn"`
	ElectronicISSN string    `db:"electronic_issn"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Attempt is one submission of a package archive.
type Attempt struct {
	ID                 int64      `db:"id"`
	PackageID          int64      `db:"package_id"`
	Checksum           string     `db:"checksum"`
	FilePath           string     `db:"file_path"`
	Submitter          string     `db:"submitter"`
	IsValid            bool       `db:"is_valid"`
	StartedAt          time.Time  `db:"started_at"`
	FinishedAt         *time.Time `db:"finished_at"`
	CheckinURI         *string    `db:"checkin_uri"`
	ProceedToCheckout  bool       `db:"proceed_to_checkout"`
	QueuedCheckout     bool       `db:"queued_checkout"`
	CheckoutStartedAt  *time.Time `db:"checkout_started_at"`
	CheckoutFinishedAt *time.Time `db:"checkout_finished_at"`
	CheckoutRetries    int        `db:"checkout_retries"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

// CheckedOut reports whether the attempt already completed checkout.
func (a *Attempt) CheckedOut() bool {
	return a.CheckoutFinishedAt != nil
}

// Checkpoint is the durable record of one lifecycle point for an attempt.
// At most one checkpoint exists per attempt and point.
type Checkpoint struct {
	ID        int64      `db:"id"`
	AttemptID int64      `db:"attempt_id"`
	Point     Point      `db:"point"`
	StartedAt *time.Time `db:"started_at"`
	EndedAt   *time.Time `db:"ended_at"`
}

// Active reports whether the checkpoint has started and not yet ended.
func (c *Checkpoint) Active() bool {
	return c.StartedAt != nil && c.EndedAt == nil
}

// Notice is a single stage outcome recorded under a checkpoint.
type Notice struct {
	ID           int64     `db:"id"`
	CheckpointID int64     `db:"checkpoint_id"`
	Stage        string    `db:"stage"`
	Status       Status    `db:"status"`
	Message      string    `db:"message"`
	CreatedAt    time.Time `db:"created_at"`
}
