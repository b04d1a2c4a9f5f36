package analyzer

import (
	"archive/zip"
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/beevik/etree"

	"satchel/internal/services"
)

// Analyzer exposes the members of a submission package archive, its parsed
// article document, and an exclusive lock held while the package is being
// processed.
type Analyzer struct {
	path    string
	archive *zip.ReadCloser
	doc     *etree.Document
	xmlName string
	lock    *packageLock
}

// Member is a named, readable archive entry.
type Member struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// Open reads the package archive at path and parses its article XML. Packages
// without a single XML member are rejected.
func Open(path string) (*Analyzer, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open package %q: %w", path, err)
	}

	a := &Analyzer{path: path, archive: archive, lock: newPackageLock(path)}
	if err := a.parseDocument(); err != nil {
		_ = archive.Close()
		return nil, err
	}
	return a, nil
}

// Path returns the filesystem location of the archive.
func (a *Analyzer) Path() string {
	return a.path
}

// Members returns the archive entries carrying the given extension, ordered by
// name. The extension is matched case-insensitively and without the dot.
func (a *Analyzer) Members(ext string) []Member {
	var members []Member
	for _, f := range a.archive.File {
		if !hasExtension(f.Name, ext) {
			continue
		}
		file := f
		members = append(members, Member{
			Name: path.Base(file.Name),
			Open: func() (io.ReadCloser, error) { return file.Open() },
		})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
	return members
}

// MemberNames returns the names of the archive entries carrying the given
// extension.
func (a *Analyzer) MemberNames(ext string) []string {
	members := a.Members(ext)
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Name)
	}
	return names
}

// Subarchive bundles the named members into a fresh in-memory zip archive.
func (a *Analyzer) Subarchive(names ...string) (io.Reader, error) {
	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[name] = struct{}{}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range a.archive.File {
		base := path.Base(f.Name)
		if _, ok := wanted[base]; !ok {
			continue
		}
		delete(wanted, base)

		src, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("subarchive: open member %q: %w", f.Name, err)
		}
		dst, err := zw.Create(base)
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("subarchive: create member %q: %w", base, err)
		}
		if _, err := io.Copy(dst, src); err != nil {
			src.Close()
			return nil, fmt.Errorf("subarchive: copy member %q: %w", base, err)
		}
		src.Close()
	}
	if len(wanted) > 0 {
		missing := make([]string, 0, len(wanted))
		for name := range wanted {
			missing = append(missing, name)
		}
		sort.Strings(missing)
		return nil, services.Wrap(services.ErrNotFound, "analyzer", "subarchive",
			fmt.Sprintf("members not in package: %s", strings.Join(missing, ", ")), nil)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("subarchive: finalize: %w", err)
	}
	return bytes.NewReader(buf.Bytes()), nil
}

// Document returns the parsed article XML.
func (a *Analyzer) Document() *etree.Document {
	return a.doc
}

// XMLName returns the file name of the article XML member.
func (a *Analyzer) XMLName() string {
	return a.xmlName
}

// Checksum computes the digest identifying the package contents, used for
// duplicate submission detection.
func (a *Analyzer) Checksum() (string, error) {
	f, err := os.Open(a.path)
	if err != nil {
		return "", fmt.Errorf("checksum: open %q: %w", a.path, err)
	}
	defer f.Close()

	hash := sha1.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", fmt.Errorf("checksum: read %q: %w", a.path, err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// Close releases the archive handle. Any held lock is restored first.
func (a *Analyzer) Close() error {
	if a == nil || a.archive == nil {
		return nil
	}
	_ = a.Restore()
	return a.archive.Close()
}

func (a *Analyzer) parseDocument() error {
	xmls := a.Members("xml")
	if len(xmls) == 0 {
		return services.Wrap(services.ErrValidation, "analyzer", "parse",
			fmt.Sprintf("package %q has no xml member", a.path), nil)
	}

	member := xmls[0]
	rc, err := member.Open()
	if err != nil {
		return fmt.Errorf("open xml member %q: %w", member.Name, err)
	}
	defer rc.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(rc); err != nil {
		return services.Wrap(services.ErrValidation, "analyzer", "parse",
			fmt.Sprintf("xml member %q is not well formed", member.Name), err)
	}

	a.doc = doc
	a.xmlName = member.Name
	return nil
}

func hasExtension(name, ext string) bool {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		return false
	}
	return strings.EqualFold(strings.TrimPrefix(path.Ext(name), "."), ext)
}
