package analyzer_test

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"satchel/internal/analyzer"
)

func writePackage(t *testing.T, name string, members map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for member, body := range members {
		w, err := zw.Create(member)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func validPackage(t *testing.T) string {
	t.Helper()
	return writePackage(t, "0102-6720-rsp-29-03.zip", map[string]string{
		"0102-6720-rsp-29-03.xml": `<article><front/></article>`,
		"0102-6720-rsp-29-03.pdf": "%PDF-1.4",
		"img/fig01.tif":           "IMAGE",
		"img/fig02.jpeg":          "IMAGE",
	})
}

func TestOpenRejectsPackageWithoutXML(t *testing.T) {
	path := writePackage(t, "broken.zip", map[string]string{"doc.pdf": "%PDF"})
	_, err := analyzer.Open(path)
	require.Error(t, err)
}

func TestOpenRejectsMalformedXML(t *testing.T) {
	path := writePackage(t, "broken.zip", map[string]string{"doc.xml": "<article>"})
	_, err := analyzer.Open(path)
	require.Error(t, err)
}

func TestMembers(t *testing.T) {
	a, err := analyzer.Open(validPackage(t))
	require.NoError(t, err)
	defer a.Close()

	require.Equal(t, []string{"0102-6720-rsp-29-03.xml"}, a.MemberNames("xml"))
	require.Equal(t, []string{"0102-6720-rsp-29-03.pdf"}, a.MemberNames(".pdf"))
	require.Equal(t, []string{"fig01.tif"}, a.MemberNames("tif"))
	require.Empty(t, a.MemberNames("mp4"))
	require.Equal(t, "0102-6720-rsp-29-03.xml", a.XMLName())
	require.NotNil(t, a.Document().FindElement("//front"))
}

func TestSubarchive(t *testing.T) {
	a, err := analyzer.Open(validPackage(t))
	require.NoError(t, err)
	defer a.Close()

	r, err := a.Subarchive("fig01.tif", "fig02.jpeg")
	require.NoError(t, err)

	data, err := io.ReadAll(r)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "images.zip")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 2)
}

func TestSubarchiveMissingMember(t *testing.T) {
	a, err := analyzer.Open(validPackage(t))
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Subarchive("fig99.tif")
	require.Error(t, err)
}

func TestChecksumIsStable(t *testing.T) {
	path := validPackage(t)

	a, err := analyzer.Open(path)
	require.NoError(t, err)
	first, err := a.Checksum()
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := analyzer.Open(path)
	require.NoError(t, err)
	second, err := b.Checksum()
	require.NoError(t, err)
	require.NoError(t, b.Close())

	require.Equal(t, first, second)
	require.Len(t, first, 40)
}

func TestLockRestore(t *testing.T) {
	path := validPackage(t)
	require.NoError(t, os.Chmod(path, 0o644))

	a, err := analyzer.Open(path)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Lock())
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o444), info.Mode().Perm())

	require.NoError(t, a.Restore())
	info, err = os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	// restoring twice is harmless
	require.NoError(t, a.Restore())
}

func TestMarkFailed(t *testing.T) {
	path := validPackage(t)

	renamed, err := analyzer.MarkFailed(path)
	require.NoError(t, err)
	require.Equal(t, "_failed_"+filepath.Base(path), filepath.Base(renamed))
	require.True(t, analyzer.IsMarkedFailed(renamed))
	require.NoFileExists(t, path)

	again, err := analyzer.MarkFailed(renamed)
	require.NoError(t, err)
	require.Equal(t, renamed, again)
}
