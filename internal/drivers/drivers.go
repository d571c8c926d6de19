// Package drivers fetches the binaries the selenium engine drives:
// chromedriver, geckodriver and the Selenium Server jar.
package drivers

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/blang/semver/v4"
	"github.com/golang/glog"
	"github.com/google/go-github/v27/github"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
)

// minGeckoDriverVersion is the oldest geckodriver release the seleniumwd
// engine is known to work with.
var minGeckoDriverVersion = semver.MustParse("0.30.0")

// File describes one downloadable artifact.
type File struct {
	URL  string
	Name string
	// Rename moves an unpacked path to a stable name: from, to.
	Rename []string

	hash      string
	hashType  string // default is sha256
	directory string
}

func (f File) path() string {
	if f.directory != "" {
		return filepath.Join(f.directory, f.Name)
	}
	return f.Name
}

// SeleniumServerFile describes the pinned Selenium Server jar.
var SeleniumServerFile = File{
	URL:  "https://selenium-release.storage.googleapis.com/3.141/selenium-server-standalone-3.141.59.jar",
	Name: "selenium-server.jar",
	hash: "acf71b77d1b66b55db6fb0bed6d8bae2bbd481311bcbedfeff472c0d15e8f3cb",
}

// ChromeDriverFile resolves the chromedriver build paired with the latest
// chromium snapshot.
func ChromeDriverFile(ctx context.Context) (File, error) {
	const (
		// Bucket URL: https://console.cloud.google.com/storage/browser/chromium-browser-snapshots
		storageBktName       = "chromium-browser-snapshots"
		prefixLinux64        = "Linux_x64"
		lastChangeFile       = "Linux_x64/LAST_CHANGE"
		chromeDriverFilename = "chromedriver_linux64.zip"
	)
	gcsPath := fmt.Sprintf("gs://%s/", storageBktName)
	client, err := storage.NewClient(ctx, option.WithHTTPClient(http.DefaultClient))
	if err != nil {
		return File{}, fmt.Errorf("cannot create a storage client for downloading chromedriver: %v", err)
	}
	bkt := client.Bucket(storageBktName)
	r, err := bkt.Object(lastChangeFile).NewReader(ctx)
	if err != nil {
		return File{}, fmt.Errorf("cannot create a reader for %s%s: %v", gcsPath, lastChangeFile, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return File{}, fmt.Errorf("cannot read from %s%s: %v", gcsPath, lastChangeFile, err)
	}
	build := strings.TrimSpace(string(data))

	pkg := path.Join(prefixLinux64, build, chromeDriverFilename)
	attrs, err := bkt.Object(pkg).Attrs(ctx)
	if err != nil {
		return File{}, fmt.Errorf("cannot get the chromedriver package %s%s attrs: %v", gcsPath, pkg, err)
	}
	return File{
		URL:      attrs.MediaLink,
		Name:     "chromedriver.zip",
		Rename:   []string{"chromedriver_linux64/chromedriver", "chromedriver"},
		hash:     hex.EncodeToString(attrs.MD5),
		hashType: "md5",
	}, nil
}

// geckoVersion parses a geckodriver release tag and enforces the supported
// minimum.
func geckoVersion(tag string) (semver.Version, error) {
	v, err := semver.ParseTolerant(tag)
	if err != nil {
		return semver.Version{}, fmt.Errorf("cannot parse geckodriver release tag %q: %v", tag, err)
	}
	if v.LT(minGeckoDriverVersion) {
		return semver.Version{}, fmt.Errorf("geckodriver release %s is older than the supported minimum %s", v, minGeckoDriverVersion)
	}
	return v, nil
}

var geckoAssetPattern = regexp.MustCompile(`geckodriver-.*linux64\.tar\.gz$`)

// GeckoDriverFile resolves the latest geckodriver release on GitHub.
func GeckoDriverFile(ctx context.Context) (File, error) {
	client := github.NewClient(nil)
	rel, _, err := client.Repositories.GetLatestRelease(ctx, "mozilla", "geckodriver")
	if err != nil {
		return File{}, fmt.Errorf("cannot query the latest geckodriver release: %v", err)
	}
	if _, err := geckoVersion(rel.GetTagName()); err != nil {
		return File{}, err
	}
	for _, a := range rel.Assets {
		if !geckoAssetPattern.MatchString(a.GetName()) {
			continue
		}
		u := a.GetBrowserDownloadURL()
		if u == "" {
			return File{}, fmt.Errorf("%s does not have a download URL", a.GetName())
		}
		return File{URL: u, Name: "geckodriver.tar.gz"}, nil
	}
	return File{}, fmt.Errorf("no linux64 asset in geckodriver release %s", rel.GetTagName())
}

// Fetch downloads file into directory unless an identical copy is already
// there, then unpacks archives and applies renames. An empty directory means
// the current directory.
func Fetch(file File, directory string) error {
	file.directory = directory

	if file.hash != "" && fileSameHash(file) {
		glog.Infof("Skipping file %q which has already been downloaded.", file.Name)
	} else {
		glog.Infof("Downloading %q from %q", file.Name, file.URL)
		if err := downloadFile(file); err != nil {
			return err
		}
	}

	if err := unpackArchive(file); err != nil {
		return err
	}

	if rename := file.Rename; len(rename) == 2 {
		from := filepath.Join(file.directory, rename[0])
		to := filepath.Join(file.directory, rename[1])
		glog.Infof("Renaming %q to %q", from, to)
		os.RemoveAll(to) // Ignore error.
		if err := os.Rename(from, to); err != nil {
			glog.Warningf("Error renaming %q to %q: %v", from, to, err)
		}
	}
	return nil
}

// FetchAll downloads every artifact into directory in parallel.
func FetchAll(ctx context.Context, directory string) error {
	chromeDriver, err := ChromeDriverFile(ctx)
	if err != nil {
		return err
	}
	geckoDriver, err := GeckoDriverFile(ctx)
	if err != nil {
		return err
	}

	var wg errgroup.Group
	for _, file := range []File{SeleniumServerFile, chromeDriver, geckoDriver} {
		wg.Go(func() error {
			if err := Fetch(file, directory); err != nil {
				return fmt.Errorf("error handling %s: %v", file.Name, err)
			}
			return nil
		})
	}
	return wg.Wait()
}

func downloadFile(file File) (err error) {
	f, err := os.Create(file.path())
	if err != nil {
		return fmt.Errorf("error creating %q: %v", file.path(), err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("error closing %q: %v", file.path(), closeErr)
		}
	}()

	resp, err := http.Get(file.URL)
	if err != nil {
		return fmt.Errorf("%s: error downloading %q: %v", file.Name, file.URL, err)
	}
	defer resp.Body.Close()

	if file.hash == "" {
		if _, err := io.Copy(f, resp.Body); err != nil {
			return fmt.Errorf("%s: error downloading %q: %v", file.Name, file.URL, err)
		}
		return nil
	}
	h := newHash(file.hashType)
	if _, err := io.Copy(io.MultiWriter(f, h), resp.Body); err != nil {
		return fmt.Errorf("%s: error downloading %q: %v", file.Name, file.URL, err)
	}
	if sum := hex.EncodeToString(h.Sum(nil)); sum != file.hash {
		return fmt.Errorf("%s: got %s hash %q, want %q", file.Name, file.hashType, sum, file.hash)
	}
	return nil
}

func newHash(hashType string) hash.Hash {
	if strings.ToLower(hashType) == "md5" {
		return md5.New()
	}
	return sha256.New()
}

func fileSameHash(file File) bool {
	if _, err := os.Stat(file.path()); err != nil {
		return false
	}
	f, err := os.Open(file.path())
	if err != nil {
		return false
	}
	defer f.Close()

	h := newHash(file.hashType)
	if _, err := io.Copy(h, f); err != nil {
		return false
	}
	sum := hex.EncodeToString(h.Sum(nil))
	if sum != file.hash {
		glog.Warningf("File %q: got hash %q, expect hash %q", file.Name, sum, file.hash)
		return false
	}
	return true
}

func unpackArchive(file File) error {
	dir := file.directory
	if dir == "" {
		dir = "."
	}

	var unpackCmd []string
	switch path.Ext(file.Name) {
	case ".zip":
		unpackCmd = []string{"unzip", "-d", dir, "-o", file.path()}
	case ".gz":
		unpackCmd = []string{"tar", "-xzf", file.path(), "-C", dir}
	case ".bz2":
		unpackCmd = []string{"tar", "-xjf", file.path(), "-C", dir}
	default:
		return nil
	}

	glog.Infof("Unpacking %q", file.path())
	if err := exec.Command(unpackCmd[0], unpackCmd[1:]...).Run(); err != nil {
		return fmt.Errorf("error unpacking %q: %v", file.Name, err)
	}
	return nil
}
