package drivers

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestGeckoVersion(t *testing.T) {
	tests := []struct {
		tag     string
		wantErr bool
	}{
		{"v0.34.0", false},
		{"0.30.0", false},
		{"v0.24.0", true},
		{"nightly", true},
	}
	for _, tc := range tests {
		_, err := geckoVersion(tc.tag)
		if gotErr := err != nil; gotErr != tc.wantErr {
			t.Errorf("geckoVersion(%q) error = %v, want error: %v", tc.tag, err, tc.wantErr)
		}
	}
}

func TestGeckoAssetPattern(t *testing.T) {
	tests := []struct {
		asset string
		want  bool
	}{
		{"geckodriver-v0.34.0-linux64.tar.gz", true},
		{"geckodriver-v0.34.0-macos.tar.gz", false},
		{"geckodriver-v0.34.0-linux64.tar.gz.asc", false},
	}
	for _, tc := range tests {
		if got := geckoAssetPattern.MatchString(tc.asset); got != tc.want {
			t.Errorf("pattern match %q = %v, want %v", tc.asset, got, tc.want)
		}
	}
}

func TestFilePath(t *testing.T) {
	f := File{Name: "chromedriver.zip"}
	if f.path() != "chromedriver.zip" {
		t.Errorf("path without directory = %q", f.path())
	}
	f.directory = "/tmp/drivers"
	if f.path() != filepath.Join("/tmp/drivers", "chromedriver.zip") {
		t.Errorf("path with directory = %q", f.path())
	}
}

func TestFetchVerifiesHashAndSkipsRedownload(t *testing.T) {
	content := []byte("driver binary payload")
	sum := sha256.Sum256(content)

	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write(content)
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := File{URL: srv.URL, Name: "driver.bin", hash: hex.EncodeToString(sum[:])}

	if err := Fetch(f, dir); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if hits != 1 {
		t.Fatalf("server hit %d times after first fetch, want 1", hits)
	}
	got, err := os.ReadFile(filepath.Join(dir, "driver.bin"))
	if err != nil {
		t.Fatalf("reading fetched file: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("fetched content = %q, want %q", got, content)
	}

	// An identical copy is already on disk, so the second fetch must not
	// touch the server.
	if err := Fetch(f, dir); err != nil {
		t.Fatalf("second Fetch returned error: %v", err)
	}
	if hits != 1 {
		t.Errorf("server hit %d times after second fetch, want 1", hits)
	}
}

func TestFetchRejectsWrongHash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("unexpected payload"))
	}))
	defer srv.Close()

	f := File{URL: srv.URL, Name: "driver.bin", hash: hex.EncodeToString(make([]byte, 32))}
	if err := Fetch(f, t.TempDir()); err == nil {
		t.Error("Fetch with mismatched hash returned nil error")
	}
}
