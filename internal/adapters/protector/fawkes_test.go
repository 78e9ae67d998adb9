package protector

import (
	"cloakbot/internal/core/domain"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFawkes copies every pending jpg except those named noface*.
const fakeFawkes = `#!/bin/sh
dir=""
while [ $# -gt 0 ]; do
  case "$1" in
    --directory) dir="$2"; shift 2 ;;
    *) shift ;;
  esac
done
for f in "$dir"/*.jpg; do
  [ -e "$f" ] || continue
  case "$f" in
    *_cloaked.jpg) continue ;;
    */noface*) continue ;;
  esac
  cp "$f" "${f%.jpg}_cloaked.jpg"
done
`

const argsRecorder = `#!/bin/sh
echo "$@" > "$(dirname "$0")/args.txt"
`

func newTestFawkes(t *testing.T, body string) (*Fawkes, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts required")
	}

	bin := t.TempDir()
	path := filepath.Join(bin, "fawkes")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))

	f, err := NewFawkes(Config{
		Binary:           path,
		Mode:             domain.ModeLow,
		FeatureExtractor: "arcface_extractor_0",
		GPU:              "0",
		BatchSize:        1,
		SD:               1e7,
		Format:           "jpg",
	})
	require.NoError(t, err)

	return f, bin
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o600))
	}
}

func TestNewFawkesInvalidMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts required")
	}
	path := filepath.Join(t.TempDir(), "fawkes")
	require.NoError(t, os.WriteFile(path, []byte(argsRecorder), 0o755))

	_, err := NewFawkes(Config{Binary: path, Mode: "ultra"})
	require.ErrorIs(t, err, domain.ErrInvalidMode)
}

func TestNewFawkesFormat(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts required")
	}
	path := filepath.Join(t.TempDir(), "fawkes")
	require.NoError(t, os.WriteFile(path, []byte(argsRecorder), 0o755))

	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{format: "", want: "jpg"},
		{format: ".PNG", want: "png"},
		{format: "jpeg", want: "jpeg"},
		{format: "webp", wantErr: true},
		{format: "tiff", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.format, func(t *testing.T) {
			f, err := NewFawkes(Config{Binary: path, Mode: domain.ModeLow, Format: tc.format})
			if tc.wantErr {
				require.ErrorIs(t, err, domain.ErrUnsupportedOutput)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, f.cfg.Format)
		})
	}
}

func TestNewFawkesMissingBinary(t *testing.T) {
	_, err := NewFawkes(Config{Binary: "/nonexistent/fawkes", Mode: domain.ModeLow})
	require.Error(t, err)
}

func TestProtect(t *testing.T) {
	f, _ := newTestFawkes(t, fakeFawkes)

	dir := t.TempDir()
	touch(t, dir, "photo.jpg", "old_cloaked.jpg", "noface.jpg")

	artifacts, err := f.Protect(t.Context(), dir)
	require.NoError(t, err)
	require.Len(t, artifacts, 1)

	assert.Equal(t, filepath.Join(dir, "photo.jpg"), artifacts[0].Source)
	assert.Equal(t, filepath.Join(dir, "photo_cloaked.jpg"), artifacts[0].Cloaked)
	assert.FileExists(t, artifacts[0].Source)
	assert.FileExists(t, artifacts[0].Cloaked)
}

func TestProtectSingleFileUsesDirectory(t *testing.T) {
	f, _ := newTestFawkes(t, fakeFawkes)

	dir := t.TempDir()
	touch(t, dir, "converted_image.jpg")

	artifacts, err := f.Protect(t.Context(), filepath.Join(dir, "converted_image.jpg"))
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, filepath.Join(dir, "converted_image_cloaked.jpg"), artifacts[0].Cloaked)
}

func TestProtectNoInput(t *testing.T) {
	f, _ := newTestFawkes(t, fakeFawkes)

	dir := t.TempDir()
	touch(t, dir, "done_cloaked.jpg")

	_, err := f.Protect(t.Context(), dir)
	require.ErrorIs(t, err, domain.ErrNoInput)
}

func TestProtectFailure(t *testing.T) {
	f, _ := newTestFawkes(t, "#!/bin/sh\necho 'cannot read image' >&2\nexit 2\n")

	dir := t.TempDir()
	touch(t, dir, "photo.jpg")

	_, err := f.Protect(t.Context(), dir)
	require.Error(t, err)
}

func TestProtectCancelled(t *testing.T) {
	f, _ := newTestFawkes(t, "#!/bin/sh\nexec sleep 5\n")

	dir := t.TempDir()
	touch(t, dir, "photo.jpg")

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	_, err := f.Protect(ctx, dir)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProtectArguments(t *testing.T) {
	f, bin := newTestFawkes(t, argsRecorder)

	dir := t.TempDir()
	touch(t, dir, "photo.jpg")

	artifacts, err := f.Protect(t.Context(), dir)
	require.NoError(t, err)
	assert.Empty(t, artifacts)

	args, err := os.ReadFile(filepath.Join(bin, "args.txt"))
	require.NoError(t, err)
	assert.Equal(t, "--directory "+dir+
		" --mode low --feature-extractor arcface_extractor_0 --gpu 0 --batch-size 1 --sd 1e+07 --format jpg\n",
		string(args))
}

func TestCloakedPath(t *testing.T) {
	assert.Equal(t, "/tmp/a_cloaked.png", CloakedPath("/tmp/a.jpg", "png"))
	assert.Equal(t, "/tmp/a.b_cloaked.jpg", CloakedPath("/tmp/a.b.jpeg", "jpg"))
}
