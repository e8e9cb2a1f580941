package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/diff"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/imageinfo"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/stats"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/types"
)

func compareReport() *Report {
	previous := map[string]int64{"/p/a.jpg": 10, "/p/b.jpg": 20, "/p/c.jpg": 30}
	current := map[string]int64{"/p/a.jpg": 11, "/p/b.jpg": 20, "/p/d.jpg": 30, "/p/e.png": 5}
	return &Report{
		Kind:   KindCompare,
		Target: "p",
		Source: "/p",
		Baseline: &Baseline{
			Name:       "p_snapshot_20240102_030405.txt",
			CapturedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local),
			FileCount:  3,
		},
		Diff:     diff.Compare(previous, current),
		Previous: previous,
		Current:  current,
	}
}

func filesReport() *Report {
	return &Report{
		Kind:   KindFiles,
		Source: "/p",
		Files: []FileInfo{
			{Path: "/p/a.jpg", Name: "a.jpg", Size: 2048, SizeHuman: "2.0 KiB"},
			{Path: "/p/b.png", Name: "b.png", Size: 1024, SizeHuman: "1.0 KiB", Width: 4, Height: 3},
		},
	}
}

func render(t *testing.T, name string, r *Report) string {
	t.Helper()
	f, err := Get(name)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, r))
	return buf.String()
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"json", "patch", "paths", "plain", "pretty", "yaml"}, Available())

	_, err := Get("xml")
	assert.Error(t, err)

	reg := NewRegistry()
	reg.Register("x", func() Formatter { return &PathsFormatter{} })
	f, err := reg.Get("x")
	require.NoError(t, err)
	assert.IsType(t, &PathsFormatter{}, f)
}

func TestNewFileInfo(t *testing.T) {
	rec := types.FileRecord{Path: "/p/sub/a.jpg", Size: 1536, Ext: ".jpg", MIME: "image/jpeg"}
	fi := NewFileInfo(rec)
	assert.Equal(t, "a.jpg", fi.Name)
	assert.Equal(t, "1.5 KiB", fi.SizeHuman)
	assert.Equal(t, ".jpg", fi.Ext)
	assert.Equal(t, "image/jpeg", fi.MIME)
}

func TestPretty_Compare(t *testing.T) {
	out := render(t, "pretty", compareReport())

	assert.Contains(t, out, "New files (1):")
	assert.Contains(t, out, "+ /p/e.png")
	assert.Contains(t, out, "Modified files (2):")
	assert.Contains(t, out, "~ /p/a.jpg")
	assert.Contains(t, out, "~ /p/d.jpg")
	assert.NotContains(t, out, "Deleted files")
	assert.Contains(t, out, "/p/c.jpg → /p/d.jpg")
	assert.Contains(t, out, "p_snapshot_20240102_030405.txt")
	assert.NotContains(t, out, NoChangesMessage)
}

func TestPretty_NoChanges(t *testing.T) {
	same := map[string]int64{"/p/a.jpg": 1}
	r := &Report{Kind: KindCompare, Target: "p", Diff: diff.Compare(same, same)}

	assert.Contains(t, render(t, "pretty", r), NoChangesMessage)
	assert.Equal(t, NoChangesMessage+"\n", render(t, "plain", r))
}

func TestPretty_Files(t *testing.T) {
	out := render(t, "pretty", filesReport())
	assert.Contains(t, out, "SIZE")
	assert.Contains(t, out, "/p/a.jpg")
	assert.Contains(t, out, "2.0 KiB")
	assert.Contains(t, out, "4x3")
	assert.Contains(t, out, "3.0 KiB")

	empty := render(t, "pretty", &Report{Kind: KindFiles, Source: "/p"})
	assert.Contains(t, empty, "No images found")
}

func TestPretty_StatsAndInfo(t *testing.T) {
	s := stats.Compute(&types.ScanResult{
		Root:         "/p",
		Files:        []types.FileRecord{{Path: "/p/a.jpg", Size: 100, ModTime: time.Now()}},
		DirsScanned:  2,
		FilesScanned: 2,
		TotalSize:    150,
		Extensions:   map[string]int64{".jpg": 1, ".txt": 1},
	})
	out := render(t, "pretty", &Report{Kind: KindStats, Stats: s})
	assert.Contains(t, out, "Most common ext")
	assert.Contains(t, out, "jpg, txt")
	assert.Contains(t, out, "Subdirectories")

	info := &imageinfo.Info{
		Path: "/p/a.jpg", MIME: "image/jpeg", Format: "jpeg", Width: 640, Height: 480,
		Tags: []imageinfo.Tag{{Name: "Model", Value: "X100"}},
	}
	out = render(t, "pretty", &Report{Kind: KindInfo, Image: info})
	assert.Contains(t, out, "640 x 480")
	assert.Contains(t, out, "image/jpeg")
	assert.Contains(t, out, "EXIF (1 tags)")
	assert.Contains(t, out, "X100")
}

func TestPlain_Compare(t *testing.T) {
	out := render(t, "plain", compareReport())
	lines := strings.Split(strings.TrimSpace(out), "\n")

	require.Len(t, lines, 4)
	assert.Equal(t, "NEW      /p/e.png", lines[0])
	assert.Equal(t, "MODIFIED /p/a.jpg", lines[1])
	assert.Equal(t, "MODIFIED /p/d.jpg", lines[2])
	assert.Equal(t, "RENAMED  /p/c.jpg -> /p/d.jpg", lines[3])
}

func TestPlain_Files(t *testing.T) {
	out := render(t, "plain", filesReport())
	assert.Equal(t, "SIZE    PATH\n2.0 KiB /p/a.jpg\n1.0 KiB /p/b.png\n", out)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "/p/a.jpg\n/p/b.png\n", render(t, "paths", filesReport()))
	assert.Equal(t, "/p/e.png\n/p/a.jpg\n/p/d.jpg\n", render(t, "paths", compareReport()))

	f := &PathsFormatter{}
	err := f.Format(&bytes.Buffer{}, &Report{Kind: KindStats})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestJSON_Compare(t *testing.T) {
	out := render(t, "json", compareReport())

	var doc struct {
		Kind    string      `json:"kind"`
		Target  string      `json:"target"`
		Changes diff.Result `json:"changes"`
		Meta    struct {
			Changed bool `json:"changed"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	assert.Equal(t, "compare", doc.Kind)
	assert.Equal(t, "p", doc.Target)
	assert.True(t, doc.Meta.Changed)
	assert.Equal(t, []string{"/p/e.png"}, doc.Changes.New)
	assert.Equal(t, []string{"/p/a.jpg", "/p/d.jpg"}, doc.Changes.Modified)
	assert.Empty(t, doc.Changes.Deleted)
	assert.Equal(t, []diff.Rename{{From: "/p/c.jpg", To: "/p/d.jpg"}}, doc.Changes.Renamed)
	assert.Equal(t, 1, doc.Changes.Unchanged)
}

func TestYAML_Files(t *testing.T) {
	out := render(t, "yaml", filesReport())

	var doc struct {
		Kind  string `yaml:"kind"`
		Files []struct {
			Path string `yaml:"path"`
			Size int64  `yaml:"size"`
		} `yaml:"files"`
		Meta struct {
			TotalSize int64 `yaml:"total_size"`
		} `yaml:"meta"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "files", doc.Kind)
	require.Len(t, doc.Files, 2)
	assert.Equal(t, "/p/a.jpg", doc.Files[0].Path)
	assert.Equal(t, int64(3072), doc.Meta.TotalSize)
}

func TestPatch(t *testing.T) {
	out := render(t, "patch", compareReport())

	assert.Contains(t, out, "--- a/p_snapshot_20240102_030405.txt")
	assert.Contains(t, out, "+++ b/p")
	assert.Contains(t, out, "-/p/a.jpg=10\n")
	assert.Contains(t, out, "+/p/a.jpg=11\n")
	assert.Contains(t, out, "-/p/c.jpg=30\n")
	assert.Contains(t, out, "+/p/d.jpg=30\n")
	assert.Contains(t, out, "+/p/e.png=5\n")
	assert.NotContains(t, out, "-/p/b.jpg=20")

	same := map[string]int64{"/p/a.jpg": 1}
	out = render(t, "patch", &Report{Kind: KindCompare, Target: "p", Previous: same, Current: same})
	assert.Empty(t, out)

	err := (&PatchFormatter{}).Format(&bytes.Buffer{}, filesReport())
	assert.ErrorIs(t, err, ErrUnsupported)
}
