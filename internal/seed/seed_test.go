package seed

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/folio/internal/models"
)

func TestDefaultIsValid(t *testing.T) {
	ds := Default()
	require.NotEmpty(t, ds.Profiles)
	assert.Empty(t, Check(ds))

	defaults := 0
	for _, p := range ds.Profiles {
		if p.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestDefaultReturnsFreshCopies(t *testing.T) {
	a := Default()
	a.Skills[0].Name = "changed"
	assert.NotEqual(t, "changed", Default().Skills[0].Name)
}

func TestParseRejectsUnknownSection(t *testing.T) {
	_, err := Parse([]byte("projcts:\n  - title: typo\n"))
	require.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	ds, err := Parse([]byte("  \n"))
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())
}

func TestMarshalRoundTripKeepsOrderAndFields(t *testing.T) {
	ds := Default()
	data, err := Marshal(ds)
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, back.Experience, len(ds.Experience))
	assert.Equal(t, ds.Experience[0].Roles, back.Experience[0].Roles)
	assert.Equal(t, ds.Projects[2].IsPublished, back.Projects[2].IsPublished)
	assert.Equal(t, ds.Len(), back.Len())
}

func TestCheckReportsEveryInvalidRecord(t *testing.T) {
	ds := &Dataset{
		Profiles: []*models.PersonalProfile{
			{Name: "A", Description: "d", Roles: []string{"r"}, IsDefault: true},
			{Name: "B", Description: "d", Roles: []string{"r"}, IsDefault: true},
		},
		Education: []*models.EducationEntry{{Period: "2020", Description: "no title"}},
		Skills: []*models.Skill{
			{Meta: models.Meta{ID: "s1"}, Name: "Go", Level: 120, Category: "Backend"},
			{Meta: models.Meta{ID: "s1"}, Name: "SQL", Level: 10, Category: "Backend"},
		},
	}
	errs := Check(ds)

	kinds := map[string]int{}
	for _, e := range errs {
		kinds[e.Kind]++
	}
	assert.Equal(t, 1, kinds[models.KindProfiles], "second default profile")
	assert.Equal(t, 1, kinds[models.KindEducation], "missing title")
	assert.Equal(t, 2, kinds[models.KindSkills], "level out of range and duplicate id")

	// Check works on copies.
	assert.Equal(t, "", ds.Education[0].Title)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("skills:\n  - {name: Go, level: 10, category: Backend}\n"), 0o644))

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	var got []*Dataset
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, path, logger, func(_ context.Context, ds *Dataset) {
			mu.Lock()
			got = append(got, ds)
			mu.Unlock()
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("skills:\n  - {name: Rust, level: 20, category: Backend}\n"), 0o644))
	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	last := got[len(got)-1]
	require.Len(t, last.Skills, 1)
	assert.Equal(t, "Rust", last.Skills[0].Name)
}
