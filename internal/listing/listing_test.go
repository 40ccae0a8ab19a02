package listing

import (
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type row struct {
	name     string
	category string
	level    int
	tags     []string
	live     bool
	order    int
	created  time.Time
}

func (r row) Attrs() map[string]any {
	return map[string]any{
		"name":        r.name,
		"category":    r.category,
		"level":       r.level,
		"tags":        r.tags,
		"live":        r.live,
		"order_index": r.order,
		"created_at":  r.created,
	}
}

func names(rows []row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.name
	}
	return out
}

func fixture() []row {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []row{
		{name: "Go", category: "Backend", level: 90, tags: []string{"lang"}, live: true, order: 2, created: t0},
		{name: "React", category: "Frontend", level: 80, tags: []string{"ui", "lib"}, order: 0, created: t0.Add(time.Hour)},
		{name: "Postgres", category: "backend", level: 70, tags: []string{"db"}, live: true, order: 1, created: t0.Add(2 * time.Hour)},
		{name: "Docker", category: "Tools", level: 75, order: 1, created: t0.Add(-time.Hour)},
	}
}

func TestApply_DefaultOrder(t *testing.T) {
	got, total := Apply(fixture(), Query{})
	if total != 4 {
		t.Fatalf("total = %d, want 4", total)
	}
	want := []string{"React", "Docker", "Postgres", "Go"}
	if diff := cmp.Diff(want, names(got)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_FilterByCategoryIsCaseInsensitive(t *testing.T) {
	got, total := Apply(fixture(), Query{Filters: map[string]string{"category": "BACKEND"}})
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	if diff := cmp.Diff([]string{"Postgres", "Go"}, names(got)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestApply_FilterTypes(t *testing.T) {
	tests := []struct {
		name    string
		filters map[string]string
		want    []string
	}{
		{"bool", map[string]string{"live": "true"}, []string{"Postgres", "Go"}},
		{"int", map[string]string{"level": "80"}, []string{"React"}},
		{"list membership", map[string]string{"tags": "UI"}, []string{"React"}},
		{"bad bool", map[string]string{"live": "maybe"}, []string{}},
		{"unknown attribute", map[string]string{"color": "red"}, []string{}},
		{"combined", map[string]string{"live": "true", "category": "backend", "level": "90"}, []string{"Go"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := Apply(fixture(), Query{Filters: tt.filters})
			if diff := cmp.Diff(tt.want, names(got)); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestApply_Search(t *testing.T) {
	got, _ := Apply(fixture(), Query{Search: "  gres "})
	if diff := cmp.Diff([]string{"Postgres"}, names(got)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	got, _ = Apply(fixture(), Query{Search: "LIB"})
	if diff := cmp.Diff([]string{"React"}, names(got)); diff != "" {
		t.Errorf("search over list attrs (-want +got):\n%s", diff)
	}
}

func TestApply_Sort(t *testing.T) {
	got, _ := Apply(fixture(), Query{Sort: "-level"})
	if diff := cmp.Diff([]string{"Go", "React", "Docker", "Postgres"}, names(got)); diff != "" {
		t.Errorf("desc level (-want +got):\n%s", diff)
	}
	got, _ = Apply(fixture(), Query{Sort: "name"})
	if diff := cmp.Diff([]string{"Docker", "Go", "Postgres", "React"}, names(got)); diff != "" {
		t.Errorf("asc name (-want +got):\n%s", diff)
	}
	got, _ = Apply(fixture(), Query{Sort: "created_at"})
	if diff := cmp.Diff([]string{"Docker", "Go", "React", "Postgres"}, names(got)); diff != "" {
		t.Errorf("asc created (-want +got):\n%s", diff)
	}
}

func TestApply_Paginate(t *testing.T) {
	got, total := Apply(fixture(), Query{Sort: "name", Limit: 2, Offset: 1})
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
	if diff := cmp.Diff([]string{"Go", "Postgres"}, names(got)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	got, total = Apply(fixture(), Query{Offset: 10})
	if total != 4 || len(got) != 0 || got == nil {
		t.Errorf("offset past end: total=%d len=%d nil=%v", total, len(got), got == nil)
	}

	got, _ = Apply(fixture(), Query{Offset: -3, Limit: 1})
	if len(got) != 1 {
		t.Errorf("negative offset: len = %d, want 1", len(got))
	}
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	in := fixture()
	_, _ = Apply(in, Query{Sort: "-name"})
	if in[0].name != "Go" {
		t.Errorf("input reordered: first = %q", in[0].name)
	}
}

func TestParseQuery(t *testing.T) {
	v := url.Values{}
	v.Set("q", "go")
	v.Set("sort", "-level")
	v.Set("limit", "5")
	v.Set("offset", "x")
	v.Set("category", "Backend")
	v.Set("is_published", " ")
	v.Set("secret", "ignored")

	q := ParseQuery(v, "category", "is_published")
	want := Query{
		Filters: map[string]string{"category": "Backend"},
		Search:  "go",
		Sort:    "-level",
		Limit:   5,
	}
	if diff := cmp.Diff(want, q); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestClampLimit(t *testing.T) {
	if got := clampLimit(500); got != MaxLimit {
		t.Errorf("clampLimit(500) = %d", got)
	}
	if got := clampLimit(0); got != 0 {
		t.Errorf("clampLimit(0) = %d", got)
	}
}
