package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuzzyScore(t *testing.T) {
	testCases := []struct {
		text     string
		query    string
		expected int
		desc     string
	}{
		{"buildkite", "buildkite", 100, "exact match"},
		{"BuildKite", "buildkite", 100, "exact match ignores case"},
		{"", "", 100, "both empty is a match"},
		{"my-buildkite-pipeline", "buildkite", 80, "substring"},
		{"test", "xyz", 0, "no match"},
		{"frontend", "frnt", 42, "subsequence with runs"},
		{"testing", "tsng", 41, "scattered subsequence"},
		{"abc", "abcd", 0, "partial subsequence scores nothing"},
		{"", "a", 0, "empty text"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, FuzzyScore(tc.text, tc.query))
		})
	}
}

func TestFuzzyScoreOrdering(t *testing.T) {
	assert.Greater(t, FuzzyScore("frontend", "frnt"), 0)
	assert.Greater(t, FuzzyScore("testing", "test"), FuzzyScore("testing", "tsng"))
	// consecutive runs beat scattered hits of the same length
	assert.Greater(t, FuzzyScore("abxcd", "abcd"), FuzzyScore("axbxcxd", "abcd"))
}

func TestFuzzyScoreDeterministic(t *testing.T) {
	first := FuzzyScore("deploy-frontend", "dpfe")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, FuzzyScore("deploy-frontend", "dpfe"))
	}
}

type record struct {
	name string
	org  string
	desc string
}

var recordFields = []Field[record]{
	{Name: "name", Get: func(r record) string { return r.name }, Weight: 1.0},
	{Name: "org", Get: func(r record) string { return r.org }, Weight: 0.6},
	{Name: "desc", Get: func(r record) string { return r.desc }, Weight: 0.4},
}

func TestWeightedFieldScoreLadder(t *testing.T) {
	testCases := []struct {
		item     record
		query    string
		expected float64
		desc     string
	}{
		{record{name: "web"}, "web", 100, "exact"},
		{record{name: "website"}, "web", 70, "prefix"},
		{record{name: "my-web"}, "web", 50, "substring"},
		{record{name: "deploy web app"}, "app deploy", 40, "all terms"},
		{record{name: "deploy api"}, "app deploy", 15, "one term"},
		{record{name: "frontend"}, "frnt", 42, "fuzzy fallback"},
		{record{name: "frontend"}, "", 0, "empty query"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.InDelta(t, tc.expected, WeightedFieldScore(tc.item, tc.query, recordFields[:1]), 0.001)
		})
	}
}

func TestWeightedFieldScoreSumsAcrossFields(t *testing.T) {
	crossField := record{name: "frontend", org: "acme", desc: "acme web frontend"}
	singleField := record{name: "acme"}

	// org exact (60) + desc prefix (28) + name fuzzy miss (0)
	assert.InDelta(t, 88, WeightedFieldScore(crossField, "acme", recordFields), 0.001)
	assert.InDelta(t, 100, WeightedFieldScore(singleField, "acme", recordFields), 0.001)

	weak := record{name: "acme-tools", org: "acme", desc: "acme"}
	assert.Greater(t, WeightedFieldScore(weak, "acme", recordFields), WeightedFieldScore(singleField, "acme", recordFields))
}

func TestCommandMatchScore(t *testing.T) {
	pipeline := Candidate{ID: "pipeline", Name: "Go to Pipeline", Keywords: []string{"goto"}}
	build := Candidate{ID: "new-build", Name: "Create New Build", Keywords: []string{"deploy"}}

	assert.Equal(t, CommandExactID, CommandMatchScore(pipeline, "pipeline"))
	assert.Equal(t, CommandExactID, CommandMatchScore(pipeline, "PIPELINE"))
	assert.Equal(t, CommandExactName, CommandMatchScore(build, "create new build"))

	assert.GreaterOrEqual(t, CommandMatchScore(pipeline, "pipe"), 70)
	assert.Greater(t, CommandMatchScore(build, "deploy"), CommandMatchScore(pipeline, "deploy"))
	assert.Zero(t, CommandMatchScore(pipeline, "deploy"))
	assert.Zero(t, CommandMatchScore(pipeline, ""))
}

func TestCommandMatchScoreCapsPartialMatches(t *testing.T) {
	c := Candidate{
		ID:          "build-build",
		Name:        "build everything",
		Description: "build all the things",
		Keywords:    []string{"build"},
	}
	got := CommandMatchScore(c, "build")
	assert.Equal(t, MaxPartial, got)
	assert.Less(t, got, CommandExactID)
}

func TestCommandMatchScoreFuzzyFallback(t *testing.T) {
	c := Candidate{ID: "open-settings", Name: "Open Settings"}
	assert.Greater(t, CommandMatchScore(c, "opst"), 0)
	assert.Zero(t, CommandMatchScore(c, "zzz"))
}

func TestAliasScore(t *testing.T) {
	assert.Equal(t, AliasExact, AliasScore("nb", "", "NB"))
	assert.Equal(t, AliasPrefix, AliasScore("newbuild", "", "new"))
	assert.Equal(t, AliasSubstring, AliasScore("mybuild", "", "build"))
	assert.Equal(t, AliasDescription, AliasScore("nb", "start a build", "build"))
	assert.Zero(t, AliasScore("nb", "", "deploy"))
	assert.Zero(t, AliasScore("nb", "", " "))
}
