package config

import "testing"

func TestParseEmptyOverlayKeepsDefaults(t *testing.T) {
	c, err := Parse([]byte(`{}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c.TablesCount != 100 {
		t.Errorf("expected default TablesCount 100, got %d", c.TablesCount)
	}
	if c.MatchFactor != 0.6 {
		t.Errorf("expected default MatchFactor 0.6, got %f", c.MatchFactor)
	}
}

func TestParseOverridesNamedFields(t *testing.T) {
	c, err := Parse([]byte(`{"tables_count": 50, "min_votes": 4}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c.TablesCount != 50 {
		t.Errorf("expected overridden TablesCount 50, got %d", c.TablesCount)
	}
	if c.MinVotes != 4 {
		t.Errorf("expected overridden MinVotes 4, got %d", c.MinVotes)
	}
	// Untouched fields retain their defaults.
	if c.MatchFactor != 0.6 {
		t.Errorf("expected untouched MatchFactor to stay at default 0.6, got %f", c.MatchFactor)
	}
}

func TestParseRejectsInvalidResult(t *testing.T) {
	if _, err := Parse([]byte(`{"match_factor": 2.0}`)); err == nil {
		t.Error("expected an error for an out-of-range match_factor")
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	if _, err := Parse([]byte(`not json`)); err == nil {
		t.Error("expected an error for malformed JSON")
	}
}

func TestLoadRejectsNonJSONExtension(t *testing.T) {
	if _, err := Load("criteria.txt"); err == nil {
		t.Error("expected an error for a non-.json path")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load("does-not-exist.json"); err == nil {
		t.Error("expected an error for a missing file")
	}
}
