package config

import "testing"

func TestLoadRejectsNonPositiveParallelism(t *testing.T) {
	cases := []struct {
		name  string
		value string
	}{
		{name: "zero", value: "0"},
		{name: "negative", value: "-3"},
		{name: "malformed", value: "eight"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost:5432/app")
			t.Setenv("JWT_ACCESS_SECRET", "secret")
			t.Setenv("MATCH_PARALLELISM", tc.value)

			if _, err := Load(); err == nil {
				t.Fatalf("MATCH_PARALLELISM=%q must fail config load", tc.value)
			}
		})
	}
}

func TestLoadAcceptsDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/app")
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MatchParallelism < 1 {
		t.Fatalf("default parallelism = %d, want >= 1", cfg.MatchParallelism)
	}
	if cfg.MatchThreshold != 40 || cfg.MatchLimit != 10 {
		t.Fatalf("default threshold/limit = %d/%d, want 40/10", cfg.MatchThreshold, cfg.MatchLimit)
	}
}
