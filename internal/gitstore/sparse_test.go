package gitstore

import "testing"

func TestPlanSparseConeForPlainDirs(t *testing.T) {
	spec, err := PlanSparse([]string{"docs/", "guides/"})
	if err != nil {
		t.Fatal(err)
	}
	if !spec.Cone {
		t.Fatalf("expected cone mode, got %+v", spec)
	}
	if len(spec.Dirs) != 2 {
		t.Fatalf("expected 2 dirs, got %v", spec.Dirs)
	}
}

func TestPlanSparseNoConeForDoubleStar(t *testing.T) {
	spec, err := PlanSparse([]string{"**/*.md"})
	if err != nil {
		t.Fatal(err)
	}
	if spec.Cone {
		t.Fatalf("expected no-cone mode for **, got %+v", spec)
	}
	if len(spec.Patterns) != 1 {
		t.Fatalf("expected 1 pattern, got %v", spec.Patterns)
	}
}

func TestPlanSparseEmpty(t *testing.T) {
	spec, err := PlanSparse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if spec.Enabled {
		t.Errorf("expected disabled sparse spec for no includes")
	}
}

func TestExpandBracesSimple(t *testing.T) {
	out, err := expandBraces("docs/{a,b,c}/")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{"docs/a/": true, "docs/b/": true, "docs/c/": true}
	if len(out) != 3 {
		t.Fatalf("got %v", out)
	}
	for _, o := range out {
		if !want[o] {
			t.Errorf("unexpected expansion %q", o)
		}
	}
}

func TestExpandBracesExceedsCap(t *testing.T) {
	pattern := "docs/{"
	for i := 0; i < 600; i++ {
		if i > 0 {
			pattern += ","
		}
		pattern += "a"
	}
	pattern += "}/"
	if _, err := expandBraces(pattern); err == nil {
		t.Error("expected brace expansion cap error")
	}
}

func TestPlanSparseDeduplicatesDirs(t *testing.T) {
	spec, err := PlanSparse([]string{"docs/", "docs/"})
	if err != nil {
		t.Fatal(err)
	}
	if len(spec.Dirs) != 1 {
		t.Errorf("expected dedup, got %v", spec.Dirs)
	}
}
