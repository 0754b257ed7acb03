package language

import "testing"

func TestLookupKnownLanguages(t *testing.T) {
	for _, id := range []string{"python3", "javascript", "java", "cpp", "c"} {
		r, ok := Lookup(id)
		if !ok {
			t.Fatalf("expected %s to be registered", id)
		}
		if r.ID != id {
			t.Errorf("recipe id mismatch: want %s, got %s", id, r.ID)
		}
		if r.Image == "" || r.SourceFile == "" || len(r.RunCmd) == 0 {
			t.Errorf("%s: incomplete recipe %+v", id, r)
		}
		if r.RunTimeout <= 0 || r.MemoryMiB <= 0 || r.CPUQuota <= 0 {
			t.Errorf("%s: missing default limits %+v", id, r)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, ok := Lookup("cobol"); ok {
		t.Error("cobol should not be registered")
	}
	if _, ok := Lookup(""); ok {
		t.Error("empty id should not be registered")
	}
}

func TestCompiledLanguagesHaveCompileStep(t *testing.T) {
	for _, id := range []string{"java", "cpp", "c", "go"} {
		r, ok := Lookup(id)
		if !ok {
			t.Fatalf("expected %s to be registered", id)
		}
		if !r.Compiled() {
			t.Errorf("%s should have a compile command", id)
		}
		if r.CompileTimeout <= 0 {
			t.Errorf("%s should have a compile timeout", id)
		}
	}
	for _, id := range []string{"python3", "javascript", "ruby"} {
		r, _ := Lookup(id)
		if r.Compiled() {
			t.Errorf("%s should not have a compile command", id)
		}
	}
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	if len(all) == 0 {
		t.Fatal("registry is empty")
	}
	all[0].Image = "mutated"
	if r, _ := Lookup(all[0].ID); r.Image == "mutated" {
		t.Error("All must not expose the registry's backing array")
	}
}
