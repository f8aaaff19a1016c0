package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"modelhostd/pkg/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestNew_RejectsInvalidEntries(t *testing.T) {
	if _, err := New([]types.CatalogModel{{Name: "", DefaultNCtx: 1}}); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if _, err := New([]types.CatalogModel{{Name: "a", DefaultNCtx: 1}, {Name: "a", DefaultNCtx: 2}}); err == nil {
		t.Fatalf("expected error for duplicate name")
	}
	if _, err := New([]types.CatalogModel{{Name: "a", DefaultNCtx: 0}}); err == nil {
		t.Fatalf("expected error for zero default_n_ctx")
	}
}

func TestLookup(t *testing.T) {
	c, err := New([]types.CatalogModel{{Name: "llama-7b", ModelPath: "meta/llama-7b", DefaultNCtx: 4096}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	m, ok := c.Lookup("llama-7b")
	if !ok || m.DefaultNCtx != 4096 || m.ModelPath != "meta/llama-7b" {
		t.Fatalf("unexpected lookup: %+v ok=%v", m, ok)
	}
	if _, ok := c.Lookup("nope"); ok {
		t.Fatalf("expected missing model")
	}
	var nilCat *Catalog
	if _, ok := nilCat.Lookup("x"); ok || nilCat.Len() != 0 {
		t.Fatalf("nil catalog should be empty")
	}
}

func TestLoadFile_YAML(t *testing.T) {
	d := t.TempDir()
	p := writeFile(t, d, "catalog.yaml", "models:\n  - name: llama-7b\n    model_path: meta/llama-7b\n    default_n_ctx: 4096\n    supports_lora: true\n")
	c, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	m, ok := c.Lookup("llama-7b")
	if !ok || !m.SupportsLoRA {
		t.Fatalf("unexpected: %+v", m)
	}
}

func TestLoadDir_MergesFormats(t *testing.T) {
	d := t.TempDir()
	writeFile(t, d, "a.json", `{"models":[{"name":"m1","model_path":"o/m1","default_n_ctx":2048}]}`)
	writeFile(t, d, "b.toml", "[[models]]\nname=\"m2\"\nmodel_path=\"o/m2\"\ndefault_n_ctx=8192\n")
	writeFile(t, d, "notes.txt", "ignored")
	c, err := Load(d)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 models, got %d", c.Len())
	}
	ms := c.Models()
	if ms[0].Name != "m1" || ms[1].Name != "m2" {
		t.Fatalf("unexpected order: %+v", ms)
	}
}

func TestLoadDir_DuplicateAcrossFiles(t *testing.T) {
	d := t.TempDir()
	writeFile(t, d, "a.json", `{"models":[{"name":"m1","default_n_ctx":1}]}`)
	writeFile(t, d, "b.json", `{"models":[{"name":"m1","default_n_ctx":1}]}`)
	if _, err := Load(d); err == nil {
		t.Fatalf("expected duplicate error")
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing catalog")
	}
}
