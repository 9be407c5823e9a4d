package selection

import (
	"errors"
	"testing"

	"github.com/stolostron/capitest/internal/suite"
)

func testRegistry(t *testing.T) *suite.Registry {
	t.Helper()
	reg, err := suite.NewRegistry([]suite.Definition{
		{ID: "rosa-hcp", Tags: []string{"rosa", "smoke"}},
		{ID: "capa-network", Tags: []string{"capa", "network"}},
		{ID: "capa-roles", Tags: []string{"capa"}},
	}, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func TestParse(t *testing.T) {
	sel, err := Parse("s1", "", false)
	if err != nil || sel.Kind != KindID || sel.Value != "s1" {
		t.Fatalf("unexpected id selector: %+v %v", sel, err)
	}
	sel, err = Parse("", "smoke", false)
	if err != nil || sel.Kind != KindTag || sel.String() != "tag:smoke" {
		t.Fatalf("unexpected tag selector: %+v %v", sel, err)
	}
	sel, err = Parse("", "", true)
	if err != nil || sel.String() != "all" {
		t.Fatalf("unexpected all selector: %+v %v", sel, err)
	}

	if _, err := Parse("", "", false); !errors.Is(err, ErrSelector) {
		t.Fatalf("expected ErrSelector for empty selector, got %v", err)
	}
	if _, err := Parse("s1", "", true); !errors.Is(err, ErrSelector) {
		t.Fatalf("expected ErrSelector for conflicting selector, got %v", err)
	}
}

func TestResolveByID(t *testing.T) {
	reg := testRegistry(t)
	got, err := Resolve(reg, Selector{Kind: KindID, Value: "capa-roles"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 1 || got[0].ID != "capa-roles" {
		t.Fatalf("unexpected suites: %+v", got)
	}

	if _, err := Resolve(reg, Selector{Kind: KindID, Value: "nope"}); !errors.Is(err, suite.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveByTag(t *testing.T) {
	reg := testRegistry(t)
	got, err := Resolve(reg, Selector{Kind: KindTag, Value: "CAPA"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 2 || got[0].ID != "capa-network" || got[1].ID != "capa-roles" {
		t.Fatalf("unexpected suites: %+v", got)
	}

	got, err = Resolve(reg, Selector{Kind: KindTag, Value: "/^(rosa|network)$/"})
	if err != nil {
		t.Fatalf("Resolve regexp: %v", err)
	}
	if len(got) != 2 || got[0].ID != "capa-network" || got[1].ID != "rosa-hcp" {
		t.Fatalf("unexpected regexp suites: %+v", got)
	}

	got, err = Resolve(reg, Selector{Kind: KindTag, Value: "missing"})
	if err != nil {
		t.Fatalf("zero tag matches must not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no suites, got %+v", got)
	}

	if _, err := Resolve(reg, Selector{Kind: KindTag, Value: "/[/"}); err == nil {
		t.Fatalf("expected error for bad regexp")
	}
}

func TestResolveAll(t *testing.T) {
	got, err := Resolve(testRegistry(t), Selector{Kind: KindAll})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 3 || got[0].ID != "capa-network" || got[2].ID != "rosa-hcp" {
		t.Fatalf("unexpected suites: %+v", got)
	}
}
