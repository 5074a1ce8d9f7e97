package engine

import (
	"errors"
	"testing"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/table"
)

func sourceNode(id string) domain.Node {
	return domain.Node{
		ID:     id,
		Kind:   domain.NodeKindSource,
		Params: &domain.SourceParams{DatasetID: "ds-" + id},
	}
}

func outputNode(id string) domain.Node {
	return domain.Node{ID: id, Kind: domain.NodeKindOutput, Params: &domain.OutputParams{}}
}

func filterNode(id string) domain.Node {
	return domain.Node{
		ID:     id,
		Kind:   domain.NodeKindFilter,
		Params: &domain.FilterParams{Column: "x", Op: domain.FilterOpIsEmpty},
	}
}

func emptyTable() *table.Table {
	return table.MustNew([]table.Column{{Name: "x", Type: table.TypeText}})
}

func TestValidate_EmptyGraph(t *testing.T) {
	err := Validate(&domain.Graph{}, nil)
	if !errors.Is(err, ErrEmptyGraph) {
		t.Fatalf("expected ErrEmptyGraph, got %v", err)
	}
}

func TestValidate_DuplicateNodeID(t *testing.T) {
	g := &domain.Graph{
		Nodes: []domain.Node{sourceNode("a"), sourceNode("a")},
	}
	err := Validate(g, nil)
	if !errors.Is(err, ErrDuplicateNodeID) {
		t.Fatalf("expected ErrDuplicateNodeID, got %v", err)
	}
}

func TestValidate_UnknownEdgeRef(t *testing.T) {
	g := &domain.Graph{
		Nodes: []domain.Node{sourceNode("a")},
		Edges: []domain.Edge{{Source: "a", Target: "ghost", Slot: 0}},
	}
	err := Validate(g, nil)
	if !errors.Is(err, ErrUnknownNodeRef) {
		t.Fatalf("expected ErrUnknownNodeRef, got %v", err)
	}
}

func TestValidate_SlotConflict(t *testing.T) {
	g := &domain.Graph{
		Nodes: []domain.Node{sourceNode("a"), sourceNode("b"), filterNode("f")},
		Edges: []domain.Edge{
			{Source: "a", Target: "f", Slot: 0},
			{Source: "b", Target: "f", Slot: 0},
		},
	}
	err := Validate(g, nil)
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}
}

func TestValidate_ArityExceeded(t *testing.T) {
	// filter принимает ровно один вход
	g := &domain.Graph{
		Nodes: []domain.Node{sourceNode("a"), sourceNode("b"), filterNode("f")},
		Edges: []domain.Edge{
			{Source: "a", Target: "f", Slot: 0},
			{Source: "b", Target: "f", Slot: 1},
		},
	}
	err := Validate(g, nil)
	if !errors.Is(err, ErrInvalidSlot) && !errors.Is(err, ErrArityExceeded) {
		t.Fatalf("expected slot/arity error, got %v", err)
	}
}

func TestValidate_UnboundSlot(t *testing.T) {
	// merge требует минимум два входа
	g := &domain.Graph{
		Nodes: []domain.Node{
			sourceNode("a"),
			{
				ID:   "m",
				Kind: domain.NodeKindMerge,
				Params: &domain.MergeParams{
					Join: domain.JoinInner,
					Keys: [][]string{{"x"}, {"x"}},
				},
			},
		},
		Edges: []domain.Edge{{Source: "a", Target: "m", Slot: 0}},
	}
	err := Validate(g, nil)
	if !errors.Is(err, ErrUnboundSlot) {
		t.Fatalf("expected ErrUnboundSlot, got %v", err)
	}
}

func TestValidate_Cycle(t *testing.T) {
	g := &domain.Graph{
		Nodes: []domain.Node{filterNode("x"), filterNode("y")},
		Edges: []domain.Edge{
			{Source: "x", Target: "y", Slot: 0},
			{Source: "y", Target: "x", Slot: 0},
		},
	}
	err := Validate(g, nil)
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}

	// Ошибка называет узел, лежащий на цикле
	var serr *StructuralError
	if !errors.As(err, &serr) {
		t.Fatal("expected StructuralError")
	}
	if serr.NodeID != "x" && serr.NodeID != "y" {
		t.Errorf("cycle error should name a node on the cycle, got %q", serr.NodeID)
	}
}

func TestValidate_UnboundSource(t *testing.T) {
	g := &domain.Graph{Nodes: []domain.Node{sourceNode("src")}}

	// С привязкой — ок
	if err := Validate(g, Bindings{"src": emptyTable()}); err != nil {
		t.Errorf("unexpected error with binding: %v", err)
	}

	// Без привязки — ErrUnboundSource
	err := Validate(g, Bindings{})
	if !errors.Is(err, ErrUnboundSource) {
		t.Fatalf("expected ErrUnboundSource, got %v", err)
	}

	// ValidateStructure привязки не проверяет
	if err := ValidateStructure(g); err != nil {
		t.Errorf("ValidateStructure should skip bindings: %v", err)
	}
}

func TestValidate_OrphanOutput(t *testing.T) {
	g := &domain.Graph{
		Nodes: []domain.Node{sourceNode("src"), outputNode("out")},
	}
	err := ValidateStructure(g)
	if !errors.Is(err, ErrOrphanOutput) {
		t.Fatalf("expected ErrOrphanOutput, got %v", err)
	}
}

func TestOrder_Deterministic(t *testing.T) {
	// Ромб: src → b, src → a, оба → m (merge)
	g := &domain.Graph{
		Nodes: []domain.Node{
			sourceNode("src"),
			filterNode("b"),
			filterNode("a"),
			{
				ID:   "m",
				Kind: domain.NodeKindMerge,
				Params: &domain.MergeParams{
					Join: domain.JoinInner,
					Keys: [][]string{{"x"}, {"x"}},
				},
			},
		},
		Edges: []domain.Edge{
			{Source: "src", Target: "b", Slot: 0},
			{Source: "src", Target: "a", Slot: 0},
			{Source: "a", Target: "m", Slot: 0},
			{Source: "b", Target: "m", Slot: 1},
		},
	}

	first, err := Order(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"src", "a", "b", "m"}
	for i, id := range want {
		if first[i] != id {
			t.Fatalf("expected order %v, got %v", want, first)
		}
	}

	// Порядок стабилен между вызовами
	for i := 0; i < 10; i++ {
		got, err := Order(g)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for j := range want {
			if got[j] != first[j] {
				t.Fatalf("order not deterministic: %v vs %v", got, first)
			}
		}
	}
}
