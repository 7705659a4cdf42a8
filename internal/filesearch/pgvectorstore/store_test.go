package pgvectorstore

import (
	"strings"
	"testing"

	"fsgateway/internal/filesearch"
)

func TestVectorLiteral_FormatsAsBracketedList(t *testing.T) {
	got := vectorLiteral([]float32{0.1, -0.25, 1})
	want := "[0.1,-0.25,1]"
	if got != want {
		t.Errorf("vectorLiteral = %q, want %q", got, want)
	}
}

func TestVectorLiteral_Empty(t *testing.T) {
	if got := vectorLiteral(nil); got != "[]" {
		t.Errorf("vectorLiteral(nil) = %q, want []", got)
	}
}

func TestBuildWhere_BaseClauseOnly(t *testing.T) {
	s := &Store{}
	req := filesearch.SearchRequest{VectorStoreIDs: []string{"vs1"}}
	where, args, next := s.buildWhere(req, filesearch.AuthContext{})

	if where != "vector_store_id = ANY($2)" {
		t.Errorf("unexpected where clause: %q", where)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args (placeholder + vector store ids), got %d", len(args))
	}
	if next != 3 {
		t.Errorf("expected next arg index 3, got %d", next)
	}
}

func TestBuildWhere_AddsIdentityAndFileScoping(t *testing.T) {
	s := &Store{}
	req := filesearch.SearchRequest{
		VectorStoreIDs: []string{"vs1"},
		FileIDs:        []string{"f1", "f2"},
	}
	auth := filesearch.AuthContext{
		IdentityOrgIDs:     []string{"org1"},
		IdentityProjectIDs: []string{"proj1"},
	}
	where, args, next := s.buildWhere(req, auth)

	for _, want := range []string{"vector_store_id = ANY($2)", "org_id = ANY($3)", "project_id = ANY($4)", "file_id = ANY($5)"} {
		if !strings.Contains(where, want) {
			t.Errorf("expected where clause to contain %q, got %q", want, where)
		}
	}
	if next != 6 {
		t.Errorf("expected next arg index 6, got %d", next)
	}
	if len(args) != 5 {
		t.Fatalf("expected 5 args, got %d", len(args))
	}
}

func TestBuildWhere_AppendsFilterClause(t *testing.T) {
	s := &Store{}
	req := filesearch.SearchRequest{
		VectorStoreIDs: []string{"vs1"},
		Filters: &filesearch.Filter{
			Op:    filesearch.FilterEq,
			Key:   "category",
			Value: "policy",
		},
	}
	where, args, next := s.buildWhere(req, filesearch.AuthContext{})

	if !strings.Contains(where, "metadata->>'category' = $3") {
		t.Errorf("expected filter clause embedded in where, got %q", where)
	}
	if next != 4 {
		t.Errorf("expected next arg index 4, got %d", next)
	}
	if len(args) != 3 || args[2] != "policy" {
		t.Errorf("expected filter value appended to args, got %v", args)
	}
}

func TestFilterToSQL_Leaf(t *testing.T) {
	clause, args, next := filterToSQL(filesearch.Filter{Op: filesearch.FilterGte, Key: "score", Value: 5}, 2)
	if clause != "metadata->>'score' >= $2" {
		t.Errorf("unexpected clause: %q", clause)
	}
	if len(args) != 1 || args[0] != "5" {
		t.Errorf("unexpected args: %v", args)
	}
	if next != 3 {
		t.Errorf("expected next=3, got %d", next)
	}
}

func TestFilterToSQL_UnknownOpIsSkipped(t *testing.T) {
	clause, args, next := filterToSQL(filesearch.Filter{Op: "bogus", Key: "x", Value: 1}, 2)
	if clause != "" || args != nil || next != 2 {
		t.Errorf("expected unknown op to be a no-op, got clause=%q args=%v next=%d", clause, args, next)
	}
}

func TestFilterToSQL_CompoundAnd(t *testing.T) {
	f := filesearch.Filter{
		Op: filesearch.FilterAnd,
		Children: []filesearch.Filter{
			{Op: filesearch.FilterEq, Key: "category", Value: "policy"},
			{Op: filesearch.FilterNe, Key: "archived", Value: true},
		},
	}
	clause, args, next := filterToSQL(f, 2)

	if !strings.HasPrefix(clause, "(") || !strings.Contains(clause, " AND ") {
		t.Errorf("expected parenthesized AND clause, got %q", clause)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %v", args)
	}
	if next != 4 {
		t.Errorf("expected next=4, got %d", next)
	}
}

func TestFilterToSQL_CompoundOr(t *testing.T) {
	f := filesearch.Filter{
		Op: filesearch.FilterOr,
		Children: []filesearch.Filter{
			{Op: filesearch.FilterEq, Key: "a", Value: "1"},
			{Op: filesearch.FilterEq, Key: "b", Value: "2"},
		},
	}
	clause, _, _ := filterToSQL(f, 5)
	if !strings.Contains(clause, " OR ") {
		t.Errorf("expected OR joiner in clause, got %q", clause)
	}
}

func TestFilterToSQL_CompoundWithAllChildrenSkippedYieldsEmpty(t *testing.T) {
	f := filesearch.Filter{
		Op: filesearch.FilterAnd,
		Children: []filesearch.Filter{
			{Op: "bogus", Key: "x", Value: 1},
		},
	}
	clause, args, next := filterToSQL(f, 3)
	if clause != "" || args != nil || next != 3 {
		t.Errorf("expected empty result when every child is skipped, got clause=%q args=%v next=%d", clause, args, next)
	}
}

func TestNew_DefaultsTableName(t *testing.T) {
	s := New(nil, "", nil)
	if s.table != "vector_store_chunks" {
		t.Errorf("expected default table name, got %q", s.table)
	}
}

func TestNew_CustomTableName(t *testing.T) {
	s := New(nil, "my_chunks", nil)
	if s.table != "my_chunks" {
		t.Errorf("expected custom table name preserved, got %q", s.table)
	}
}
