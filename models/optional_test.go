package models

import (
	"encoding/json"
	"testing"
)

func TestOptionalAbsentNullValue(t *testing.T) {
	type payload struct {
		ParentID Optional[string] `json:"parentId"`
	}

	var absent payload
	if err := json.Unmarshal([]byte(`{}`), &absent); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if absent.ParentID.Set {
		t.Error("absent field reported as set")
	}

	var null payload
	if err := json.Unmarshal([]byte(`{"parentId": null}`), &null); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !null.ParentID.Set || null.ParentID.Valid {
		t.Errorf("null field: set=%v valid=%v, want set and not valid", null.ParentID.Set, null.ParentID.Valid)
	}
	if null.ParentID.Ptr() != nil {
		t.Error("null field yields non-nil pointer")
	}

	var set payload
	if err := json.Unmarshal([]byte(`{"parentId": "abc"}`), &set); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !set.ParentID.Set || !set.ParentID.Valid || set.ParentID.Value != "abc" {
		t.Errorf("value field = %+v", set.ParentID)
	}
	if p := set.ParentID.Ptr(); p == nil || *p != "abc" {
		t.Errorf("Ptr() = %v", p)
	}
}
