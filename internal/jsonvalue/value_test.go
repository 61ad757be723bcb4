package jsonvalue

import (
	"testing"
)

func TestParse_PreservesKeyOrder(t *testing.T) {
	v, err := ParseString(`{"zeta":1,"alpha":2,"mid":3}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"zeta", "alpha", "mid"}
	members := v.Members()
	if len(members) != len(want) {
		t.Fatalf("expected %d members, got %d", len(want), len(members))
	}
	for i, w := range want {
		if members[i].Key != w {
			t.Errorf("member[%d]: expected key %q, got %q", i, w, members[i].Key)
		}
	}
}

func TestParse_DuplicateKeyLastValueWins(t *testing.T) {
	v, err := ParseString(`{"a":1,"b":2,"a":3}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Len() != 2 {
		t.Fatalf("expected 2 members, got %d", v.Len())
	}
	got, ok := v.Get("a")
	if !ok {
		t.Fatal("expected key a")
	}
	if got.Number() != "3" {
		t.Errorf("expected a=3, got %s", got.Number())
	}
	if v.Members()[0].Key != "a" {
		t.Errorf("expected a to keep its first position, got %q", v.Members()[0].Key)
	}
}

func TestParse_NumberPrecision(t *testing.T) {
	v, err := ParseString(`[12345678901234567890123, 1.50, -0.0001e10]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"12345678901234567890123", "1.50", "-0.0001e10"}
	for i, item := range v.Items() {
		if string(item.Number()) != want[i] {
			t.Errorf("item[%d]: expected %q, got %q", i, want[i], item.Number())
		}
	}
}

func TestParse_Rejects(t *testing.T) {
	inputs := []string{
		"",
		"{",
		`{"a":1}{"b":2}`,
		`{"a":1,}`,
		`[1,2`,
		`{'a':1}`,
		"not json",
	}
	for _, in := range inputs {
		if _, err := ParseString(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestParse_Scalars(t *testing.T) {
	tests := []struct {
		in   string
		kind Kind
	}{
		{"null", Null},
		{"true", Bool},
		{"42", Number},
		{`"x"`, String},
		{"[]", Array},
		{"{}", Object},
	}
	for _, tt := range tests {
		v, err := ParseString(tt.in)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.in, err)
		}
		if v.Kind() != tt.kind {
			t.Errorf("%q: expected kind %s, got %s", tt.in, tt.kind, v.Kind())
		}
	}
}

func TestMarshalJSON_RoundTrip(t *testing.T) {
	in := `{"b":[1,true,null,"<x>"],"a":{"c":1.0}}`
	v, err := ParseString(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := v.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != in {
		t.Errorf("expected %s, got %s", in, out)
	}
}

func TestIndent_MatchesStringifyLayout(t *testing.T) {
	v, err := ParseString(`{"a":[1,2],"b":{},"c":[]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "{\n  \"a\": [\n    1,\n    2\n  ],\n  \"b\": {},\n  \"c\": []\n}"
	if got := Indent(v, "  "); got != want {
		t.Errorf("expected\n%s\ngot\n%s", want, got)
	}
}

func TestEqual(t *testing.T) {
	a, _ := ParseString(`{"x":[1,2.0,{"y":null}]}`)
	b, _ := ParseString(`{"x":[1.0,2,{"y":null}]}`)
	c, _ := ParseString(`{"x":[1,2,{"y":false}]}`)
	if !Equal(a, b) {
		t.Error("expected numerically equal documents to compare equal")
	}
	if Equal(a, c) {
		t.Error("expected different documents to compare unequal")
	}
}

func TestValue_ItemsIsACopy(t *testing.T) {
	v := ArrayValue(StringValue("a"), StringValue("b"))
	items := v.Items()
	items[0] = StringValue("changed")
	if v.Items()[0].Str() != "a" {
		t.Error("expected value to be unaffected by mutation of Items result")
	}
}
