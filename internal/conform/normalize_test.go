package conform

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func companySchema() FieldSchema {
	return FieldSchema{
		{Name: "company_name", Type: FieldString},
		{Name: "industry", Type: FieldString},
		{Name: "employee_count", Type: FieldInteger},
		{Name: "is_public", Type: FieldBoolean},
	}
}

func TestNormalize_DirectParse(t *testing.T) {
	raw := `{"company_name": "Tesla Inc.", "industry": "Automotive", "employee_count": 127855, "is_public": true}`
	got := Normalize(raw, companySchema())
	want := map[string]any{
		"company_name":   "Tesla Inc.",
		"industry":       "Automotive",
		"employee_count": 127855,
		"is_public":      true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestNormalize_FieldSetInvariant(t *testing.T) {
	schema := companySchema()
	outputs := []string{
		`{"company_name": "Acme", "extra_field": "dropped"}`,
		"```json\n{\"industry\": \"SaaS\"}\n```",
		`Sure! Here is the data: {"employee_count": "250"} hope that helps`,
		`No JSON here at all, just some prose about a business.`,
		``,
	}
	for _, raw := range outputs {
		got := Normalize(raw, schema)
		if len(got) != len(schema) {
			t.Fatalf("field count = %d, want %d for input %q", len(got), len(schema), raw)
		}
		for _, f := range schema {
			if _, present := got[f.Name]; !present {
				t.Errorf("missing field %q for input %q", f.Name, raw)
			}
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	schema := companySchema()
	outputs := []string{
		`{"company_name": "Acme", "employee_count": "42", "is_public": "yes"}`,
		`Free prose mentioning Stripe and fintech payments, nothing else.`,
	}
	for _, raw := range outputs {
		first := Normalize(raw, schema)
		second := Normalize(Serialize(schema, first), schema)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("normalization not idempotent for %q:\nfirst  %#v\nsecond %#v", raw, first, second)
		}
	}
}

func TestNormalize_FencedBlock(t *testing.T) {
	raw := "Here you go:\n```json\n{\"company_name\": \"Notion\", \"is_public\": false}\n```\nAnything else?"
	got := Normalize(raw, companySchema())
	if got["company_name"] != "Notion" {
		t.Errorf("company_name = %v", got["company_name"])
	}
	if got["is_public"] != false {
		t.Errorf("is_public = %v", got["is_public"])
	}
}

func TestNormalize_BraceMatching(t *testing.T) {
	raw := `The agent replied with {"company_name": "A {weird} name", "industry": "Tech"} and then stopped.`
	got := Normalize(raw, companySchema())
	if got["company_name"] != "A {weird} name" {
		t.Errorf("company_name = %v", got["company_name"])
	}
}

func TestCoerce_Integer(t *testing.T) {
	cases := []struct {
		in   any
		want any
	}{
		{"42", 42},
		{"42.0", 42},
		{float64(7), 7},
		{7.5, nil},
		{"abc", nil},
		{nil, nil},
	}
	for _, c := range cases {
		if got := Coerce(FieldInteger, c.in); !reflect.DeepEqual(got, c.want) {
			t.Errorf("Coerce(integer, %v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestCoerce_Number(t *testing.T) {
	cases := []struct {
		in   any
		want any
	}{
		{"3.14", 3.14},
		{float64(2), 2.0},
		{"3*12", 36.0},
		{"lots", nil},
	}
	for _, c := range cases {
		if got := Coerce(FieldNumber, c.in); !reflect.DeepEqual(got, c.want) {
			t.Errorf("Coerce(number, %v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestCoerce_Boolean(t *testing.T) {
	cases := []struct {
		in   any
		want any
	}{
		{true, true},
		{false, false},
		{"YES", true},
		{"on", true},
		{"1", true},
		{"maybe", nil},
		{float64(1), nil},
	}
	for _, c := range cases {
		if got := Coerce(FieldBoolean, c.in); !reflect.DeepEqual(got, c.want) {
			t.Errorf("Coerce(boolean, %v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestCoerce_String(t *testing.T) {
	if got := Coerce(FieldString, float64(12)); got != "12" {
		t.Errorf("stringified float = %v", got)
	}
	if got := Coerce(FieldString, nil); got != nil {
		t.Errorf("nil should stay nil, got %v", got)
	}
}

func TestNormalize_TextMiningScenario(t *testing.T) {
	schema := FieldSchema{
		{Name: "company_name", Type: FieldString},
		{Name: "is_public", Type: FieldBoolean},
	}
	raw := "I could not find much about this fictional business. It seems to make widgets."
	got := Normalize(raw, schema)
	if got["company_name"] != "Unknown Company" {
		t.Errorf("company_name = %v, want Unknown Company", got["company_name"])
	}
	if got["is_public"] != nil {
		t.Errorf("is_public = %v, want nil", got["is_public"])
	}
}

func TestNormalize_TextMiningPatterns(t *testing.T) {
	schema := FieldSchema{
		{Name: "full_name", Type: FieldString},
		{Name: "email", Type: FieldString},
		{Name: "years_of_experience", Type: FieldInteger},
		{Name: "position", Type: FieldString},
	}
	raw := "Reach out to Jane Dawson (jane.dawson@example.com), a Vice President with 12 years in SaaS."
	got := Normalize(raw, schema)
	if got["full_name"] != "Jane Dawson" {
		t.Errorf("full_name = %v", got["full_name"])
	}
	if got["email"] != "jane.dawson@example.com" {
		t.Errorf("email = %v", got["email"])
	}
	if got["years_of_experience"] != 12 {
		t.Errorf("years_of_experience = %v", got["years_of_experience"])
	}
	if got["position"] != "VP of Sales" {
		t.Errorf("position = %v", got["position"])
	}
}

func TestNormalize_TextMiningCompanyTitleCase(t *testing.T) {
	schema := FieldSchema{{Name: "company_name", Type: FieldString}}
	got := Normalize("They process payments through stripe these days.", schema)
	if got["company_name"] != "Stripe" {
		t.Errorf("company_name = %v, want Stripe", got["company_name"])
	}
}

func TestNormalize_TextMiningDescriptionRuneSafe(t *testing.T) {
	schema := FieldSchema{{Name: "short_description", Type: FieldString}}
	raw := strings.Repeat("é", 200) + ". More text follows here."
	got := Normalize(raw, schema)

	desc, ok := got["short_description"].(string)
	if !ok {
		t.Fatalf("short_description = %v", got["short_description"])
	}
	if !utf8.ValidString(desc) {
		t.Fatal("truncation split a multi-byte rune")
	}
	if want := strings.Repeat("é", 150) + "..."; desc != want {
		t.Errorf("desc = %q, want %q", desc, want)
	}
}

func TestSerialize_DeclarationOrder(t *testing.T) {
	schema := FieldSchema{
		{Name: "zeta", Type: FieldString},
		{Name: "alpha", Type: FieldInteger},
	}
	got := Serialize(schema, map[string]any{"alpha": 1, "zeta": "z"})
	want := `{"zeta":"z","alpha":1}`
	if got != want {
		t.Errorf("Serialize = %s, want %s", got, want)
	}
}

func TestFirstJSONObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{`prefix {"a": 1} suffix`, `{"a": 1}`, true},
		{`{"a": {"b": 2}}`, `{"a": {"b": 2}}`, true},
		{`{"s": "bra}ce in string"}`, `{"s": "bra}ce in string"}`, true},
		{`no braces here`, "", false},
		{`unbalanced { only`, "", false},
	}
	for _, c := range cases {
		got, ok := FirstJSONObject(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("FirstJSONObject(%q) = %q, %v; want %q, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}
