package offlinesync

import "testing"

func TestParseEntityKind(t *testing.T) {
	cases := map[string]EntityKind{
		"bills":     EntityBill,
		"Bill":      EntityBill,
		"customers": EntityCustomer,
		"product":   EntityProduct,
		" payments": EntityPayment,
		"invoices":  EntityUnsupported,
		"":          EntityUnsupported,
	}
	for in, want := range cases {
		if got := ParseEntityKind(in); got != want {
			t.Fatalf("ParseEntityKind(%q) = %s, want %s", in, got, want)
		}
	}
	if EntityUnsupported.TableName() != "" {
		t.Fatalf("unsupported kind must not have a table name")
	}
}

func TestEntityKindsRoundTripTableName(t *testing.T) {
	for _, k := range EntityKinds() {
		if got := ParseEntityKind(k.TableName()); got != k {
			t.Fatalf("%v: TableName %q parsed back as %v", k, k.TableName(), got)
		}
	}
}
