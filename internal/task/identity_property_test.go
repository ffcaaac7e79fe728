package task

import (
	"testing"

	"pgregory.net/rapid"
)

func genParams(t *rapid.T, label string) Params {
	names := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z_]{1,8}`), 0, 4, rapid.ID[string]).Draw(t, label+"_names")
	params := make(Params, len(names))
	for i, name := range names {
		params[i] = Param{Name: name, Value: rapid.String().Draw(t, label+"_"+name)}
	}
	return params
}

func TestProperty_IdentityIsDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		kind := rapid.StringMatching(`[A-Z][a-zA-Z]{0,12}`).Draw(t, "kind")
		params := genParams(t, "params")

		a := IdentityOf(&stubTask{kind: kind, params: params})
		b := IdentityOf(&stubTask{kind: kind, params: append(Params(nil), params...)})
		if a != b {
			t.Fatalf("identity changed between equal tasks: %v != %v", a, b)
		}
		if len(a.ID) != 32 {
			t.Fatalf("unexpected ID length %d", len(a.ID))
		}
	})
}

func TestProperty_DifferentValuesGiveDifferentIDs(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		params := genParams(t, "params")
		if len(params) == 0 {
			t.Skip("no parameter to change")
		}
		i := rapid.IntRange(0, len(params)-1).Draw(t, "index")
		changed := append(Params(nil), params...)
		changed[i].Value = rapid.String().Filter(func(v string) bool { return v != params[i].Value }).Draw(t, "value")

		a := IdentityOf(&stubTask{kind: "Fake", params: params})
		b := IdentityOf(&stubTask{kind: "Fake", params: changed})
		if a.ID == b.ID {
			t.Fatalf("%s and %s share ID %s", a, b, a.ID)
		}
	})
}
