package domain

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPendiente, StatusEnGestion, true},
		{StatusPendiente, StatusVenta, true},
		{StatusEnGestion, StatusContactado, true},
		{StatusContactado, StatusNoInteresa, true},
		{StatusVenta, StatusEnGestion, true},
		{StatusNoContesta, StatusDerivado, true},

		// Nothing moves back to Pendiente.
		{StatusEnGestion, StatusPendiente, false},
		{StatusVenta, StatusPendiente, false},

		// Terminal states are recycler-owned in both directions.
		{StatusPendiente, StatusReciclable, false},
		{StatusVenta, StatusReciclado, false},
		{StatusReciclable, StatusEnGestion, false},
		{StatusReciclado, StatusVenta, false},
		{StatusReciclable, StatusReciclado, false},
	}

	for _, tc := range tests {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestReturnsFresh(t *testing.T) {
	if !ReturnsFresh(StatusPendiente) {
		t.Error("Pendiente assignments must return their lead to the fresh pool")
	}

	for _, s := range []Status{StatusEnGestion, StatusContactado, StatusVenta, StatusNoInteresa, StatusNoContesta, StatusDerivado} {
		if ReturnsFresh(s) {
			t.Errorf("%q assignments must return their lead as reusable", s)
		}
	}
}

func TestParse(t *testing.T) {
	for _, raw := range []string{"Pendiente", "En Gestión", "Contactado", "Venta", "No Interesa", "No Contesta", "Derivado", "Reciclable", "Reciclado"} {
		s, ok := Parse(raw)
		if !ok {
			t.Errorf("Parse(%q) rejected a known status", raw)
		}
		if string(s) != raw {
			t.Errorf("Parse(%q) = %q", raw, s)
		}
	}

	if _, ok := Parse("Cerrado"); ok {
		t.Error("Parse accepted an unknown status")
	}
	if _, ok := Parse(""); ok {
		t.Error("Parse accepted an empty status")
	}
}

func TestIsTerminal(t *testing.T) {
	if !IsTerminal(StatusReciclable) || !IsTerminal(StatusReciclado) {
		t.Error("recycler statuses must be terminal")
	}
	if IsTerminal(StatusPendiente) || IsTerminal(StatusVenta) {
		t.Error("live statuses must not be terminal")
	}
}
