package callback

import "testing"

func TestParseRoundTrip(t *testing.T) {
	cases := []struct {
		data string
		want Command
	}{
		{Encode(RegisterRole, "admin"), Command{Verb: RegisterRole, ID: "admin"}},
		{Encode(JoinOrder, "GO-1712000000000"), Command{Verb: JoinOrder, ID: "GO-1712000000000"}},
		{Encode(TogglePaid, "GO-17", "42"), Command{Verb: TogglePaid, ID: "GO-17", Sub: "42"}},
		{Encode(SetStatus, "GO-17", "outForDelivery"), Command{Verb: SetStatus, ID: "GO-17", Sub: "outForDelivery"}},
		{Encode(AddMenuItemFor, "9"), Command{Verb: AddMenuItemFor, ID: "9"}},
	}
	for _, c := range cases {
		got, err := Parse(c.data)
		if err != nil {
			t.Errorf("Parse(%q): %v", c.data, err)
			continue
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %+v, want %+v", c.data, got, c.want)
		}
	}
}

func TestParseTrailingArgumentKeepsSeparators(t *testing.T) {
	// a sub argument may itself contain the separator; only the verb and the
	// first id are cut from the left
	got, err := Parse("setStatus_GO-17_some_odd_value")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.ID != "GO-17" || got.Sub != "some_odd_value" {
		t.Fatalf("got %+v", got)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, data := range []string{
		"",
		"joinOrder",
		"joinOrder_",
		"togglePaid_GO-17",
		"frobnicate_1",
		"back to menu",
	} {
		if cmd, err := Parse(data); err == nil {
			t.Errorf("Parse(%q): expected error, got %+v", data, cmd)
		}
	}
}
