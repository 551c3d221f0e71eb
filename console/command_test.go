package console

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseCommand(t *testing.T) {
	for _, tc := range []struct {
		name    string
		arg     string
		want    Command
		wantErr bool
	}{
		{
			name: "switchpanel",
			arg:  "players",
			want: Command{Kind: CmdSwitchPanel, Name: "switchpanel", Panel: Players},
		},
		{
			name:    "switchpanel",
			arg:     "attic",
			wantErr: true,
		},
		{
			name: "tpto",
			arg:  "id42",
			want: Command{Kind: CmdTeleportTo, Name: "tpto", TargetID: "id42"},
		},
		{
			name: "kickplayer",
			arg:  `"id with spaces"`,
			want: Command{Kind: CmdKick, Name: "kickplayer", TargetID: "id with spaces"},
		},
		{
			name:    "feed",
			arg:     "",
			wantErr: true,
		},
		{
			name:    "tphere",
			arg:     "one two",
			wantErr: true,
		},
		{
			name: "viewreport",
			arg:  "17",
			want: Command{Kind: CmdViewReport, Name: "viewreport", ReportID: 17},
		},
		{
			name:    "deletereport",
			arg:     "seventeen",
			wantErr: true,
		},
		{
			name: "settime",
			arg:  "18",
			want: Command{Kind: CmdSetTime, Name: "settime", Hour: 18},
		},
		{
			name:    "settime",
			arg:     "noon",
			wantErr: true,
		},
		{
			name: "close",
			arg:  "",
			want: Command{Kind: CmdClose, Name: "close"},
		},
		{
			name:    "frobnicate",
			arg:     "",
			wantErr: true,
		},
	} {
		got, err := ParseCommand(tc.name, tc.arg)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseCommand(%q, %q) expected error, got %+v", tc.name, tc.arg, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCommand(%q, %q): %v", tc.name, tc.arg, err)
			continue
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("ParseCommand(%q, %q) mismatch (-want +got):\n%s", tc.name, tc.arg, diff)
		}
	}
}

func TestCommandKindString(t *testing.T) {
	if got := CmdGodMode.String(); got != "godmode" {
		t.Errorf("CmdGodMode.String() = %q, want godmode", got)
	}
	if got := CmdUnknown.String(); got != "unknown" {
		t.Errorf("CmdUnknown.String() = %q, want unknown", got)
	}
}
