package credcache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseOwner(t *testing.T) {
	tests := []struct {
		in      string
		want    Owner
		wantErr bool
	}{
		{"1234 /usr/bin/az", Owner{1234, "/usr/bin/az"}, false},
		{"1234 C:\\Program Files\\app.exe", Owner{1234, "C:\\Program Files\\app.exe"}, false},
		{"77", Owner{77, ""}, false},
		{"  99 tool \n", Owner{99, "tool"}, false},
		{"", Owner{}, true},
		{"abc tool", Owner{}, true},
		{"-5 tool", Owner{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOwner([]byte(tt.in))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidOwner) {
					t.Fatalf("ParseOwner(%q) error = %v, want ErrInvalidOwner", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOwner(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseOwner(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestOwnerString(t *testing.T) {
	o := Owner{PID: 42, Program: "/opt/app"}
	if got := o.String(); got != "42 /opt/app" {
		t.Errorf("String() = %q", got)
	}
	back, err := ParseOwner([]byte(o.String()))
	if err != nil || back != o {
		t.Errorf("ParseOwner(String()) = %+v, %v", back, err)
	}
}

func TestReadOwnerMissing(t *testing.T) {
	_, err := ReadOwner(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadOwner(missing) = %v, want ErrNotExist", err)
	}
	if pid := holderPID(filepath.Join(t.TempDir(), "nope")); pid != 0 {
		t.Errorf("holderPID(missing) = %d, want 0", pid)
	}
}
