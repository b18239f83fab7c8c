// Owner records written into a held lock file.
//
// The record is "<pid> <program>" with no trailing newline. It exists for
// people and tools inspecting a stuck lock; the lock itself never reads it
// back to make a decision.
package credcache

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Owner identifies the process that last held a lock file.
type Owner struct {
	PID     int
	Program string
}

func (o Owner) String() string {
	return fmt.Sprintf("%d %s", o.PID, o.Program)
}

// ParseOwner decodes an owner record. The program part may contain spaces.
func ParseOwner(data []byte) (Owner, error) {
	s := strings.TrimSpace(string(data))
	if s == "" {
		return Owner{}, ErrInvalidOwner
	}
	pidStr, program, _ := strings.Cut(s, " ")
	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid <= 0 {
		return Owner{}, fmt.Errorf("%w: %q", ErrInvalidOwner, pidStr)
	}
	return Owner{PID: pid, Program: program}, nil
}

// ReadOwner reads the owner record from a lock file. On Windows the read
// fails while another process holds the lock.
func ReadOwner(path string) (Owner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Owner{}, err
	}
	return ParseOwner(data)
}

// holderPID is ReadOwner reduced to a log value; 0 means unknown.
func holderPID(path string) int {
	o, err := ReadOwner(path)
	if err != nil {
		return 0
	}
	return o.PID
}
