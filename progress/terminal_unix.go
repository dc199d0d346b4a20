//go:build linux || darwin || freebsd || netbsd || openbsd

package progress

import "io"
import "os"

import "golang.org/x/sys/unix"

// terminalColumns reports the width of out when it is a terminal.
func terminalColumns(out io.Writer) (int, bool) {
	f, ok := out.(*os.File)
	if !ok {
		return 0, false
	}
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 {
		return 0, false
	}
	return int(ws.Col), true
}
