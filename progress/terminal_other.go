//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package progress

import "io"

func terminalColumns(out io.Writer) (int, bool) {
	return 0, false
}
