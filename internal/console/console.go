// Package console adapts the host terminal to package iface: raw-mode
// stdin for the keyboard device and colored stdout for the display and
// diagnostic output.
package console

import (
	"bufio"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/dergolc3/lc3/internal/iface"
)

// ansiColor maps an iface.Color to its terminal escape sequence.
var ansiColor = map[iface.Color]string{
	iface.ColorDefault: "\033[0m",
	iface.ColorRed:     "\033[31m",
	iface.ColorYellow:  "\033[33m",
	iface.ColorGreen:   "\033[32m",
	iface.ColorBlue:    "\033[34m",
}

// Terminal is a Printer writing to a buffered stdout.
type Terminal struct {
	w *bufio.Writer
}

func NewTerminal() *Terminal {
	return &Terminal{w: bufio.NewWriter(os.Stdout)}
}

func (t *Terminal) SetColor(c iface.Color) {
	fmt.Fprint(t.w, ansiColor[c])
}

func (t *Terminal) Print(text string) {
	fmt.Fprint(t.w, text)
	t.w.Flush()
}

func (t *Terminal) Newline() {
	t.Print("\n")
}

// Keyboard is an Inputter reading raw bytes from stdin, non-blocking once
// the terminal has been put in raw mode via Enter.
type Keyboard struct {
	r *bufio.Reader
}

func NewKeyboard() *Keyboard {
	return &Keyboard{r: bufio.NewReader(os.Stdin)}
}

func (k *Keyboard) BeginInput() { Enter() }
func (k *Keyboard) EndInput()   { Exit() }

func (k *Keyboard) GetChar() (byte, bool) {
	if k.r.Buffered() == 0 {
		return 0, false
	}
	b, err := k.r.ReadByte()
	if err != nil {
		return 0, false
	}
	return b, true
}

func (k *Keyboard) HasRemaining() bool {
	return k.r.Buffered() > 0
}

// TCGETS/TCSETS are the Linux termios ioctls; the teacher's own
// enterRawTerm/exitRawTerm use the BSD/Darwin TIOCGETA/TIOCSETA pair
// instead, which golang.org/x/sys/unix does not define on linux.
const (
	ioctlGet = unix.TCGETS
	ioctlSet = unix.TCSETS
)

var saved unix.Termios

// Enter puts stdin into a raw, non-canonical, non-echoing mode with
// VMIN=0/VTIME=0 so reads never block waiting for a full line, matching
// how a keyboard device polls for at most one pending character per
// tick.
func Enter() {
	termios, err := unix.IoctlGetTermios(int(os.Stdin.Fd()), ioctlGet)
	if err != nil {
		panic(err)
	}

	saved = *termios
	raw := *termios

	raw.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.INLCR
	raw.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN
	raw.Cflag &^= unix.CSIZE | unix.PARENB
	raw.Cflag |= unix.CS8

	raw.Cc[unix.VMIN] = 0
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(int(os.Stdin.Fd()), ioctlSet, &raw); err != nil {
		panic(err)
	}
}

// Exit restores the terminal mode Enter saved.
func Exit() {
	if err := unix.IoctlSetTermios(int(os.Stdin.Fd()), ioctlSet, &saved); err != nil {
		panic(err)
	}
}
