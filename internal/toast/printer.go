package toast

import (
	"fmt"
	"io"
	"sync"
)

// Printer is a Notifier for non-interactive commands: each message is
// written as one "[kind] message" line.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) print(kind Kind, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "[%s] %s\n", kind, msg)
}

func (p *Printer) Success(msg string) { p.print(Success, msg) }
func (p *Printer) Warn(msg string)    { p.print(Warning, msg) }
func (p *Printer) Error(msg string)   { p.print(Error, msg) }
