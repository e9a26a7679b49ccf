package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/muurk/ocast/pkg/upnp"
)

// Printer writes styled command output. When plain is set (output is not a
// terminal) boxes are replaced by simple lines.
type Printer struct {
	out   io.Writer
	width int
	plain bool
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
		plain: w != os.Stdout || !IsTerminal(),
	}
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params map[string]string) {
	if p.plain {
		return
	}
	p.Println(RenderHeader(title, command, params, p.width))
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details map[string]string) {
	if p.plain {
		p.Println(SuccessMarker + " " + title)
		for _, key := range sortedKeys(details) {
			p.Println(fmt.Sprintf("  %s: %s", key, details[key]))
		}
		return
	}
	p.Println(RenderSuccessBox(title, details, p.width))
}

// PrintError prints an error result box with a troubleshooting hint
func (p *Printer) PrintError(title string, err error, hint string) {
	if p.plain {
		if err != nil {
			p.Println(fmt.Sprintf("%s %s: %v", FailureMarker, title, err))
		} else {
			p.Println(FailureMarker + " " + title)
		}
		if hint != "" {
			p.Println(hint)
		}
		return
	}
	p.Println(RenderErrorBox(title, err, hint, p.width))
}

// PrintDevice prints one receiver line prefixed by marker.
func (p *Printer) PrintDevice(marker string, d upnp.Device) {
	p.Println(RenderDeviceLine(marker, d, p.plain))
}

// RenderDeviceLine formats a receiver as "<marker> <name>  <id>  <host:port>".
func RenderDeviceLine(marker string, d upnp.Device, plain bool) string {
	name := d.FriendlyName
	detail := fmt.Sprintf("%s  %s  %s", d.ID, d.HostPort(), d.Manufacturer)
	if plain {
		return fmt.Sprintf("%s %s  %s", marker, name, detail)
	}
	return fmt.Sprintf("%s %s  %s", marker, ReceiverNameStyle.Render(name), ReceiverDetailStyle.Render(detail))
}
