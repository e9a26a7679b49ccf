package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/muurk/ocast/pkg/upnp"
)

func TestPlainPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintHeader("Scan", "ocast scan", map[string]string{"Timeout": "5s"})
	p.PrintSuccess("Application started", map[string]string{"b": "2", "a": "1"})
	p.PrintError("Connection failed", errors.New("refused"), "Check the receiver:\n- is it on?")
	p.PrintDevice(AddedMarker, upnp.Device{ID: "id-1", FriendlyName: "TV", Manufacturer: "Innopia", IPAddress: "10.0.0.2", Port: 8008})

	out := buf.String()
	if strings.Contains(out, "ocast scan") {
		t.Error("plain output should not contain the header")
	}
	if strings.Index(out, "a: 1") > strings.Index(out, "b: 2") {
		t.Error("details are not sorted")
	}
	for _, want := range []string{"Application started", "Connection failed: refused", "- is it on?", "+ TV  id-1  10.0.0.2:8008  Innopia"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderBoxes(t *testing.T) {
	header := RenderHeader("app start", "ocast app start", map[string]string{"Device": "TV"}, 80)
	if !strings.Contains(header, "APP START") || !strings.Contains(header, "Device:") {
		t.Errorf("unexpected header:\n%s", header)
	}

	box := RenderErrorBox("Start failed", errors.New("timeout"), "Next steps:\n- retry", 80)
	for _, want := range []string{"FAILED", "timeout", "retry"} {
		if !strings.Contains(box, want) {
			t.Errorf("error box missing %q", want)
		}
	}
}
