package upnp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const descriptor = `<?xml version="1.0"?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
  <specVersion><major>1</major><minor>0</minor></specVersion>
  <device>
    <deviceType>urn:schemas-upnp-org:device:tvdevice:1</deviceType>
    <friendlyName>Living room stick</friendlyName>
    <manufacturer>Innopia</manufacturer>
    <modelName>cléTV</modelName>
    <UDN>uuid:abcd</UDN>
  </device>
</root>`

func TestXMLParser(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    Description
		wantErr bool
	}{
		{
			name: "complete",
			body: descriptor,
			want: Description{FriendlyName: "Living room stick", Manufacturer: "Innopia", ModelName: "cléTV", UDN: "uuid:abcd"},
		},
		{
			name:    "missing model name",
			body:    `<root><device><friendlyName>a</friendlyName><manufacturer>b</manufacturer><UDN>uuid:c</UDN></device></root>`,
			wantErr: true,
		},
		{
			name:    "no device",
			body:    `<root></root>`,
			wantErr: true,
		},
		{
			name:    "not xml",
			body:    `{"device":{}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := XMLParser{}.Parse([]byte(tt.body))
			if tt.wantErr {
				if !errors.Is(err, ErrBadContent) {
					t.Fatalf("Parse() error = %v, want ErrBadContent", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFetcher_Fetch(t *testing.T) {
	var gotDate string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDate = r.Header.Get("Date")
		w.Header().Set("Application-URL", "http://10.0.0.9/apps")
		w.Header().Set("Application-DIAL-URL", "http://10.0.0.2:8008/apps")
		w.Write([]byte(descriptor))
	}))
	defer server.Close()

	f := NewFetcher()
	f.now = func() time.Time { return time.Date(2019, 3, 4, 10, 11, 12, 0, time.UTC) }

	dev, err := f.Fetch(context.Background(), server.URL+"/dd.xml")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if gotDate != "Mon, 04 Mar 2019 10:11:12 GMT" {
		t.Errorf("Date header = %q", gotDate)
	}
	want := Device{
		Location:       server.URL + "/dd.xml",
		ID:             "abcd",
		FriendlyName:   "Living room stick",
		Manufacturer:   "Innopia",
		ModelName:      "cléTV",
		ApplicationURL: "http://10.0.0.2:8008/apps",
		IPAddress:      "10.0.0.2",
		Port:           8008,
	}
	if dev != want {
		t.Errorf("Fetch() = %+v, want %+v", dev, want)
	}
}

func TestFetcher_FetchHeaderFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		body     string
		wantID   string
		wantPort int
		wantErr  bool
	}{
		{
			name:     "application url only, default port",
			headers:  map[string]string{"Application-URL": "http://10.0.0.3/apps/"},
			body:     descriptor,
			wantID:   "abcd",
			wantPort: 80,
		},
		{
			name:     "udn without uuid prefix is kept raw",
			headers:  map[string]string{"Application-URL": "http://10.0.0.3:81/apps/"},
			body:     `<root><device><friendlyName>a</friendlyName><manufacturer>b</manufacturer><modelName>m</modelName><UDN>raw-id</UDN></device></root>`,
			wantID:   "raw-id",
			wantPort: 81,
		},
		{
			name:    "no application url",
			body:    descriptor,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			dev, err := NewFetcher().Fetch(context.Background(), server.URL)
			if tt.wantErr {
				if !errors.Is(err, ErrBadContent) {
					t.Fatalf("Fetch() error = %v, want ErrBadContent", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if dev.ID != tt.wantID || dev.Port != tt.wantPort {
				t.Errorf("Fetch() id=%q port=%d, want id=%q port=%d", dev.ID, dev.Port, tt.wantID, tt.wantPort)
			}
		})
	}
}

func TestFetcher_FetchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewFetcher().Fetch(context.Background(), server.URL)
	if !errors.Is(err, ErrBadContent) {
		t.Errorf("Fetch() error = %v, want ErrBadContent", err)
	}
}

func TestDevice_HostPort(t *testing.T) {
	d := Device{IPAddress: "10.0.0.2", Port: 8008}
	if got := d.HostPort(); got != "10.0.0.2:8008" {
		t.Errorf("HostPort() = %q", got)
	}
}
