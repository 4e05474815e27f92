package frame

import (
	"bytes"
	"errors"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		payload []byte
	}{
		{"request", Request, []byte("GET / HTTP/1.1\r\nHost: example.invalid\r\n\r\n")},
		{"response", Response, []byte("HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello")},
		{"connect open", ConnectOpen, []byte("example.invalid:443")},
		{"connect ok empty", ConnectOK, nil},
		{"connect fail with reason", ConnectFail, []byte("dial tcp: connection refused")},
		{"data", Data, bytes.Repeat([]byte{0x42}, 16*1024)},
		{"close empty", Close, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, tt.typ, tt.payload); err != nil {
				t.Fatalf("Write: %v", err)
			}

			gotType, gotPayload, err := Read(&buf, DefaultMaxPayload)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if gotType != tt.typ {
				t.Errorf("type = %v, want %v", gotType, tt.typ)
			}
			if !bytes.Equal(gotPayload, tt.payload) {
				t.Errorf("payload = %d bytes, want %d bytes", len(gotPayload), len(tt.payload))
			}
		})
	}
}

func TestWriteHeaderLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, Request, []byte("abc")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got := buf.Bytes()
	if len(got) != HeaderSize+3 {
		t.Fatalf("len = %d, want %d", len(got), HeaderSize+3)
	}
	wantHeader := []byte{0, 0, 0, 3, byte(Request)}
	if !bytes.Equal(got[:HeaderSize], wantHeader) {
		t.Errorf("header = %v, want %v", got[:HeaderSize], wantHeader)
	}
}

func TestReadOversizeFrameRejected(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, Data, make([]byte, 100)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	_, _, err := Read(&buf, 10)
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("err = %v, want ErrFrameTooLarge", err)
	}
}

func TestReadUnknownTypeRejected(t *testing.T) {
	var header [HeaderSize]byte
	header[3] = 1 // length = 1
	header[4] = 99
	buf := bytes.NewBuffer(append(header[:], 0x00))
	_, _, err := Read(buf, DefaultMaxPayload)
	if !errors.Is(err, ErrBadType) {
		t.Fatalf("err = %v, want ErrBadType", err)
	}
}

func TestReadTruncatedHeader(t *testing.T) {
	_, _, err := Read(bytes.NewReader([]byte{0, 0, 0}), DefaultMaxPayload)
	if err == nil {
		t.Fatal("expected error for truncated header, got nil")
	}
}

func TestReadTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	_ = Write(&buf, Request, []byte("hello"))
	truncated := buf.Bytes()[:HeaderSize+2]
	_, _, err := Read(bytes.NewReader(truncated), DefaultMaxPayload)
	if err == nil {
		t.Fatal("expected error for truncated payload, got nil")
	}
}

func TestTypeString(t *testing.T) {
	if got := Request.String(); got != "REQUEST" {
		t.Errorf("Request.String() = %q", got)
	}
	if got := Type(200).String(); got == "" {
		t.Errorf("unknown type should stringify non-empty")
	}
}
