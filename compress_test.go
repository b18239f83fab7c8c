package credcache

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"simple text", []byte("hello world")},
		{"single byte", []byte{0x42}},
		{"binary data", []byte{0x00, 0x01, 0xff, 0xfe, 0x80, 0x7f}},
		{"unicode", []byte("日本語テキスト")},
		{"json", []byte(`{"version":1,"entries":{}}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := decompress(compress(tt.data))
			if err != nil {
				t.Fatalf("decompress: %v", err)
			}
			if !bytes.Equal(decoded, tt.data) {
				t.Errorf("round trip failed: got %v, want %v", decoded, tt.data)
			}
		})
	}
}

func TestCompressEmpty(t *testing.T) {
	if result := compress([]byte{}); result != nil {
		t.Errorf("compress(empty) = %v, want nil", result)
	}
}

// TestDecompressPassthrough reads content written before compression was
// enabled: anything without the zstd magic comes back untouched.
func TestDecompressPassthrough(t *testing.T) {
	plain := []byte(`{"version":1}`)
	out, err := decompress(plain)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(out, plain) {
		t.Errorf("decompress(plain) = %q, want %q", out, plain)
	}
}

func TestDecompressCorrupt(t *testing.T) {
	bad := append(append([]byte{}, zstdMagic...), 0xde, 0xad, 0xbe, 0xef)
	if _, err := decompress(bad); !errors.Is(err, ErrDecompress) {
		t.Errorf("decompress(corrupt) = %v, want ErrDecompress", err)
	}
}

func TestCompressReducesSize(t *testing.T) {
	data := bytes.Repeat([]byte(`{"kind":"access_token","secret":"abc"}`), 1000)
	if got := len(compress(data)); got >= len(data)/10 {
		t.Errorf("compressed size %d, want well under %d", got, len(data)/10)
	}
}

func TestCompressedPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.bin")
	file := NewFilePersistence(path)
	p := NewCompressedPersistence(file)

	doc := bytes.Repeat([]byte("token "), 500)
	if err := p.Save(doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := file.Load()
	if err != nil {
		t.Fatalf("raw Load: %v", err)
	}
	if !bytes.HasPrefix(raw, zstdMagic) {
		t.Error("stored content is not zstd")
	}

	got, err := p.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(got, doc) {
		t.Error("round trip mismatch")
	}
	if p.Location() != path {
		t.Errorf("Location() = %q, want %q", p.Location(), path)
	}
}
