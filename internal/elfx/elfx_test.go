package elfx

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeMinimalELF builds a headers-only ARM64 ELF with one PT_LOAD segment
// mapping the whole file at VA 0, followed by the given code bytes.
func writeMinimalELF(t *testing.T, code []byte) string {
	t.Helper()

	const ehSize = 64
	const phSize = 56
	total := ehSize + phSize + len(code)

	buf := make([]byte, total)
	copy(buf, []byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0}) // ELFCLASS64, LE, current
	le := binary.LittleEndian
	le.PutUint16(buf[16:], 3)   // e_type = ET_DYN
	le.PutUint16(buf[18:], 183) // e_machine = EM_AARCH64
	le.PutUint32(buf[20:], 1)   // e_version
	le.PutUint64(buf[32:], 64)  // e_phoff
	le.PutUint16(buf[52:], ehSize)
	le.PutUint16(buf[54:], phSize)
	le.PutUint16(buf[56:], 1) // e_phnum

	ph := buf[ehSize:]
	le.PutUint32(ph[0:], 1)               // p_type = PT_LOAD
	le.PutUint32(ph[4:], 5)               // p_flags = R+X
	le.PutUint64(ph[32:], uint64(total)) // p_filesz
	le.PutUint64(ph[40:], uint64(total)) // p_memsz
	le.PutUint64(ph[48:], 0x1000)        // p_align
	copy(buf[ehSize+phSize:], code)

	path := filepath.Join(t.TempDir(), "min.so")
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenMinimal(t *testing.T) {
	code := []byte{0x1f, 0x20, 0x03, 0xd5, 0xc0, 0x03, 0x5f, 0xd6} // NOP, RET
	path := writeMinimalELF(t, code)

	ef, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer ef.Close()

	if ef.FileSize() == 0 {
		t.Error("file size is 0")
	}

	// VA 0 maps the file start; the code lives after the headers.
	codeVA := uint64(64 + 56)
	got, err := ef.ReadBytesAtVA(codeVA, len(code))
	if err != nil {
		t.Fatalf("read at VA 0x%x: %v", codeVA, err)
	}
	for i := range code {
		if got[i] != code[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, got[i], code[i])
		}
	}
}

func TestOpenRejectsNonELF(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "notelf")
	if err := os.WriteFile(tmp, []byte("not an ELF file at all"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(tmp)
	if !errors.Is(err, ErrNotELF) {
		t.Fatalf("err = %v, want ErrNotELF", err)
	}
}

func TestVAToFileOffsetInvalid(t *testing.T) {
	path := writeMinimalELF(t, []byte{0, 0, 0, 0})
	ef, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ef.Close()

	if _, err := ef.VAToFileOffset(0xDEADBEEFDEADBEEF); !errors.Is(err, ErrNoSegment) {
		t.Fatalf("err = %v, want ErrNoSegment", err)
	}
}

func TestSymbolNotFound(t *testing.T) {
	path := writeMinimalELF(t, []byte{0, 0, 0, 0})
	ef, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ef.Close()

	if _, _, err := ef.Symbol("no_such_symbol"); !errors.Is(err, ErrNoSymbol) {
		t.Fatalf("err = %v, want ErrNoSymbol", err)
	}
}

func FuzzELFOpen(f *testing.F) {
	f.Add([]byte("\x7fELF\x02\x01\x01\x00\x00\x00\x00\x00\x00\x00\x00\x00"))
	f.Add([]byte("not an elf at all"))
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		tmp := filepath.Join(t.TempDir(), "fuzz.so")
		if err := os.WriteFile(tmp, data, 0644); err != nil {
			t.Fatal(err)
		}
		ef, err := Open(tmp)
		if err != nil {
			return // expected for most inputs
		}
		ef.FileSize()
		ef.VAToFileOffset(0)
		ef.Close()
	})
}
