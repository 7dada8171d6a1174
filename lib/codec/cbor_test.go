// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
)

// sampleBody mirrors the shape of persisted record bodies: integer
// keys, a nested array, and mixed scalar types.
type sampleBody struct {
	Name     string      `cbor:"1,keyasint"`
	Size     uint64      `cbor:"2,keyasint"`
	Entries  [][2]string `cbor:"3,keyasint,omitempty"`
	Enabled  bool        `cbor:"4,keyasint"`
	Duration int64       `cbor:"5,keyasint"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleBody{
		Name:     "src/main.cc",
		Size:     1 << 20,
		Entries:  [][2]string{{"a/b.h", "10"}, {"c/d.h", "20"}},
		Enabled:  true,
		Duration: -5,
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleBody
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded.Name != original.Name || decoded.Size != original.Size ||
		decoded.Enabled != original.Enabled || decoded.Duration != original.Duration {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
	if len(decoded.Entries) != 2 || decoded.Entries[1] != original.Entries[1] {
		t.Errorf("entries mismatch: got %v, want %v", decoded.Entries, original.Entries)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	value := map[string]int{"zeta": 1, "alpha": 2, "mid": 3}

	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(value)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("deterministic encoding violated: %x != %x", first, again)
		}
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	type newer struct {
		Name  string `cbor:"1,keyasint"`
		Extra string `cbor:"99,keyasint"`
	}
	type older struct {
		Name string `cbor:"1,keyasint"`
	}

	data, err := Marshal(newer{Name: "x.cc", Extra: "added later"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded older
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Name != "x.cc" {
		t.Errorf("Name = %q, want x.cc", decoded.Name)
	}
}

func TestUnmarshalRejectsDuplicateKeys(t *testing.T) {
	// {1: "a", 1: "b"} hand-encoded: map(2), uint 1, text "a", uint 1, text "b".
	data := []byte{0xA2, 0x01, 0x61, 'a', 0x01, 0x61, 'b'}

	var decoded struct {
		Name string `cbor:"1,keyasint"`
	}
	if err := Unmarshal(data, &decoded); err == nil {
		t.Error("Unmarshal should reject duplicate map keys")
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var decoded sampleBody
	if err := Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &decoded); err == nil {
		t.Error("Unmarshal should reject invalid CBOR")
	}
}

func TestWellformed(t *testing.T) {
	data, err := Marshal(sampleBody{Name: "ok"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := Wellformed(data); err != nil {
		t.Errorf("Wellformed(valid) = %v", err)
	}
	if err := Wellformed(data[:len(data)-1]); err == nil {
		t.Error("Wellformed should reject truncated data")
	}
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal(sampleBody{Name: "main.cc", Size: 42})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	notation, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(notation, `"main.cc"`) {
		t.Errorf("notation %q does not contain \"main.cc\"", notation)
	}
	if !strings.Contains(notation, "42") {
		t.Errorf("notation %q does not contain 42", notation)
	}
}

func BenchmarkMarshal(b *testing.B) {
	body := sampleBody{Name: "src/main.cc", Size: 123456, Enabled: true}

	b.ReportAllocs()
	for b.Loop() {
		Marshal(body)
	}
}
