package objfile_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dergolc3/lc3/internal/objfile"
)

func TestWriteReadRoundTrip(t *testing.T) {
	records := []objfile.Record{
		{Value: 0x3000, IsOrig: true, Line: ".ORIG x3000"},
		{Value: 0x12BF, Line: "ADD R1,R2,#-1"},
		{Value: 0, Line: ""},
	}

	var buf bytes.Buffer
	if err := objfile.Write(&buf, records); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := objfile.Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if len(got) != len(records) {
		t.Fatalf("got %d records, want %d", len(got), len(records))
	}
	for i, r := range records {
		if got[i] != r {
			t.Errorf("record %d: got %+v, want %+v", i, got[i], r)
		}
	}
}

func TestReadBadMagic(t *testing.T) {
	_, err := objfile.Read(strings.NewReader("XXXX\x01\x00"))
	if err == nil {
		t.Fatal("got nil error, want bad-magic error")
	}
}

func TestReadTruncated(t *testing.T) {
	var buf bytes.Buffer
	objfile.Write(&buf, []objfile.Record{{Value: 1, Line: "x"}})
	truncated := buf.Bytes()[:buf.Len()-2]
	if _, err := objfile.Read(bytes.NewReader(truncated)); err == nil {
		t.Fatal("got nil error, want truncated-record error")
	}
}

func TestConvertBinary(t *testing.T) {
	// Matches the worked example: memory[0x3000] == 0x3000 (the first
	// line's own bit pattern, written as plain data) and
	// memory[0x3001] == 0xF025, with the object loading at 0x3000.
	src := "0011000000000000\n1111000000100101\n"
	records, errs := objfile.ConvertBinary(strings.NewReader(src))
	if len(errs) != 0 {
		t.Fatalf("got errors %v", errs)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if !records[0].IsOrig || records[0].Value != 0x3000 {
		t.Fatalf("record 0: got %+v, want IsOrig value 0x3000", records[0])
	}
	if records[1].IsOrig || records[1].Value != 0x3000 {
		t.Fatalf("record 1: got %+v, want value 0x3000", records[1])
	}
	if records[2].IsOrig || records[2].Value != 0xF025 {
		t.Fatalf("record 2: got %+v, want value 0xF025", records[2])
	}
}

func TestConvertBinaryRejectsShortLine(t *testing.T) {
	_, errs := objfile.ConvertBinary(strings.NewReader("0011\n"))
	if len(errs) != 1 {
		t.Fatalf("got %d errors, want 1", len(errs))
	}
}

func TestConvertBinarySkipsCommentsAndBlankLines(t *testing.T) {
	src := "; a comment\n\n0011000000000000 ; inline comment\n"
	records, errs := objfile.ConvertBinary(strings.NewReader(src))
	if len(errs) != 0 {
		t.Fatalf("got errors %v", errs)
	}
	if len(records) != 2 || records[1].Value != 0x3000 {
		t.Fatalf("got %+v", records)
	}
}
