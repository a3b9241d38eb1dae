package scraper

import (
	"encoding/binary"
	"fmt"
)

// ProgramsEntry is the iterator program that walks loaded BPF programs.
const ProgramsEntry = "dump_bpf_prog"

// bpfStrMax is the size of each text field in a program record.
const bpfStrMax = 64

// programRecordSize is sizeof(struct bpf_prog_result): a u32 id followed by
// two bpfStrMax character arrays.
const programRecordSize = 4 + 2*bpfStrMax

// BPFProgram describes a BPF program loaded in the kernel.
type BPFProgram struct {
	ID uint32 `json:"id"`
	// Name is the BTF function name, or the kernel's short name when the
	// program has no BTF.
	Name string `json:"name"`
	// Attached is the function the program attaches to, if any.
	Attached string `json:"attached"`
}

// ParseBPFProgram decodes one record written by dump_bpf_prog. The record
// uses the host's byte order.
func ParseBPFProgram(b []byte) (BPFProgram, error) {
	if len(b) < programRecordSize {
		return BPFProgram{}, fmt.Errorf("record is %d bytes, want %d", len(b), programRecordSize)
	}
	return BPFProgram{
		ID:       binary.NativeEndian.Uint32(b[0:4]),
		Name:     cString(b[4 : 4+bpfStrMax]),
		Attached: cString(b[4+bpfStrMax : programRecordSize]),
	}, nil
}

// DecodeBPFPrograms decodes a dump_bpf_prog session.
var DecodeBPFPrograms = FixedRecords(programRecordSize, ParseBPFProgram)

// NewProgramScraper returns a scraper listing the BPF programs loaded in
// the kernel.
func NewProgramScraper(obj Object, opts ...Option) *Scraper[BPFProgram] {
	return New(obj, ProgramsEntry, DecodeBPFPrograms, opts...)
}
