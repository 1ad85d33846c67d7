// Package container implements the hierarchical RIFF/RF64 chunk I/O
// of the CNT file format (C6): nested chunks each made of a 4-byte
// ASCII identifier, a 4- or 8-byte size field, an optional 4-byte
// list label, and a payload padded to even length. It provides a
// Writer with deferred size patching and a Reader that can both parse
// a well-formed chunk tree and, for damaged reflib-32-bit files, fall
// back to an identifier scan.
package container

// ID is a 4-byte chunk identifier or list label.
type ID [4]byte

func newID(s string) ID {
	var id ID
	copy(id[:], s)
	return id
}

var (
	// RootRIFF is the 32-bit size-field root identifier.
	RootRIFF = newID("RIFF")
	// RootRF64 is the 64-bit size-field root identifier.
	RootRF64 = newID("RF64")
	// ListID is the generic container-chunk identifier; a following
	// 4-byte label names the list's content, e.g. "raw3".
	ListID = newID("LIST")

	// LabelCNT is the root list's label.
	LabelCNT = newID("CNT ")
	// LabelRaw3 is the label of the LIST chunk holding ep/chan/data.
	LabelRaw3 = newID("raw3")

	// IDEeph is the ASCII header chunk.
	IDEeph = newID("eeph")
	// IDInfo is the ASCII subject/info chunk.
	IDInfo = newID("info")
	// IDEvt is the optional trigger chunk.
	IDEvt = newID("evt ")
	// IDEp is the epoch offset table, inside the raw3 list.
	IDEp = newID("ep  ")
	// IDChan is the channel permutation table, inside the raw3 list.
	IDChan = newID("chan")
	// IDData is the concatenated compressed epochs, inside the raw3 list.
	IDData = newID("data")
)

// Reserved holds every chunk identifier a user-embedded chunk must
// not use (spec.md §4.6).
var Reserved = map[ID]bool{
	newID("eeph"): true,
	newID("info"): true,
	newID("evt "): true,
	newID("raw3"): true,
	newID("rawf"): true,
	newID("stdd"): true,
	newID("tfh "): true,
	newID("tfd "): true,
	newID("refh"): true,
	newID("imp "): true,
	newID("nsh "): true,
	newID("vish"): true,
	newID("egih"): true,
	newID("egig"): true,
	newID("egiz"): true,
	newID("binh"): true,
	newID("xevt"): true,
	newID("xseg"): true,
	newID("xsen"): true,
	newID("xtrg"): true,
}

// String returns the identifier as a string, trailing NULs included.
func (id ID) String() string { return string(id[:]) }
