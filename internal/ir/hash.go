package ir

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/text/unicode/norm"
)

// Domain prefix for content-addressed graph identity.
// Version suffix enables future algorithm migration.
const DomainGraph = "mc1/graph/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data...)
func hashWithDomain(domain string, data ...[]byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	for _, d := range data {
		h.Write(d)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// GraphID computes the content-addressed ID of a graph from its wire
// encoding and its control directory. The directory is part of the identity
// because it is not on the wire: two patches that differ only in parameter
// names encode to the same bytes but are different patches.
//
// Names are NFC-normalized so that visually identical names hash equally.
func GraphID(g *Graph, wire []byte) string {
	dir := make([]byte, 0, 16*len(g.ControlNames))
	for _, c := range g.ControlNames {
		dir = append(dir, norm.NFC.String(c.Name)...)
		dir = append(dir, 0x00)
		dir = binary.LittleEndian.AppendUint32(dir, uint32(c.Offset))
	}
	return hashWithDomain(DomainGraph, wire, []byte{0x00}, dir)
}
