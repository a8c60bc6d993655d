package msi

import "github.com/msikit/msikit/pkg/sigcheck"

// Summary exposes the opaque summary-information property set and
// class-ID/signature metadata that sit outside the core's relational
// model, per spec.md §1's "summary-information property-set parser
// stays an external collaborator" — the core only surfaces raw bytes
// and class-ID inspection.
type Summary struct {
	classID        string
	raw            []byte
	signature      []byte
	hasSignature   bool
	signatureEx    []byte
	hasSignatureEx bool
}

// ClassID returns the package's root storage class-ID (one of
// ClassIDMSI/ClassIDMSP/ClassIDMST).
func (s *Summary) ClassID() string { return s.classID }

// Raw returns the raw SummaryInformation property-set bytes,
// undecoded. Parsing the OLE property-set format is out of scope for
// the core (spec.md §1); callers needing structured metadata should
// decode this themselves or via a dedicated property-set library.
func (s *Summary) Raw() []byte { return s.raw }

// Signature returns the raw DigitalSignature stream, if present.
// msikit never verifies signatures (spec.md Non-goals); this is
// exposed purely for structural inspection.
func (s *Summary) Signature() ([]byte, bool) {
	if !s.hasSignature {
		return nil, false
	}
	return s.signature, true
}

// SignatureEx returns the raw MsiDigitalSignatureEx stream, if present.
// This supplemental per-row hash stream accompanies DigitalSignature on
// packages signed with the extended MSI signing scheme; msikit exposes
// it unparsed, same as Signature.
func (s *Summary) SignatureEx() ([]byte, bool) {
	if !s.hasSignatureEx {
		return nil, false
	}
	return s.signatureEx, true
}

// SignerSubjects extracts the certificate subject names embedded in
// the digital signature's PKCS#7 structure, without attempting to
// validate the signature itself. Returns (nil, nil) if the package
// carries no signature.
func (s *Summary) SignerSubjects() ([]string, error) {
	if !s.hasSignature {
		return nil, nil
	}
	return sigcheck.SignerSubjects(s.signature)
}
