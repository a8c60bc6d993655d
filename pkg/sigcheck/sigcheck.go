// Package sigcheck performs opaque, read-only structural inspection of
// a PKCS#7 digital signature blob — never verification. It exists
// because msikit's Non-goals explicitly exclude verifying digital
// signatures (spec.md §1), while still wanting to surface "who signed
// this" the way a forensic/inventory tool would. Grounded on
// saferwall-pe's security.go, which parses the same PKCS#7 Authenticode
// structure embedded in a PE's certificate table — MSI packages embed
// an identical structure in DigitalSignature.
package sigcheck

import "go.mozilla.org/pkcs7"

// SignerSubjects parses raw as a PKCS#7 signed-data structure and
// returns the subject distinguished names of every embedded
// certificate, in the order they appear. It performs no chain building,
// no trust evaluation, and no signature verification — only structural
// parsing, same as saferwall-pe's parseSecurityDirectory extracts
// CertInfo without ever calling a Verify method.
func SignerSubjects(raw []byte) ([]string, error) {
	p7, err := pkcs7.Parse(raw)
	if err != nil {
		return nil, err
	}
	subjects := make([]string, 0, len(p7.Certificates))
	for _, cert := range p7.Certificates {
		subjects = append(subjects, cert.Subject.String())
	}
	return subjects, nil
}
