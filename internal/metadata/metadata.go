// Package metadata reconstructs the signed metadata bundle for packages
// whose origin is the live package-management service. Seeded packages
// already carry their bundle and never pass through here.
//
// A bundle is the ordered, blank-line separated concatenation of signed
// fragments served by the local metadata query service:
//
//  1. the signing-key record
//  2. the publisher-account record, only when the publisher is not the
//     platform default
//  3. the declaration record
//  4. the revision record
//
// The service is trusted; this package assembles records but performs no
// signature verification.
package metadata

import (
	"context"
	"fmt"
	"strings"
)

// Kind names a signed record class served by the metadata service.
type Kind string

const (
	KindAccountKey  Kind = "account-key"
	KindAccount     Kind = "account"
	KindDeclaration Kind = "declaration"
	KindRevision    Kind = "revision"
)

// Querier resolves one signed record by (kind, identifier, revision).
// Queries are synchronous and local-only.
type Querier interface {
	Query(ctx context.Context, kind Kind, id string, revision int) (string, error)
}

// IncompleteError reports that a bundle could not be fully assembled.
// It is non-fatal for a run: the affected package is skipped and any
// half-written artifacts are removed by the pairing sweep.
type IncompleteError struct {
	Name     string
	Revision int
	Kind     Kind
	Err      error
}

func (e *IncompleteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("metadata bundle for %s_%d incomplete: %s record: %v",
			e.Name, e.Revision, e.Kind, e.Err)
	}
	return fmt.Sprintf("metadata bundle for %s_%d incomplete: empty %s record",
		e.Name, e.Revision, e.Kind)
}

func (e *IncompleteError) Unwrap() error { return e.Err }

// Synthesizer assembles metadata bundles from the local query service.
type Synthesizer struct {
	Querier Querier

	// DefaultPublisher is the platform-default publisher account ID.
	// Packages published by it omit the account fragment.
	DefaultPublisher string
}

// Bundle assembles the metadata bundle for one package revision. A
// failed or empty query is not retried; it surfaces as *IncompleteError
// and nothing is written anywhere.
func (s *Synthesizer) Bundle(ctx context.Context, name string, revision int) (string, error) {
	decl, err := s.fragment(ctx, KindDeclaration, name, revision)
	if err != nil {
		return "", &IncompleteError{Name: name, Revision: revision, Kind: KindDeclaration, Err: unwrapEmpty(err)}
	}

	keyID := headerValue(decl, "sign-key-id")
	if keyID == "" {
		return "", &IncompleteError{Name: name, Revision: revision, Kind: KindDeclaration,
			Err: fmt.Errorf("declaration record has no sign-key-id header")}
	}
	key, err := s.fragment(ctx, KindAccountKey, keyID, revision)
	if err != nil {
		return "", &IncompleteError{Name: name, Revision: revision, Kind: KindAccountKey, Err: unwrapEmpty(err)}
	}

	fragments := []string{key}

	if publisher := headerValue(decl, "publisher-id"); publisher != "" && publisher != s.DefaultPublisher {
		account, err := s.fragment(ctx, KindAccount, publisher, revision)
		if err != nil {
			return "", &IncompleteError{Name: name, Revision: revision, Kind: KindAccount, Err: unwrapEmpty(err)}
		}
		fragments = append(fragments, account)
	}

	rev, err := s.fragment(ctx, KindRevision, name, revision)
	if err != nil {
		return "", &IncompleteError{Name: name, Revision: revision, Kind: KindRevision, Err: unwrapEmpty(err)}
	}
	fragments = append(fragments, decl, rev)

	return strings.Join(fragments, "\n\n") + "\n", nil
}

var errEmptyRecord = fmt.Errorf("empty record")

func (s *Synthesizer) fragment(ctx context.Context, kind Kind, id string, revision int) (string, error) {
	rec, err := s.Querier.Query(ctx, kind, id, revision)
	if err != nil {
		return "", err
	}
	rec = strings.TrimSpace(rec)
	if rec == "" {
		return "", errEmptyRecord
	}
	return rec, nil
}

func unwrapEmpty(err error) error {
	if err == errEmptyRecord {
		return nil
	}
	return err
}

// headerValue extracts the value of a "key: value" header line from a
// structured text record.
func headerValue(record, key string) string {
	for _, line := range strings.Split(record, "\n") {
		if v, ok := strings.CutPrefix(line, key+":"); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
