package service

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mdouchement/logger"
	"github.com/mdouchement/securevision/internal/fingerprint"
	"github.com/mdouchement/securevision/internal/model"
	"github.com/mdouchement/securevision/internal/storage"
	"github.com/mdouchement/securevision/internal/xpath"
	"github.com/opencontainers/go-digest"
)

// A Verifier checks presented images against the sidecar records of the sealed area.
type Verifier struct {
	logger  logger.Logger
	storage storage.Backend
	issuer  string
}

// NewVerifier returns a new Verifier.
func NewVerifier(log logger.Logger, storage storage.Backend, issuer string) *Verifier {
	return &Verifier{
		logger:  log.WithPrefix("[verify]"),
		storage: storage,
		issuer:  issuer,
	}
}

type record struct {
	name    string
	sidecar model.Sidecar
}

// Verify searches the sidecar records matching ref, by exact reference, then by filename,
// then by content fingerprint. The first match wins.
// It never fails, faults are reported as diagnostics of the verdict.
func (v *Verifier) Verify(ref string) model.Verdict {
	var diagnostics []string

	records, err := v.records(&diagnostics)
	if err != nil {
		return model.Verdict{
			Status: model.StatusNone,
			Errors: append(diagnostics, err.Error()),
		}
	}
	if len(records) == 0 {
		return model.Verdict{Status: model.StatusNone, Errors: diagnostics}
	}

	//

	presented := v.content(ref, &diagnostics)

	// Exact reference.
	for _, r := range records {
		if r.sidecar.Linked == ref {
			return v.decide(r, model.MatchedByURI, presented, diagnostics)
		}
	}

	// Filename, media pickers may hand over another path for the same file.
	if name := xpath.Filename(ref); name != "" {
		for _, r := range records {
			if xpath.Filename(r.sidecar.Linked) == name {
				return v.decide(r, model.MatchedByFilename, presented, diagnostics)
			}
		}
	}

	// Content fingerprint.
	for _, r := range records {
		if r.sidecar.FileHash == "" {
			continue
		}
		actual, err := presented.fingerprint(r.sidecar.FileHash)
		if err == nil && actual == r.sidecar.FileHash {
			return v.verdict(r, model.StatusValid, model.MatchedByHash, diagnostics)
		}
	}

	return model.Verdict{Status: model.StatusNone, Errors: diagnostics}
}

// decide compares the fingerprints of a record matched by reference or filename.
// A mismatch is terminal.
func (v *Verifier) decide(r record, by model.MatchedBy, presented *content, diagnostics []string) model.Verdict {
	expected := r.sidecar.FileHash

	actual, err := presented.fingerprint(expected)
	if err != nil {
		diagnostics = append(diagnostics, err.Error())
	}

	if expected != "" && actual == expected {
		return v.verdict(r, model.StatusValid, by, diagnostics)
	}

	diagnostics = append(diagnostics, fmt.Sprintf("Hash mismatch: expected %s, got %s", expected, actual))
	v.logger.Infof("%s tampered: expected %s, got %s", r.sidecar.Linked, expected, actual)
	return v.verdict(r, model.StatusTampered, by, diagnostics)
}

func (v *Verifier) verdict(r record, status model.Status, by model.MatchedBy, diagnostics []string) model.Verdict {
	manifest := r.sidecar.Manifest
	return model.Verdict{
		Status:    status,
		MatchedBy: by,
		Issuer:    v.issuer,
		LinkedURI: r.sidecar.Linked,
		Sidecar:   v.storage.URI(storage.AreaSealed, r.name),
		FileHash:  r.sidecar.FileHash,
		Errors:    diagnostics,
		Manifest:  &manifest,
	}
}

// records loads all the sidecar records of the sealed area, in scan order.
// Unreadable records are skipped.
func (v *Verifier) records(diagnostics *[]string) ([]record, error) {
	filenames, err := v.storage.Filenames(storage.AreaSealed)
	if err != nil {
		return nil, err
	}

	var records []record
	for _, name := range filenames {
		if !strings.HasSuffix(name, model.SidecarSuffix) {
			continue
		}

		sidecar, err := v.read(name)
		if err != nil {
			v.logger.Errorf("%s: %s", name, err)
			*diagnostics = append(*diagnostics, fmt.Sprintf("%s: %s", name, err))
			continue
		}

		records = append(records, record{name: name, sidecar: sidecar})
	}

	return records, nil
}

func (v *Verifier) read(name string) (model.Sidecar, error) {
	var sidecar model.Sidecar

	rc, err := v.storage.Reader(storage.AreaSealed, name)
	if err != nil {
		return sidecar, err
	}
	defer rc.Close()

	payload, err := io.ReadAll(rc)
	if err != nil {
		return sidecar, err
	}

	err = json.Unmarshal(payload, &sidecar)
	return sidecar, err
}

func (v *Verifier) content(ref string, diagnostics *[]string) *content {
	c := &content{
		ref:     ref,
		digests: map[digest.Algorithm]digest.Digest{},
	}

	payload, err := readContent(v.storage, ref)
	if err != nil {
		*diagnostics = append(*diagnostics, fmt.Sprintf("could not read %s, fingerprinting the reference: %s", ref, err))
		return c
	}

	c.payload = payload
	c.read = true
	return c
}

// content memoizes the fingerprints of the presented image per algorithm,
// so records sealed with different algorithms can be compared.
// An unread image is fingerprinted over its reference.
type content struct {
	ref     string
	payload []byte
	read    bool
	digests map[digest.Algorithm]digest.Digest
}

func (c *content) fingerprint(stored string) (string, error) {
	alg := fingerprint.AlgorithmOf(stored)
	if d, ok := c.digests[alg]; ok {
		return d.String(), nil
	}

	var d digest.Digest
	var err error
	if c.read {
		d, err = fingerprint.Of(alg, c.payload)
	} else {
		d, err = fingerprint.OfReference(alg, c.ref)
	}
	if err != nil {
		return "", err
	}

	c.digests[alg] = d
	return d.String(), nil
}
