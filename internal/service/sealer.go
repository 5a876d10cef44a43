package service

import (
	"encoding/json"
	"io"

	"github.com/gofrs/uuid"
	"github.com/mdouchement/logger"
	"github.com/mdouchement/securevision/internal/fingerprint"
	"github.com/mdouchement/securevision/internal/model"
	"github.com/mdouchement/securevision/internal/storage"
	"github.com/mdouchement/securevision/internal/xpath"
	"github.com/pkg/errors"
)

// A SealResult describes a sealed image.
type SealResult struct {
	ID           string         `json:"id"`
	URI          string         `json:"uri"`
	Manifest     model.Manifest `json:"manifest"`
	Verification model.Verdict  `json:"verification"`
	Hash         string         `json:"hash"`
}

// A Sealer copies images into the sealed area and writes their sidecar records.
type Sealer struct {
	logger        logger.Logger
	storage       storage.Backend
	fingerprinter *fingerprint.Fingerprinter
	issuer        string
}

// NewSealer returns a new Sealer.
func NewSealer(log logger.Logger, storage storage.Backend, f *fingerprint.Fingerprinter, issuer string) *Sealer {
	return &Sealer{
		logger:        log.WithPrefix("[seal]"),
		storage:       storage,
		fingerprinter: f,
		issuer:        issuer,
	}
}

// Seal durably associates the source image with the manifest.
//
// When the source cannot be copied, the sidecar references the source itself.
// Only failures to create the sealed area or to write the sidecar are returned.
func (s *Sealer) Seal(source string, manifest model.Manifest) (*SealResult, error) {
	id := uuid.Must(uuid.NewV4()).String()

	if err := s.storage.Init(storage.AreaSealed); err != nil {
		return nil, errors.Wrap(err, "seal")
	}

	//

	object := id + "." + xpath.Extension(source)
	linked := s.storage.URI(storage.AreaSealed, object)

	hash, err := s.copy(source, object)
	if err != nil {
		s.logger.Infof("%s: could not copy %s, sealing the original: %s", id, source, err)
		s.storage.Remove(storage.AreaSealed, object) // partial copy

		linked = source
		object = ""

		payload, rerr := readContent(s.storage, source)
		if rerr != nil {
			s.logger.Infof("%s: fingerprinting the reference: %s", id, rerr)
			hash = s.fingerprinter.FromReference(source).String()
		} else {
			hash = s.fingerprinter.FromBytes(payload).String()
		}
	}

	//

	sidecar := model.SidecarName(id)
	err = s.writeSidecar(sidecar, model.Sidecar{
		Manifest: manifest,
		Linked:   linked,
		FileHash: hash,
	})
	if err != nil {
		if object != "" {
			s.storage.Remove(storage.AreaSealed, object)
		}
		return nil, errors.Wrap(err, "seal")
	}

	s.logger.Infof("%s: sealed %s (%s)", id, linked, hash)

	return &SealResult{
		ID:       id,
		URI:      linked,
		Manifest: manifest,
		Verification: model.Verdict{
			Status:    model.StatusValid,
			MatchedBy: model.MatchedByURI,
			Issuer:    s.issuer,
			LinkedURI: linked,
			Sidecar:   s.storage.URI(storage.AreaSealed, sidecar),
			FileHash:  hash,
		},
		Hash: hash,
	}, nil
}

// copy copies the source into the sealed area and returns the fingerprint of the written bytes.
// Sources owned by the backend are copied by the backend itself, then read back.
func (s *Sealer) copy(source, object string) (string, error) {
	if area, name, ok := s.storage.Resolve(source); ok {
		if err := s.storage.Copy(area, name, storage.AreaSealed, object); err != nil {
			return "", err
		}

		r, err := s.storage.Reader(storage.AreaSealed, object)
		if err != nil {
			return "", err
		}
		defer r.Close()

		d, err := s.fingerprinter.FromReader(r)
		return d.String(), err
	}

	//

	r, err := Open(s.storage, source)
	if err != nil {
		return "", err
	}
	defer r.Close()

	wc, err := s.storage.Writer(storage.AreaSealed, object)
	if err != nil {
		return "", err
	}

	d := s.fingerprinter.Digester()
	w := io.MultiWriter(d.Hash(), wc)

	if _, err = io.Copy(w, r); err != nil {
		wc.Close()
		return "", errors.Wrap(err, "copy")
	}

	if err = wc.Close(); err != nil {
		return "", errors.Wrap(err, "copy")
	}

	return d.Digest().String(), nil
}

func (s *Sealer) writeSidecar(object string, sidecar model.Sidecar) error {
	payload, err := json.Marshal(sidecar)
	if err != nil {
		return errors.Wrap(err, "could not encode sidecar")
	}

	wc, err := s.storage.Writer(storage.AreaSealed, object)
	if err != nil {
		return errors.Wrap(err, "could not write sidecar")
	}

	if _, err = wc.Write(payload); err != nil {
		wc.Close()
		s.storage.Remove(storage.AreaSealed, object)
		return errors.Wrap(err, "could not write sidecar")
	}

	if err = wc.Close(); err != nil {
		s.storage.Remove(storage.AreaSealed, object)
		return errors.Wrap(err, "could not write sidecar")
	}
	return nil
}
