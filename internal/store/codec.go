package store

import (
	"encoding/json"

	"github.com/sirupsen/logrus"

	"pushchat/internal/domain"
)

// snapshotCodec turns a SessionState into the bytes a sink persists and back.
// With a passphrase the JSON is sealed; without one it is stored as-is.
type snapshotCodec struct {
	passphrase string
	scryptN    int
}

func newSnapshotCodec(passphrase string) snapshotCodec {
	n, _, _ := scryptParamsDefault()
	return snapshotCodec{passphrase: passphrase, scryptN: n}
}

func (c snapshotCodec) encode(state domain.SessionState) ([]byte, error) {
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, err
	}
	if c.passphrase == "" {
		return raw, nil
	}
	_, r, p := scryptParamsDefault()
	return seal(c.passphrase, raw, c.scryptN, r, p)
}

// decode never fails on malformed content: an unparseable snapshot is reported
// as "no prior session". Passphrase problems are errors, since continuing would
// overwrite a sealed session with a fresh one.
func (c snapshotCodec) decode(source string, b []byte) (domain.SessionState, bool, error) {
	var bl blob
	sealed := json.Unmarshal(b, &bl) == nil && !bl.empty()

	raw := b
	switch {
	case sealed && c.passphrase == "":
		return domain.SessionState{}, false, ErrPassphraseRequired
	case sealed:
		pt, err := open(c.passphrase, bl)
		if err != nil {
			return domain.SessionState{}, false, err
		}
		raw = pt
	}

	var state domain.SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "decode",
			"source":   source,
			"error":    err.Error(),
		}).Warn("Session state unreadable, starting without a prior session")
		return domain.SessionState{}, false, nil
	}
	if len(state.Users) == 0 {
		return domain.SessionState{}, false, nil
	}
	return state, true, nil
}
